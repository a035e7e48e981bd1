// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	TREFLE_HOST="0.0.0.0"
//	TREFLE_PORT="8080"
//	TREFLE_HEALTH_PORT="9090"
//	TREFLE_READ_TIMEOUT="15s"
//	TREFLE_WRITE_TIMEOUT="15s"
//
// Database settings:
//
//	TREFLE_POSTGRES_URL="postgres://localhost/trefle"
//	TREFLE_POSTGRES_MAX_CONNS="25"
//
// Identity provider settings:
//
//	TREFLE_IDP_BASE_URL="https://idp.example.org/admin"
//	TREFLE_IDP_TOKEN_URL="https://idp.example.org/oauth/token"
//	TREFLE_IDP_CLIENT_ID="trefle"
//	TREFLE_IDP_CLIENT_SECRET="..."
//
// Rate limiting settings:
//
//	TREFLE_REDIS_URL="redis://localhost:6379"
//
// Mail settings:
//
//	TREFLE_SMTP_HOST="smtp.example.org"
//	TREFLE_SMTP_PORT="587"
//	TREFLE_SMTP_FROM="bienvenue@trefle.example"
//
// Role catalog:
//
//	TREFLE_ROLES_FILE="/etc/trefle/roles.yaml"  # optional override
//
// # Usage
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// LoadConfig validates the result; an incomplete identity provider section or
// a missing database URL fails startup rather than failing the first request.
package config
