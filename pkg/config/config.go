package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/trefle-asso/trefle/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Redis configuration (rate limiting)
	Redis RedisConfig

	// Identity provider admin API
	IdentityProvider IdentityProviderConfig

	// SMTP configuration for welcome mail
	SMTP SMTPConfig

	// Roles configuration
	Roles RolesConfig

	// Audit logging
	Audit AuditConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
	Timeout  time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	Password string
	DB       int
	PoolSize int
}

// IdentityProviderConfig holds the identity provider admin API settings
type IdentityProviderConfig struct {
	BaseURL        string
	TokenURL       string
	ClientID       string
	ClientSecret   string
	RequestTimeout time.Duration
	CacheSize      int
}

// SMTPConfig holds welcome mail delivery settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// RolesConfig holds the role catalog settings
type RolesConfig struct {
	// File overrides the built-in role catalog when set
	File string
}

// AuditConfig holds audit trail settings
type AuditConfig struct {
	Enabled  bool
	Path     string
	MaxSize  int64
	MaxFiles int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:           loadServerConfig(),
		Database:         loadDatabaseConfig(),
		Redis:            loadRedisConfig(),
		IdentityProvider: loadIdentityProviderConfig(),
		SMTP:             loadSMTPConfig(),
		Roles:            RolesConfig{File: getEnv("TREFLE_ROLES_FILE", "")},
		Audit:            loadAuditConfig(),
		Observability:    loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("TREFLE_HOST", "0.0.0.0"),
		Port:            getEnv("TREFLE_PORT", "8080"),
		ReadTimeout:     getEnvDuration("TREFLE_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("TREFLE_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("TREFLE_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("TREFLE_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("TREFLE_HEALTH_PORT", "9090"),
	}
}

// loadDatabaseConfig loads PostgreSQL configuration from environment
func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:      getEnv("TREFLE_POSTGRES_URL", ""),
		MaxConns: getEnvInt("TREFLE_POSTGRES_MAX_CONNS", 25),
		MinConns: getEnvInt("TREFLE_POSTGRES_MIN_CONNS", 5),
		Timeout:  getEnvDuration("TREFLE_POSTGRES_TIMEOUT", 30*time.Second),
	}
}

// loadRedisConfig loads Redis configuration from environment
func loadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:      getEnv("TREFLE_REDIS_URL", ""),
		Password: getEnv("TREFLE_REDIS_PASSWORD", ""),
		DB:       getEnvInt("TREFLE_REDIS_DB", 0),
		PoolSize: getEnvInt("TREFLE_REDIS_POOL_SIZE", 10),
	}
}

// loadIdentityProviderConfig loads the identity provider settings from environment
func loadIdentityProviderConfig() IdentityProviderConfig {
	return IdentityProviderConfig{
		BaseURL:        getEnv("TREFLE_IDP_BASE_URL", ""),
		TokenURL:       getEnv("TREFLE_IDP_TOKEN_URL", ""),
		ClientID:       getEnv("TREFLE_IDP_CLIENT_ID", ""),
		ClientSecret:   getEnv("TREFLE_IDP_CLIENT_SECRET", ""),
		RequestTimeout: getEnvDuration("TREFLE_IDP_TIMEOUT", 10*time.Second),
		CacheSize:      getEnvInt("TREFLE_IDP_CACHE_SIZE", 1024),
	}
}

// loadSMTPConfig loads SMTP configuration from environment
func loadSMTPConfig() SMTPConfig {
	return SMTPConfig{
		Host:     getEnv("TREFLE_SMTP_HOST", ""),
		Port:     getEnvInt("TREFLE_SMTP_PORT", 587),
		Username: getEnv("TREFLE_SMTP_USERNAME", ""),
		Password: getEnv("TREFLE_SMTP_PASSWORD", ""),
		From:     getEnv("TREFLE_SMTP_FROM", "bienvenue@trefle.example"),
		FromName: getEnv("TREFLE_SMTP_FROM_NAME", "Trèfle"),
	}
}

// loadAuditConfig loads audit trail configuration from environment
func loadAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled:  getEnvBool("TREFLE_AUDIT_ENABLED", true),
		Path:     getEnv("TREFLE_AUDIT_PATH", "/var/log/trefle/audit"),
		MaxSize:  getEnvInt64("TREFLE_AUDIT_MAX_SIZE", 100*1024*1024),
		MaxFiles: getEnvInt("TREFLE_AUDIT_MAX_FILES", 10),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           parseLogLevel(getEnv("TREFLE_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("TREFLE_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("TREFLE_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("TREFLE_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("TREFLE_OTEL_SERVICE_NAME", "trefle-server"),
		OTelServiceVersion: getEnv("TREFLE_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("TREFLE_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	// The identity provider is the system of record for accounts; all four
	// client-credentials settings must be present together.
	if c.IdentityProvider.BaseURL == "" {
		return fmt.Errorf("identity provider base URL is required")
	}
	if c.IdentityProvider.TokenURL == "" || c.IdentityProvider.ClientID == "" || c.IdentityProvider.ClientSecret == "" {
		return fmt.Errorf("identity provider token URL, client id, and client secret are required")
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
