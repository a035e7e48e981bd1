// Package middleware provides HTTP middleware for actor extraction and rate limiting.
//
// # Overview
//
// This package implements request processing middleware. The API gateway in
// front of this service authenticates callers and forwards their identity in
// headers; the middleware here turns those headers into a typed actor and
// throttles expensive endpoints.
//
// # Middleware Components
//
// ActorMiddleware: gateway identity extraction
//
//	router.Use(middleware.ActorMiddleware)
//	// Reads X-Actor-Id / X-Actor-Role into the request context
//
// RequireActor: rejects anonymous requests with 401
//
//	adminRouter.Use(middleware.RequireActor)
//
// RateLimitMiddleware: in-memory rate limiting (single instance)
//
//	rl := middleware.NewRateLimitMiddleware(middleware.InviteRateLimitConfig(), middleware.DefaultRateLimitConfig())
//	inviteRouter.Use(rl.Handler)
//
// DistributedRateLimitMiddleware: Redis-backed rate limiting (multi instance)
//
//	rl := middleware.NewDistributedRateLimitMiddleware(redisClient, actorCfg, anonCfg)
//	inviteRouter.Use(rl.Handler)
//
// # Rate Limiting
//
// Anonymous (per IP): 60 req/min, 10 burst
// Invitations (per actor): 30 req/min, 5 burst
// Application submission (per IP): 10 req/min, 3 burst
//
// Redis failures fail open by default so a cache outage never takes the
// admin surface down with it.
//
// # Related Packages
//
//   - pkg/accounts: Actor type and authorization
//   - pkg/httputil: Error responses
package middleware
