package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/trefle-asso/trefle/pkg/accounts"
	"github.com/trefle-asso/trefle/pkg/authz"
	"github.com/trefle-asso/trefle/pkg/httputil"
	"github.com/trefle-asso/trefle/pkg/membership"
	"github.com/trefle-asso/trefle/pkg/middleware"
	"github.com/trefle-asso/trefle/pkg/observability"
	"github.com/trefle-asso/trefle/pkg/provisioning"
)

// Server exposes the administration API. Authentication happens at the
// gateway; every request arrives with the actor headers already verified,
// so handlers only decide authorization.
type Server struct {
	router  *mux.Router
	handler http.Handler

	engine      *authz.Engine
	accounts    *accounts.Service
	provisioner *provisioning.Service
	bulk        *provisioning.Bulk
	workflow    *membership.Workflow

	metrics  *observability.Metrics
	registry *prometheus.Registry
	health   *observability.HealthChecker

	// rateLimit wraps the invitation and application endpoints. Optional;
	// nil disables rate limiting (tests, single-user deployments).
	rateLimit *middleware.DistributedRateLimitMiddleware
}

// Config collects the server's collaborators.
type Config struct {
	Engine      *authz.Engine
	Accounts    *accounts.Service
	Provisioner *provisioning.Service
	Bulk        *provisioning.Bulk
	Workflow    *membership.Workflow

	Metrics  *observability.Metrics
	Registry *prometheus.Registry
	Health   *observability.HealthChecker

	RateLimit *middleware.DistributedRateLimitMiddleware
}

// NewServer creates the API server and wires its routes.
func NewServer(cfg Config) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		engine:      cfg.Engine,
		accounts:    cfg.Accounts,
		provisioner: cfg.Provisioner,
		bulk:        cfg.Bulk,
		workflow:    cfg.Workflow,
		metrics:     cfg.Metrics,
		registry:    cfg.Registry,
		health:      cfg.Health,
		rateLimit:   cfg.RateLimit,
	}
	s.setupRoutes()
	s.handler = s.buildHandler()
	return s
}

func (s *Server) setupRoutes() {
	// Authorization probe
	s.router.HandleFunc("/api/v1/authz/check", s.checkAuthorization).Methods("POST")

	// Account administration
	s.router.Handle("/api/v1/accounts/{id}/role",
		middleware.RequireActor(http.HandlerFunc(s.assignRole))).Methods("POST")
	s.router.Handle("/api/v1/accounts/{id}",
		middleware.RequireActor(http.HandlerFunc(s.deleteAccount))).Methods("DELETE")

	// Membership applications
	s.router.Handle("/api/v1/applications",
		s.limited(http.HandlerFunc(s.submitApplication))).Methods("POST")
	s.router.Handle("/api/v1/applications/{id}/review",
		middleware.RequireActor(http.HandlerFunc(s.reviewApplication))).Methods("POST")

	// Invitations
	s.router.Handle("/api/v1/invitations",
		middleware.RequireActor(s.limited(http.HandlerFunc(s.invite)))).Methods("POST")
	s.router.Handle("/api/v1/invitations/bulk",
		middleware.RequireActor(s.limited(http.HandlerFunc(s.bulkInvite)))).Methods("POST")

	// Role listing for admin UIs
	s.router.HandleFunc("/api/v1/roles", s.listRoles).Methods("GET")

	if s.health != nil {
		s.router.HandleFunc("/health", s.health.Readiness).Methods("GET")
		s.router.HandleFunc("/health/live", s.health.Liveness).Methods("GET")
		s.router.HandleFunc("/health/ready", s.health.Readiness).Methods("GET")
	}

	if s.registry != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods("GET")
	}
}

func (s *Server) limited(next http.Handler) http.Handler {
	if s.rateLimit == nil {
		return next
	}
	return s.rateLimit.Handler(next)
}

func (s *Server) buildHandler() http.Handler {
	var h http.Handler = s.router
	h = middleware.ActorMiddleware(h)
	if s.metrics != nil {
		h = observability.HTTPMetricsMiddleware(s.metrics)(h)
	}
	h = httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware,
		httputil.RecoveryMiddleware,
		httputil.ContentTypeMiddleware,
		httputil.MaxBytesMiddleware(1<<20),
	)(h)
	return otelhttp.NewHandler(h, "trefle-api")
}

// Handler returns the full middleware-wrapped handler for http.Server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
