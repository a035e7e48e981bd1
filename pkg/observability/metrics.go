package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Authorization metrics
	AuthzDecisionsTotal *prometheus.CounterVec

	// Provisioning metrics
	IdentitiesProvisionedTotal *prometheus.CounterVec
	ProvisioningErrorsTotal    *prometheus.CounterVec
	BulkInviteRows             *prometheus.HistogramVec
	WelcomeMailsTotal          *prometheus.CounterVec

	// Membership metrics
	ApplicationsSubmittedTotal prometheus.Counter
	ApplicationsReviewedTotal  *prometheus.CounterVec
	ApplicationsPending        prometheus.Gauge

	// Identity provider client metrics
	ProviderRequestsTotal   *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge

	// Redis metrics
	RateLimitDecisionsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trefle_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trefle_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trefle_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trefle_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),

		// Authorization metrics
		AuthzDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trefle_authz_decisions_total",
				Help: "Total number of authorization decisions",
			},
			[]string{"operation", "decision"},
		),

		// Provisioning metrics
		IdentitiesProvisionedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trefle_identities_provisioned_total",
				Help: "Total number of identities created at the provider",
			},
			[]string{"source", "role"},
		),
		ProvisioningErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trefle_provisioning_errors_total",
				Help: "Total number of failed provisioning attempts",
			},
			[]string{"source", "reason"},
		),
		BulkInviteRows: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trefle_bulk_invite_rows",
				Help:    "Row counts of bulk invite requests",
				Buckets: []float64{1, 5, 10, 25, 50, 75, 100},
			},
			[]string{"outcome"},
		),
		WelcomeMailsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trefle_welcome_mails_total",
				Help: "Total number of welcome mail deliveries",
			},
			[]string{"status"},
		),

		// Membership metrics
		ApplicationsSubmittedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "trefle_applications_submitted_total",
				Help: "Total number of membership applications submitted",
			},
		),
		ApplicationsReviewedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trefle_applications_reviewed_total",
				Help: "Total number of membership applications reviewed",
			},
			[]string{"decision"},
		),
		ApplicationsPending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "trefle_applications_pending",
				Help: "Number of membership applications awaiting review",
			},
		),

		// Identity provider client metrics
		ProviderRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trefle_identity_provider_requests_total",
				Help: "Total number of identity provider API calls",
			},
			[]string{"operation", "status"},
		),
		ProviderRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trefle_identity_provider_request_duration_seconds",
				Help:    "Identity provider API call duration in seconds",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),

		// Database metrics
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "trefle_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "trefle_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),

		// Redis metrics
		RateLimitDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trefle_rate_limit_decisions_total",
				Help: "Total number of rate limiter decisions",
			},
			[]string{"decision"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestSize,
		m.HTTPResponseSize,
		m.AuthzDecisionsTotal,
		m.IdentitiesProvisionedTotal,
		m.ProvisioningErrorsTotal,
		m.BulkInviteRows,
		m.WelcomeMailsTotal,
		m.ApplicationsSubmittedTotal,
		m.ApplicationsReviewedTotal,
		m.ApplicationsPending,
		m.ProviderRequestsTotal,
		m.ProviderRequestDuration,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
		m.RateLimitDecisionsTotal,
	)

	return m
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status and size
			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			// Record request size
			if r.ContentLength > 0 {
				metrics.HTTPRequestSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(r.ContentLength))
			}

			// Serve the request
			next.ServeHTTP(rw, r)

			// Record metrics
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
			metrics.HTTPResponseSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(rw.bytesWritten))
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
