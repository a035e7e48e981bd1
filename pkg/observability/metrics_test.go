package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistersAll(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.AuthzDecisionsTotal.WithLabelValues("assign_role", "denied").Inc()
	m.IdentitiesProvisionedTotal.WithLabelValues("invite", "mentor").Inc()
	m.ApplicationsSubmittedTotal.Inc()
	m.ApplicationsReviewedTotal.WithLabelValues("approve").Inc()
	m.ApplicationsPending.Set(3)
	m.BulkInviteRows.WithLabelValues("created").Observe(85)
	m.RateLimitDecisionsTotal.WithLabelValues("allowed").Inc()

	assert.Equal(t, float64(1),
		testutil.ToFloat64(m.AuthzDecisionsTotal.WithLabelValues("assign_role", "denied")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.ApplicationsPending))

	families, err := registry.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["trefle_authz_decisions_total"])
	assert.True(t, names["trefle_identities_provisioned_total"])
	assert.True(t, names["trefle_applications_pending"])
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	handler := HTTPMetricsMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invitations", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, float64(1),
		testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/invitations", "201")))
}

func TestRegisterMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	m.ApplicationsPending.Set(7)

	mux := http.NewServeMux()
	RegisterMetricsEndpoint(mux, registry)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "trefle_applications_pending 7")
}
