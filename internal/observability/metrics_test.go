package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestDocumentCountersExported(t *testing.T) {
	m := NewMetrics()

	m.DocumentIssued("BK")
	m.DocumentIssued("BK")
	m.DocumentIssued("INV")
	m.CodeConflict("BK")

	body := scrape(t, m)
	require.Contains(t, body, `tontan_documents_issued_total{prefix="BK"} 2`)
	require.Contains(t, body, `tontan_documents_issued_total{prefix="INV"} 1`)
	require.Contains(t, body, `tontan_code_assignment_conflicts_total{prefix="BK"} 1`)
}

func TestMiddlewareRecordsRouteAndStatus(t *testing.T) {
	m := NewMetrics()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/bookings/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bookings/42", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	body := scrape(t, m)
	require.Contains(t, body, `tontan_http_requests_total{code="404",route="/bookings/{id}"} 1`)
}

func TestNilMetricsIsInert(t *testing.T) {
	var m *Metrics

	m.DocumentIssued("BK")
	m.CodeConflict("INV")

	called := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })
	m.Middleware(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, called)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
