// Package observability collects Prometheus metrics for the resort API:
// request-level HTTP metrics plus counters for the document-number
// assignment pipeline that backs booking and invoice numbers.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the Prometheus registry and every collector the API reports.
// A nil *Metrics is valid and turns each method into a no-op, so the server
// can run with metrics disabled.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	documentsIssued *prometheus.CounterVec
	codeConflicts   *prometheus.CounterVec
}

// NewMetrics initialises the registry and registers the collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tontan_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tontan_http_request_duration_seconds",
			Help:    "HTTP request duration per route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		documentsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tontan_documents_issued_total",
			Help: "Document numbers assigned, by series prefix (BK, INV).",
		}, []string{"prefix"}),
		codeConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tontan_code_assignment_conflicts_total",
			Help: "Document-number assignment attempts retried after losing the unique-index race.",
		}, []string{"prefix"}),
	}
	registry.MustRegister(m.requestsTotal, m.requestDuration, m.documentsIssued, m.codeConflicts)
	return m
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and latency for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// DocumentIssued counts a successfully assigned document number. It has the
// signature seqcode.WithAssignHooks expects.
func (m *Metrics) DocumentIssued(prefix string) {
	if m == nil {
		return
	}
	m.documentsIssued.WithLabelValues(prefix).Inc()
}

// CodeConflict counts an assignment attempt that lost the unique-index race.
func (m *Metrics) CodeConflict(prefix string) {
	if m == nil {
		return
	}
	m.codeConflicts.WithLabelValues(prefix).Inc()
}

// Registerer exposes the registry so packages can register their own
// collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
