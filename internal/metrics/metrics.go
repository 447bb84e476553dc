// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "studydesk"

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_active_requests",
			Help:      "Current number of in-flight HTTP requests",
		},
	)

	// Content
	ContentOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_operations_total",
			Help:      "Record mutations by kind and operation",
		},
		[]string{"kind", "operation"}, // cornell, mindmap, ... / create, update, delete
	)

	// Autosave
	AutosaveTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "autosave_total",
			Help:      "Autosave outcomes by editor kind",
		},
		[]string{"kind", "outcome"}, // saved, failed
	)

	EditorSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "editor_sessions",
			Help:      "Open autosave editor sessions",
		},
	)

	// Search
	SearchResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of results returned per global search",
			Buckets:   []float64{0, 1, 2, 5, 10},
		},
	)

	// AI assistant
	AIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_requests_total",
			Help:      "AI assistant calls by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	// Auth
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Authentication attempts by mode and status",
		},
		[]string{"mode", "status"},
	)

	// Vault mirror
	VaultImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vault_imports_total",
			Help:      "Markdown files imported back from the vault",
		},
		[]string{"outcome"},
	)
)

// Middleware records request count, latency and in-flight gauge. Routes are
// labelled by their chi pattern to keep cardinality bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ActiveRequests.Inc()
		defer ActiveRequests.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// TrackContent increments the content operation counter.
func TrackContent(kind, operation string) {
	ContentOperationsTotal.WithLabelValues(kind, operation).Inc()
}

// TrackAutosave records one autosave outcome.
func TrackAutosave(kind, outcome string) {
	AutosaveTotal.WithLabelValues(kind, outcome).Inc()
}

// TrackAI records one AI assistant call.
func TrackAI(action, outcome string) {
	AIRequestsTotal.WithLabelValues(action, outcome).Inc()
}

// TrackAuth records an authentication attempt.
func TrackAuth(mode, status string) {
	AuthAttempts.WithLabelValues(mode, status).Inc()
}
