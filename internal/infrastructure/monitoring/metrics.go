// Package monitoring provides Prometheus metrics and OpenTelemetry tracing
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// Search metrics
	searchRequestsTotal *prometheus.CounterVec
	searchDuration      *prometheus.HistogramVec
	searchResults       prometheus.Histogram
	searchInFlight      prometheus.Gauge
}

// NewMetricsCollector creates a collector with its own registry. Go runtime
// and process collectors are registered alongside the service metrics.
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &MetricsCollector{
		logger:   logger,
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		httpResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "route"},
		),

		searchRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "surprise_search_requests_total",
				Help: "Search submissions by outcome",
			},
			[]string{"outcome"},
		),
		searchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "surprise_search_duration_seconds",
				Help:    "Time spent waiting for the recipe search API",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
			},
			[]string{"outcome"},
		),
		searchResults: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "surprise_search_results",
				Help:    "Number of recipes returned by successful searches",
				Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
			},
		),
		searchInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "surprise_search_in_flight",
				Help: "Searches currently waiting on the recipe API",
			},
		),
	}
}

// HTTPMiddleware records request count, latency and response size per chi
// route pattern.
func (m *MetricsCollector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		m.httpResponseSize.WithLabelValues(r.Method, route).Observe(float64(ww.BytesWritten()))
	})
}

// SearchStarted marks a search as waiting on the API
func (m *MetricsCollector) SearchStarted() {
	m.searchInFlight.Inc()
}

// SearchFinished records the outcome of a submission. Rejected submissions
// never started a search, so they do not touch the in-flight gauge.
func (m *MetricsCollector) SearchFinished(outcome string, elapsed time.Duration, results int) {
	m.searchRequestsTotal.WithLabelValues(outcome).Inc()
	if outcome == "rejected" {
		return
	}
	m.searchInFlight.Dec()
	m.searchDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	if outcome == "success" {
		m.searchResults.Observe(float64(results))
	}
}

// Registry exposes the underlying registry
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(m.logger),
	})
}
