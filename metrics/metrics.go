package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "countries_api",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "countries_api",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "countries_api",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	refreshRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "countries_api",
			Subsystem: "refresh",
			Name:      "runs_total",
			Help:      "Refresh pipeline runs by outcome.",
		},
		[]string{"outcome"},
	)

	refreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "countries_api",
			Subsystem: "refresh",
			Name:      "duration_seconds",
			Help:      "Duration of refresh pipeline runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	refreshRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "countries_api",
			Subsystem: "refresh",
			Name:      "rows_total",
			Help:      "Country rows seen by the refresh pipeline by result.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		refreshRuns,
		refreshDuration,
		refreshRows,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func RequestStarted() {
	httpInFlight.Inc()
}

func RequestFinished(method, route, status string, elapsed time.Duration) {
	httpInFlight.Dec()
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordRefresh records one pipeline run. outcome is "success", "upstream_unavailable" or "error".
func RecordRefresh(outcome string, elapsed time.Duration, updated, skipped, failed int) {
	refreshRuns.WithLabelValues(outcome).Inc()
	refreshDuration.Observe(elapsed.Seconds())
	refreshRows.WithLabelValues("updated").Add(float64(updated))
	refreshRows.WithLabelValues("skipped").Add(float64(skipped))
	refreshRows.WithLabelValues("failed").Add(float64(failed))
}
