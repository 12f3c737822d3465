package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for report submission and aggregation.
type Metrics struct {
	ReportsSubmitted    prometheus.Counter
	ValidationFailures  *prometheus.CounterVec // labels: code
	StatsCacheLookups   *prometheus.CounterVec // labels: result={hit,miss,error}
	GlobalStatsDegraded prometheus.Counter

	HTTPRequests *prometheus.CounterVec   // labels: route, status
	HTTPDuration *prometheus.HistogramVec // labels: route
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReportsSubmitted,
		m.ValidationFailures,
		m.StatsCacheLookups,
		m.GlobalStatsDegraded,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics so tests can build
// as many as they like without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "delivery_times",
			Name:      "reports_submitted_total",
			Help:      "Delivery reports accepted and stored.",
		}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "delivery_times",
			Name:      "report_validation_failures_total",
			Help:      "Rejected submissions by validation rule.",
		}, []string{"code"}),
		StatsCacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "delivery_times",
			Name:      "stats_cache_lookups_total",
			Help:      "Global stats cache lookups by result.",
		}, []string{"result"}),
		GlobalStatsDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "delivery_times",
			Name:      "global_stats_degraded_total",
			Help:      "Global stats reads that fell back to the empty snapshot.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "delivery_times",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "delivery_times",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route pattern.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route"}),
	}
}
