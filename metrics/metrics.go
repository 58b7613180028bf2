// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "treewatch",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "treewatch",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "treewatch",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	treesSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "treewatch",
			Subsystem: "trees",
			Name:      "submitted_total",
			Help:      "Total number of tree observations submitted.",
		},
	)

	treesReviewed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "treewatch",
			Subsystem: "trees",
			Name:      "reviewed_total",
			Help:      "Total number of moderation decisions by outcome.",
		},
		[]string{"status"},
	)

	badgesAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "treewatch",
			Subsystem: "badges",
			Name:      "awarded_total",
			Help:      "Total number of badge awards requested through the API.",
		},
		[]string{"type"},
	)

	milestoneSweeps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "treewatch",
			Subsystem: "worker",
			Name:      "milestone_sweeps_total",
			Help:      "Total number of milestone sweeps by result.",
		},
		[]string{"success"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		treesSubmitted,
		treesReviewed,
		badgesAwarded,
		milestoneSweeps,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RequestStarted tracks an in-flight request; call the returned func when it ends.
func RequestStarted() func() {
	httpInFlight.Inc()
	return httpInFlight.Dec
}

// ObserveRequest records one finished HTTP request
func ObserveRequest(method, route, status string, duration time.Duration) {
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordTreeSubmitted() {
	treesSubmitted.Inc()
}

func RecordTreeReviewed(status string) {
	treesReviewed.WithLabelValues(status).Inc()
}

func RecordBadgeAwarded(badgeType string) {
	badgesAwarded.WithLabelValues(badgeType).Inc()
}

func RecordMilestoneSweep(success bool) {
	if success {
		milestoneSweeps.WithLabelValues("true").Inc()
		return
	}
	milestoneSweeps.WithLabelValues("false").Inc()
}
