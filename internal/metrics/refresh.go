package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Refresh cycle status label values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Refresh target label values.
const (
	TargetLocations = "locations"
	TargetRoutees   = "routees"
)

// DefaultRefreshDurationBuckets are duration buckets for refresh queries.
// Refreshes hit a remote metadata service, so buckets span 1ms to 30s.
var DefaultRefreshDurationBuckets = []float64{
	0.001, // 1ms
	0.005, // 5ms
	0.01,  // 10ms
	0.025, // 25ms
	0.05,  // 50ms
	0.1,   // 100ms
	0.25,  // 250ms
	0.5,   // 500ms
	1.0,   // 1s
	2.5,   // 2.5s
	5.0,   // 5s
	10.0,  // 10s
	30.0,  // 30s
}

// RefreshMetrics holds metrics for the background refresh scheduler.
type RefreshMetrics struct {
	// CyclesTotal counts refresh queries by target and status.
	// Labels: target (locations, routees), status (success, failure)
	CyclesTotal *prometheus.CounterVec

	// Duration tracks refresh query durations by target.
	Duration *prometheus.HistogramVec
}

// NewRefreshMetrics creates and registers refresh metrics with the default
// Prometheus registry.
func NewRefreshMetrics() *RefreshMetrics {
	return &RefreshMetrics{
		CyclesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shardroute",
				Subsystem: "refresh",
				Name:      "cycles_total",
				Help:      "Total refresh queries, broken down by target and status.",
			},
			[]string{"target", "status"},
		),
		Duration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "shardroute",
				Subsystem: "refresh",
				Name:      "duration_seconds",
				Help:      "Refresh query duration in seconds, broken down by target.",
				Buckets:   DefaultRefreshDurationBuckets,
			},
			[]string{"target"},
		),
	}
}

// NewRefreshMetricsWithRegistry creates refresh metrics registered with a
// custom registry. Useful for testing to avoid conflicts with the default
// registry.
func NewRefreshMetricsWithRegistry(reg prometheus.Registerer) *RefreshMetrics {
	cycles := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shardroute",
			Subsystem: "refresh",
			Name:      "cycles_total",
			Help:      "Total refresh queries, broken down by target and status.",
		},
		[]string{"target", "status"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shardroute",
			Subsystem: "refresh",
			Name:      "duration_seconds",
			Help:      "Refresh query duration in seconds, broken down by target.",
			Buckets:   DefaultRefreshDurationBuckets,
		},
		[]string{"target"},
	)

	reg.MustRegister(cycles, duration)

	return &RefreshMetrics{
		CyclesTotal: cycles,
		Duration:    duration,
	}
}

// RecordCycle records one refresh query against the given target.
// Safe to call on a nil receiver.
func (m *RefreshMetrics) RecordCycle(target string, seconds float64, ok bool) {
	if m == nil {
		return
	}
	status := StatusFailure
	if ok {
		status = StatusSuccess
	}
	m.CyclesTotal.WithLabelValues(target, status).Inc()
	m.Duration.WithLabelValues(target).Observe(seconds)
}
