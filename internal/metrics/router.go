// Package metrics defines Prometheus metrics for the router and its
// refresh loop, plus the HTTP server that exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Routing decision outcome label values.
const (
	// OutcomeHit means the message was routed to a routee colocated with
	// the shard's cached owner.
	OutcomeHit = "hit"

	// OutcomeMissUnknownShard means the directory had no owner for the shard.
	OutcomeMissUnknownShard = "miss_unknown_shard"

	// OutcomeMissNoLocal means the owner was known but no routee at that
	// address was known, e.g. mid-rebalance before discovery catches up.
	OutcomeMissNoLocal = "miss_no_local"

	// OutcomeNoRoutees means the routee set was empty and the call failed.
	OutcomeNoRoutees = "no_routees"

	// OutcomeUnroutable means the shard extractor rejected the message.
	OutcomeUnroutable = "unroutable"
)

// RouterMetrics holds metrics for routing decisions and cache sizes.
type RouterMetrics struct {
	// DecisionsTotal counts routing decisions by outcome.
	// Labels: outcome (hit, miss_unknown_shard, miss_no_local, no_routees, unroutable)
	DecisionsTotal *prometheus.CounterVec

	// DirectorySize tracks the number of shard entries in the location
	// directory's current snapshot.
	DirectorySize prometheus.Gauge

	// RouteeCount tracks the number of routees in the current snapshot.
	RouteeCount prometheus.Gauge
}

// NewRouterMetrics creates and registers router metrics with the default
// Prometheus registry.
func NewRouterMetrics() *RouterMetrics {
	return &RouterMetrics{
		DecisionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shardroute",
				Subsystem: "router",
				Name:      "decisions_total",
				Help:      "Total routing decisions, broken down by outcome.",
			},
			[]string{"outcome"},
		),
		DirectorySize: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "shardroute",
				Subsystem: "router",
				Name:      "directory_size",
				Help:      "Number of shard entries in the current location directory snapshot.",
			},
		),
		RouteeCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "shardroute",
				Subsystem: "router",
				Name:      "routee_count",
				Help:      "Number of routees in the current routee set snapshot.",
			},
		),
	}
}

// NewRouterMetricsWithRegistry creates router metrics registered with a
// custom registry. Useful for testing to avoid conflicts with the default
// registry.
func NewRouterMetricsWithRegistry(reg prometheus.Registerer) *RouterMetrics {
	decisions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shardroute",
			Subsystem: "router",
			Name:      "decisions_total",
			Help:      "Total routing decisions, broken down by outcome.",
		},
		[]string{"outcome"},
	)
	directorySize := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "shardroute",
			Subsystem: "router",
			Name:      "directory_size",
			Help:      "Number of shard entries in the current location directory snapshot.",
		},
	)
	routeeCount := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "shardroute",
			Subsystem: "router",
			Name:      "routee_count",
			Help:      "Number of routees in the current routee set snapshot.",
		},
	)

	reg.MustRegister(decisions, directorySize, routeeCount)

	return &RouterMetrics{
		DecisionsTotal: decisions,
		DirectorySize:  directorySize,
		RouteeCount:    routeeCount,
	}
}

// RecordDecision increments the decision counter for the given outcome.
// Safe to call on a nil receiver so the hot path does not need a guard.
func (m *RouterMetrics) RecordDecision(outcome string) {
	if m == nil {
		return
	}
	m.DecisionsTotal.WithLabelValues(outcome).Inc()
}

// SetCacheSizes updates the snapshot size gauges.
func (m *RouterMetrics) SetCacheSizes(directorySize, routeeCount int) {
	if m == nil {
		return
	}
	m.DirectorySize.Set(float64(directorySize))
	m.RouteeCount.Set(float64(routeeCount))
}
