// Package metrics exposes Prometheus counters for the aggregation layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the aggregation counters. One instance per process,
// constructed against an explicit registry so tests can use their own.
type Metrics struct {
	Registry *prometheus.Registry

	CacheHits       *prometheus.CounterVec
	CacheMisses     *prometheus.CounterVec
	SourceSuccesses *prometheus.CounterVec
	SourceFailures  *prometheus.CounterVec
	FallbackServed  *prometheus.CounterVec
}

// New creates a metrics set registered on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		Registry: registry,
		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "commodex_cache_hits_total",
			Help: "Cache hits by request kind.",
		}, []string{"kind"}),
		CacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "commodex_cache_misses_total",
			Help: "Cache misses by request kind.",
		}, []string{"kind"}),
		SourceSuccesses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "commodex_source_success_total",
			Help: "Successful upstream fetches by source and kind.",
		}, []string{"source", "kind"}),
		SourceFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "commodex_source_failure_total",
			Help: "Failed or empty upstream fetches by source and kind.",
		}, []string{"source", "kind"}),
		FallbackServed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "commodex_fallback_served_total",
			Help: "Requests answered by the fallback synthesizer, by kind.",
		}, []string{"kind"}),
	}
}
