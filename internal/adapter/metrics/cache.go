package metrics

import "github.com/prometheus/client_golang/prometheus"

// CacheMetrics holds Prometheus metrics for the list response cache.
type CacheMetrics struct {
	Hits          *prometheus.CounterVec
	Misses        *prometheus.CounterVec
	Invalidations *prometheus.CounterVec
}

// NewCacheMetrics creates and registers cache metrics on the given registry.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		Hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "list_cache",
			Name:      "hits_total",
			Help:      "Total number of list cache hits, by scope.",
		}, []string{"scope"}),
		Misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "list_cache",
			Name:      "misses_total",
			Help:      "Total number of list cache misses, by scope.",
		}, []string{"scope"}),
		Invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "list_cache",
			Name:      "invalidations_total",
			Help:      "Total number of list cache invalidations, by scope.",
		}, []string{"scope"}),
	}

	reg.MustRegister(m.Hits, m.Misses, m.Invalidations)
	return m
}
