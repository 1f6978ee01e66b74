// Package metrics exposes the coordinator's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the coordinator's Prometheus collectors.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	RingSize         prometheus.Gauge
	NodeFailuresTotal prometheus.Counter
}

// New creates and registers the coordinator's metrics.
func New() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plethora_requests_total",
				Help: "Total number of client requests processed, by operation.",
			},
			[]string{"op"},
		),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "plethora_cache_hits_total",
			Help: "Total number of result-cache hits.",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "plethora_cache_misses_total",
			Help: "Total number of result-cache misses.",
		}),
		RingSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "plethora_ring_size",
			Help: "Current number of nodes registered in the hash ring.",
		}),
		NodeFailuresTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "plethora_node_failures_total",
			Help: "Total number of nodes removed from the ring by the sweep.",
		}),
	}
}

// RecordRequest increments the per-operation request counter.
func (m *Metrics) RecordRequest(op string) {
	m.RequestsTotal.WithLabelValues(op).Inc()
}
