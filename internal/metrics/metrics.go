// Package metrics defines the prometheus instrumentation for the client:
// session cache effectiveness and per-endpoint API outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector aggregates the client's prometheus metrics. A single Collector is
// created at startup and shared by the session store and the API client.
type Collector struct {
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	staleReads  prometheus.Counter
	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
}

// NewCollector creates a collector with the given metric namespace.
func NewCollector(namespace string) *Collector {
	return &Collector{
		cacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of session cache hits per key",
			},
			[]string{"key"},
		),
		cacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of session cache misses per key",
			},
			[]string{"key"},
		),
		staleReads: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stale_reads_total",
				Help:      "Reads served from the cached snapshot because the network fetch failed",
			},
		),
		apiRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total API requests per endpoint and outcome (success, rejected, network_error)",
			},
			[]string{"endpoint", "outcome"},
		),
		apiLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "API request latency per endpoint",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
	}
}

// Register registers all metrics with the given registerer.
func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, col := range []prometheus.Collector{
		c.cacheHits, c.cacheMisses, c.staleReads, c.apiRequests, c.apiLatency,
	} {
		if err := reg.Register(col); err != nil {
			return err
		}
	}
	return nil
}

// CacheHit records a cache hit for the given key.
func (c *Collector) CacheHit(key string) {
	if c == nil {
		return
	}
	c.cacheHits.WithLabelValues(key).Inc()
}

// CacheMiss records a cache miss for the given key.
func (c *Collector) CacheMiss(key string) {
	if c == nil {
		return
	}
	c.cacheMisses.WithLabelValues(key).Inc()
}

// StaleRead records a read answered from the cached snapshot after a failed
// network fetch.
func (c *Collector) StaleRead() {
	if c == nil {
		return
	}
	c.staleReads.Inc()
}

// APIRequest records one request outcome for an endpoint.
func (c *Collector) APIRequest(endpoint, outcome string, seconds float64) {
	if c == nil {
		return
	}
	c.apiRequests.WithLabelValues(endpoint, outcome).Inc()
	c.apiLatency.WithLabelValues(endpoint).Observe(seconds)
}
