// Package phimetrics exposes the cipher's metrics hook as Prometheus
// collectors.
package phimetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/carebridge/phicrypt"
)

// Collector implements phicrypt.MetricsCollector on top of a Prometheus
// registry.
type Collector struct {
	operations *prometheus.CounterVec
	kmsCalls   *prometheus.CounterVec
	cacheHits  prometheus.Counter
	cacheMiss  prometheus.Counter
	duration   *prometheus.HistogramVec
}

// New registers the phicrypt metrics with reg and returns the collector.
// Pass prometheus.DefaultRegisterer to use the default registry.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phicrypt_operations_total",
			Help: "Encrypt/decrypt operations by result.",
		}, []string{"op", "result"}),
		kmsCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phicrypt_kms_calls_total",
			Help: "Round trips to the key-management service.",
		}, []string{"op"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phicrypt_data_key_cache_hits_total",
			Help: "Data-key cache hits.",
		}),
		cacheMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phicrypt_data_key_cache_misses_total",
			Help: "Data-key cache misses.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "phicrypt_operation_duration_seconds",
			Help:    "Encrypt/decrypt latency, including KMS round trips.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}
	for _, collector := range []prometheus.Collector{
		c.operations, c.kmsCalls, c.cacheHits, c.cacheMiss, c.duration,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// IncrementCounter implements phicrypt.MetricsCollector.
func (c *Collector) IncrementCounter(name string, tags map[string]string) {
	switch name {
	case phicrypt.MetricOperations:
		c.operations.WithLabelValues(tags["op"], tags["result"]).Inc()
	case phicrypt.MetricKMSCalls:
		c.kmsCalls.WithLabelValues(tags["op"]).Inc()
	case phicrypt.MetricCacheHits:
		c.cacheHits.Inc()
	case phicrypt.MetricCacheMiss:
		c.cacheMiss.Inc()
	}
}

// RecordTiming implements phicrypt.MetricsCollector.
func (c *Collector) RecordTiming(name string, duration time.Duration, tags map[string]string) {
	if name == phicrypt.MetricDuration {
		c.duration.WithLabelValues(tags["op"]).Observe(duration.Seconds())
	}
}
