package phicrypt

import "time"

// Metric names emitted by the Cipher. Tag keys are "op" and "result".
const (
	MetricOperations = "phicrypt.operations"
	MetricKMSCalls   = "phicrypt.kms.calls"
	MetricCacheHits  = "phicrypt.cache.hits"
	MetricCacheMiss  = "phicrypt.cache.misses"
	MetricDuration   = "phicrypt.operation.duration"
)

// MetricsCollector receives counters and timings for encryption operations.
// Implementations must be safe for concurrent use. A Prometheus-backed
// implementation lives in the phimetrics package.
type MetricsCollector interface {
	IncrementCounter(name string, tags map[string]string)
	RecordTiming(name string, duration time.Duration, tags map[string]string)
}

// NoOpMetricsCollector discards all metrics. It is the default when no
// collector is configured.
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) IncrementCounter(name string, tags map[string]string) {}
func (NoOpMetricsCollector) RecordTiming(name string, duration time.Duration, tags map[string]string) {
}
