package phimetrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/phicrypt"
)

var _ phicrypt.MetricsCollector = (*Collector)(nil)

func newTestCollector(t *testing.T) *Collector {
	t.Helper()
	c, err := New(prometheus.NewRegistry())
	require.NoError(t, err)
	return c
}

func TestIncrementCounter(t *testing.T) {
	c := newTestCollector(t)

	c.IncrementCounter(phicrypt.MetricOperations, map[string]string{"op": "encrypt", "result": "success"})
	c.IncrementCounter(phicrypt.MetricOperations, map[string]string{"op": "encrypt", "result": "success"})
	c.IncrementCounter(phicrypt.MetricOperations, map[string]string{"op": "decrypt", "result": "error"})
	c.IncrementCounter(phicrypt.MetricKMSCalls, map[string]string{"op": "generate"})
	c.IncrementCounter(phicrypt.MetricCacheHits, nil)
	c.IncrementCounter(phicrypt.MetricCacheMiss, nil)
	c.IncrementCounter(phicrypt.MetricCacheMiss, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.operations.WithLabelValues("encrypt", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues("decrypt", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.kmsCalls.WithLabelValues("generate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.cacheHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.cacheMiss))
}

func TestIncrementCounterIgnoresUnknownNames(t *testing.T) {
	c := newTestCollector(t)

	c.IncrementCounter("some.other.metric", map[string]string{"op": "encrypt"})

	assert.Equal(t, 0.0, testutil.ToFloat64(c.cacheHits))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.cacheMiss))
}

func TestRecordTiming(t *testing.T) {
	c := newTestCollector(t)

	c.RecordTiming(phicrypt.MetricDuration, 250*time.Millisecond, map[string]string{"op": "encrypt"})
	c.RecordTiming(phicrypt.MetricDuration, 50*time.Millisecond, map[string]string{"op": "encrypt"})
	c.RecordTiming("some.other.metric", time.Second, map[string]string{"op": "encrypt"})

	count := testutil.CollectAndCount(c.duration, "phicrypt_operation_duration_seconds")
	assert.Equal(t, 1, count, "one labelled series observed")
}

func TestNewRejectsDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err)
}
