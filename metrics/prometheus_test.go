package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveProvider("google", true, 10*time.Millisecond)
	m.ObserveProvider("google", false, 20*time.Millisecond)
	m.ObserveProvider("google", false, 20*time.Millisecond)
	m.CacheHit()
	m.CacheMiss()
	m.CacheMiss()
	m.SetCacheEntries(7)
	m.Translation(OutcomeFallback)
	m.ObservePage(time.Second)
	m.SetPool(3, 5)
	m.ObserveJob("completed", time.Minute)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequestsTotal.WithLabelValues("google", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProviderRequestsTotal.WithLabelValues("google", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheMissesTotal))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.CacheEntries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TranslationsTotal.WithLabelValues(OutcomeFallback)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PagesTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PoolActiveWorkers))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.PoolQueuedTasks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobsTotal.WithLabelValues("completed")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveProvider("x", true, 0)
		m.SetSuccessRate("x", 1)
		m.CacheHit()
		m.CacheMiss()
		m.SetCacheEntries(1)
		m.Translation(OutcomeCached)
		m.ObservePage(0)
		m.SetPool(0, 0)
		m.ObserveJob("failed", 0)
	})
}
