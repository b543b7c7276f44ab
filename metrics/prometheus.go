// Package metrics exposes Prometheus instrumentation for the translation
// engine and the worker pipeline. A nil *Metrics is valid and records
// nothing, so components can be used without instrumentation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pagetrans"

// Dispatcher outcomes.
const (
	OutcomeTranslated = "translated"
	OutcomeCached     = "cached"
	OutcomeSkipped    = "skipped"
	OutcomeFallback   = "fallback"
)

// Metrics holds all collectors.
type Metrics struct {
	// Provider metrics
	ProviderRequestsTotal   *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec
	ProviderScore           *prometheus.GaugeVec

	// Cache metrics
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
	CacheEntries     prometheus.Gauge

	// Dispatcher metrics
	TranslationsTotal *prometheus.CounterVec

	// Page / pool metrics
	PagesTotal        prometheus.Counter
	PageDuration      prometheus.Histogram
	PoolActiveWorkers prometheus.Gauge
	PoolQueuedTasks   prometheus.Gauge

	// Job metrics
	JobsTotal   *prometheus.CounterVec
	JobDuration prometheus.Histogram
}

// New creates all collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		ProviderRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Provider calls by outcome",
		}, []string{"provider", "outcome"}),
		ProviderRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "request_duration_seconds",
			Help:      "Histogram of provider call durations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		ProviderScore: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "success_rate",
			Help:      "Observed provider success rate",
		}, []string{"provider"}),

		CacheHitsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Translation cache hits",
		}),
		CacheMissesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Translation cache misses",
		}),
		CacheEntries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Number of cached translations",
		}),

		TranslationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatcher",
			Name:      "translations_total",
			Help:      "Dispatcher results by outcome",
		}, []string{"outcome"}),

		PagesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "document",
			Name:      "pages_total",
			Help:      "Pages translated",
		}),
		PageDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "document",
			Name:      "page_duration_seconds",
			Help:      "Histogram of page translation durations",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		PoolActiveWorkers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "active_workers",
			Help:      "Fan-out workers currently running a task",
		}),
		PoolQueuedTasks: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "queued_tasks",
			Help:      "Tasks waiting for a fan-out worker",
		}),

		JobsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "jobs_total",
			Help:      "Pipeline jobs by final status",
		}, []string{"status"}),
		JobDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "job_duration_seconds",
			Help:      "Histogram of job durations",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
}

// ObserveProvider records one provider call.
func (m *Metrics) ObserveProvider(provider string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.ProviderRequestsTotal.WithLabelValues(provider, outcome).Inc()
	m.ProviderRequestDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// SetSuccessRate publishes a provider's observed success rate.
func (m *Metrics) SetSuccessRate(provider string, rate float64) {
	if m == nil {
		return
	}
	m.ProviderScore.WithLabelValues(provider).Set(rate)
}

// CacheHit records a cache hit.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.CacheHitsTotal.Inc()
}

// CacheMiss records a cache miss.
func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.CacheMissesTotal.Inc()
}

// SetCacheEntries publishes the cache size.
func (m *Metrics) SetCacheEntries(n int) {
	if m == nil {
		return
	}
	m.CacheEntries.Set(float64(n))
}

// Translation records a dispatcher outcome.
func (m *Metrics) Translation(outcome string) {
	if m == nil {
		return
	}
	m.TranslationsTotal.WithLabelValues(outcome).Inc()
}

// ObservePage records one translated page.
func (m *Metrics) ObservePage(d time.Duration) {
	if m == nil {
		return
	}
	m.PagesTotal.Inc()
	m.PageDuration.Observe(d.Seconds())
}

// SetPool publishes fan-out pool utilization.
func (m *Metrics) SetPool(active, queued int) {
	if m == nil {
		return
	}
	m.PoolActiveWorkers.Set(float64(active))
	m.PoolQueuedTasks.Set(float64(queued))
}

// ObserveJob records a finished pipeline job.
func (m *Metrics) ObserveJob(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.JobsTotal.WithLabelValues(status).Inc()
	m.JobDuration.Observe(d.Seconds())
}
