package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/minios-linux/pagetrans/config"
	"github.com/minios-linux/pagetrans/document"
	"github.com/minios-linux/pagetrans/htmlpage"
	"github.com/minios-linux/pagetrans/metrics"
	"github.com/minios-linux/pagetrans/pool"
	"github.com/minios-linux/pagetrans/translate"
)

const poolStopTimeout = 30 * time.Second

// engine is the fully wired translation stack of one process.
type engine struct {
	registry   *prometheus.Registry
	metrics    *metrics.Metrics
	tracker    *translate.Tracker
	cache      *translate.MemoryCache
	providers  []translate.Provider
	dispatcher *translate.Dispatcher
	pool       *pool.WorkerPool
	docs       *document.Translator
	logger     *zap.Logger
}

func newEngine(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*engine, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	tracker := translate.NewTracker()
	providers, err := translate.BuildProviders(ctx, cfg.ProviderSettings(), tracker, logger, m)
	if err != nil {
		return nil, fmt.Errorf("building providers: %w", err)
	}

	ranker := translate.NewRanker()
	ranker.Cooldown = cfg.Translation.Cooldown

	cache := translate.NewMemoryCache()

	opts := cfg.DispatcherOptions()
	opts.Logger = logger
	opts.Metrics = m
	dispatcher := translate.NewDispatcher(tracker, ranker, cache, providers, opts)

	scheduler := htmlpage.NewScheduler(dispatcher,
		htmlpage.WithPageConcurrency(cfg.Translation.PageConcurrency),
		htmlpage.WithLogger(logger),
		htmlpage.WithMetrics(m),
	)
	p := pool.New(pool.Config{
		Name:    "pages",
		Workers: cfg.Translation.PoolWorkers,
		Logger:  logger,
		Metrics: m,
	})

	return &engine{
		registry:   reg,
		metrics:    m,
		tracker:    tracker,
		cache:      cache,
		providers:  providers,
		dispatcher: dispatcher,
		pool:       p,
		docs:       document.New(scheduler, p, logger),
		logger:     logger,
	}, nil
}

// warm loads snapshot entries into the translation cache.
func (e *engine) warm(entries map[translate.Key]string) {
	e.cache.Load(entries)
	e.metrics.SetCacheEntries(e.cache.Len())
}

func (e *engine) close() {
	if err := e.pool.Stop(poolStopTimeout); err != nil {
		e.logger.Warn("Worker pool did not stop cleanly", zap.Error(err))
	}
}

// statsCollector adapts the document translator to the assembler while
// keeping the page statistics of the run.
type statsCollector struct {
	docs  *document.Translator
	stats htmlpage.PageStats
}

func (s *statsCollector) TranslateDocument(ctx context.Context, lines []string, source, target string) []string {
	out, stats := s.docs.TranslateDocumentStats(ctx, lines, source, target)
	s.stats.Add(stats)
	return out
}
