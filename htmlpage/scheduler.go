package htmlpage

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/minios-linux/pagetrans/metrics"
	"github.com/minios-linux/pagetrans/translate"
)

// Translator is the part of translate.Dispatcher the scheduler needs.
type Translator interface {
	Translate(ctx context.Context, req translate.Request) translate.Result
}

// PageStats summarizes one page.
type PageStats struct {
	Leaves     int
	Translated int
	Cached     int
	Fallbacks  int
}

// Add accumulates other into s.
func (s *PageStats) Add(other PageStats) {
	s.Leaves += other.Leaves
	s.Translated += other.Translated
	s.Cached += other.Cached
	s.Fallbacks += other.Fallbacks
}

// Scheduler translates all leaves of a page concurrently and joins them
// before the page is emitted.
type Scheduler struct {
	walker      *Walker
	translator  Translator
	concurrency int
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithWalker replaces the default walker.
func WithWalker(w *Walker) SchedulerOption {
	return func(s *Scheduler) { s.walker = w }
}

// WithPageConcurrency bounds the number of in-flight leaf translations per
// page. Zero or less means one goroutine per leaf.
func WithPageConcurrency(n int) SchedulerOption {
	return func(s *Scheduler) { s.concurrency = n }
}

// WithLogger sets the scheduler logger.
func WithLogger(l *zap.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) SchedulerOption {
	return func(s *Scheduler) { s.metrics = m }
}

// NewScheduler creates a scheduler that sends every leaf to translator.
func NewScheduler(translator Translator, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		walker:     NewWalker(),
		translator: translator,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TranslatePage translates one fragment. Fragments that are not pages, and
// pages that cannot be parsed or rendered, are returned unchanged.
func (s *Scheduler) TranslatePage(ctx context.Context, fragment, source, target string) (string, PageStats) {
	if !IsPage(fragment) {
		return fragment, PageStats{}
	}
	start := time.Now()

	page, err := s.walker.Parse(fragment)
	if err != nil {
		if !errors.Is(err, ErrNotAPage) {
			s.logger.Warn("Skipping unparsable page", zap.Error(err))
		}
		return fragment, PageStats{}
	}

	results := make([]translate.Result, len(page.Leaves))
	var g errgroup.Group
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}
	for i, leaf := range page.Leaves {
		g.Go(func() error {
			results[i] = s.translator.Translate(ctx, translate.Request{
				Text:   leaf.Text,
				Source: source,
				Target: target,
			})
			return nil
		})
	}
	_ = g.Wait()

	// The DOM is only touched after every task has finished.
	stats := PageStats{Leaves: len(page.Leaves)}
	for i, leaf := range page.Leaves {
		res := results[i]
		leaf.Apply(res.Text)
		switch {
		case res.Cached:
			stats.Cached++
		case res.Translated:
			stats.Translated++
		default:
			stats.Fallbacks++
		}
	}

	out, err := page.Render()
	if err != nil {
		s.logger.Warn("Keeping untranslated page", zap.Error(err))
		return fragment, stats
	}
	s.metrics.ObservePage(time.Since(start))
	return out, stats
}
