package translate

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/minios-linux/pagetrans/metrics"
)

// ---------------------------------------------------------------------------
// Requests and results
// ---------------------------------------------------------------------------

// Request is one unit of text to translate.
type Request struct {
	Text   string
	Source string
	Target string
}

// Result is the outcome of Dispatcher.Translate. When every provider is
// exhausted Text is the original text and Translated is false.
type Result struct {
	Text       string
	Translated bool
	Cached     bool
	Provider   ProviderName
	Attempts   int
}

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

const (
	defaultAttempts        = 3
	defaultBackoffAttempts = 1
)

// DispatcherOptions configures retry behaviour and instrumentation.
type DispatcherOptions struct {
	// Attempts is the number of tries per provider (default 3).
	Attempts int
	// BackoffAttempts is the number of leading attempts followed by a
	// backoff sleep before the next try on the same provider (default 1).
	BackoffAttempts int
	// Backoff computes the sleep (default DefaultBackoff).
	Backoff *Backoff
	// Sleep replaces the context-aware timer sleep, for tests.
	Sleep   func(ctx context.Context, d time.Duration) error
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

func (o *DispatcherOptions) effectiveAttempts() int {
	if o.Attempts <= 0 {
		return defaultAttempts
	}
	return o.Attempts
}

func (o *DispatcherOptions) effectiveBackoffAttempts() int {
	if o.BackoffAttempts <= 0 {
		return defaultBackoffAttempts
	}
	return o.BackoffAttempts
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ---------------------------------------------------------------------------
// Dispatcher
// ---------------------------------------------------------------------------

// Dispatcher drives one request through cache lookup, provider ranking and
// ordered attempts with retry and backoff. It is safe for concurrent use;
// the Tracker and the Cache are its only shared state.
type Dispatcher struct {
	providers       []Provider
	byName          map[ProviderName]Provider
	tracker         *Tracker
	ranker          *Ranker
	cache           Cache
	backoff         Backoff
	attempts        int
	backoffAttempts int
	sleep           func(ctx context.Context, d time.Duration) error
	logger          *zap.Logger
	metrics         *metrics.Metrics
}

// NewDispatcher creates a dispatcher over providers. A nil ranker uses
// NewRanker(); a nil cache uses a fresh MemoryCache.
func NewDispatcher(tracker *Tracker, ranker *Ranker, cache Cache, providers []Provider, opts DispatcherOptions) *Dispatcher {
	if ranker == nil {
		ranker = NewRanker()
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	d := &Dispatcher{
		providers:       providers,
		byName:          make(map[ProviderName]Provider, len(providers)),
		tracker:         tracker,
		ranker:          ranker,
		cache:           cache,
		backoff:         DefaultBackoff,
		attempts:        opts.effectiveAttempts(),
		backoffAttempts: opts.effectiveBackoffAttempts(),
		sleep:           opts.Sleep,
		logger:          opts.Logger,
		metrics:         opts.Metrics,
	}
	if opts.Backoff != nil {
		d.backoff = *opts.Backoff
	}
	if d.sleep == nil {
		d.sleep = sleepContext
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	for _, p := range providers {
		d.byName[p.Name()] = p
	}
	return d
}

// Providers returns the configured providers in registration order.
func (d *Dispatcher) Providers() []ProviderName {
	out := make([]ProviderName, len(d.providers))
	for i, p := range d.providers {
		out[i] = p.Name()
	}
	return out
}

// Tracker returns the reliability tracker used for ranking.
func (d *Dispatcher) Tracker() *Tracker {
	return d.tracker
}

// Ranker returns the ranker used for every request.
func (d *Dispatcher) Ranker() *Ranker {
	return d.ranker
}

// Translate translates one request. It never returns an error: provider
// failures are retried, then the next provider is tried, and when all are
// exhausted the original text comes back with Translated == false.
func (d *Dispatcher) Translate(ctx context.Context, req Request) Result {
	if strings.TrimSpace(req.Text) == "" {
		d.metrics.Translation(metrics.OutcomeSkipped)
		return Result{Text: req.Text}
	}

	key := Key{Text: req.Text, Source: req.Source, Target: req.Target}
	if cached, ok := d.cache.Get(key); ok {
		d.metrics.CacheHit()
		d.metrics.Translation(metrics.OutcomeCached)
		return Result{Text: cached, Translated: true, Cached: true}
	}
	d.metrics.CacheMiss()

	order := d.ranker.Rank(d.Providers(), d.tracker.Snapshot())

	calls := 0
	for _, name := range order {
		p := d.byName[name]
		for attempt := 0; attempt < d.attempts; attempt++ {
			calls++
			out, err := p.Translate(ctx, req.Text, req.Source, req.Target)
			if err == nil {
				d.cache.Put(key, out)
				d.observeSuccess()
				return Result{Text: out, Translated: true, Provider: name, Attempts: calls}
			}
			if attempt < d.backoffAttempts && attempt < d.attempts-1 {
				// A cancelled sleep is not fatal; the next call fails fast.
				_ = d.sleep(ctx, d.backoff.Delay(attempt))
			}
		}
	}

	d.logger.Warn("All translation providers failed, keeping original text",
		zap.String("text", truncate(req.Text, 100)),
		zap.String("source", req.Source),
		zap.String("target", req.Target),
		zap.Int("attempts", calls))
	d.metrics.Translation(metrics.OutcomeFallback)
	return Result{Text: req.Text, Attempts: calls}
}

func (d *Dispatcher) observeSuccess() {
	if d.metrics == nil {
		return
	}
	d.metrics.Translation(metrics.OutcomeTranslated)
	if sized, ok := d.cache.(interface{ Len() int }); ok {
		d.metrics.SetCacheEntries(sized.Len())
	}
	for name, rec := range d.tracker.Snapshot() {
		d.metrics.SetSuccessRate(string(name), SuccessRate(rec))
	}
}
