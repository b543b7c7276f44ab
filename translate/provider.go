// Package translate implements the translation orchestration engine:
// per-provider reliability tracking, adaptive provider ranking, retry with
// exponential backoff, a process-lifetime cache, and the provider adapters
// for Google Translate (web), googletrans (gtx API), MyMemory, OpenAI and
// Gemini.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/minios-linux/pagetrans/metrics"
)

// ProviderName identifies a translation backend.
type ProviderName string

// ---------------------------------------------------------------------------
// Provider IDs
// ---------------------------------------------------------------------------

const (
	ProviderGoogle      ProviderName = "google"
	ProviderGoogletrans ProviderName = "googletrans"
	ProviderMyMemory    ProviderName = "mymemory"
	ProviderOpenAI      ProviderName = "openai"
	ProviderGemini      ProviderName = "gemini"
)

// AutoDetect is the source language code asking the backend to detect the
// language itself.
const AutoDetect = "auto"

var (
	// ErrProviderFailure wraps every adapter failure. Failures are soft: the
	// dispatcher retries or moves on to the next provider.
	ErrProviderFailure = errors.New("provider failure")
	// ErrUnsupportedSource is returned without a network call when a backend
	// cannot handle the requested source language.
	ErrUnsupportedSource = errors.New("unsupported source language")
	// ErrEmptyTranslation is returned when a backend answers with no text.
	ErrEmptyTranslation = errors.New("empty translation")
)

// Backend performs exactly one remote translation call.
type Backend interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Provider is what the dispatcher talks to.
type Provider interface {
	Name() ProviderName
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// ---------------------------------------------------------------------------
// Adapter: backend + reliability reporting
// ---------------------------------------------------------------------------

// Adapter wraps a Backend and reports every outcome to the Tracker. All
// failures (network, status, payload, precondition) are normalized to an
// error wrapping ErrProviderFailure and logged; the precise cause only
// appears in the log line.
type Adapter struct {
	name    ProviderName
	backend Backend
	tracker *Tracker
	limiter *rate.Limiter
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithRateLimit limits calls to rps requests per second (burst 1). A
// non-positive rps disables limiting.
func WithRateLimit(rps float64) AdapterOption {
	return func(a *Adapter) {
		if rps > 0 {
			a.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithLogger sets the adapter logger.
func WithLogger(logger *zap.Logger) AdapterOption {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) AdapterOption {
	return func(a *Adapter) { a.metrics = m }
}

// NewAdapter creates an adapter for backend and registers name with tracker.
func NewAdapter(name ProviderName, backend Backend, tracker *Tracker, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		name:    name,
		backend: backend,
		tracker: tracker,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	tracker.mu.Lock()
	tracker.register(name)
	tracker.mu.Unlock()
	return a
}

// Name returns the provider name.
func (a *Adapter) Name() ProviderName {
	return a.name
}

// Translate performs one call and records its outcome.
func (a *Adapter) Translate(ctx context.Context, text, source, target string) (string, error) {
	start := time.Now()

	var (
		out string
		err error
	)
	if a.limiter != nil {
		err = a.limiter.Wait(ctx)
	}
	if err == nil {
		out, err = a.backend.Translate(ctx, text, source, target)
	}
	if err == nil && strings.TrimSpace(out) == "" {
		err = ErrEmptyTranslation
	}

	a.metrics.ObserveProvider(string(a.name), err == nil, time.Since(start))

	if err != nil {
		a.tracker.RecordFailure(a.name)
		a.logger.Warn("Translation provider failed",
			zap.String("provider", string(a.name)),
			zap.String("error", truncate(err.Error(), 100)))
		return "", fmt.Errorf("%w: %s: %w", ErrProviderFailure, a.name, err)
	}

	a.tracker.RecordSuccess(a.name)
	return out, nil
}

// truncate truncates a string to maxLen bytes.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
