package translate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/minios-linux/pagetrans/metrics"
)

// ProviderSettings describes one configured provider.
type ProviderSettings struct {
	Name      ProviderName
	BaseURL   string
	Timeout   time.Duration
	Proxy     string
	RateLimit float64 // requests per second, 0 = unlimited

	// mymemory
	Email string

	// openai, gemini
	APIKey      string
	Model       string
	Temperature float32
}

// DefaultProviderOrder is the registration order of the built-in providers.
var DefaultProviderOrder = []ProviderName{ProviderGoogle, ProviderGoogletrans, ProviderMyMemory}

// BuildProviders creates one Adapter per settings entry, in order, and
// registers each name with tracker. LLM providers without an API key are
// skipped with a log line.
func BuildProviders(ctx context.Context, settings []ProviderSettings, tracker *Tracker, logger *zap.Logger, m *metrics.Metrics) ([]Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var providers []Provider
	seen := make(map[ProviderName]bool, len(settings))
	for _, s := range settings {
		if seen[s.Name] {
			return nil, fmt.Errorf("provider %q configured twice", s.Name)
		}
		seen[s.Name] = true

		backend, err := newBackend(ctx, s, logger)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", s.Name, err)
		}
		if backend == nil {
			logger.Info("Provider disabled: no API key", zap.String("provider", string(s.Name)))
			continue
		}
		providers = append(providers, NewAdapter(s.Name, backend, tracker,
			WithRateLimit(s.RateLimit),
			WithLogger(logger),
			WithMetrics(m)))
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("no translation provider enabled")
	}
	return providers, nil
}

func newBackend(ctx context.Context, s ProviderSettings, logger *zap.Logger) (Backend, error) {
	httpOpts := HTTPOptions{BaseURL: s.BaseURL, Timeout: s.Timeout, Proxy: s.Proxy}
	llmOpts := LLMOptions{APIKey: s.APIKey, Model: s.Model, BaseURL: s.BaseURL, Temperature: s.Temperature, Timeout: s.Timeout}

	switch s.Name {
	case ProviderGoogle:
		return NewGoogleWeb(httpOpts), nil
	case ProviderGoogletrans:
		return NewGoogletrans(httpOpts), nil
	case ProviderMyMemory:
		return NewMyMemory(httpOpts, s.Email, logger), nil
	case ProviderOpenAI:
		if s.APIKey == "" {
			return nil, nil
		}
		return NewOpenAI(llmOpts), nil
	case ProviderGemini:
		if s.APIKey == "" {
			return nil, nil
		}
		return NewGemini(ctx, llmOpts)
	default:
		return nil, fmt.Errorf("unknown provider")
	}
}
