package translate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeBackend answers from a fixed script and counts its calls.
type fakeBackend struct {
	mu    sync.Mutex
	calls int
	fn    func(call int, text string) (string, error)
}

func (f *fakeBackend) Translate(_ context.Context, text, _, _ string) (string, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	return f.fn(call, text)
}

func (f *fakeBackend) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func failing() *fakeBackend {
	return &fakeBackend{fn: func(int, string) (string, error) {
		return "", errors.New("boom")
	}}
}

func answering(out string) *fakeBackend {
	return &fakeBackend{fn: func(int, string) (string, error) {
		return out, nil
	}}
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) Sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return nil
}

// newTestDispatcher registers backends in the given order with a ranker
// whose jitter is fixed, so untested providers keep registration order.
func newTestDispatcher(t *testing.T, cache Cache, sleeper *sleepRecorder, backends ...namedBackend) (*Dispatcher, *Tracker) {
	t.Helper()
	tr := NewTracker()
	providers := make([]Provider, 0, len(backends))
	for _, b := range backends {
		providers = append(providers, NewAdapter(b.name, b.backend, tr, WithLogger(zap.NewNop())))
	}
	rk := NewRanker()
	rk.jitter = func() float64 { return 1 }
	d := NewDispatcher(tr, rk, cache, providers, DispatcherOptions{Sleep: sleeper.Sleep})
	return d, tr
}

type namedBackend struct {
	name    ProviderName
	backend Backend
}

func TestDispatcher_WhitespacePassthrough(t *testing.T) {
	a := answering("x")
	d, _ := newTestDispatcher(t, nil, &sleepRecorder{}, namedBackend{"a", a})

	for _, text := range []string{"", "   ", "\n\t "} {
		res := d.Translate(context.Background(), Request{Text: text, Source: "en", Target: "ta"})
		assert.Equal(t, text, res.Text)
		assert.False(t, res.Translated)
	}
	assert.Equal(t, 0, a.Calls())
}

func TestDispatcher_CacheHitSkipsProviders(t *testing.T) {
	cache := NewMemoryCache()
	cache.Put(Key{Text: "Hello", Source: "en", Target: "ta"}, "வணக்கம்")
	a := answering("other")
	d, _ := newTestDispatcher(t, cache, &sleepRecorder{}, namedBackend{"a", a})

	res := d.Translate(context.Background(), Request{Text: "Hello", Source: "en", Target: "ta"})
	assert.Equal(t, Result{Text: "வணக்கம்", Translated: true, Cached: true}, res)
	assert.Equal(t, 0, a.Calls())
}

func TestDispatcher_SuccessPopulatesCache(t *testing.T) {
	cache := NewMemoryCache()
	a := answering("Bonjour")
	d, tr := newTestDispatcher(t, cache, &sleepRecorder{}, namedBackend{"a", a})

	req := Request{Text: "Hello", Source: "en", Target: "fr"}
	res := d.Translate(context.Background(), req)
	assert.Equal(t, Result{Text: "Bonjour", Translated: true, Provider: "a", Attempts: 1}, res)

	got, ok := cache.Get(Key{Text: "Hello", Source: "en", Target: "fr"})
	require.True(t, ok)
	assert.Equal(t, "Bonjour", got)
	assert.Equal(t, uint64(1), tr.Snapshot()["a"].Successes)

	// Second call is served from the cache.
	res = d.Translate(context.Background(), req)
	assert.True(t, res.Cached)
	assert.Equal(t, 1, a.Calls())
}

func TestDispatcher_FailoverToNextProvider(t *testing.T) {
	sleeper := &sleepRecorder{}
	a := failing()
	b := answering("Hola")
	d, tr := newTestDispatcher(t, nil, sleeper, namedBackend{"a", a}, namedBackend{"b", b})

	res := d.Translate(context.Background(), Request{Text: "Hello", Source: "en", Target: "es"})

	assert.Equal(t, "Hola", res.Text)
	assert.True(t, res.Translated)
	assert.Equal(t, ProviderName("b"), res.Provider)
	assert.Equal(t, 4, res.Attempts)
	assert.Equal(t, 3, a.Calls())
	assert.Equal(t, 1, b.Calls())

	snap := tr.Snapshot()
	assert.Equal(t, uint64(3), snap["a"].Failures)
	assert.Equal(t, uint64(1), snap["b"].Successes)

	// Only the first failed attempt on a provider is followed by a sleep.
	assert.Equal(t, []time.Duration{time.Second}, sleeper.delays)
}

func TestDispatcher_RetrySameProvider(t *testing.T) {
	flaky := &fakeBackend{fn: func(call int, _ string) (string, error) {
		if call == 1 {
			return "", errors.New("timeout")
		}
		return "Hallo", nil
	}}
	d, tr := newTestDispatcher(t, nil, &sleepRecorder{}, namedBackend{"a", flaky})

	res := d.Translate(context.Background(), Request{Text: "Hello", Source: "en", Target: "de"})
	assert.Equal(t, "Hallo", res.Text)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, uint64(1), tr.Snapshot()["a"].Failures)
	assert.Equal(t, uint64(1), tr.Snapshot()["a"].Successes)
}

func TestDispatcher_ExhaustionFallsBack(t *testing.T) {
	sleeper := &sleepRecorder{}
	cache := NewMemoryCache()
	a, b := failing(), failing()
	d, tr := newTestDispatcher(t, cache, sleeper, namedBackend{"a", a}, namedBackend{"b", b})

	res := d.Translate(context.Background(), Request{Text: "Hello", Source: "en", Target: "ta"})

	assert.Equal(t, Result{Text: "Hello", Attempts: 6}, res)
	assert.Equal(t, 0, cache.Len())
	assert.Equal(t, uint64(3), tr.Snapshot()["a"].Failures)
	assert.Equal(t, uint64(3), tr.Snapshot()["b"].Failures)
	assert.Len(t, sleeper.delays, 2)
}

func TestDispatcher_EmptyAnswerIsFailure(t *testing.T) {
	a := answering("   ")
	b := answering("ok")
	d, tr := newTestDispatcher(t, nil, &sleepRecorder{}, namedBackend{"a", a}, namedBackend{"b", b})

	res := d.Translate(context.Background(), Request{Text: "Hello", Source: "en", Target: "ta"})
	assert.Equal(t, "ok", res.Text)
	assert.Equal(t, uint64(3), tr.Snapshot()["a"].Failures)
}

func TestDispatcher_RanksByReliability(t *testing.T) {
	a := answering("from a")
	b := answering("from b")
	d, tr := newTestDispatcher(t, nil, &sleepRecorder{}, namedBackend{"a", a}, namedBackend{"b", b})

	for i := 0; i < 4; i++ {
		tr.RecordFailure("a")
		tr.RecordSuccess("b")
	}

	res := d.Translate(context.Background(), Request{Text: "Hello", Source: "en", Target: "ta"})
	assert.Equal(t, ProviderName("b"), res.Provider)
	assert.Equal(t, 0, a.Calls())
}

func TestDispatcher_ConcurrentRequests(t *testing.T) {
	a := &fakeBackend{fn: func(_ int, text string) (string, error) {
		return "t:" + text, nil
	}}
	d, tr := newTestDispatcher(t, nil, &sleepRecorder{}, namedBackend{"a", a})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := string(rune('a' + i%26))
			res := d.Translate(context.Background(), Request{Text: text, Source: "en", Target: "ta"})
			assert.Equal(t, "t:"+text, res.Text)
		}(i)
	}
	wg.Wait()

	rec := tr.Snapshot()["a"]
	assert.Equal(t, uint64(a.Calls()), rec.Successes)
}

func TestSleepContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := sleepContext(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
