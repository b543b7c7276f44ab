package translate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedRanker(now time.Time) *Ranker {
	rk := NewRanker()
	rk.now = func() time.Time { return now }
	rk.jitter = func() float64 { return 1 }
	return rk
}

func TestSuccessRate(t *testing.T) {
	assert.Equal(t, 0.5, SuccessRate(Record{}))
	assert.InDelta(t, 0.8, SuccessRate(Record{Successes: 8, Failures: 2}), 1e-9)
	assert.Equal(t, 0.0, SuccessRate(Record{Failures: 3}))
}

func TestRanker_CooldownHalvesScore(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rk := fixedRanker(now)

	recent := Record{Successes: 8, Failures: 2, LastFailure: now.Add(-2 * time.Second)}
	old := Record{Successes: 8, Failures: 2, LastFailure: now.Add(-10 * time.Second)}

	assert.InDelta(t, 0.4, rk.Score(recent), 1e-9)
	assert.InDelta(t, 0.8, rk.Score(old), 1e-9)
}

func TestRanker_JitterRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		j := uniformJitter()
		assert.GreaterOrEqual(t, j, 0.9)
		assert.LessOrEqual(t, j, 1.1)
	}
}

func TestRanker_Rank(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rk := fixedRanker(now)
	providers := []ProviderName{ProviderGoogle, ProviderGoogletrans, ProviderMyMemory}

	t.Run("higher success rate first", func(t *testing.T) {
		snap := map[ProviderName]Record{
			ProviderGoogle:      {Successes: 1, Failures: 9},
			ProviderGoogletrans: {Successes: 9, Failures: 1},
		}
		got := rk.Rank(providers, snap)
		assert.Equal(t, []ProviderName{ProviderGoogletrans, ProviderMyMemory, ProviderGoogle}, got)
	})

	t.Run("ties keep registration order", func(t *testing.T) {
		got := rk.Rank(providers, map[ProviderName]Record{})
		assert.Equal(t, providers, got)
	})

	t.Run("just-failed provider is demoted but kept", func(t *testing.T) {
		snap := map[ProviderName]Record{
			ProviderGoogle: {Successes: 9, Failures: 1, LastFailure: now.Add(-time.Second)},
		}
		got := rk.Rank(providers, snap)
		assert.Equal(t, []ProviderName{ProviderGoogletrans, ProviderMyMemory, ProviderGoogle}, got)
	})
}
