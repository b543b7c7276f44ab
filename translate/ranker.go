package translate

import (
	"math/rand/v2"
	"sort"
	"time"
)

const (
	// neutralSuccessRate is used for providers without any observation yet.
	neutralSuccessRate = 0.5
	// DefaultCooldown is how long a just-failed provider stays penalized.
	DefaultCooldown = 5 * time.Second
	cooldownFactor  = 0.5
	jitterSpread    = 0.1
)

// Ranker orders providers by their live reliability score. A fresh order is
// computed for every request.
type Ranker struct {
	// Cooldown is the window after a failure during which the provider's
	// score is halved.
	Cooldown time.Duration

	now    func() time.Time
	jitter func() float64
}

// NewRanker returns a ranker with the default cooldown, the wall clock and a
// uniform jitter in [0.9, 1.1].
func NewRanker() *Ranker {
	return &Ranker{
		Cooldown: DefaultCooldown,
		now:      time.Now,
		jitter:   uniformJitter,
	}
}

func uniformJitter() float64 {
	return 1 - jitterSpread + rand.Float64()*2*jitterSpread
}

// SuccessRate returns successes/total, or 0.5 with no observations.
func SuccessRate(r Record) float64 {
	total := r.Total()
	if total == 0 {
		return neutralSuccessRate
	}
	return float64(r.Successes) / float64(total)
}

// Score computes successRate * coolingFactor * jitter for one record.
func (rk *Ranker) Score(r Record) float64 {
	cooling := 1.0
	if !r.LastFailure.IsZero() && rk.now().Sub(r.LastFailure) < rk.Cooldown {
		cooling = cooldownFactor
	}
	return SuccessRate(r) * cooling * rk.jitter()
}

// Rank returns providers sorted by descending score. The sort is stable, so
// on exact ties the earlier registered provider comes first. Every provider
// is always part of the result.
func (rk *Ranker) Rank(providers []ProviderName, snap map[ProviderName]Record) []ProviderName {
	type scored struct {
		name  ProviderName
		score float64
	}
	list := make([]scored, len(providers))
	for i, p := range providers {
		list[i] = scored{name: p, score: rk.Score(snap[p])}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].score > list[j].score
	})

	out := make([]ProviderName, len(list))
	for i, s := range list {
		out[i] = s.name
	}
	return out
}
