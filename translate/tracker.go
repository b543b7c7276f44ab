package translate

import (
	"sync"
	"time"
)

// Record holds the live reliability counters of one provider.
type Record struct {
	Successes   uint64
	Failures    uint64
	LastFailure time.Time
}

// Total returns the number of observed calls.
func (r Record) Total() uint64 {
	return r.Successes + r.Failures
}

// Tracker keeps per-provider success/failure counters. It is shared by all
// translation tasks of the process and is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	order   []ProviderName
	records map[ProviderName]*Record
	now     func() time.Time
}

// NewTracker creates a tracker with the given providers registered in order.
// The registration order is the tie-break order used by the Ranker.
func NewTracker(providers ...ProviderName) *Tracker {
	t := &Tracker{
		records: make(map[ProviderName]*Record, len(providers)),
		now:     time.Now,
	}
	for _, p := range providers {
		t.register(p)
	}
	return t
}

// register must be called with mu held (or before the tracker is shared).
func (t *Tracker) register(p ProviderName) *Record {
	if r, ok := t.records[p]; ok {
		return r
	}
	r := &Record{}
	t.records[p] = r
	t.order = append(t.order, p)
	return r
}

// RecordSuccess increments the success counter of p.
func (t *Tracker) RecordSuccess(p ProviderName) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.register(p).Successes++
}

// RecordFailure increments the failure counter of p and stamps the time of
// the failure.
func (t *Tracker) RecordFailure(p ProviderName) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.register(p)
	r.Failures++
	r.LastFailure = t.now()
}

// Snapshot returns a copy of all records.
func (t *Tracker) Snapshot() map[ProviderName]Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[ProviderName]Record, len(t.records))
	for name, r := range t.records {
		out[name] = *r
	}
	return out
}

// Providers returns the registered providers in registration order.
func (t *Tracker) Providers() []ProviderName {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]ProviderName, len(t.order))
	copy(out, t.order)
	return out
}
