package translate

import "sync"

// Key identifies a cached translation. Fields are compared verbatim.
type Key struct {
	Text   string
	Source string
	Target string
}

// Cache stores successful translations.
type Cache interface {
	Get(key Key) (string, bool)
	Put(key Key, translation string)
}

// MemoryCache is an unbounded in-process cache. Entries live for the
// lifetime of the process; there is no eviction.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[Key]string
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[Key]string)}
}

// Get returns the cached translation for key.
func (c *MemoryCache) Get(key Key) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Put stores a translation.
func (c *MemoryCache) Put(key Key, translation string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = translation
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Entries returns a copy of the cache content.
func (c *MemoryCache) Entries() map[Key]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[Key]string, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// Load merges entries into the cache, e.g. from a snapshot file.
func (c *MemoryCache) Load(entries map[Key]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range entries {
		c.entries[k] = v
	}
}
