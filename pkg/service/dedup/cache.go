package dedup

import (
	"sync"
	"time"
)

const (
	// compactThreshold bounds the table size: once crossed, every entry
	// older than compactHorizon is dropped regardless of its own TTL.
	compactThreshold = 1000
	compactHorizon   = 10 * time.Minute
)

// Cache is a time-windowed deduplication table answering "has this exact
// event fired recently?". Keys are opaque composites built by the caller;
// each check supplies its own TTL. Expiry is checked lazily.
type Cache struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
	limit   int
	horizon time.Duration
}

type Option func(*Cache)

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithLimit overrides the compaction threshold, for tests.
func WithLimit(n int) Option {
	return func(c *Cache) {
		c.limit = n
	}
}

func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]time.Time),
		now:     time.Now,
		limit:   compactThreshold,
		horizon: compactHorizon,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ShouldSuppress reports whether the same key already fired within ttl.
// A hit leaves the recorded time untouched; a miss records now under the
// key and returns false.
func (c *Cache) ShouldSuppress(key string, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if last, ok := c.entries[key]; ok && now.Sub(last) < ttl {
		return true
	}

	c.entries[key] = now
	if len(c.entries) > c.limit {
		c.compact(now)
	}
	return false
}

// Len returns the current table size.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) compact(now time.Time) {
	cutoff := now.Add(-c.horizon)
	for k, v := range c.entries {
		if v.Before(cutoff) {
			delete(c.entries, k)
		}
	}
}
