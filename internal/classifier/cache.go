package classifier

import (
	"context"
	"log/slog"
	"sync"
)

// Store persists classifications across runs.
type Store interface {
	GetClassification(key string) (Result, bool, error)
	PutClassification(key string, r Result) error
}

// CacheStats counts cache traffic.
type CacheStats struct {
	Hits   int
	Misses int
	Errors int
}

// Cache wraps a Classifier and memoizes its answers by Context.Key. An
// optional Store makes the cache survive restarts.
type Cache struct {
	next  Classifier
	store Store

	mu      sync.Mutex
	entries map[string]Result
	stats   CacheStats
}

// NewCache returns a cache in front of next. store may be nil.
func NewCache(next Classifier, store Store) *Cache {
	return &Cache{next: next, store: store, entries: make(map[string]Result)}
}

// Classify implements Classifier. Failed classifications are not cached.
func (c *Cache) Classify(ctx context.Context, in Context) (Result, error) {
	key := in.Key()

	c.mu.Lock()
	if r, ok := c.entries[key]; ok {
		c.stats.Hits++
		c.mu.Unlock()
		r.Cached = true
		return r, nil
	}
	c.mu.Unlock()

	if c.store != nil {
		r, ok, err := c.store.GetClassification(key)
		if err != nil {
			slog.Warn("reading cached classification", "error", err)
		} else if ok {
			c.mu.Lock()
			c.entries[key] = r
			c.stats.Hits++
			c.mu.Unlock()
			r.Cached = true
			return r, nil
		}
	}

	r, err := c.next.Classify(ctx, in)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.stats.Errors++
		return Result{}, err
	}
	c.stats.Misses++
	r.Cached = false
	c.entries[key] = r
	if c.store != nil {
		if err := c.store.PutClassification(key, r); err != nil {
			slog.Warn("persisting classification", "error", err)
		}
	}
	return r, nil
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Len returns the number of in-memory entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
