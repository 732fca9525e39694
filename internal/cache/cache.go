package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	data      any
	createdAt time.Time
}

// Cache stores upstream responses keyed by logical request name
// (e.g. "linkwarden", "trilium_tag_work"). Expired entries are kept
// around so they can be served as a fallback when a refresh fails.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	maxEntries int
	ttl        time.Duration

	hits   func()
	misses func()
}

func New(maxEntries int, ttlSec int) *Cache {
	c := &Cache{
		entries:    make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        time.Duration(ttlSec) * time.Second,
	}
	// Periodic cleanup; stale entries are retained for one extra TTL
	// so they stay available as fetch-failure fallbacks.
	go func() {
		ticker := time.NewTicker(60 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			c.cleanup()
		}
	}()
	return c
}

// OnHit and OnMiss register optional counters invoked on lookups.
func (c *Cache) OnHit(fn func())  { c.hits = fn }
func (c *Cache) OnMiss(fn func()) { c.misses = fn }

// Get returns the cached value if present and fresh.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || time.Since(e.createdAt) > c.ttl {
		if c.misses != nil {
			c.misses()
		}
		return nil, false
	}
	if c.hits != nil {
		c.hits()
	}
	return e.data, true
}

// GetStale returns the cached value even if expired.
func (c *Cache) GetStale(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return e.data, true
}

// Set stores a value, evicting the oldest entry at capacity.
func (c *Cache) Set(key string, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		var oldestKey string
		var oldestTime time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.createdAt.Before(oldestTime) {
				oldestKey = k
				oldestTime = e.createdAt
			}
		}
		if oldestKey != "" {
			delete(c.entries, oldestKey)
		}
	}

	c.entries[key] = &entry{data: data, createdAt: time.Now()}
}

// Fetch returns the fresh cached value for key, or runs fetchFn and
// caches its result. When fetchFn fails, a stale entry is served
// instead of the error. Concurrent fetches for the same key are not
// deduplicated; request volume is low enough that this does not matter.
func (c *Cache) Fetch(ctx context.Context, key string, fetchFn func(ctx context.Context) (any, error)) (any, error) {
	if data, ok := c.Get(key); ok {
		return data, nil
	}

	data, err := fetchFn(ctx)
	if err != nil {
		if stale, ok := c.GetStale(key); ok {
			return stale, nil
		}
		return nil, err
	}

	c.Set(key, data)
	return data, nil
}

func (c *Cache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for k, e := range c.entries {
		if now.Sub(e.createdAt) > 2*c.ttl {
			delete(c.entries, k)
		}
	}
}

// Stats returns cache statistics.
func (c *Cache) Stats() (size int, maxSize int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries), c.maxEntries
}
