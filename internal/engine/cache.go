package engine

import (
	"sync"
	"time"
)

// ttlCache is a fixed-capacity in-memory cache with per-entry expiry. Entries
// expire strictly after the TTL: a read at exactly expiry time is a miss.
// State is process-local; a multi-process deployment gets independent caches,
// bounding staleness to "at most TTL seconds within one process".
type ttlCache[V any] struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry[V]
	ttl        time.Duration
	maxEntries int
	hits       int64
	misses     int64
	now        func() time.Time
}

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

func newTTLCache[V any](ttl time.Duration, maxEntries int) *ttlCache[V] {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	return &ttlCache[V]{
		entries:    make(map[string]cacheEntry[V]),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// get returns the cached value if present and not yet expired.
func (c *ttlCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if ok && c.now().Before(entry.expiresAt) {
		c.hits++
		return entry.value, true
	}
	if ok {
		delete(c.entries, key)
	}
	c.misses++
	var zero V
	return zero, false
}

// put stores a value with the cache's TTL, evicting as needed to stay within
// capacity.
func (c *ttlCache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	c.entries[key] = cacheEntry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

// evictLocked drops expired entries, then the entry closest to expiry if the
// cache is still full.
func (c *ttlCache[V]) evictLocked() {
	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	if len(c.entries) < c.maxEntries {
		return
	}

	var oldestKey string
	var oldest time.Time
	first := true
	for k, e := range c.entries {
		if first || e.expiresAt.Before(oldest) {
			oldestKey, oldest = k, e.expiresAt
			first = false
		}
	}
	delete(c.entries, oldestKey)
}

// CacheStats summarizes one cache's counters.
type CacheStats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Entries int     `json:"entries"`
	HitRate float64 `json:"hit_rate"`
}

func (c *ttlCache[V]) stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := CacheStats{Hits: c.hits, Misses: c.misses, Entries: len(c.entries)}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}
