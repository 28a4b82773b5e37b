// Package cache provides the in-process memoization tier for calculation
// results. Computations are deterministic, so a cached entry is always
// exactly what recomputation would produce; the cache is a latency
// optimization, never a store of record.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Stats tracks cache performance counters.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Entries   int   `json:"entries"`
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// MemoryCache is a bounded LRU cache with per-entry TTL. The zero TTL
// disables expiry. Safe for concurrent use.
type MemoryCache[V any] struct {
	entries *lru.Cache[string, entry[V]]
	ttl     time.Duration

	mu    sync.Mutex
	stats Stats
}

// NewMemoryCache creates a cache holding at most maxEntries values, each
// valid for ttl after insertion.
func NewMemoryCache[V any](maxEntries int, ttl time.Duration) (*MemoryCache[V], error) {
	c := &MemoryCache[V]{ttl: ttl}

	entries, err := lru.NewWithEvict[string, entry[V]](maxEntries, func(string, entry[V]) {
		c.mu.Lock()
		c.stats.Evictions++
		c.mu.Unlock()
	})
	if err != nil {
		return nil, err
	}

	c.entries = entries
	return c, nil
}

// Key derives a deterministic cache key from a name and a JSON-serializable
// parameter value.
func Key(name string, params any) string {
	paramBytes, _ := json.Marshal(params)
	hash := sha256.Sum256(append([]byte(name+"::"), paramBytes...))
	return hex.EncodeToString(hash[:])
}

// Get returns the cached value for key if present and unexpired.
func (c *MemoryCache[V]) Get(key string) (V, bool) {
	var zero V

	cached, ok := c.entries.Get(key)
	if !ok {
		c.count(false)
		return zero, false
	}

	if !cached.expiresAt.IsZero() && time.Now().After(cached.expiresAt) {
		c.entries.Remove(key)
		c.count(false)
		return zero, false
	}

	c.count(true)
	return cached.value, true
}

// Set stores a value under key.
func (c *MemoryCache[V]) Set(key string, value V) {
	e := entry[V]{value: value}
	if c.ttl > 0 {
		e.expiresAt = time.Now().Add(c.ttl)
	}
	c.entries.Add(key, e)
}

// Purge drops every entry.
func (c *MemoryCache[V]) Purge() {
	c.entries.Purge()
}

// Stats returns a snapshot of the cache counters.
func (c *MemoryCache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := c.stats
	snapshot.Entries = c.entries.Len()
	return snapshot
}

func (c *MemoryCache[V]) count(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
}
