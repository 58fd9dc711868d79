package engine

import (
	"sync"
	"time"
)

// ttlCache is time-bounded memoization: a read is a hit only while the entry
// is younger than the TTL. Stale entries are overwritten on the next Put and
// never served. A failed upstream fetch must simply not call Put, leaving
// the previous entry to expire on its own.
type ttlCache[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]ttlEntry[V]
}

type ttlEntry[V any] struct {
	value     V
	fetchedAt time.Time
}

func newTTLCache[V any](ttl time.Duration) *ttlCache[V] {
	return &ttlCache[V]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]ttlEntry[V]),
	}
}

// Get returns the cached value and whether it is still fresh.
func (c *ttlCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.fetchedAt) >= c.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores a freshly fetched value.
func (c *ttlCache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = ttlEntry[V]{value: value, fetchedAt: c.now()}
}

// Purge drops entries older than the TTL so the map does not grow without
// bound across long runs with churning player names.
func (c *ttlCache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	cutoff := c.now()
	for k, e := range c.entries {
		if cutoff.Sub(e.fetchedAt) >= c.ttl {
			delete(c.entries, k)
		}
	}
}
