package lookup

import (
	"sync"
	"time"
)

// Cache is a map whose entries expire after a per-entry TTL.
// Expired entries are dropped lazily on access.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]Entry[V]
	now     func() time.Time
}

// Entry is a cached outcome: a value, or the error that replaced it.
type Entry[V any] struct {
	Value   V
	Err     error
	Expires time.Time
}

// NewCache returns an empty cache reading time from now.
func NewCache[V any](now func() time.Time) *Cache[V] {
	if now == nil {
		now = time.Now
	}
	return &Cache[V]{entries: make(map[string]Entry[V]), now: now}
}

// Get returns the entry stored for key while it is fresh.
func (c *Cache[V]) Get(key string) (Entry[V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Entry[V]{}, false
	}
	if !c.now().Before(e.Expires) {
		delete(c.entries, key)
		return Entry[V]{}, false
	}
	return e, true
}

// Set stores a value, or a failure, for ttl.
func (c *Cache[V]) Set(key string, value V, err error, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = Entry[V]{Value: value, Err: err, Expires: c.now().Add(ttl)}
}

// Len returns the number of entries, expired ones included.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
