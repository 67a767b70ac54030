package transport

import (
	"sync"
	"time"

	"github.com/paylink-dev/paylink-go/internal/types"
)

// CacheEntry is a cached GET payload. The payload is the decoded data
// field of the response envelope, not the raw HTTP response.
type CacheEntry struct {
	Payload   []byte
	StoredAt  time.Time
	ExpiresAt time.Time
}

// Cache is the response cache contract. Only read operations are ever
// stored; write operations bypass it entirely.
type Cache interface {
	Get(key string) (*CacheEntry, bool)
	Set(key string, payload []byte, ttl time.Duration)
	Delete(key string)
	Clear()
}

// InMemoryCache is a time-boxed in-memory cache. An entry is eligible
// for return iff now < ExpiresAt; an expired entry is purged on read,
// never served stale.
type InMemoryCache struct {
	mu    sync.Mutex
	store map[string]*CacheEntry
	now   types.Clock
}

// NewInMemoryCache creates an in-memory cache using the given clock.
func NewInMemoryCache(now types.Clock) *InMemoryCache {
	if now == nil {
		now = time.Now
	}
	return &InMemoryCache{
		store: make(map[string]*CacheEntry),
		now:   now,
	}
}

// Get retrieves a cached entry, purging it if expired.
func (c *InMemoryCache) Get(key string) (*CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.store[key]
	if !exists {
		return nil, false
	}

	if !c.now().Before(entry.ExpiresAt) {
		delete(c.store, key)
		return nil, false
	}

	return entry, true
}

// Set stores a payload under key. A repeat Set refreshes the TTL window.
func (c *InMemoryCache) Set(key string, payload []byte, ttl time.Duration) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = &CacheEntry{
		Payload:   payload,
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

// Delete removes a single entry.
func (c *InMemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.store, key)
}

// Clear removes all entries. Called wholesale on logout and on any
// cache-busting refresh so no payload leaks across sessions.
func (c *InMemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[string]*CacheEntry)
}

// Len returns the number of live entries. Expired entries still waiting
// for a purging read are counted.
func (c *InMemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.store)
}
