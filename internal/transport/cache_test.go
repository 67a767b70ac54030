package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a controllable clock for cache expiry tests.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestInMemoryCache_GetSet(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewInMemoryCache(clock.Now)

	_, ok := cache.Get("GET /v1/accounts/a1/balances?")
	assert.False(t, ok)

	cache.Set("GET /v1/accounts/a1/balances?", []byte(`{"accountId":"a1"}`), 30*time.Second)

	entry, ok := cache.Get("GET /v1/accounts/a1/balances?")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"accountId":"a1"}`), entry.Payload)
	assert.Equal(t, clock.now, entry.StoredAt)
	assert.Equal(t, clock.now.Add(30*time.Second), entry.ExpiresAt)
}

func TestInMemoryCache_ExpiredEntryPurgedOnRead(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewInMemoryCache(clock.Now)

	cache.Set("key", []byte("payload"), 30*time.Second)

	// Just inside the window.
	clock.Advance(29 * time.Second)
	_, ok := cache.Get("key")
	assert.True(t, ok)

	// Exactly at expiry the entry is no longer eligible.
	clock.Advance(time.Second)
	_, ok = cache.Get("key")
	assert.False(t, ok)

	// The expired entry was purged, not just hidden.
	assert.Equal(t, 0, cache.Len())
}

func TestInMemoryCache_SetRefreshesTTLWindow(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewInMemoryCache(clock.Now)

	cache.Set("key", []byte("v1"), 30*time.Second)
	clock.Advance(20 * time.Second)
	cache.Set("key", []byte("v2"), 30*time.Second)

	// 40s after the first Set, but only 20s after the refresh.
	clock.Advance(20 * time.Second)
	entry, ok := cache.Get("key")
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), entry.Payload)
}

func TestInMemoryCache_Delete(t *testing.T) {
	cache := NewInMemoryCache(nil)

	cache.Set("a", []byte("1"), time.Minute)
	cache.Set("b", []byte("2"), time.Minute)

	cache.Delete("a")

	_, ok := cache.Get("a")
	assert.False(t, ok)
	_, ok = cache.Get("b")
	assert.True(t, ok)
}

func TestInMemoryCache_Clear(t *testing.T) {
	cache := NewInMemoryCache(nil)

	cache.Set("a", []byte("1"), time.Minute)
	cache.Set("b", []byte("2"), time.Minute)
	require.Equal(t, 2, cache.Len())

	cache.Clear()

	assert.Equal(t, 0, cache.Len())
	_, ok := cache.Get("a")
	assert.False(t, ok)
}
