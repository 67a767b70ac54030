package transport

import (
	"context"
	"sync"
)

// PendingEntry is an in-flight request shared between all callers that
// asked for the same request identity before the first one settled.
type PendingEntry struct {
	payload []byte
	err     error
	done    chan struct{}
}

// Wait blocks until the owning request settles or ctx ends. A waiter
// whose context ends stops waiting; the underlying request is never
// cancelled on its behalf.
func (e *PendingEntry) Wait(ctx context.Context) ([]byte, error) {
	select {
	case <-e.done:
		return e.payload, e.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Deduplicator coalesces concurrent logically-identical requests into a
// single physical network call. At most one entry exists per identity
// at any instant.
type Deduplicator struct {
	mu      sync.Mutex
	entries map[string]*PendingEntry
}

// NewDeduplicator returns an empty in-flight request tracker.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{
		entries: make(map[string]*PendingEntry),
	}
}

// GetOrCreate returns the existing entry for key (owner=false), or
// creates a fresh one the caller must complete (owner=true).
func (d *Deduplicator) GetOrCreate(key string) (*PendingEntry, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if entry, exists := d.entries[key]; exists {
		return entry, false
	}

	entry := &PendingEntry{done: make(chan struct{})}
	d.entries[key] = entry
	return entry, true
}

// Complete settles the entry, releases every waiter, and removes the
// entry immediately so a call arriving after settlement issues a fresh
// request unless satisfied by cache.
func (d *Deduplicator) Complete(key string, payload []byte, err error) {
	d.mu.Lock()
	entry, exists := d.entries[key]
	delete(d.entries, key)
	d.mu.Unlock()

	if !exists {
		return
	}

	entry.payload = payload
	entry.err = err
	close(entry.done)
}

// Clear drops all pending entries, releasing their waiters with err.
// Used on logout so a new session never joins a previous session's
// in-flight request.
func (d *Deduplicator) Clear(err error) {
	d.mu.Lock()
	entries := d.entries
	d.entries = make(map[string]*PendingEntry)
	d.mu.Unlock()

	for _, entry := range entries {
		entry.err = err
		close(entry.done)
	}
}

// Len returns the number of in-flight entries.
func (d *Deduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.entries)
}
