package gametree

import (
	"sync"
	"sync/atomic"
)

// Bound classifies a stored search value relative to the true value.
type Bound uint8

const (
	BoundExact Bound = iota
	BoundLower
	BoundUpper
)

// Entry is one transposition table record. Depth is the number of empty slots
// remaining at the stored position, so a deeper entry summarizes a larger
// subtree.
type Entry struct {
	Value float64
	Bound Bound
	Depth int
}

// Table is a concurrency-safe transposition table keyed by normalized
// position hash. Collisions on replacement keep the deeper entry.
type Table struct {
	mu      sync.RWMutex
	entries map[uint64]Entry
	hits    atomic.Uint64
	misses  atomic.Uint64
}

// TableStats reports probe counters since the table was created.
type TableStats struct {
	Hits    uint64
	Misses  uint64
	Entries int
}

// NewTable returns an empty transposition table.
func NewTable() *Table {
	return &Table{entries: make(map[uint64]Entry)}
}

// Lookup returns the stored entry for the key, if any.
func (t *Table) Lookup(key uint64) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[key]
	if ok {
		t.hits.Add(1)
	} else {
		t.misses.Add(1)
	}
	return e, ok
}

// Store records an entry, keeping the existing one when it covers a deeper
// subtree.
func (t *Table) Store(key uint64, e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if old, ok := t.entries[key]; ok && old.Depth > e.Depth {
		return
	}
	t.entries[key] = e
}

// Len returns the number of stored entries.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Stats returns probe counters and the current entry count.
func (t *Table) Stats() TableStats {
	return TableStats{
		Hits:    t.hits.Load(),
		Misses:  t.misses.Load(),
		Entries: t.Len(),
	}
}
