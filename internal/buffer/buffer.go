// Package buffer holds the bounded trailing history of observed entries.
package buffer

import "github.com/aretw0/remotedev/pkg/domain"

// Buffer keeps the last maxAge entries, the state observed after each of
// them, and the preloaded state: the snapshot taken right before the oldest
// retained entry.
//
// It is not safe for concurrent use. Callers must guard Record and Snapshot
// with the same lock.
type Buffer struct {
	maxAge       int
	entries      []domain.Entry
	states       []any
	preloaded    any
	hasPreloaded bool
}

// Snapshot is a point-in-time copy of the buffer contents.
type Snapshot struct {
	Entries        []domain.Entry
	PreloadedState any
	HasPreloaded   bool
}

// New creates a buffer holding at most maxAge entries.
// A maxAge of zero or less disables eviction.
func New(maxAge int) *Buffer {
	return &Buffer{maxAge: maxAge}
}

// Record appends an entry with the state observed after it.
// When capacity is exceeded the oldest entry and its state are evicted
// together, and the evicted state becomes the preloaded state.
func (b *Buffer) Record(entry domain.Entry, observedState any) {
	b.entries = append(b.entries, entry)
	b.states = append(b.states, observedState)

	if b.maxAge <= 0 || len(b.entries) <= b.maxAge {
		return
	}

	evicted := b.states[0]
	// Drop references so evicted values can be collected.
	b.entries[0] = nil
	b.states[0] = nil
	b.entries = b.entries[1:]
	b.states = b.states[1:]

	b.preloaded = evicted
	b.hasPreloaded = true
}

// Seed sets the preloaded state if none was set and nothing was recorded yet.
func (b *Buffer) Seed(state any) bool {
	if b.hasPreloaded || len(b.entries) > 0 {
		return false
	}
	b.preloaded = state
	b.hasPreloaded = true
	return true
}

// SetPreloaded assigns the preloaded state explicitly.
func (b *Buffer) SetPreloaded(state any) {
	b.preloaded = state
	b.hasPreloaded = true
}

// Snapshot returns the current entries and preloaded state without mutating
// the buffer. Sends are non-destructive: the history keeps growing afterwards.
func (b *Buffer) Snapshot() Snapshot {
	entries := make([]domain.Entry, len(b.entries))
	copy(entries, b.entries)
	return Snapshot{
		Entries:        entries,
		PreloadedState: b.preloaded,
		HasPreloaded:   b.hasPreloaded,
	}
}
