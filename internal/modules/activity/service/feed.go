package service

import (
	"sync"

	"github.com/google/uuid"
)

// Feed is a bounded view ordered by arrival. Load keeps the newest size entries,
// Push prepends and evicts from the tail. Entries are never re-sorted.
type Feed struct {
	mu      sync.RWMutex
	size    int
	entries []Entry
}

func NewFeed(size int) *Feed {
	if size <= 0 {
		size = DefaultFeedSize
	}
	return &Feed{size: size, entries: make([]Entry, 0, size)}
}

// Load replaces the view. entries must be newest first.
func (f *Feed) Load(entries []Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := min(len(entries), f.size)
	f.entries = append(f.entries[:0], entries[:n]...)
}

// Push prepends e. An entry already in the view is ignored so that an insert
// seen both by the initial load and the subscription appears once.
func (f *Feed) Push(e Entry) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.contains(e.ID) {
		return false
	}
	if len(f.entries) < f.size {
		f.entries = append(f.entries, Entry{})
	}
	copy(f.entries[1:], f.entries[:len(f.entries)-1])
	f.entries[0] = e
	return true
}

func (f *Feed) contains(id uuid.UUID) bool {
	if id == uuid.Nil {
		return false
	}
	for i := range f.entries {
		if f.entries[i].ID == id {
			return true
		}
	}
	return false
}

func (f *Feed) Entries() []Entry {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]Entry, len(f.entries))
	copy(out, f.entries)
	return out
}
