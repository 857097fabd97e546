// Package backlog keeps the most recent relayed worker output for display.
package backlog

import (
	"strings"
	"sync"

	"github.com/tessro/sidecar/internal/sidecar"
)

// DefaultSize is the default number of entries to retain.
const DefaultSize = 5000

// Entry is one line of relayed output.
type Entry struct {
	Stream sidecar.Kind
	Text   string
}

// Ring is a thread-safe circular buffer of entries. It stores a fixed number
// of entries and overwrites the oldest when full.
type Ring struct {
	// +checklocks:mu
	entries []Entry
	size    int // immutable after creation
	// +checklocks:mu
	head int // next write position
	// +checklocks:mu
	count int
	// +checklocks:mu
	total int64 // entries ever added
	mu    sync.RWMutex
}

// New creates a ring with the given capacity.
// If size <= 0, DefaultSize is used.
func New(size int) *Ring {
	if size <= 0 {
		size = DefaultSize
	}
	return &Ring{
		entries: make([]Entry, size),
		size:    size,
	}
}

// Add stores text as one entry per line. Relayed chunks need not be line
// aligned, so a chunk with embedded newlines becomes several entries.
func (r *Ring) Add(stream sidecar.Kind, text string) {
	lines := strings.Split(text, "\n")

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, line := range lines {
		r.store(Entry{Stream: stream, Text: strings.TrimSuffix(line, "\r")})
	}
}

// +checklocks:r.mu
func (r *Ring) store(e Entry) {
	r.entries[r.head] = e
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
	r.total++
}

// Entries returns the last n entries, oldest first.
// If n <= 0 or n > Len(), returns all stored entries.
func (r *Ring) Entries(n int) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n <= 0 || n > r.count {
		n = r.count
	}
	if n == 0 {
		return nil
	}

	// head is the next write position, so the newest entry sits just before it.
	start := (r.head - n + r.size) % r.size

	out := make([]Entry, n)
	for i := 0; i < n; i++ {
		out[i] = r.entries[(start+i)%r.size]
	}
	return out
}

// Len returns the number of entries currently stored.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Cap returns the maximum number of entries the ring can hold.
func (r *Ring) Cap() int {
	return r.size
}

// Total returns the number of entries ever added, including overwritten ones.
func (r *Ring) Total() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total
}

// Dropped returns how many entries have been overwritten.
func (r *Ring) Dropped() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total - int64(r.count)
}

// Clear removes all entries and resets the counters.
func (r *Ring) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.entries {
		r.entries[i] = Entry{}
	}
	r.head = 0
	r.count = 0
	r.total = 0
}
