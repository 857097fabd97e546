package tui

import (
	"sync"

	"github.com/tessro/sidecar/internal/backlog"
	"github.com/tessro/sidecar/internal/sidecar"
)

// Feed is a relay sink that stores worker output for the window.
// It never blocks the relay: lines go into a ring and the window is poked
// through a one-slot channel, so bursts coalesce into a single redraw.
type Feed struct {
	ring    *backlog.Ring
	updates chan struct{}

	mu       sync.Mutex
	exited   bool
	exitCode int
	signal   string
}

// NewFeed creates a feed retaining up to size lines.
func NewFeed(size int) *Feed {
	return &Feed{
		ring:    backlog.New(size),
		updates: make(chan struct{}, 1),
	}
}

// Stdout implements relay.Sink.
func (f *Feed) Stdout(text string) {
	f.ring.Add(sidecar.Stdout, text)
	f.poke()
}

// Stderr implements relay.Sink.
func (f *Feed) Stderr(text string) {
	f.ring.Add(sidecar.Stderr, text)
	f.poke()
}

// Exited implements relay.Sink.
func (f *Feed) Exited(code int, signal string) {
	f.mu.Lock()
	f.exited = true
	f.exitCode = code
	f.signal = signal
	f.mu.Unlock()
	f.poke()
}

func (f *Feed) poke() {
	select {
	case f.updates <- struct{}{}:
	default:
	}
}

// Updates delivers a value whenever new output may be available.
func (f *Feed) Updates() <-chan struct{} {
	return f.updates
}

// Lines returns the last n stored lines, oldest first. n <= 0 means all.
func (f *Feed) Lines(n int) []backlog.Entry {
	return f.ring.Entries(n)
}

// Dropped returns how many lines fell out of the ring.
func (f *Feed) Dropped() int64 {
	return f.ring.Dropped()
}

// Exit reports whether the worker has exited and how.
func (f *Feed) Exit() (exited bool, code int, signal string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exited, f.exitCode, f.signal
}
