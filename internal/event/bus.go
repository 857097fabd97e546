// Package event provides the host's named-event bus.
//
// Events carry no payload; a subscriber receives one value on its channel per
// delivery. Emit never blocks the caller: each subscription counts pending
// deliveries and a forwarding goroutine hands them to the receiver one at a
// time, so a burst of emissions is seen in full rather than merged.
package event

import "sync"

// Kind names a host event.
type Kind string

// WindowDestroyed fires when the host's main window goes away. It may be
// emitted more than once.
const WindowDestroyed Kind = "window://destroyed"

// Bus delivers named events to subscribers.
// The zero value is ready to use.
type Bus struct {
	mu sync.RWMutex
	// +checklocks:mu
	subs map[Kind][]*subscription
	// +checklocks:mu
	closed bool
}

type subscription struct {
	mu sync.Mutex
	// +checklocks:mu
	pending int
	// +checklocks:mu
	stopped bool

	wake chan struct{}
	out  chan struct{}
}

func newSubscription() *subscription {
	s := &subscription{
		wake: make(chan struct{}, 1),
		out:  make(chan struct{}),
	}
	go s.forward()
	return s
}

// post records one delivery. Posts after stop are dropped.
func (s *subscription) post() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.pending++
	s.mu.Unlock()
	s.poke()
}

func (s *subscription) stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.poke()
}

func (s *subscription) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// forward hands every counted delivery to the receiver, then closes out once
// the subscription is stopped and nothing is left pending.
func (s *subscription) forward() {
	defer close(s.out)
	for range s.wake {
		s.mu.Lock()
		n, stopped := s.pending, s.stopped
		s.pending = 0
		s.mu.Unlock()

		for i := 0; i < n; i++ {
			s.out <- struct{}{}
		}
		if stopped {
			return
		}
	}
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Kind][]*subscription)}
}

// Subscribe registers interest in kind. The returned channel receives one
// value per Emit and is closed after the cancel func or Close runs. Deliveries
// emitted before cancellation are still handed over, so the receiver must
// drain the channel until it is closed. Cancel is safe to call more than once.
func (b *Bus) Subscribe(kind Kind) (<-chan struct{}, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan struct{})
		close(ch)
		return ch, func() {}
	}
	if b.subs == nil {
		b.subs = make(map[Kind][]*subscription)
	}
	sub := newSubscription()
	b.subs[kind] = append(b.subs[kind], sub)

	var once sync.Once
	return sub.out, func() {
		once.Do(func() { b.unsubscribe(kind, sub) })
	}
}

func (b *Bus) unsubscribe(kind Kind, sub *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[kind]
	for i, s := range subs {
		if s == sub {
			b.subs[kind] = append(subs[:i:i], subs[i+1:]...)
			sub.stop()
			return
		}
	}
}

// Emit delivers kind to every current subscriber and returns how many
// subscribers there were. It never blocks.
func (b *Bus) Emit(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subs := b.subs[kind]
	for _, s := range subs {
		s.post()
	}
	return len(subs)
}

// Subscribers returns the number of live subscriptions for kind.
func (b *Bus) Subscribers(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[kind])
}

// Close stops every subscription. Pending deliveries are still handed over
// before each channel closes. Later Subscribe calls return an already closed
// channel and Emit delivers nothing.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for kind, subs := range b.subs {
		for _, s := range subs {
			s.stop()
		}
		delete(b.subs, kind)
	}
}
