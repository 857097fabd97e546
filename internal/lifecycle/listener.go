// Package lifecycle kills the sidecar when the host signals shutdown.
//
// A Listener starts Armed and moves to Fired on the first shutdown delivery.
// There is no way back. The host event may fire more than once, and several
// listeners may share one supervisor; the supervisor hands its worker to
// exactly one Kill, so every other delivery reports that no process was found.
package lifecycle

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tessro/sidecar/internal/event"
	"github.com/tessro/sidecar/internal/logging"
)

// Log messages emitted per delivery.
const (
	MsgDestroyed  = "Main window destroyed. Attempting to kill sidecar..."
	MsgKilled     = "Sidecar killed."
	MsgKillFailed = "Failed to kill sidecar."
	MsgNoProcess  = "No sidecar process found to kill."
)

// State is the listener state.
type State int32

const (
	// Armed means no shutdown delivery has been handled yet.
	Armed State = iota
	// Fired means a delivery took the handle or found it gone.
	Fired
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case Armed:
		return "armed"
	case Fired:
		return "fired"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

// Killer is the kill side of sidecar.Supervisor.
type Killer interface {
	Kill() (bool, error)
}

// Subscriber is the subscribe side of event.Bus.
type Subscriber interface {
	Subscribe(kind event.Kind) (<-chan struct{}, func())
}

// Listener reacts to shutdown deliveries by killing the sidecar.
type Listener struct {
	kind   event.Kind
	killer Killer
	log    *slog.Logger

	state     atomic.Int32
	fired     chan struct{}
	fireOnce  sync.Once
	cancel    func()
	done      chan struct{}
	closeOnce sync.Once
}

// New returns an Armed listener that is not subscribed to anything. Feed it
// with Handle.
func New(kind event.Kind, k Killer) *Listener {
	l := &Listener{
		kind:   kind,
		killer: k,
		log:    slog.With("component", "lifecycle", "event", string(kind)),
		fired:  make(chan struct{}),
		cancel: func() {},
		done:   make(chan struct{}),
	}
	close(l.done)
	return l
}

// Listen subscribes to kind on bus and handles each delivery on its own
// goroutine until Close.
func Listen(bus Subscriber, kind event.Kind, k Killer) *Listener {
	l := New(kind, k)
	ch, cancel := bus.Subscribe(kind)
	l.cancel = cancel
	l.done = make(chan struct{})
	go l.serve(ch)
	return l
}

func (l *Listener) serve(ch <-chan struct{}) {
	defer close(l.done)
	defer logging.LogPanic("lifecycle-listener", nil)

	for range ch {
		l.Handle()
	}
}

// Handle processes one shutdown delivery. It is safe to call concurrently.
func (l *Listener) Handle() {
	l.log.Info(MsgDestroyed)

	// The handle is taken by whichever delivery reaches Kill first, so the
	// listener is Fired before the kill itself returns.
	l.state.Store(int32(Fired))
	killed, err := l.killer.Kill()
	l.fireOnce.Do(func() { close(l.fired) })

	switch {
	case !killed:
		l.log.Info(MsgNoProcess)
	case err != nil:
		l.log.Error(MsgKillFailed, "error", err)
	default:
		l.log.Info(MsgKilled)
	}
}

// State returns the current state.
func (l *Listener) State() State {
	return State(l.state.Load())
}

// Fired is closed once the first delivery's kill attempt has returned.
func (l *Listener) Fired() <-chan struct{} {
	return l.fired
}

// Close unsubscribes and waits for an in-flight delivery to finish. It does
// not change the state.
func (l *Listener) Close() {
	l.closeOnce.Do(l.cancel)
	<-l.done
}
