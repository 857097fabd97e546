package sidecar

import (
	"log/slog"

	"github.com/tessro/sidecar/internal/logging"
)

// Supervisor owns one spawned worker.
//
// The handle lives on the owner goroutine. Kill and Present talk to the owner
// over channels; the owner hands the handle to the first Kill and exits, which
// closes released. Nothing else ever touches the handle, so at most one caller
// can kill the worker.
type Supervisor struct {
	name string
	pid  int

	take     chan chan Worker
	query    chan chan bool
	released chan struct{}
}

// Spawn resolves and starts the worker through l.
//
// On success the caller must drain the returned channel until it closes. Any
// failure is returned as *SpawnError, which the host treats as fatal.
func Spawn(l Launcher, name string) (*Supervisor, <-chan OutputEvent, error) {
	log := slog.With("component", "sidecar")

	if !Supported() {
		return nil, nil, &SpawnError{Name: name, Err: ErrUnsupported}
	}

	w, events, err := l.Launch(name)
	if err != nil {
		log.Error("failed to spawn sidecar", "name", name, "error", err)
		return nil, nil, &SpawnError{Name: name, Err: err}
	}

	s := newSupervisor(name, w)
	log.Info("sidecar spawned", "name", name, "pid", s.pid)
	return s, events, nil
}

func newSupervisor(name string, w Worker) *Supervisor {
	s := &Supervisor{
		name:     name,
		pid:      w.PID(),
		take:     make(chan chan Worker),
		query:    make(chan chan bool),
		released: make(chan struct{}),
	}
	go s.own(w)
	return s
}

// own holds w until the first take request.
func (s *Supervisor) own(w Worker) {
	defer close(s.released)
	defer logging.LogPanic("sidecar-owner", nil)

	for {
		select {
		case reply := <-s.take:
			reply <- w
			return
		case reply := <-s.query:
			reply <- true
		}
	}
}

// takeWorker returns the handle to exactly one caller; everyone else gets nil.
func (s *Supervisor) takeWorker() Worker {
	reply := make(chan Worker, 1)
	select {
	case s.take <- reply:
		return <-reply
	case <-s.released:
		return nil
	}
}

// Kill takes the worker handle and kills the process.
//
// It reports false when the handle was already taken; that is the "no process
// to kill" case and is not an error. A kill the OS rejects, including one
// against a worker that already exited, is returned as *KillError together
// with true, since the handle was consumed either way.
func (s *Supervisor) Kill() (bool, error) {
	w := s.takeWorker()
	if w == nil {
		return false, nil
	}

	// The owner has already let go of w; the blocking kill runs here.
	if err := w.Kill(); err != nil {
		return true, &KillError{PID: w.PID(), Err: err}
	}
	return true, nil
}

// Present reports whether the supervisor still holds the worker handle.
func (s *Supervisor) Present() bool {
	reply := make(chan bool, 1)
	select {
	case s.query <- reply:
		return <-reply
	case <-s.released:
		return false
	}
}

// Released is closed once the handle has been taken.
func (s *Supervisor) Released() <-chan struct{} {
	return s.released
}

// Name returns the logical worker name passed to Spawn.
func (s *Supervisor) Name() string {
	return s.name
}

// PID returns the worker's process ID as captured at spawn.
func (s *Supervisor) PID() int {
	return s.pid
}

// Info describes the worker for display.
func (s *Supervisor) Info() Info {
	return Info{Name: s.name, PID: s.pid}
}
