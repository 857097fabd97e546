// Package sidecar launches and owns the single worker process that runs next
// to the host application.
//
// Spawn starts the worker and returns a Supervisor together with the worker's
// output channel. The Supervisor's owner goroutine is the only holder of the
// worker handle; Kill asks the owner for the handle, and the owner gives it
// away exactly once. Every later Kill sees an absent handle.
package sidecar

import "fmt"

// Kind tags an OutputEvent by origin.
type Kind int

const (
	// Stdout carries a chunk written to the worker's standard output.
	Stdout Kind = iota
	// Stderr carries a chunk written to the worker's standard error.
	Stderr
	// Terminated is the last event on the channel; the worker has been reaped.
	Terminated
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// OutputEvent is one item on a worker's output channel.
//
// Data holds a raw chunk for Stdout and Stderr. A chunk is whatever a single
// pipe read returned and need not end on a line boundary. Code and Signal are
// set on Terminated only; Code is -1 when the exit status is unknown or the
// worker was killed by a signal.
type OutputEvent struct {
	Kind   Kind
	Data   []byte
	Code   int
	Signal string
}

// Worker is the handle to a running worker process.
type Worker interface {
	// PID returns the OS process ID.
	PID() int
	// Kill asks the OS to terminate the process immediately.
	Kill() error
}

// Launcher resolves a logical executable name and starts it.
//
// The returned channel must be drained until it is closed; the worker blocks
// on its own writes once the channel's buffer fills.
type Launcher interface {
	Launch(name string) (Worker, <-chan OutputEvent, error)
}

// Info describes a spawned worker for display.
type Info struct {
	Name string
	PID  int
}
