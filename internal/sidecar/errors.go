package sidecar

import (
	"errors"
	"fmt"
)

// Errors returned by sidecar operations.
var (
	ErrExecutableNotFound = errors.New("sidecar executable not found")
	ErrUnsupported        = errors.New("sidecar processes are not supported on this platform")
)

// SpawnError reports that the worker could not be started. The host treats it
// as fatal.
type SpawnError struct {
	Name string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn sidecar %q: %v", e.Name, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// KillError reports that the OS refused to kill the worker, or that the
// worker had already exited. Callers log it and carry on.
type KillError struct {
	PID int
	Err error
}

func (e *KillError) Error() string {
	return fmt.Sprintf("kill sidecar (pid %d): %v", e.PID, e.Err)
}

func (e *KillError) Unwrap() error {
	return e.Err
}
