// Package pidfile records the running worker's process ID on disk so that
// `sidecar status` can find it from another process.
package pidfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/tessro/sidecar/internal/paths"
)

// DefaultPath returns the default worker PID file path.
func DefaultPath() string {
	return paths.WorkerPIDPath()
}

// Write records pid in the file at path, creating the parent directory if
// needed. An empty path means DefaultPath.
func Write(path string, pid int) error {
	if path == "" {
		path = DefaultPath()
	}
	if pid <= 0 {
		return fmt.Errorf("write pid file: invalid pid %d", pid)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create pid directory: %w", err)
	}

	data := []byte(strconv.Itoa(pid) + "\n")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	return nil
}

// Read returns the process ID stored at path.
// A missing file yields an error satisfying os.IsNotExist.
func Read(path string) (int, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, err
		}
		return 0, fmt.Errorf("read pid file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pid: %w", err)
	}
	return pid, nil
}

// Remove deletes the PID file. It returns nil if the file doesn't exist.
func Remove(path string) error {
	if path == "" {
		path = DefaultPath()
	}

	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove pid file: %w", err)
	}
	return nil
}

// IsProcessRunning checks if a process with the given PID is running.
func IsProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = process.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	// EPERM means the process exists but belongs to someone else.
	return errors.Is(err, syscall.EPERM)
}

// Status reports whether the worker recorded at path is alive.
// A stale file (process gone) is removed and reported as not running.
func Status(path string) (running bool, pid int) {
	pid, err := Read(path)
	if err != nil {
		return false, 0
	}
	if IsProcessRunning(pid) {
		return true, pid
	}
	_ = Remove(path)
	return false, pid
}
