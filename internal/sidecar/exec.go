package sidecar

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/sourcegraph/conc"

	"github.com/tessro/sidecar/internal/logging"
)

// DefaultEventBuffer is the output channel capacity used when
// ExecLauncher.Buffer is zero.
const DefaultEventBuffer = 256

// chunkSize is the largest chunk a single pipe read produces.
const chunkSize = 4096

// ExecLauncher starts workers as OS child processes.
type ExecLauncher struct {
	// SearchDirs are checked in order for the worker binary before falling
	// back to PATH. If empty, the directory of the running executable is used.
	SearchDirs []string

	// Buffer is the output channel capacity. Zero means DefaultEventBuffer.
	Buffer int
}

// Resolve maps a logical worker name to an executable path.
//
// In each search dir it tries "name" and then "name-GOOS-GOARCH" (both with
// ".exe" on Windows), the two layouts a packaged sidecar ships in. A name
// containing a path separator, or one not found in any search dir, is looked
// up with exec.LookPath.
func (l ExecLauncher) Resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrExecutableNotFound)
	}

	if filepath.Base(name) == name {
		for _, dir := range l.searchDirs() {
			for _, candidate := range candidateNames(name) {
				path := filepath.Join(dir, candidate)
				if isExecutable(path) {
					return path, nil
				}
			}
		}
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrExecutableNotFound, name)
	}
	return path, nil
}

func (l ExecLauncher) searchDirs() []string {
	if len(l.SearchDirs) > 0 {
		return l.SearchDirs
	}
	exe, err := os.Executable()
	if err != nil {
		return nil
	}
	return []string{filepath.Dir(exe)}
}

func candidateNames(name string) []string {
	suffix := ""
	if runtime.GOOS == "windows" {
		suffix = ".exe"
	}
	return []string{
		name + suffix,
		fmt.Sprintf("%s-%s-%s%s", name, runtime.GOOS, runtime.GOARCH, suffix),
	}
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0111 != 0
}

// Launch resolves name, starts it with no arguments, and begins pumping its
// stdout and stderr into the returned channel.
func (l ExecLauncher) Launch(name string) (Worker, <-chan OutputEvent, error) {
	log := slog.With("component", "sidecar")

	path, err := l.Resolve(name)
	if err != nil {
		return nil, nil, err
	}

	cmd := exec.Command(path)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdout.Close()
		return nil, nil, fmt.Errorf("stderr pipe: %w", err)
	}

	log.Debug("starting worker", "path", path)
	if err := cmd.Start(); err != nil {
		stdout.Close()
		stderr.Close()
		return nil, nil, fmt.Errorf("start process: %w", err)
	}

	buffer := l.Buffer
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	events := make(chan OutputEvent, buffer)
	go pump(cmd, stdout, stderr, events)

	return &execWorker{cmd: cmd}, events, nil
}

// execWorker is the Worker for an exec.Cmd. os.Process is safe to Kill while
// the pump goroutine is blocked in Wait.
type execWorker struct {
	cmd *exec.Cmd
}

func (w *execWorker) PID() int {
	return w.cmd.Process.Pid
}

func (w *execWorker) Kill() error {
	return w.cmd.Process.Kill()
}

// pump forwards both pipes into events, reaps the process once both pipes
// are closed, and finishes with a Terminated event.
func pump(cmd *exec.Cmd, stdout, stderr io.Reader, events chan<- OutputEvent) {
	defer close(events)
	defer logging.LogPanic("sidecar-pump", nil)

	var wg conc.WaitGroup
	wg.Go(func() { readChunks(stdout, Stdout, events) })
	wg.Go(func() { readChunks(stderr, Stderr, events) })
	if r := wg.WaitAndRecover(); r != nil {
		slog.Error("pipe reader panicked", "component", "sidecar", "panic", r.Value, "stack", string(r.Stack))
	}

	// Wait must follow the last pipe read.
	if err := cmd.Wait(); err != nil {
		slog.Debug("worker wait returned error", "component", "sidecar", "error", err)
	}
	events <- exitEvent(cmd.ProcessState)
}

func readChunks(r io.Reader, kind Kind, events chan<- OutputEvent) {
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			events <- OutputEvent{Kind: kind, Data: data}
		}
		if err != nil {
			return
		}
	}
}

func exitEvent(state *os.ProcessState) OutputEvent {
	ev := OutputEvent{Kind: Terminated, Code: -1}
	if state == nil {
		return ev
	}
	ev.Code = state.ExitCode()
	if status, ok := state.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		ev.Signal = status.Signal().String()
	}
	return ev
}
