//go:build unix

package host

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"testing"
	"time"
)

func TestRun_SignalEndsHeadlessRun(t *testing.T) {
	logs := captureLogs(t)
	l := newLauncher()

	// Keep SIGUSR1 from reaching the default handler if it arrives early.
	guard := make(chan os.Signal, 1)
	signal.Notify(guard, syscall.SIGUSR1)
	defer signal.Stop(guard)

	done := make(chan error, 1)
	go func() {
		done <- Run(context.Background(), Options{
			Name:     "tabooz-backend",
			Launcher: l,
			Signals:  []os.Signal{syscall.SIGUSR1},
		})
	}()

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if n := l.worker.kills.Load(); n != 1 {
				t.Errorf("worker killed %d times, want 1", n)
			}
			if !strings.Contains(logs.String(), `msg="received signal"`) {
				t.Errorf("signal not logged:\n%s", logs)
			}
			return
		case <-tick.C:
			_ = syscall.Kill(os.Getpid(), syscall.SIGUSR1)
		case <-deadline:
			t.Fatal("Run did not return after SIGUSR1")
		}
	}
}
