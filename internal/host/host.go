// Package host wires the sidecar core into a running application: it spawns
// the worker, relays its output, shows the window, and on shutdown fires the
// window-destroyed event that the lifecycle listener turns into a kill.
package host

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"runtime"
	"syscall"
	"time"

	"github.com/oklog/run"

	"github.com/tessro/sidecar/internal/event"
	"github.com/tessro/sidecar/internal/lifecycle"
	"github.com/tessro/sidecar/internal/logging"
	"github.com/tessro/sidecar/internal/pidfile"
	"github.com/tessro/sidecar/internal/relay"
	"github.com/tessro/sidecar/internal/sidecar"
)

// DefaultDrainGrace is used when Options.DrainGrace is zero.
const DefaultDrainGrace = 2 * time.Second

// Window is the host's main window. Show blocks until the window is closed
// by the user or ctx is cancelled.
type Window interface {
	Show(ctx context.Context, info sidecar.Info) error
}

// Options configures Run.
type Options struct {
	// Name is the logical worker name passed to the launcher.
	Name string
	// Launcher starts the worker.
	Launcher sidecar.Launcher

	// Bus is the host event bus. A private bus is created when nil.
	Bus *event.Bus
	// Window is shown while the worker runs. When nil the host waits for
	// ctx or a signal instead.
	Window Window
	// Sink receives relayed output in addition to the log.
	Sink relay.Sink

	// PIDPath is where the worker PID is recorded. Empty disables it.
	PIDPath string
	// Signals end a run. Defaults to SIGINT and SIGTERM.
	Signals []os.Signal
	// DrainGrace bounds how long teardown waits for the kill and the final
	// output.
	DrainGrace time.Duration

	// Supported reports whether child processes can be spawned here.
	// Defaults to sidecar.Supported.
	Supported func() bool
}

func (o *Options) signals() []os.Signal {
	if len(o.Signals) > 0 {
		return o.Signals
	}
	return []os.Signal{os.Interrupt, syscall.SIGTERM}
}

func (o *Options) drainGrace() time.Duration {
	if o.DrainGrace > 0 {
		return o.DrainGrace
	}
	return DefaultDrainGrace
}

func (o *Options) supported() bool {
	if o.Supported != nil {
		return o.Supported()
	}
	return sidecar.Supported()
}

// Run spawns the worker and blocks until the window closes, a signal
// arrives, or ctx is cancelled. It then destroys the window, which kills the
// worker, and waits for the relay to drain.
//
// A spawn failure is returned before the window is shown. On platforms
// without child processes the window runs with no worker at all.
func Run(ctx context.Context, opts Options) error {
	log := slog.With("component", "host", "sidecar", opts.Name)

	bus := opts.Bus
	if bus == nil {
		bus = event.NewBus()
	}
	defer bus.Close()

	if !opts.supported() {
		log.Warn("child processes unsupported on this platform, running without sidecar", "goos", runtime.GOOS)
		return serve(ctx, &opts, sidecar.Info{Name: opts.Name}, log)
	}

	sup, events, err := sidecar.Spawn(opts.Launcher, opts.Name)
	if err != nil {
		return err
	}

	if opts.PIDPath != "" {
		if err := pidfile.Write(opts.PIDPath, sup.PID()); err != nil {
			log.Warn("failed to write pid file", "path", opts.PIDPath, "error", err)
		}
		defer func() {
			if err := pidfile.Remove(opts.PIDPath); err != nil {
				log.Warn("failed to remove pid file", "path", opts.PIDPath, "error", err)
			}
		}()
	}

	listener := lifecycle.Listen(bus, event.WindowDestroyed, sup)
	defer listener.Close()

	sinks := relay.Tee{relay.LogSink{}}
	if opts.PIDPath != "" {
		sinks = append(sinks, pidSink{path: opts.PIDPath, log: log})
	}
	if opts.Sink != nil {
		sinks = append(sinks, opts.Sink)
	}
	drained := make(chan relay.Stats, 1)
	go func() {
		defer logging.LogPanic("relay", nil)
		drained <- relay.Run(events, sinks)
	}()

	runErr := serve(ctx, &opts, sup.Info(), log)

	log.Debug("window closed, emitting destroy event")
	bus.Emit(event.WindowDestroyed)

	grace := time.NewTimer(opts.drainGrace())
	defer grace.Stop()

	select {
	case <-listener.Fired():
	case <-grace.C:
		log.Warn("lifecycle listener did not fire before drain grace elapsed")
		return runErr
	}

	select {
	case st := <-drained:
		log.Info("relay drained", "stdout_chunks", st.Stdout, "stderr_chunks", st.Stderr, "bytes", st.Bytes, "exited", st.Exited)
	case <-grace.C:
		log.Warn("relay still draining after grace period", "grace", opts.drainGrace())
	}

	return runErr
}

// pidSink removes the PID file as soon as the worker exits, whether it was
// killed or ended on its own.
type pidSink struct {
	path string
	log  *slog.Logger
}

func (pidSink) Stdout(string) {}
func (pidSink) Stderr(string) {}

func (s pidSink) Exited(int, string) {
	if err := pidfile.Remove(s.path); err != nil {
		s.log.Warn("failed to remove pid file", "path", s.path, "error", err)
	}
}

// serve runs the window (or a wait on ctx) alongside a signal handler and
// returns when either finishes. Signals and cancellation are a normal end.
func serve(ctx context.Context, opts *Options, info sidecar.Info, log *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var g run.Group
	if opts.Window != nil {
		g.Add(func() error {
			return opts.Window.Show(ctx, info)
		}, func(error) {
			cancel()
		})
	} else {
		log.Info("running headless, waiting for signal", "pid", info.PID)
		g.Add(func() error {
			<-ctx.Done()
			return nil
		}, func(error) {
			cancel()
		})
	}
	g.Add(run.SignalHandler(ctx, opts.signals()...))

	err := g.Run()

	var sigErr run.SignalError
	switch {
	case errors.As(err, &sigErr):
		log.Info("received signal", "signal", sigErr.Signal.String())
		return nil
	case errors.Is(err, context.Canceled):
		return nil
	}
	return err
}
