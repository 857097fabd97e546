package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tessro/sidecar/internal/config"
	"github.com/tessro/sidecar/internal/host"
	"github.com/tessro/sidecar/internal/logging"
	"github.com/tessro/sidecar/internal/paths"
	"github.com/tessro/sidecar/internal/sidecar"
	"github.com/tessro/sidecar/internal/tui"
)

var (
	runHeadless bool
	runDirs     []string
)

var runCmd = &cobra.Command{
	Use:   "run [name]",
	Short: "Run a sidecar worker until the window closes",
	Long: `Launch the named worker executable and show its output in a terminal window.
Closing the window (q, esc or ctrl+c) kills the worker. With --headless there is
no window; SIGINT or SIGTERM ends the run instead.

The name defaults to sidecar.name from the config file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	name := cfg.GetName()
	if len(args) > 0 {
		name = args[0]
	}
	if name == "" {
		return errors.New("specify a sidecar name or set sidecar.name in the config file")
	}
	if err := config.ValidateSidecarName(name); err != nil {
		return err
	}

	headless := runHeadless || cfg.GetHeadless()

	var console io.Writer
	if headless {
		console = cmd.ErrOrStderr()
	}
	cleanup, err := logging.Setup(cfg.GetLogPath(), logging.ParseLevel(effectiveLogLevel(cmd, cfg)), console)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer cleanup()

	opts := host.Options{
		Name: name,
		Launcher: sidecar.ExecLauncher{
			SearchDirs: append(append([]string{}, runDirs...), cfg.GetSearchDirs()...),
		},
		PIDPath:    paths.WorkerPIDPath(),
		DrainGrace: cfg.GetDrainGrace(),
	}
	if !headless {
		feed := tui.NewFeed(cfg.GetBacklog())
		opts.Sink = feed
		opts.Window = &tui.Window{Feed: feed, AltScreen: true}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := host.Run(ctx, opts); err != nil {
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}

func init() {
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "run without a window")
	runCmd.Flags().StringArrayVar(&runDirs, "dir", nil, "directory to search for the worker binary (repeatable)")
	rootCmd.AddCommand(runCmd)
}
