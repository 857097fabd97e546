package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tessro/sidecar/internal/config"
	"github.com/tessro/sidecar/internal/paths"
	"github.com/tessro/sidecar/internal/sidecar"
)

var (
	// sidecarDir is the global --sidecar-dir flag value.
	sidecarDir string
	// configFile is the global --config flag value.
	configFile string
	// logLevel is the global --log-level flag value.
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "sidecar",
	Short: "Run a worker process alongside a host window",
	Long:  "sidecar launches a long-running worker, relays its output to the log, and kills it exactly once when the window closes.",

	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Path helpers read the environment, so flags are exported there.
		if sidecarDir != "" {
			if err := os.Setenv(paths.EnvBaseDir, sidecarDir); err != nil {
				return err
			}
		}
		if configFile != "" {
			if err := os.Setenv(paths.EnvConfigPath, configFile); err != nil {
				return err
			}
		}
		return nil
	},
}

// loadConfig loads the config file, returning nil if there is none.
func loadConfig() (*config.Config, error) {
	return config.Load()
}

// effectiveLogLevel returns --log-level when set, else the configured level.
func effectiveLogLevel(cmd *cobra.Command, cfg *config.Config) string {
	if cmd.Flags().Changed("log-level") {
		return logLevel
	}
	return cfg.GetLogLevel()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sidecarDir, "sidecar-dir", "", "base directory for sidecar data (overrides ~/.sidecar)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (.toml, .yaml or .yml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
}

func Execute() error {
	return rootCmd.Execute()
}

// exitCode maps an error from Execute to a process exit status.
func exitCode(err error) int {
	var spawnErr *sidecar.SpawnError
	if errors.As(err, &spawnErr) {
		return 2
	}
	return 1
}

// Main runs the CLI and exits.
func Main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "sidecar:", err)
		os.Exit(exitCode(err))
	}
}
