// Package paths provides a single source of truth for sidecar file paths.
// All path helpers honor environment variable overrides for isolated testing.
//
// Path resolution precedence:
//  1. Specific env vars (SIDECAR_CONFIG_PATH, SIDECAR_PID_PATH) take highest priority
//  2. SIDECAR_DIR env var sets the base directory (derives config/log/pid)
//  3. Default behavior (~/.sidecar, ~/.config/sidecar) when no env vars are set
package paths

import (
	"os"
	"path/filepath"
)

// Environment variable names for path overrides.
const (
	// EnvBaseDir is the base directory override (e.g., /tmp/sidecar-e2e).
	// When set, config, log, and PID paths derive from this directory.
	EnvBaseDir = "SIDECAR_DIR"

	// EnvConfigPath overrides the config file path directly.
	EnvConfigPath = "SIDECAR_CONFIG_PATH"

	// EnvPIDPath overrides the worker PID file path directly.
	EnvPIDPath = "SIDECAR_PID_PATH"
)

// BaseDir returns the sidecar base directory (~/.sidecar by default).
// Honors SIDECAR_DIR environment variable.
func BaseDir() (string, error) {
	if dir := os.Getenv(EnvBaseDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".sidecar"), nil
}

// ConfigDir returns the sidecar config directory (~/.config/sidecar by default).
// When SIDECAR_DIR is set, returns SIDECAR_DIR/config instead.
func ConfigDir() (string, error) {
	if dir := os.Getenv(EnvBaseDir); dir != "" {
		return filepath.Join(dir, "config"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "sidecar"), nil
}

// ConfigPath returns the path to the sidecar config file.
// Precedence: SIDECAR_CONFIG_PATH > SIDECAR_DIR/config/config.toml > ~/.config/sidecar/config.toml
func ConfigPath() (string, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LogPath returns the host log file path (~/.sidecar/sidecar.log by default).
func LogPath() string {
	base, err := BaseDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "sidecar.log")
	}
	return filepath.Join(base, "sidecar.log")
}

// WorkerPIDPath returns the worker PID file path.
// Precedence: SIDECAR_PID_PATH > SIDECAR_DIR/worker.pid > ~/.sidecar/worker.pid
func WorkerPIDPath() string {
	if path := os.Getenv(EnvPIDPath); path != "" {
		return path
	}
	base, err := BaseDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "sidecar-worker.pid")
	}
	return filepath.Join(base, "worker.pid")
}
