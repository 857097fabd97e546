// Package config loads the sidecar host configuration.
//
// The file is TOML by default; a path ending in .yaml or .yml is read as YAML.
// A missing file is not an error and yields the built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/tessro/sidecar/internal/paths"
)

// Config represents the sidecar host configuration.
type Config struct {
	// Sidecar selects and locates the worker executable.
	Sidecar SidecarConfig `toml:"sidecar" yaml:"sidecar"`

	// Log controls the host log file.
	Log LogConfig `toml:"log" yaml:"log"`

	// Window controls the host window.
	Window WindowConfig `toml:"window" yaml:"window"`
}

// SidecarConfig selects and locates the worker executable.
type SidecarConfig struct {
	// Name is the logical worker name, resolved to a binary at startup.
	Name string `toml:"name" yaml:"name"`
	// SearchDirs are checked for the worker binary before PATH.
	SearchDirs []string `toml:"search_dirs" yaml:"search_dirs"`
}

// LogConfig controls the host log file.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `toml:"level" yaml:"level"`
	// Path overrides the log file location.
	Path string `toml:"path" yaml:"path"`
}

// WindowConfig controls the host window.
type WindowConfig struct {
	// Headless skips the terminal window and waits for SIGINT/SIGTERM instead.
	Headless bool `toml:"headless" yaml:"headless"`
	// Backlog is the number of output lines the window keeps.
	Backlog int `toml:"backlog" yaml:"backlog"`
	// DrainGrace bounds how long teardown waits for final worker output.
	DrainGrace time.Duration `toml:"drain_grace" yaml:"drain_grace"`
}

// Defaults.
const (
	DefaultLogLevel   = "info"
	DefaultBacklog    = 5000
	DefaultDrainGrace = 2 * time.Second
)

// Load loads the config from paths.ConfigPath().
// Returns nil config and nil error if the file doesn't exist.
func Load() (*Config, error) {
	path, err := paths.ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads the config from a specific path.
// Returns nil config and nil error if the file doesn't exist.
func LoadFromPath(path string) (*Config, error) {
	var cfg Config

	if isYAML(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, nil
			}
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, nil
			}
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Encode writes the effective configuration (defaults applied) as TOML.
func (c *Config) Encode(w io.Writer) error {
	effective := Config{
		Sidecar: SidecarConfig{
			Name:       c.GetName(),
			SearchDirs: c.GetSearchDirs(),
		},
		Log: LogConfig{
			Level: c.GetLogLevel(),
			Path:  c.GetLogPath(),
		},
		Window: WindowConfig{
			Headless:   c.GetHeadless(),
			Backlog:    c.GetBacklog(),
			DrainGrace: c.GetDrainGrace(),
		},
	}
	return toml.NewEncoder(w).Encode(effective)
}

// GetName returns the configured worker name, or empty if unset.
func (c *Config) GetName() string {
	if c == nil {
		return ""
	}
	return c.Sidecar.Name
}

// GetSearchDirs returns the configured search dirs with ~ expanded.
func (c *Config) GetSearchDirs() []string {
	if c == nil || len(c.Sidecar.SearchDirs) == 0 {
		return nil
	}
	dirs := make([]string, 0, len(c.Sidecar.SearchDirs))
	for _, d := range c.Sidecar.SearchDirs {
		dirs = append(dirs, expandHome(d))
	}
	return dirs
}

// GetLogLevel returns the configured log level or the default.
func (c *Config) GetLogLevel() string {
	if c != nil && c.Log.Level != "" {
		return c.Log.Level
	}
	return DefaultLogLevel
}

// GetLogPath returns the configured log path or paths.LogPath().
func (c *Config) GetLogPath() string {
	if c != nil && c.Log.Path != "" {
		return expandHome(c.Log.Path)
	}
	return paths.LogPath()
}

// GetHeadless reports whether the window is disabled.
func (c *Config) GetHeadless() bool {
	return c != nil && c.Window.Headless
}

// GetBacklog returns the configured backlog size or the default.
func (c *Config) GetBacklog() int {
	if c != nil && c.Window.Backlog > 0 {
		return c.Window.Backlog
	}
	return DefaultBacklog
}

// GetDrainGrace returns the configured drain grace or the default.
func (c *Config) GetDrainGrace() time.Duration {
	if c != nil && c.Window.DrainGrace > 0 {
		return c.Window.DrainGrace
	}
	return DefaultDrainGrace
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
