package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tessro/sidecar/internal/paths"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadFromPath_TOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
[sidecar]
name = "tabooz-backend"
search_dirs = ["/opt/tabooz/bin"]

[log]
level = "debug"

[window]
headless = true
backlog = 200
drain_grace = "500ms"
`)

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.GetName() != "tabooz-backend" {
		t.Errorf("GetName() = %q", cfg.GetName())
	}
	if dirs := cfg.GetSearchDirs(); len(dirs) != 1 || dirs[0] != "/opt/tabooz/bin" {
		t.Errorf("GetSearchDirs() = %v", dirs)
	}
	if cfg.GetLogLevel() != "debug" {
		t.Errorf("GetLogLevel() = %q", cfg.GetLogLevel())
	}
	if !cfg.GetHeadless() {
		t.Error("GetHeadless() = false, want true")
	}
	if cfg.GetBacklog() != 200 {
		t.Errorf("GetBacklog() = %d", cfg.GetBacklog())
	}
	if cfg.GetDrainGrace() != 500*time.Millisecond {
		t.Errorf("GetDrainGrace() = %v", cfg.GetDrainGrace())
	}
}

func TestLoadFromPath_YAML(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.yml"} {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, name, `
sidecar:
  name: tabooz-backend
log:
  level: warn
window:
  drain_grace: 3s
`)

			cfg, err := LoadFromPath(path)
			if err != nil {
				t.Fatalf("LoadFromPath() error = %v", err)
			}
			if cfg.GetName() != "tabooz-backend" {
				t.Errorf("GetName() = %q", cfg.GetName())
			}
			if cfg.GetLogLevel() != "warn" {
				t.Errorf("GetLogLevel() = %q", cfg.GetLogLevel())
			}
			if cfg.GetDrainGrace() != 3*time.Second {
				t.Errorf("GetDrainGrace() = %v", cfg.GetDrainGrace())
			}
		})
	}
}

func TestLoadFromPath_Missing(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v, want nil", err)
	}
	if cfg != nil {
		t.Errorf("LoadFromPath() = %+v, want nil", cfg)
	}
}

func TestLoadFromPath_Invalid(t *testing.T) {
	t.Run("syntax", func(t *testing.T) {
		path := writeFile(t, "config.toml", "[sidecar\nname=")
		if _, err := LoadFromPath(path); err == nil {
			t.Error("LoadFromPath() = nil error for malformed TOML")
		}
	})

	t.Run("validation", func(t *testing.T) {
		path := writeFile(t, "config.toml", "[log]\nlevel = \"chatty\"\n")
		_, err := LoadFromPath(path)
		if !errors.Is(err, ErrInvalidLogLevel) {
			t.Errorf("LoadFromPath() error = %v, want %v", err, ErrInvalidLogLevel)
		}
	})
}

func TestLoad_UsesConfigPathEnv(t *testing.T) {
	path := writeFile(t, "custom.toml", "[sidecar]\nname = \"worker\"\n")
	t.Setenv(paths.EnvConfigPath, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GetName() != "worker" {
		t.Errorf("GetName() = %q, want worker", cfg.GetName())
	}
}

func TestGetters_NilConfig(t *testing.T) {
	t.Setenv(paths.EnvBaseDir, "/tmp/sidecar-test")

	var cfg *Config
	if cfg.GetName() != "" {
		t.Errorf("GetName() = %q", cfg.GetName())
	}
	if cfg.GetSearchDirs() != nil {
		t.Errorf("GetSearchDirs() = %v", cfg.GetSearchDirs())
	}
	if cfg.GetLogLevel() != DefaultLogLevel {
		t.Errorf("GetLogLevel() = %q", cfg.GetLogLevel())
	}
	if cfg.GetLogPath() != "/tmp/sidecar-test/sidecar.log" {
		t.Errorf("GetLogPath() = %q", cfg.GetLogPath())
	}
	if cfg.GetHeadless() {
		t.Error("GetHeadless() = true")
	}
	if cfg.GetBacklog() != DefaultBacklog {
		t.Errorf("GetBacklog() = %d", cfg.GetBacklog())
	}
	if cfg.GetDrainGrace() != DefaultDrainGrace {
		t.Errorf("GetDrainGrace() = %v", cfg.GetDrainGrace())
	}
}

func TestGetSearchDirs_ExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cfg := &Config{Sidecar: SidecarConfig{SearchDirs: []string{"~/bin", "/usr/local/bin"}}}

	got := cfg.GetSearchDirs()
	if got[0] != filepath.Join(home, "bin") {
		t.Errorf("GetSearchDirs()[0] = %q, want %q", got[0], filepath.Join(home, "bin"))
	}
	if got[1] != "/usr/local/bin" {
		t.Errorf("GetSearchDirs()[1] = %q", got[1])
	}
}

func TestEncode_AppliesDefaults(t *testing.T) {
	t.Setenv(paths.EnvBaseDir, "/tmp/sidecar-test")

	var cfg *Config
	var buf bytes.Buffer
	if err := cfg.Encode(&buf); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"[log]", `level = "info"`, "backlog = 5000"} {
		if !strings.Contains(out, want) {
			t.Errorf("Encode() output missing %q:\n%s", want, out)
		}
	}
}
