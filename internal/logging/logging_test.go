package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{"debug lowercase", "debug", slog.LevelDebug},
		{"debug uppercase", "DEBUG", slog.LevelDebug},
		{"info lowercase", "info", slog.LevelInfo},
		{"warn lowercase", "warn", slog.LevelWarn},
		{"warning alias", "warning", slog.LevelWarn},
		{"error uppercase", "ERROR", slog.LevelError},
		{"padded", "  debug ", slog.LevelDebug},
		{"empty string", "", slog.LevelInfo},
		{"invalid value", "invalid", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSetup_WritesJSONAndConsole(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	path := filepath.Join(t.TempDir(), "nested", "sidecar.log")
	var console bytes.Buffer

	cleanup, err := Setup(path, slog.LevelInfo, &console)
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	slog.Debug("hidden")
	slog.Info("Backend stdout: ready", "component", "relay")
	cleanup()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 JSON record, got %d: %q", len(lines), data)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if rec["msg"] != "Backend stdout: ready" {
		t.Errorf("msg = %v", rec["msg"])
	}

	if !strings.Contains(console.String(), `msg="Backend stdout: ready"`) {
		t.Errorf("console output missing record: %q", console.String())
	}
	if strings.Contains(console.String(), "hidden") {
		t.Error("debug record written below configured level")
	}
}

func TestLogPanic_Recovers(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	SetupTest(&buf)

	var recovered any
	func() {
		defer LogPanic("test-goroutine", func(r any) { recovered = r })
		panic("boom")
	}()

	if recovered != "boom" {
		t.Errorf("onRecover got %v, want boom", recovered)
	}
	if !strings.Contains(buf.String(), "goroutine=test-goroutine") {
		t.Errorf("panic not logged: %q", buf.String())
	}
}
