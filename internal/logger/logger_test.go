package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/dbsmedya/teamsweep/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"debug", "debug"},
		{"info", "info"},
		{"", "info"},
		{"warn", "warn"},
		{"error", "error"},
		{"unknown", "info"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level := parseLevel(tt.input)
			if level.String() != tt.expected {
				t.Errorf("parseLevel(%q) = %v, expected %v", tt.input, level.String(), tt.expected)
			}
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.LoggingConfig
	}{
		{"json info", &config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}},
		{"text debug", &config.LoggingConfig{Level: "debug", Format: "text", Output: "stdout"}},
		{"stderr", &config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if logger == nil {
				t.Fatal("New() returned nil logger")
			}
			_ = logger.Sync()
		})
	}
}

func TestNewDefault(t *testing.T) {
	logger := NewDefault()
	if logger == nil {
		t.Fatal("NewDefault() returned nil")
	}
	logger.Info("test message")
	_ = logger.Sync()
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	logger.WithTeamSet("42").Infow("discarded", "k", "v")
	if err := logger.Sync(); err != nil {
		t.Errorf("nop Sync() returned %v", err)
	}
}

func TestBuildWriters(t *testing.T) {
	for _, output := range []string{"stdout", "stderr", ""} {
		if buildWriters(output) == nil {
			t.Errorf("buildWriters(%q) returned nil", output)
		}
	}

	path := filepath.Join(t.TempDir(), "out.log")
	if buildWriters(path) == nil {
		t.Error("buildWriters(file) returned nil")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected log file to be created: %v", err)
	}
}

func TestBuildWriters_UnopenableFileFallsBackToStdout(t *testing.T) {
	if got := buildWriters(t.TempDir()); got != zapcore.WriteSyncer(os.Stdout) {
		t.Errorf("buildWriters(dir) = %v, expected stdout", got)
	}
}

func TestDerivedLoggersShareCore(t *testing.T) {
	logger := NewDefault()
	derived := logger.WithRun("2026-10-14 09:30:00").WithTeamSet("7").WithTable("accounts")
	if derived.base != logger.base {
		t.Error("derived logger does not share the parent core")
	}
}

func TestContextFieldsInOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.json")

	logger, err := New(&config.LoggingConfig{Level: "info", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	logger.WithRun("2026-10-14 09:30:00").
		WithTeamSet("ts-17").
		WithTable("accounts").
		WithFields(map[string]interface{}{"column": "acl_team_set_id"}).
		Info("found reference")
	_ = logger.Sync()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	out := string(content)
	for _, want := range []string{
		"found reference",
		`"run":"2026-10-14 09:30:00"`,
		`"team_set_id":"ts-17"`,
		`"table":"accounts"`,
		`"column":"acl_team_set_id"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}
}
