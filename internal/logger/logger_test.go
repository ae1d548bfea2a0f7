package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type fileConfig struct{ level, file string }

func (c fileConfig) GetLevel() string  { return c.level }
func (c fileConfig) GetOutput() string { return "file" }
func (c fileConfig) GetFile() string   { return c.file }

func readLines(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(string(raw)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("log line %q is not JSON: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func TestFileLoggerFiltersByLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := NewFromConfig(fileConfig{level: "warn", file: path})
	if err != nil {
		t.Fatalf("NewFromConfig() error = %v", err)
	}

	l.Info("dropped %d", 1)
	l.Warn("payout %s stalled", "p-1")
	l.With(zap.String("worker", "w-1")).Error("transfer failed")
	l.Sync()

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %v", len(lines), lines)
	}
	if lines[0]["message"] != "payout p-1 stalled" || lines[0]["level"] != "WARN" {
		t.Errorf("first line = %v", lines[0])
	}
	if lines[1]["worker"] != "w-1" || lines[1]["level"] != "ERROR" {
		t.Errorf("second line = %v", lines[1])
	}

	l.SetLevel(DEBUG)
	if !l.Enabled(DEBUG) {
		t.Error("SetLevel(DEBUG) did not take effect")
	}
}

func TestNewWithRotationRequiresPath(t *testing.T) {
	if _, err := NewWithRotation(INFO, RotationConfig{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   DEBUG,
		"INFO":    INFO,
		"warning": WARN,
		"error":   ERROR,
		"fatal":   FATAL,
		"verbose": INFO,
		"":        INFO,
	}
	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
