package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"error":   slog.LevelError,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" info ":  slog.LevelInfo,
		"":        slog.LevelDebug,
	}
	for input, want := range cases {
		if got := levelFromString(input); got != want {
			t.Fatalf("%q: expected %v, got %v", input, want, got)
		}
	}
}

func TestUseJSON(t *testing.T) {
	t.Parallel()

	if !useJSON("json", false, os.Stdout) || useJSON("text", true, os.Stdout) {
		t.Fatal("explicit format must win")
	}
	if !useJSON("auto", true, os.Stdout) {
		t.Fatal("file output defaults to json")
	}
}

func TestNewWithOptionsWritesRotatingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "designcatalog.log")
	logger := NewWithOptions(Options{Level: "info", File: path})
	logger.Info("pipeline finished", "new_records", 2)
	logger.Debug("hidden")

	if !logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info must be enabled")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"new_records":2`) {
		t.Fatalf("expected json entry, got %s", data)
	}
	if strings.Contains(string(data), "hidden") {
		t.Fatalf("debug entry leaked: %s", data)
	}
}
