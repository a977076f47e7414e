package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewJSONWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "auto")
	logger.Info("Job completed", slog.String("job_id", "abc"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "Job completed" || entry["job_id"] != "abc" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestNewTextAndLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", "text")
	logger.Info("hidden")
	logger.Warn("shown", slog.Int("chunk", 2))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info message should be filtered: %q", out)
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "chunk=2") {
		t.Fatalf("unexpected text output: %q", out)
	}
}
