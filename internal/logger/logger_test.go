package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestJSONOutputKeys(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.WithModule("portal").WithChatID(42).Info("query started")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected valid JSON output, got error: %v", err)
	}

	if entry["message"] != "query started" {
		t.Errorf("Expected message key, got %v", entry)
	}
	if entry["level"] != "info" {
		t.Errorf("Expected lowercase level, got %v", entry["level"])
	}
	if entry["module"] != "portal" {
		t.Errorf("Expected module field, got %v", entry["module"])
	}
	if entry["chat_id"] != float64(42) {
		t.Errorf("Expected chat_id field, got %v", entry["chat_id"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("Expected timestamp key in output")
	}
}

func TestWarnLevelRenamed(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWithWriter("debug", &buf)

	log.Warn("careful")

	if !strings.Contains(buf.String(), `"level":"warning"`) {
		t.Errorf("Expected WARN renamed to warning, got %s", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWithWriter("error", &buf)

	log.Info("should be dropped")
	if buf.Len() != 0 {
		t.Errorf("Expected info suppressed at error level, got %s", buf.String())
	}

	log.Error("kept")
	if buf.Len() == 0 {
		t.Error("Expected error message to be written")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMultiHandlerFanOut(t *testing.T) {
	t.Parallel()
	var a, b bytes.Buffer
	multi := NewMultiHandler(
		slog.NewJSONHandler(&a, nil),
		slog.NewJSONHandler(&b, nil),
		nil,
	)
	log := slog.New(multi)

	log.Info("hello")

	if a.Len() == 0 || b.Len() == 0 {
		t.Error("Expected record delivered to both handlers")
	}
}

func TestMultiHandlerRespectsLevels(t *testing.T) {
	t.Parallel()
	var quiet, loud bytes.Buffer
	multi := NewMultiHandler(
		slog.NewJSONHandler(&quiet, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewJSONHandler(&loud, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	log := slog.New(multi)

	log.Info("routine")

	if quiet.Len() != 0 {
		t.Error("Expected error-level handler to skip info record")
	}
	if loud.Len() == 0 {
		t.Error("Expected debug-level handler to receive info record")
	}
}
