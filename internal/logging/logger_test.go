package logging

import (
	"bufio"
	"bytes"
	"context"
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
		{"info", "info", slog.LevelInfo},
		{"debug", "debug", slog.LevelDebug},
		{"trace", "trace", LevelTrace},
		{"uppercase TRACE", "TRACE", LevelTrace},
		{"mixed case Debug", "Debug", slog.LevelDebug},
		{"unknown defaults to info", "unknown", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name       string
		level      string
		logAtTrace bool
		logAtDebug bool
	}{
		{"info filters debug", "info", false, false},
		{"debug passes debug", "debug", false, true},
		{"trace passes trace", "trace", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)

			logger.Log(context.Background(), LevelTrace, "trace message")
			hasTrace := strings.Contains(buf.String(), "trace message")
			if hasTrace != tt.logAtTrace {
				t.Errorf("trace message visible = %v, want %v (buf: %q)", hasTrace, tt.logAtTrace, buf.String())
			}

			buf.Reset()
			logger.Debug("debug message")
			hasDebug := strings.Contains(buf.String(), "debug message")
			if hasDebug != tt.logAtDebug {
				t.Errorf("debug message visible = %v, want %v (buf: %q)", hasDebug, tt.logAtDebug, buf.String())
			}
		})
	}
}

func TestNewLogger_TraceLabel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("trace", &buf)
	logger.Log(context.Background(), LevelTrace, "round")

	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("expected TRACE label, got %q", buf.String())
	}
}

func TestNewTracer_InfoLevel(t *testing.T) {
	dir := t.TempDir()
	tr := NewTracer(dir, "info")

	if tr != nil {
		t.Error("expected nil Tracer at info level")
	}

	// Nil tracer should still be safe to use
	tr.Log(map[string]any{"event": "round"})
	tr.Close()

	if _, err := os.Stat(filepath.Join(dir, TraceFile)); err == nil {
		t.Errorf("%s should not exist at info level", TraceFile)
	}
}

func TestNewTracer_DebugLevel(t *testing.T) {
	dir := t.TempDir()
	tr := NewTracer(dir, "debug")
	if tr == nil {
		t.Fatal("expected tracer at debug level")
	}

	tr.Log(map[string]any{"event": "round", "round": 3})
	tr.Log(map[string]any{"event": "terminated", "round": 4})
	tr.Close()

	f, err := os.Open(filepath.Join(dir, TraceFile))
	if err != nil {
		t.Fatalf("open trace: %v", err)
	}
	defer f.Close()

	var events []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			t.Fatalf("parse line %q: %v", sc.Text(), err)
		}
		if _, ok := entry["time"]; !ok {
			t.Error("expected 'time' field in trace entry")
		}
		events = append(events, entry["event"].(string))
	}
	if len(events) != 2 || events[0] != "round" || events[1] != "terminated" {
		t.Errorf("events = %v", events)
	}
}

func TestTracer_DoesNotMutateInput(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTracerWriter(&buf)

	event := map[string]any{"event": "round"}
	tr.Log(event)

	if _, ok := event["time"]; ok {
		t.Error("Log mutated the caller's map")
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("expected newline-terminated line")
	}

	tr.Close()
	tr.Log(event)
	if strings.Count(buf.String(), "\n") != 1 {
		t.Error("Log after Close should be a no-op")
	}
}
