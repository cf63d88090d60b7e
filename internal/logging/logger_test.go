// Package logging tests.
package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func parseLine(t *testing.T, line string) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\nline: %s", err, line)
	}
	return entry
}

func TestLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, "info")

	l.Info("sync completed", map[string]interface{}{"uploaded": 3, "downloaded": 7})

	entry := parseLine(t, strings.TrimSpace(buf.String()))
	if entry["msg"] != "sync completed" {
		t.Errorf("msg = %v, want %q", entry["msg"], "sync completed")
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
	if entry["uploaded"] != float64(3) {
		t.Errorf("uploaded = %v, want 3", entry["uploaded"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, "warn")

	l.Debug("should be dropped")
	l.Info("should be dropped too")
	l.Warn("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1", len(lines))
	}
	entry := parseLine(t, lines[0])
	if entry["msg"] != "kept" {
		t.Errorf("msg = %v, want %q", entry["msg"], "kept")
	}
}

func TestLogger_ErrorField(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, "info")

	l.Error("mutation dropped", errors.New("unique violation"), map[string]interface{}{"mutation_id": "m1"})

	entry := parseLine(t, strings.TrimSpace(buf.String()))
	if entry["error"] != "unique violation" {
		t.Errorf("error = %v, want %q", entry["error"], "unique violation")
	}
	if entry["mutation_id"] != "m1" {
		t.Errorf("mutation_id = %v, want m1", entry["mutation_id"])
	}
}

func TestLogger_MergesContextMaps(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, "info")

	l.Info("merged",
		map[string]interface{}{"a": 1},
		map[string]interface{}{"b": 2})

	entry := parseLine(t, strings.TrimSpace(buf.String()))
	if entry["a"] != float64(1) || entry["b"] != float64(2) {
		t.Errorf("context maps were not merged: %v", entry)
	}
}

func TestLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, "not-a-level")

	l.Debug("dropped at info level")
	l.Info("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1", len(lines))
	}
}
