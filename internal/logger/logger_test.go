package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNormalizeLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "DEBUG"},
		{" Info ", "INFO"},
		{"warning", "WARN"},
		{"ERROR", "ERROR"},
		{"", "INFO"},
		{"verbose", "INFO"},
	}
	for _, tt := range tests {
		if got := NormalizeLevel(tt.in); got != tt.want {
			t.Errorf("NormalizeLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Output: &buf})

	l.Info("dropped")
	l.Warn("kept", "challenge_id", "c1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if entry["msg"] != "kept" || entry["challenge_id"] != "c1" {
		t.Errorf("entry = %v", entry)
	}
	if ts, _ := entry["time"].(string); len(ts) != len(timeLayout) {
		t.Errorf("time = %q, want layout %s", ts, timeLayout)
	}
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug", Format: "TEXT", Output: &buf})

	l.Debug("closing challenges", "count", 2)

	out := buf.String()
	if strings.HasPrefix(out, "{") || !strings.Contains(out, "count=2") {
		t.Errorf("text output = %q", out)
	}
}
