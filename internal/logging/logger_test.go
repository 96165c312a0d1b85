package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			if got := ParseLevel(tc.input); got != tc.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tc.input, got, tc.expected)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{Level(99), "unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			if got := tc.level.String(); got != tc.expected {
				t.Errorf("Level.String() = %v, want %v", got, tc.expected)
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelWarn, Format: FormatJSON, Output: &buf})

	l.Debug("dropped")
	l.Info("dropped")
	l.Warn("kept")
	l.Error("kept")

	lines := strings.Count(buf.String(), "\n")
	if lines != 2 {
		t.Errorf("expected 2 log lines, got %d: %q", lines, buf.String())
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelDebug, Format: FormatJSON, Output: &buf})

	l.Infof("routee selected", map[string]any{"shard": "42", "addr": "node-3:7000"})

	var entry Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry.Message != "routee selected" {
		t.Errorf("message = %q, want %q", entry.Message, "routee selected")
	}
	if entry.Level != "info" {
		t.Errorf("level = %q, want %q", entry.Level, "info")
	}
	if entry.Fields["shard"] != "42" {
		t.Errorf("fields[shard] = %v, want 42", entry.Fields["shard"])
	}
}

func TestTextOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelDebug, Format: FormatText, Output: &buf})

	l.Warnf("refresh failed", map[string]any{"attempt": 3})

	out := buf.String()
	if !strings.Contains(out, "[warn]") {
		t.Errorf("text output missing level: %q", out)
	}
	if !strings.Contains(out, "refresh failed") {
		t.Errorf("text output missing message: %q", out)
	}
	if !strings.Contains(out, "attempt=3") {
		t.Errorf("text output missing field: %q", out)
	}
}

func TestWithBoundFields(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: LevelDebug, Format: FormatJSON, Output: &buf})
	derived := base.With(map[string]any{"component": "refresher"})

	derived.Info("tick")

	var entry Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry.Fields["component"] != "refresher" {
		t.Errorf("bound field not present: %v", entry.Fields)
	}

	// Base logger must not pick up derived fields.
	buf.Reset()
	base.Info("tick")
	entry = Entry{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if _, ok := entry.Fields["component"]; ok {
		t.Error("derived field leaked into base logger")
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelError, Format: FormatJSON, Output: &buf})

	l.Info("dropped")
	l.SetLevel(LevelInfo)
	l.Info("kept")

	if lines := strings.Count(buf.String(), "\n"); lines != 1 {
		t.Errorf("expected 1 log line after SetLevel, got %d", lines)
	}
	if got := l.GetLevel(); got != LevelInfo {
		t.Errorf("GetLevel() = %v, want %v", got, LevelInfo)
	}
}

func TestGlobalConfigure(t *testing.T) {
	prev := Global()
	defer SetGlobal(prev)

	l := Configure("debug", "text")
	if Global() != l {
		t.Error("Configure did not install the global logger")
	}
	if l.GetLevel() != LevelDebug {
		t.Errorf("global level = %v, want %v", l.GetLevel(), LevelDebug)
	}
}
