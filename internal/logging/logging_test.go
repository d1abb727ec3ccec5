package logging

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected LogLevel
		ok       bool
	}{
		{name: "debug", input: "debug", expected: LevelDebug, ok: true},
		{name: "info", input: "info", expected: LevelInfo, ok: true},
		{name: "warn", input: "warn", expected: LevelWarn, ok: true},
		{name: "warning alias", input: "warning", expected: LevelWarn, ok: true},
		{name: "error", input: "error", expected: LevelError, ok: true},
		{name: "case insensitive", input: " DEBUG ", expected: LevelDebug, ok: true},
		{name: "unknown falls back to info", input: "verbose", expected: LevelInfo, ok: false},
		{name: "empty", input: "", expected: LevelInfo, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLevel(tt.input)
			if got != tt.expected || ok != tt.ok {
				t.Errorf("ParseLevel(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{LogLevel(99), "unknown(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("LogLevel.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

// Not parallel: swaps the global log output and level.
func TestNamedLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	prevOut := log.Writer()
	prevFlags := log.Flags()
	prevLevel := GetLevel()
	log.SetOutput(&buf)
	log.SetFlags(0)
	defer func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
		SetLevel(prevLevel)
	}()

	SetLevel(LevelWarn)
	l := Named("scanner")
	l.Debug("hidden %d", 1)
	l.Info("hidden %d", 2)
	l.Warn("shown %d", 3)
	l.Error("shown %d", 4)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Expected messages below warn to be suppressed, got %q", out)
	}
	if !strings.Contains(out, "[WARN] [scanner] shown 3") {
		t.Errorf("Expected prefixed warning, got %q", out)
	}
	if !strings.Contains(out, "[ERROR] [scanner] shown 4") {
		t.Errorf("Expected prefixed error, got %q", out)
	}
	if IsDebugEnabled() {
		t.Error("Expected debug to be disabled at warn level")
	}
}
