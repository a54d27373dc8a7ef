package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/example/metascan/internal/config"
)

func TestNewWithOutputHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("test", config.LoggerConfig{Level: "warn"}, &buf)

	log.Info("should be filtered")
	log.Warn("should appear")

	output := buf.String()
	if strings.Contains(output, "should be filtered") {
		t.Fatalf("info message leaked through warn level: %q", output)
	}
	if !strings.Contains(output, "should appear") {
		t.Fatalf("warn message missing: %q", output)
	}
}

func TestEnvOverridesConfiguredLevel(t *testing.T) {
	t.Setenv(envLogLevel, "error")

	var buf bytes.Buffer
	log := NewWithOutput("test", config.LoggerConfig{Level: "debug"}, &buf)

	log.Debug("filtered")
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("test", config.LoggerConfig{Level: "info", JSONFormat: true}, &buf)

	log.Info("hello")
	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Fatalf("expected JSON output, got %q", buf.String())
	}
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	if parseLevel("bogus") != parseLevel("info") {
		t.Fatal("unknown level should fall back to info")
	}
}
