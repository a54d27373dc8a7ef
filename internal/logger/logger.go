// Package logger builds the hclog logger used across metascan commands.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/example/metascan/internal/config"
)

const envLogLevel = "METASCAN_LOG_LEVEL"

// New returns a named logger configured per the runtime config. The
// METASCAN_LOG_LEVEL environment variable takes precedence over the
// configured level.
func New(name string, cfg config.LoggerConfig) hclog.Logger {
	return NewWithOutput(name, cfg, os.Stderr)
}

// NewWithOutput is New with an explicit output writer.
func NewWithOutput(name string, cfg config.LoggerConfig, out io.Writer) hclog.Logger {
	level := cfg.Level
	if env := os.Getenv(envLogLevel); env != "" {
		level = env
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Output:     out,
		Level:      parseLevel(level),
		JSONFormat: cfg.JSONFormat,
	})
}

func parseLevel(level string) hclog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return hclog.Trace
	case "debug":
		return hclog.Debug
	case "warn", "warning":
		return hclog.Warn
	case "error":
		return hclog.Error
	case "off":
		return hclog.Off
	default:
		return hclog.Info
	}
}
