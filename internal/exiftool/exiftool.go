// Package exiftool drives an optional local exiftool binary for media
// formats the built-in extractors cannot read. Absence of the binary is not
// an error condition for callers; extraction simply degrades.
package exiftool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// Runner defines the operations needed to drive exiftool.
type Runner interface {
	EnsureBinary() error
	Read(ctx context.Context, path string) (map[string]any, error)
	Version(ctx context.Context) (string, error)
}

// CommandRunner executes the real exiftool binary present on the host.
type CommandRunner struct {
	Binary string
}

// NewRunner returns a default command runner.
func NewRunner() Runner {
	return &CommandRunner{Binary: "exiftool"}
}

// EnsureBinary verifies that the exiftool binary is discoverable on PATH.
func (r *CommandRunner) EnsureBinary() error {
	if _, err := exec.LookPath(r.Binary); err != nil {
		return fmt.Errorf("exiftool binary not found: %w", err)
	}
	return nil
}

// Read runs `exiftool -json` against one file and returns the tag mapping.
// Grouped tags are flattened to their plain names as exiftool prints them.
func (r *CommandRunner) Read(ctx context.Context, path string) (map[string]any, error) {
	args := []string{"-json", "-charset", "utf8", path}

	// Binary name is fixed and the only variable argument is a file path,
	// never interpreted by a shell.
	cmd := exec.CommandContext(ctx, r.Binary, args...) // #nosec G204

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("exiftool read %s: %w (%s)", path, err, strings.TrimSpace(stderr.String()))
	}

	var records []map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &records); err != nil {
		return nil, fmt.Errorf("exiftool output for %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("exiftool returned no record for %s", path)
	}

	tags := records[0]
	delete(tags, "SourceFile")
	return tags, nil
}

// Version reports the exiftool version string.
func (r *CommandRunner) Version(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, r.Binary, "-ver") // #nosec G204
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", err
	}

	version := strings.TrimSpace(string(output))
	if version == "" {
		return "unknown", nil
	}
	return version, nil
}
