package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/metascan/internal/config"
)

func TestCheckGoVersion(t *testing.T) {
	check := checkGoVersion()

	if check.Name != "Go Runtime" {
		t.Errorf("expected Name='Go Runtime', got %q", check.Name)
	}
	if check.Status != "✓" || check.Error != nil {
		t.Errorf("go runtime check should always pass, got %+v", check)
	}
}

func TestCheckExiftoolBinarySkippedInDryRun(t *testing.T) {
	check := checkExiftoolBinary(context.Background(), true)
	if check.Status != "⊘" {
		t.Fatalf("dry-run should skip exiftool probe, got %+v", check)
	}
}

func TestCheckConfiguration(t *testing.T) {
	cfg := config.DefaultRuntimeConfig()
	cfg.Targets = []string{t.TempDir()}

	check := checkConfiguration(&cfg)
	if check.Error != nil {
		t.Fatalf("valid config should pass, got %+v", check)
	}

	bad := config.DefaultRuntimeConfig()
	check = checkConfiguration(&bad)
	if check.Error == nil {
		t.Fatal("config without targets should fail")
	}
}

func TestCheckDatabase(t *testing.T) {
	check := checkDatabase(filepath.Join(t.TempDir(), "metascan.db"))
	if check.Error != nil {
		t.Fatalf("fresh database should open cleanly, got %+v", check)
	}
	if !strings.Contains(check.Detail, "0 records") {
		t.Fatalf("expected empty record count, got %q", check.Detail)
	}
}

func TestCheckTargetsLimitsProbes(t *testing.T) {
	dir := t.TempDir()
	targets := []string{dir, dir, dir, dir, dir}

	checks := checkTargets(targets)
	// Three probed targets plus the skipped-remainder marker.
	if len(checks) != 4 {
		t.Fatalf("expected 4 checks, got %d", len(checks))
	}
	if checks[3].Status != "⊘" {
		t.Fatalf("expected skip marker for extra targets, got %+v", checks[3])
	}
}

func TestDoctorCommandPasses(t *testing.T) {
	dataDir := t.TempDir()
	outputDir := t.TempDir()

	loader := &config.Loader{ConfigPath: filepath.Join(t.TempDir(), "missing.yml")}
	cmd := newDoctorCmd(loader)

	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)

	cmd.SetArgs([]string{
		"--targets", dataDir,
		"--output-dir", outputDir,
		"--database", filepath.Join(t.TempDir(), "metascan.db"),
		"--dry-run",
	})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("doctor command failed: %v\nOutput: %s", err, buf.String())
	}

	if !strings.Contains(buf.String(), "All checks passed") {
		t.Fatalf("expected success banner, got: %s", buf.String())
	}
}
