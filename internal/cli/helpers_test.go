package cli

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestEnsureOutputDir(t *testing.T) {
	if err := ensureOutputDir(""); err == nil {
		t.Fatal("expected error for empty path")
	}

	tmpDir := t.TempDir()
	nested := filepath.Join(tmpDir, "level1", "level2")
	if err := ensureOutputDir(nested); err != nil {
		t.Fatalf("ensureOutputDir() error = %v", err)
	}

	info, err := os.Stat(nested)
	if err != nil || !info.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}

	// Idempotent on existing directories.
	if err := ensureOutputDir(nested); err != nil {
		t.Fatalf("second call failed: %v", err)
	}
}

func TestResolveTargetsFilesAndDirs(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	top := filepath.Join(dir, "a.txt")
	nested := filepath.Join(sub, "b.txt")
	sidecar := filepath.Join(dir, "a.txt.metadata.json")
	for _, path := range []string{top, nested, sidecar} {
		if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}

	flat, err := resolveTargets([]string{dir}, false)
	if err != nil {
		t.Fatalf("resolveTargets: %v", err)
	}
	if !reflect.DeepEqual(flat, []string{top}) {
		t.Fatalf("non-recursive should list only top-level files, got %v", flat)
	}

	deep, err := resolveTargets([]string{dir}, true)
	if err != nil {
		t.Fatalf("resolveTargets recursive: %v", err)
	}
	if !reflect.DeepEqual(deep, []string{top, nested}) {
		t.Fatalf("recursive should list nested files, got %v", deep)
	}
}

func TestResolveTargetsDeduplicates(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	files, err := resolveTargets([]string{file, dir}, false)
	if err != nil {
		t.Fatalf("resolveTargets: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 deduplicated file, got %v", files)
	}
}

func TestResolveTargetsMissing(t *testing.T) {
	if _, err := resolveTargets([]string{filepath.Join(t.TempDir(), "gone")}, false); err == nil {
		t.Fatal("expected error for missing target")
	}
}
