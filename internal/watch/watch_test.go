package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitForChange(t *testing.T, w *Watcher, want string) Change {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case change := <-w.Changes():
			if change.Path == want {
				return change
			}
		case <-deadline:
			t.Fatalf("timed out waiting for change on %s", want)
		}
	}
}

func TestWatcherReportsNewFile(t *testing.T) {
	dir := t.TempDir()

	w, err := New([]string{dir}, 50*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("create watcher: %v", err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	target := filepath.Join(dir, "photo.jpg")
	if err := os.WriteFile(target, []byte("data"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	change := waitForChange(t, w, target)
	if change.Path != target {
		t.Fatalf("expected change for %s, got %s", target, change.Path)
	}
}

func TestWatcherDebouncesWrites(t *testing.T) {
	dir := t.TempDir()

	w, err := New([]string{dir}, 150*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("create watcher: %v", err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	target := filepath.Join(dir, "doc.txt")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(target, []byte("rev"), 0o600); err != nil {
			t.Fatalf("write file: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	waitForChange(t, w, target)

	// The burst should have settled into a single change.
	select {
	case change := <-w.Changes():
		if change.Path == target {
			t.Fatalf("expected writes to be debounced, got second change %v", change)
		}
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcherMissingTarget(t *testing.T) {
	_, err := New([]string{filepath.Join(t.TempDir(), "missing")}, 0, nil)
	if err == nil {
		t.Fatal("expected error for missing watch target")
	}
}
