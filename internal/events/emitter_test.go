package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// errorWriter is a writer that always returns an error.
type errorWriter struct{}

func (e *errorWriter) Write(p []byte) (int, error) {
	return 0, errors.New("write failed")
}

func TestEmitAssignsTimestamp(t *testing.T) {
	buf := &bytes.Buffer{}
	emitter := NewEmitter(buf)

	if err := emitter.Emit(Event{Type: "test", Message: "hello"}); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}

	var written Event
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &written); err != nil {
		t.Fatalf("unmarshal written event: %v", err)
	}
	if written.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be assigned")
	}
}

func TestEmitPreservesTimestamp(t *testing.T) {
	buf := &bytes.Buffer{}
	emitter := NewEmitter(buf)

	stamp := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	if err := emitter.Emit(Event{Type: "test", Timestamp: stamp}); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}

	var written Event
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &written); err != nil {
		t.Fatalf("unmarshal written event: %v", err)
	}
	if !written.Timestamp.Equal(stamp) {
		t.Fatalf("expected timestamp %v, got %v", stamp, written.Timestamp)
	}
}

func TestEmitWriteErrorPropagates(t *testing.T) {
	emitter := NewEmitter(&errorWriter{})
	if err := emitter.Emit(Event{Type: "test"}); err == nil {
		t.Fatal("expected write error")
	}
}

func TestEmitConcurrent(t *testing.T) {
	buf := &bytes.Buffer{}
	emitter := NewEmitter(buf)

	const goroutines = 50
	const perGoroutine = 10

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				evt := FileAnalyzed("/data/file.txt", id, "LOW")
				if err := emitter.Emit(evt); err != nil {
					t.Errorf("Emit() error in goroutine %d: %v", id, err)
				}
			}
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != goroutines*perGoroutine {
		t.Fatalf("expected %d lines, got %d", goroutines*perGoroutine, len(lines))
	}
	for i, line := range lines {
		var evt Event
		if err := json.Unmarshal([]byte(line), &evt); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", i, err)
		}
	}
}

func TestLifecycleConstructors(t *testing.T) {
	cases := map[string]Event{
		TypeScanStarted:     ScanStarted("run-1", 3, 4),
		TypeFileAnalyzed:    FileAnalyzed("/a.jpg", 48, "MEDIUM"),
		TypeFileFailed:      FileFailed("/b.jpg", errors.New("boom")),
		TypeArtifactWritten: ArtifactWritten("json", "out/results.json"),
		TypeScanFinished:    ScanFinished("run-1", 2, 1, 0),
		TypeWatchStarted:    WatchStarted([]string{"/data"}),
		TypeFileChanged:     FileChanged("/data/a.jpg", "CREATE"),
	}

	for wantType, evt := range cases {
		if evt.Type != wantType {
			t.Errorf("expected type %s, got %s", wantType, evt.Type)
		}
		if len(evt.Fields) == 0 {
			t.Errorf("%s: expected fields to be populated", wantType)
		}
	}
}
