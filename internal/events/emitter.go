// Package events emits NDJSON progress records so metascan runs can be
// consumed by log pipelines and wrapper tooling.
package events

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Event types emitted during a scan lifecycle.
const (
	TypeScanStarted     = "scan_started"
	TypeFileAnalyzed    = "file_analyzed"
	TypeFileFailed      = "file_failed"
	TypeArtifactWritten = "artifact_written"
	TypeScanFinished    = "scan_finished"
	TypeWatchStarted    = "watch_started"
	TypeFileChanged     = "file_changed"
)

// Event represents a single NDJSON record.
type Event struct {
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Message   string                 `json:"message,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Emitter writes NDJSON events to an io.Writer safely across goroutines.
type Emitter struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewEmitter returns a new NDJSON emitter.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{writer: w}
}

// Emit serializes the event to JSON and appends a newline.
func (e *Emitter) Emit(evt Event) error {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.writer.Write(append(payload, '\n')); err != nil {
		return err
	}

	return nil
}

// ScanStarted reports the beginning of a scan run.
func ScanStarted(runID string, targets int, threads int) Event {
	return Event{
		Type:    TypeScanStarted,
		Message: "scan started",
		Fields: map[string]interface{}{
			"run_id":  runID,
			"targets": targets,
			"threads": threads,
		},
	}
}

// FileAnalyzed reports one completed file analysis.
func FileAnalyzed(path string, score int, level string) Event {
	return Event{
		Type:    TypeFileAnalyzed,
		Message: "file analyzed",
		Fields: map[string]interface{}{
			"path":  path,
			"score": score,
			"level": level,
		},
	}
}

// FileFailed reports one file whose extraction or analysis failed.
func FileFailed(path string, err error) Event {
	return Event{
		Type:    TypeFileFailed,
		Message: "file failed",
		Fields: map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		},
	}
}

// ArtifactWritten reports a rendered output artifact.
func ArtifactWritten(format string, path string) Event {
	return Event{
		Type:    TypeArtifactWritten,
		Message: "artifact written",
		Fields: map[string]interface{}{
			"format": format,
			"path":   path,
		},
	}
}

// ScanFinished reports overall run counts.
func ScanFinished(runID string, analyzed int, failed int, high int) Event {
	return Event{
		Type:    TypeScanFinished,
		Message: "scan finished",
		Fields: map[string]interface{}{
			"run_id":   runID,
			"analyzed": analyzed,
			"failed":   failed,
			"high":     high,
		},
	}
}

// WatchStarted reports a directory watch session.
func WatchStarted(paths []string) Event {
	return Event{
		Type:    TypeWatchStarted,
		Message: "watch started",
		Fields: map[string]interface{}{
			"paths": paths,
		},
	}
}

// FileChanged reports a filesystem change picked up by the watcher.
func FileChanged(path string, op string) Event {
	return Event{
		Type:    TypeFileChanged,
		Message: "file changed",
		Fields: map[string]interface{}{
			"path": path,
			"op":   op,
		},
	}
}
