// Package extract turns files on disk into metadata records for the risk
// engine. It combines filesystem facts, content-type detection, and
// format-specific backends (text, PDF, sidecar JSON, optional exiftool).
package extract

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"

	"github.com/example/metascan/internal/exiftool"
	"github.com/example/metascan/internal/risk"
)

// maxTextScanBytes bounds how much of a text file is read for line counting.
const maxTextScanBytes = 8 * 1024 * 1024

// Extraction is the output for one file: the metadata record plus filesystem
// timestamps the analyzer may use as a timeline fallback.
type Extraction struct {
	Record             risk.Record
	FallbackTimestamps map[string]string
}

// Extractor produces metadata records from files. The exiftool runner is
// optional; when nil or unavailable, media files fall back to filesystem
// metadata only.
type Extractor struct {
	exif exiftool.Runner
	now  func() time.Time
}

// New builds an extractor. Pass nil to disable the exiftool backend.
func New(exif exiftool.Runner) *Extractor {
	return &Extractor{exif: exif, now: time.Now}
}

// Extract reads metadata for one file. Unreadable content degrades to the
// filesystem base fields; only a missing or non-regular file is an error.
func (e *Extractor) Extract(ctx context.Context, path string) (Extraction, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Extraction{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Extraction{}, fmt.Errorf("path is not a file: %s", path)
	}

	rec := risk.Record{
		"File Name":         filepath.Base(path),
		"File Size (bytes)": info.Size(),
		"File Type":         strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
	}

	fallback := map[string]string{
		"File Modified": info.ModTime().UTC().Format(time.RFC3339),
		"Extracted At":  e.now().UTC().Format(time.RFC3339),
	}

	mime, err := mimetype.DetectFile(path)
	if err == nil {
		rec["MIME Type"] = mime.String()
	}

	switch {
	case mime != nil && mime.Is("application/pdf"):
		mergeRecord(rec, extractPDF(path))
	case mime != nil && isTextual(mime):
		mergeRecord(rec, extractText(path))
	case e.exif != nil:
		if tags, err := e.exif.Read(ctx, path); err == nil {
			mergeRecord(rec, tags)
		}
	}

	mergeRecord(rec, loadSidecar(path))

	return Extraction{Record: rec, FallbackTimestamps: fallback}, nil
}

func isTextual(mime *mimetype.MIME) bool {
	for m := mime; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "text/") {
			return true
		}
	}
	return false
}

// extractText counts lines and guesses the encoding of a text-like file.
func extractText(path string) map[string]any {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxTextScanBytes)

	lines := 0
	valid := true
	for scanner.Scan() {
		lines++
		if valid && !utf8.Valid(scanner.Bytes()) {
			valid = false
		}
	}
	if scanner.Err() != nil {
		return nil
	}

	encoding := "utf-8"
	if !valid {
		encoding = "unknown"
	}

	return map[string]any{
		"Line Count": lines,
		"Encoding":   encoding,
	}
}

// loadSidecar merges a `<file>.metadata.json` record produced by an external
// extractor, if present. Malformed sidecars are ignored.
func loadSidecar(path string) map[string]any {
	data, err := os.ReadFile(path + ".metadata.json")
	if err != nil {
		return nil
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}
	return fields
}

// mergeRecord copies fields into the record without clobbering existing keys.
func mergeRecord(rec risk.Record, fields map[string]any) {
	for k, v := range fields {
		if _, exists := rec[k]; exists {
			continue
		}
		rec[k] = v
	}
}
