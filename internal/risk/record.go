// Package risk evaluates extracted file metadata for privacy and forensic
// exposure. It scores signal findings, reconstructs embedded timestamp
// timelines, and flags temporal anomalies. The package is pure: it performs
// no I/O, keeps no state between calls, and is safe for concurrent use on
// independent records.
package risk

import (
	"fmt"
	"sort"
)

// Record is the extracted field/value mapping for one file. Values may be
// strings, numbers, or nested structures; the engine treats the record as
// read-only input and never assumes any particular extractor produced it.
type Record map[string]any

// sortedKeys returns the record's field names in lexical order so that every
// evaluation over a record is deterministic regardless of map iteration.
func sortedKeys(rec Record) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// stringify renders any metadata value for pattern matching.
func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
