package risk

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Entry is one normalized timestamp extracted from a metadata record.
type Entry struct {
	Field   string    `json:"field"`
	Instant time.Time `json:"instant"`
	Raw     string    `json:"raw"`
}

// Anomaly is a detected temporal inconsistency among timeline entries. The
// implicated entries are value copies, never live references into the
// timeline.
type Anomaly struct {
	Description string  `json:"description"`
	Entries     []Entry `json:"entries,omitempty"`
}

// timestampHints mark field names that carry embedded timestamps.
var timestampHints = []string{
	"capture", "created", "creation", "modified", "edit",
	"timestamp", "date", "time", "last saved",
}

// timestampFormats is the fixed, ordered list of accepted layouts. The first
// layout that parses wins; a value no layout accepts is excluded from the
// timeline rather than treated as an error.
var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006:01:02 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"2006-01-02",
	"02-01-2006",
}

// bareTimestampPattern recognizes values that are timestamps even when the
// field name gives no hint.
var bareTimestampPattern = regexp.MustCompile(`^\d{4}[-:/]\d{2}[-:/]\d{2}([T ]\d{2}:\d{2}(:\d{2})?(Z|[-+]\d{2}:\d{2})?)?$`)

// ParseInstant attempts to normalize a raw metadata value into an instant.
func ParseInstant(value any) (time.Time, bool) {
	if t, ok := value.(time.Time); ok {
		return t, true
	}

	text := strings.TrimSpace(stringify(value))
	if text == "" {
		return time.Time{}, false
	}

	// Date separators vary across extractors; slashes collapse to dashes so
	// 2024/09/01 parses under the dash layouts. Colon-separated EXIF dates
	// have a dedicated layout.
	normalized := strings.ReplaceAll(text, "/", "-")

	for _, layout := range timestampFormats {
		candidate := normalized
		if strings.Contains(layout, ":01:02") {
			candidate = text
		}
		if t, err := time.Parse(layout, candidate); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// BuildTimeline extracts every timestamp-bearing field from the record,
// normalizes the values, and returns them in chronological order with ties
// broken by field name. The fallback set is consulted only when the record
// itself yields no entries, letting callers substitute filesystem times for
// records with no embedded dates.
func BuildTimeline(rec Record, fallback map[string]string) []Entry {
	var entries []Entry

	for _, key := range sortedKeys(rec) {
		raw := stringify(rec[key])
		if !keyHasAny(key, timestampHints) && !bareTimestampPattern.MatchString(strings.TrimSpace(raw)) {
			continue
		}
		instant, ok := ParseInstant(rec[key])
		if !ok {
			continue
		}
		entries = append(entries, Entry{Field: key, Instant: instant, Raw: raw})
	}

	if len(entries) == 0 && len(fallback) > 0 {
		keys := make([]string, 0, len(fallback))
		for k := range fallback {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, key := range keys {
			instant, ok := ParseInstant(fallback[key])
			if !ok {
				continue
			}
			entries = append(entries, Entry{Field: key, Instant: instant, Raw: fallback[key]})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Instant.Equal(entries[j].Instant) {
			return entries[i].Field < entries[j].Field
		}
		return entries[i].Instant.Before(entries[j].Instant)
	})

	return entries
}

// createdClass reports whether a timeline field records when content came
// into existence (creation, capture).
func createdClass(field string) bool {
	return keyHasAny(field, []string{"creat", "capture", "taken", "digitiz"})
}

// modifiedClass reports whether a timeline field records a later change.
func modifiedClass(field string) bool {
	return keyHasAny(field, []string{"modif", "edit", "saved"})
}

// DetectAnomalies inspects an ordered timeline for internal inconsistencies:
// a modified-class instant preceding a created-class instant, and any instant
// after the caller-supplied now. Anomalies are informational only; they never
// feed the score.
func DetectAnomalies(entries []Entry, now time.Time) []Anomaly {
	var anomalies []Anomaly

	for _, created := range entries {
		if !createdClass(created.Field) || modifiedClass(created.Field) {
			continue
		}
		for _, modified := range entries {
			if !modifiedClass(modified.Field) {
				continue
			}
			if modified.Instant.Before(created.Instant) {
				anomalies = append(anomalies, Anomaly{
					Description: fmt.Sprintf("Timestamp mismatch: %q occurs before %q.", modified.Field, created.Field),
					Entries:     []Entry{modified, created},
				})
			}
		}
	}

	if !now.IsZero() {
		for _, entry := range entries {
			if entry.Instant.After(now) {
				anomalies = append(anomalies, Anomaly{
					Description: fmt.Sprintf("Future timestamp: %q is later than the analysis time.", entry.Field),
					Entries:     []Entry{entry},
				})
			}
		}
	}

	return anomalies
}
