package risk

import (
	"strings"
	"time"
)

// Result is the complete risk evaluation for one metadata record. It is a
// plain serializable aggregate: findings keep detector evaluation order,
// the timeline is chronological, and nothing is mutated after construction.
type Result struct {
	Score     int       `json:"score"`
	Level     Level     `json:"level"`
	Findings  []Finding `json:"findings,omitempty"`
	Timeline  []Entry   `json:"timeline,omitempty"`
	Anomalies []Anomaly `json:"anomalies,omitempty"`
}

// Reasons returns the human-readable explanation strings for the findings,
// in finding order.
func (r Result) Reasons() []string {
	reasons := make([]string, 0, len(r.Findings))
	for _, f := range r.Findings {
		reasons = append(reasons, f.Reason)
	}
	return reasons
}

// BatchEntry pairs a file path with its extracted metadata for batch
// analysis. The engine never touches the filesystem; the path is used only
// for lexical folder grouping.
type BatchEntry struct {
	Path     string `json:"path"`
	Metadata Record `json:"metadata"`
}

// LevelCounts tallies results per risk level.
type LevelCounts struct {
	Total  int `json:"total"`
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

func (c *LevelCounts) add(level Level) {
	c.Total++
	switch level {
	case LevelLow:
		c.Low++
	case LevelMedium:
		c.Medium++
	case LevelHigh:
		c.High++
	}
}

// Highest identifies the top-scoring entry of a batch.
type Highest struct {
	Index int    `json:"index"`
	Path  string `json:"path"`
	Score int    `json:"score"`
	Level Level  `json:"level"`
}

// Summary aggregates a batch run: total counts per level plus per-folder
// rollups keyed by the lexical parent directory of each entry path.
type Summary struct {
	Total   int                    `json:"total"`
	Levels  LevelCounts            `json:"levels"`
	Folders map[string]LevelCounts `json:"folders"`
	Highest *Highest               `json:"highest,omitempty"`
}

// Analyzer orchestrates detectors, the timeline builder, and the scorer. The
// zero value is not usable; construct with NewAnalyzer.
type Analyzer struct {
	rules      Registry
	thresholds Thresholds
}

// NewAnalyzer builds an analyzer from a rule registry and thresholds. A nil
// registry selects the default rules; zero thresholds select the default
// bands.
func NewAnalyzer(rules Registry, thresholds Thresholds) *Analyzer {
	if rules == nil {
		rules = DefaultRegistry()
	}
	if thresholds == (Thresholds{}) {
		thresholds = DefaultThresholds()
	}
	return &Analyzer{rules: rules, thresholds: thresholds}
}

// Analyze evaluates one metadata record. The caller supplies the current
// instant for future-timestamp anomaly detection so the engine stays a pure
// function of its inputs. A nil or empty record is a defined outcome: LOW
// level, no findings, empty timeline.
func (a *Analyzer) Analyze(rec Record, now time.Time) Result {
	return a.AnalyzeWithFallback(rec, nil, now)
}

// AnalyzeWithFallback behaves like Analyze but supplies substitute
// timestamps (typically filesystem times) used only when the record itself
// carries no parsable dates.
func (a *Analyzer) AnalyzeWithFallback(rec Record, fallback map[string]string, now time.Time) Result {
	findings := a.rules.Evaluate(rec)
	timeline := BuildTimeline(rec, fallback)
	anomalies := DetectAnomalies(timeline, now)

	score := Score(findings)
	return Result{
		Score:     score,
		Level:     a.thresholds.Level(score),
		Findings:  findings,
		Timeline:  timeline,
		Anomalies: anomalies,
	}
}

// AnalyzeBatch evaluates every entry in input order and returns the summary
// plus the individual results, index-aligned with the input. A malformed
// entry (nil metadata) degrades to the empty-record case rather than
// aborting the batch.
func (a *Analyzer) AnalyzeBatch(entries []BatchEntry, now time.Time) (Summary, []Result) {
	results := make([]Result, 0, len(entries))
	paths := make([]string, 0, len(entries))

	for _, entry := range entries {
		results = append(results, a.Analyze(entry.Metadata, now))
		paths = append(paths, entry.Path)
	}

	return Summarize(paths, results), results
}

// Summarize aggregates precomputed results into level counts, per-folder
// rollups, and the highest-scoring entry. Paths and results must be
// index-aligned.
func Summarize(paths []string, results []Result) Summary {
	summary := Summary{Folders: map[string]LevelCounts{}}

	for i, result := range results {
		path := ""
		if i < len(paths) {
			path = paths[i]
		}

		summary.Total++
		summary.Levels.add(result.Level)

		folder := folderOf(path)
		counts := summary.Folders[folder]
		counts.add(result.Level)
		summary.Folders[folder] = counts

		if summary.Highest == nil || result.Score > summary.Highest.Score {
			summary.Highest = &Highest{Index: i, Path: path, Score: result.Score, Level: result.Level}
		}
	}

	return summary
}

// folderOf derives the parent directory of a path purely lexically; both
// slash conventions are honored since paths come from arbitrary extractors.
func folderOf(path string) string {
	trimmed := strings.TrimRight(path, "/\\")
	if trimmed == "" {
		return "unknown"
	}
	idx := strings.LastIndexAny(trimmed, "/\\")
	switch {
	case idx < 0:
		return "unknown"
	case idx == 0:
		return trimmed[:1]
	default:
		return trimmed[:idx]
	}
}
