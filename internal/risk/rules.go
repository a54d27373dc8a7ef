package risk

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Match describes one positive rule evaluation: the metadata fields that
// triggered it. Most rules yield one match per field; aggregate rules yield a
// single match spanning every contributing field.
type Match struct {
	Fields []string
}

// MatcherFunc inspects a read-only record and returns zero or more matches.
// Matchers never fail: missing or malformed fields simply yield no match.
type MatcherFunc func(Record) []Match

// Rule pairs a named matcher with a category, severity weight, and
// human-readable reason. Weights are positive; only the scorer turns them
// into a level.
type Rule struct {
	ID       string
	Category Category
	Weight   int
	Reason   string
	Match    MatcherFunc
}

// Registry is an ordered rule set. Evaluation order is registration order,
// which keeps finding order reproducible across runs for identical input.
type Registry []Rule

// Severity weights carried over from the established scoring scheme. The
// thresholds in scorer.go assume these magnitudes.
const (
	weightLocation = 30
	weightIdentity = 18
	weightDevice   = 18
	weightEditing  = 15
	weightEmbedded = 20
	weightChain    = 10
	weightStacked  = 10
)

// DefaultRegistry returns the built-in rules in their fixed evaluation order.
func DefaultRegistry() Registry {
	return Registry{
		{
			ID:       "gps_coordinates",
			Category: CategoryLocation,
			Weight:   weightLocation,
			Reason:   "Embedded location data present.",
			Match:    matchLocation,
		},
		{
			ID:       "author_identity",
			Category: CategoryIdentity,
			Weight:   weightIdentity,
			Reason:   "Author/user identity metadata is present.",
			Match:    matchIdentity,
		},
		{
			ID:       "device_information",
			Category: CategoryDevice,
			Weight:   weightDevice,
			Reason:   "Device or camera-identifying information is present.",
			Match:    matchDevice,
		},
		{
			ID:       "editing_traces",
			Category: CategoryEditingTrace,
			Weight:   weightEditing,
			Reason:   "Evidence of post-processing.",
			Match:    matchEditing,
		},
		{
			ID:       "hidden_blocks",
			Category: CategoryEmbeddedBlock,
			Weight:   weightEmbedded,
			Reason:   "Hidden/embedded metadata blocks (XMP/EXIF/IPTC/MakerNote) detected.",
			Match:    matchEmbeddedBlocks,
		},
		{
			ID:       "editing_chain",
			Category: CategoryOther,
			Weight:   weightChain,
			Reason:   "Multiple editing tools detected in software metadata.",
			Match:    matchEditingChain,
		},
		{
			ID:       "stacked_blocks",
			Category: CategoryOther,
			Weight:   weightStacked,
			Reason:   "Possible overwritten/stacked metadata blocks detected.",
			Match:    matchStackedBlocks,
		},
	}
}

// Select returns the subset of rules matching the provided IDs, keeping
// registry order. An empty ID list selects every rule.
func (r Registry) Select(ids []string) (Registry, error) {
	if len(ids) == 0 {
		return r, nil
	}

	wanted := map[string]struct{}{}
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	var out Registry
	for _, rule := range r {
		if _, ok := wanted[rule.ID]; ok {
			out = append(out, rule)
			delete(wanted, rule.ID)
		}
	}

	for _, id := range ids {
		if _, ok := wanted[id]; ok {
			return nil, fmt.Errorf("unknown rule: %s", id)
		}
	}

	return out, nil
}

// Evaluate runs every rule against the record in registration order. Each
// match becomes one finding; within a category, findings over an identical
// field set are emitted only once.
func (r Registry) Evaluate(rec Record) []Finding {
	var findings []Finding
	seen := map[Category]map[string]struct{}{}

	for _, rule := range r {
		matches := rule.Match(rec)
		for _, m := range matches {
			fields := dedupeSorted(m.Fields)
			if len(fields) == 0 {
				continue
			}

			if seen[rule.Category] == nil {
				seen[rule.Category] = map[string]struct{}{}
			}
			covered := true
			for _, f := range fields {
				if _, ok := seen[rule.Category][f]; !ok {
					covered = false
				}
				seen[rule.Category][f] = struct{}{}
			}
			if covered {
				continue
			}

			findings = append(findings, Finding{
				RuleID:   rule.ID,
				Category: rule.Category,
				Weight:   rule.Weight,
				Reason:   rule.Reason,
				Fields:   fields,
			})
		}
	}

	return findings
}

var (
	coordPattern  = regexp.MustCompile(`[-+]?\d{1,3}\.\d+\s*,\s*[-+]?\d{1,3}\.\d+`)
	emailPattern  = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	handlePattern = regexp.MustCompile(`(?:^|\s)@[A-Za-z0-9_]{2,}`)
	namePattern   = regexp.MustCompile(`^[\p{L}][\p{L} .'-]{0,62}$`)
)

var (
	locationHints = []string{"gps", "latitude", "longitude", "lat", "lon", "location", "geotag", "place"}
	identityHints = []string{"author", "creator", "owner", "user", "artist", "last modified by"}
	deviceHints   = []string{"device", "camera", "model", "serial", "imei", "make"}
	softwareHints = []string{"software", "application", "producer", "editor", "history", "tool"}
	blockHints    = []string{"xmp", "iptc", "exif", "makernote", "thumbnail", "preview", "private tag"}
)

// knownTools are editor names recognized in field values even when the field
// key itself carries no software hint.
var knownTools = []string{
	"photoshop", "lightroom", "illustrator", "indesign", "premiere",
	"gimp", "inkscape", "acrobat", "affinity", "pixelmator", "canva",
	"microsoft word", "libreoffice", "darktable",
}

func keyHasAny(key string, hints []string) bool {
	lower := strings.ToLower(key)
	for _, h := range hints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

// perField wraps each field into its own match.
func perField(fields []string) []Match {
	fields = dedupeSorted(fields)
	matches := make([]Match, 0, len(fields))
	for _, f := range fields {
		matches = append(matches, Match{Fields: []string{f}})
	}
	return matches
}

func dedupeSorted(fields []string) []string {
	if len(fields) == 0 {
		return nil
	}
	uniq := map[string]struct{}{}
	for _, f := range fields {
		uniq[f] = struct{}{}
	}
	out := make([]string, 0, len(uniq))
	for f := range uniq {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func matchLocation(rec Record) []Match {
	var fields []string
	for _, key := range sortedKeys(rec) {
		if keyHasAny(key, locationHints) {
			fields = append(fields, key)
			continue
		}
		if coordPattern.MatchString(stringify(rec[key])) {
			fields = append(fields, key)
		}
	}
	return perField(fields)
}

func matchIdentity(rec Record) []Match {
	var fields []string
	for _, key := range sortedKeys(rec) {
		if !keyHasAny(key, identityHints) {
			continue
		}
		value := strings.TrimSpace(stringify(rec[key]))
		if value == "" {
			continue
		}
		if emailPattern.MatchString(value) || handlePattern.MatchString(value) || namePattern.MatchString(value) {
			fields = append(fields, key)
		}
	}
	return perField(fields)
}

func matchDevice(rec Record) []Match {
	var fields []string
	for _, key := range sortedKeys(rec) {
		if keyHasAny(key, deviceHints) && strings.TrimSpace(stringify(rec[key])) != "" {
			fields = append(fields, key)
		}
	}
	return perField(fields)
}

func matchEditing(rec Record) []Match {
	var fields []string
	for _, key := range sortedKeys(rec) {
		if keyHasAny(key, softwareHints) && strings.TrimSpace(stringify(rec[key])) != "" {
			fields = append(fields, key)
			continue
		}
		value := strings.ToLower(stringify(rec[key]))
		for _, tool := range knownTools {
			if strings.Contains(value, tool) {
				fields = append(fields, key)
				break
			}
		}
	}
	return perField(fields)
}

func matchEmbeddedBlocks(rec Record) []Match {
	var fields []string
	for _, key := range sortedKeys(rec) {
		if keyHasAny(key, blockHints) {
			fields = append(fields, key)
		}
	}
	return perField(fields)
}

// matchEditingChain fires once when software metadata names two or more
// distinct tools, which indicates the file passed through an editing chain.
func matchEditingChain(rec Record) []Match {
	splitter := regexp.MustCompile(`[>;|,/]+`)
	tools := map[string]struct{}{}
	var fields []string

	for _, key := range sortedKeys(rec) {
		if !keyHasAny(key, softwareHints) {
			continue
		}
		value := stringify(rec[key])
		contributed := false
		for _, part := range splitter.Split(value, -1) {
			norm := strings.ToLower(strings.TrimSpace(part))
			if norm == "" {
				continue
			}
			tools[norm] = struct{}{}
			contributed = true
		}
		if contributed {
			fields = append(fields, key)
		}
	}

	if len(tools) < 2 {
		return nil
	}
	return []Match{{Fields: fields}}
}

// matchStackedBlocks fires once when three or more embedded-block fields are
// present, a sign of overwritten or stacked metadata.
func matchStackedBlocks(rec Record) []Match {
	var fields []string
	for _, key := range sortedKeys(rec) {
		if keyHasAny(key, blockHints) || strings.Contains(strings.ToLower(key), "history") {
			fields = append(fields, key)
		}
	}
	if len(fields) < 3 {
		return nil
	}
	return []Match{{Fields: fields}}
}
