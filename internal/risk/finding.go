package risk

// Level is the discrete risk classification derived from a score.
type Level string

const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

// Category groups signal rules by the kind of exposure they detect.
type Category string

const (
	CategoryLocation      Category = "location"
	CategoryIdentity      Category = "identity"
	CategoryDevice        Category = "device"
	CategoryEditingTrace  Category = "editing-trace"
	CategoryEmbeddedBlock Category = "embedded-block"
	CategoryOther         Category = "other"
)

// Finding is one rule's positive match against a metadata record. Findings
// are immutable once produced and reference metadata by field name only, so
// results stay serializable and comparable.
type Finding struct {
	RuleID   string   `json:"rule_id"`
	Category Category `json:"category"`
	Weight   int      `json:"weight"`
	Reason   string   `json:"reason"`
	Fields   []string `json:"fields,omitempty"`
}
