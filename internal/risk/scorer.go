package risk

import "fmt"

// Thresholds map a score to a discrete level: score <= Low is LOW, score <=
// High is MEDIUM, anything above is HIGH.
type Thresholds struct {
	Low  int `json:"low" yaml:"low"`
	High int `json:"high" yaml:"high"`
}

// DefaultThresholds returns the established LOW/MEDIUM/HIGH bands
// (0-29 / 30-64 / 65+).
func DefaultThresholds() Thresholds {
	return Thresholds{Low: 29, High: 64}
}

// Validate ensures the thresholds form ordered, non-negative bands.
func (t Thresholds) Validate() error {
	if t.Low < 0 {
		return fmt.Errorf("low threshold must be non-negative (got %d)", t.Low)
	}
	if t.High <= t.Low {
		return fmt.Errorf("high threshold must exceed low threshold (got low=%d high=%d)", t.Low, t.High)
	}
	return nil
}

// Score sums the severity weights of the findings. The sum is uncapped;
// level bands absorb arbitrarily large scores.
func Score(findings []Finding) int {
	total := 0
	for _, f := range findings {
		total += f.Weight
	}
	return total
}

// Level maps a score onto a discrete risk level. The mapping is pure and
// monotonic; nothing else in the engine assigns levels.
func (t Thresholds) Level(score int) Level {
	switch {
	case score <= t.Low:
		return LevelLow
	case score <= t.High:
		return LevelMedium
	default:
		return LevelHigh
	}
}
