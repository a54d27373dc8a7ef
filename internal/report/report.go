// Package report renders analysis results into artifact formats: JSON, CSV,
// and SARIF. Result ordering is preserved so rendered output is reproducible.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/example/metascan/internal/risk"
)

// FileResult pairs an analyzed path with its risk result.
type FileResult struct {
	Path   string      `json:"path"`
	Result risk.Result `json:"result"`
}

// Artifact is the envelope written to scan output files.
type Artifact struct {
	GeneratedAt time.Time    `json:"generated_at"`
	RunID       string       `json:"run_id,omitempty"`
	Summary     risk.Summary `json:"summary"`
	Results     []FileResult `json:"results"`
}

// WriteJSON renders the artifact as indented JSON.
func (a Artifact) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// WriteCSV renders one row per analyzed file.
func (a Artifact) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	header := []string{"path", "score", "level", "findings", "anomalies", "reasons"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, fr := range a.Results {
		reasons := fr.Result.Reasons()
		for _, anomaly := range fr.Result.Anomalies {
			reasons = append(reasons, anomaly.Description)
		}
		row := []string{
			fr.Path,
			strconv.Itoa(fr.Result.Score),
			string(fr.Result.Level),
			strconv.Itoa(len(fr.Result.Findings)),
			strconv.Itoa(len(fr.Result.Anomalies)),
			strings.Join(reasons, "; "),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteSummary renders only the batch summary as indented JSON.
func (a Artifact) WriteSummary(w io.Writer) error {
	envelope := struct {
		GeneratedAt time.Time    `json:"generated_at"`
		RunID       string       `json:"run_id,omitempty"`
		Summary     risk.Summary `json:"summary"`
	}{a.GeneratedAt, a.RunID, a.Summary}

	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// Write dispatches on the artifact format name.
func (a Artifact) Write(w io.Writer, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return a.WriteJSON(w)
	case "csv":
		return a.WriteCSV(w)
	case "sarif":
		return a.WriteSARIF(w)
	default:
		return fmt.Errorf("unsupported format %s", format)
	}
}
