package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/metascan/internal/risk"
)

func sampleArtifact() Artifact {
	analyzer := risk.NewAnalyzer(nil, risk.Thresholds{})
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	entries := []risk.BatchEntry{
		{Path: "/data/photo.jpg", Metadata: risk.Record{"GPS": "40.7,-74.0", "Author": "Jane Doe"}},
		{Path: "/data/readme.txt", Metadata: risk.Record{"Line Count": 3}},
	}
	summary, results := analyzer.AnalyzeBatch(entries, now)

	artifact := Artifact{
		GeneratedAt: now,
		RunID:       "test-run",
		Summary:     summary,
	}
	for i, entry := range entries {
		artifact.Results = append(artifact.Results, FileResult{Path: entry.Path, Result: results[i]})
	}
	return artifact
}

func TestWriteJSONRoundTrip(t *testing.T) {
	artifact := sampleArtifact()

	var buf bytes.Buffer
	require.NoError(t, artifact.WriteJSON(&buf))

	var decoded Artifact
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "test-run", decoded.RunID)
	require.Len(t, decoded.Results, 2)
	assert.Equal(t, "/data/photo.jpg", decoded.Results[0].Path)
	assert.Equal(t, 2, decoded.Summary.Total)
}

func TestWriteCSV(t *testing.T) {
	artifact := sampleArtifact()

	var buf bytes.Buffer
	require.NoError(t, artifact.WriteCSV(&buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3) // header plus one row per file

	assert.Equal(t, "path", rows[0][0])
	assert.Equal(t, "/data/photo.jpg", rows[1][0])
	assert.Equal(t, string(risk.LevelMedium), rows[1][2])
	assert.Contains(t, rows[1][5], "location")
}

func TestWriteSARIF(t *testing.T) {
	artifact := sampleArtifact()

	var buf bytes.Buffer
	require.NoError(t, artifact.WriteSARIF(&buf))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	runs, ok := doc["runs"].([]any)
	require.True(t, ok)
	require.Len(t, runs, 1)

	run := runs[0].(map[string]any)
	results := run["results"].([]any)
	assert.Len(t, results, 2) // location and identity findings

	first := results[0].(map[string]any)
	assert.Equal(t, "warning", first["level"])
}

func TestWriteDispatch(t *testing.T) {
	artifact := sampleArtifact()

	for _, format := range []string{"json", "csv", "sarif"} {
		var buf bytes.Buffer
		require.NoError(t, artifact.Write(&buf, format), format)
		assert.NotZero(t, buf.Len(), format)
	}

	var buf bytes.Buffer
	err := artifact.Write(&buf, "xml")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unsupported"))
}

func TestWriteSummaryOnly(t *testing.T) {
	artifact := sampleArtifact()

	var buf bytes.Buffer
	require.NoError(t, artifact.WriteSummary(&buf))

	var decoded struct {
		Summary risk.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 2, decoded.Summary.Total)
	assert.Equal(t, 1, decoded.Summary.Levels.Medium)
	assert.Equal(t, 1, decoded.Summary.Levels.Low)
}
