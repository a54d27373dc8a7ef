package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/metascan/internal/config"
	"github.com/example/metascan/internal/risk"
	"github.com/example/metascan/internal/store"
)

func seedHistory(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "metascan.db")

	db, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer db.Close()

	records := []*store.Record{
		{
			FilePath:    "/data/photo.jpg",
			FileName:    "photo.jpg",
			FileType:    "jpg",
			ExtractedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			Metadata:    risk.Record{"Author": "Jane Doe"},
			Risk:        risk.Result{Score: 80, Level: risk.LevelHigh},
		},
		{
			FilePath:    "/data/readme.txt",
			FileName:    "readme.txt",
			FileType:    "txt",
			ExtractedAt: time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC),
			Metadata:    risk.Record{"Line Count": 3},
			Risk:        risk.Result{Score: 0, Level: risk.LevelLow},
		},
	}
	for _, rec := range records {
		if _, err := db.Insert(rec); err != nil {
			t.Fatalf("seed record: %v", err)
		}
	}

	return dbPath
}

func runHistory(t *testing.T, args ...string) string {
	t.Helper()
	loader := &config.Loader{ConfigPath: filepath.Join(t.TempDir(), "missing.yml")}
	cmd := newHistoryCmd(loader)

	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("history command failed: %v\nOutput: %s", err, buf.String())
	}
	return buf.String()
}

func TestHistoryCommandListsRecords(t *testing.T) {
	dbPath := seedHistory(t)

	output := runHistory(t, "--database", dbPath)

	var records []store.Record
	if err := json.Unmarshal([]byte(output), &records); err != nil {
		t.Fatalf("parse history output: %v\n%s", err, output)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	// Default sort is newest first.
	if records[0].FileName != "readme.txt" {
		t.Fatalf("expected newest record first, got %s", records[0].FileName)
	}
}

func TestHistoryCommandFiltersByLevel(t *testing.T) {
	dbPath := seedHistory(t)

	output := runHistory(t, "--database", dbPath, "--level", "high")

	var records []store.Record
	if err := json.Unmarshal([]byte(output), &records); err != nil {
		t.Fatalf("parse history output: %v", err)
	}
	if len(records) != 1 || records[0].FileName != "photo.jpg" {
		t.Fatalf("expected only the HIGH record, got %+v", records)
	}
}

func TestHistoryCommandStats(t *testing.T) {
	dbPath := seedHistory(t)

	output := runHistory(t, "--database", dbPath, "--stats")

	var stats store.Stats
	if err := json.Unmarshal([]byte(output), &stats); err != nil {
		t.Fatalf("parse stats output: %v", err)
	}
	if stats.Total != 2 || stats.Levels["HIGH"] != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestHistoryCommandClear(t *testing.T) {
	dbPath := seedHistory(t)

	runHistory(t, "--database", dbPath, "--clear")

	output := runHistory(t, "--database", dbPath, "--stats")
	var stats store.Stats
	if err := json.Unmarshal([]byte(output), &stats); err != nil {
		t.Fatalf("parse stats output: %v", err)
	}
	if stats.Total != 0 {
		t.Fatalf("expected cleared history, got %+v", stats)
	}
}
