// Package store provides SQLite-backed persistence for extracted metadata
// records and their risk results.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/metascan/internal/risk"
)

// Schema for the metascan record store.
const schema = `
CREATE TABLE IF NOT EXISTS records (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    file_path     TEXT NOT NULL,
    file_name     TEXT NOT NULL,
    file_size     INTEGER,
    file_type     TEXT,
    extracted_at  TEXT NOT NULL,
    modified_on   TEXT,
    metadata      TEXT NOT NULL,
    risk_score    INTEGER NOT NULL,
    risk_level    TEXT NOT NULL,
    risk_result   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_path ON records(file_path, id);
CREATE INDEX IF NOT EXISTS idx_records_extracted ON records(extracted_at);
CREATE INDEX IF NOT EXISTS idx_records_level ON records(risk_level);
`

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// Record is one persisted extraction with its risk evaluation.
type Record struct {
	ID          int64       `json:"id"`
	FilePath    string      `json:"file_path"`
	FileName    string      `json:"file_name"`
	FileSize    int64       `json:"file_size"`
	FileType    string      `json:"file_type"`
	ExtractedAt time.Time   `json:"extracted_at"`
	ModifiedOn  string      `json:"modified_on,omitempty"`
	Metadata    risk.Record `json:"metadata"`
	Risk        risk.Result `json:"risk"`
}

// Query filters and orders record listings.
type Query struct {
	Term     string    // substring match against name or path
	FileType string    // exact extension match, empty for all
	Level    string    // risk level filter, empty for all
	Since    time.Time // lower bound on extraction time, zero for all
	Sort     Sort
	Limit    int
}

// Sort names the supported listing orders.
type Sort string

const (
	SortDateDesc  Sort = "date-desc"
	SortDateAsc   Sort = "date-asc"
	SortNameAsc   Sort = "name-asc"
	SortNameDesc  Sort = "name-desc"
	SortScoreDesc Sort = "score-desc"
)

// Stats summarizes the stored records.
type Stats struct {
	Total  int            `json:"total"`
	Types  map[string]int `json:"types"`
	Levels map[string]int `json:"levels"`
}

// Store wraps the SQLite record database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at the given path and applies the
// schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Insert persists a record and returns its assigned ID.
func (s *Store) Insert(rec *Record) (int64, error) {
	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return 0, fmt.Errorf("marshal metadata: %w", err)
	}
	result, err := json.Marshal(rec.Risk)
	if err != nil {
		return 0, fmt.Errorf("marshal risk result: %w", err)
	}

	extractedAt := rec.ExtractedAt
	if extractedAt.IsZero() {
		extractedAt = time.Now().UTC()
	}

	res, err := s.db.Exec(`
		INSERT INTO records (file_path, file_name, file_size, file_type, extracted_at, modified_on, metadata, risk_score, risk_level, risk_result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.FilePath, rec.FileName, rec.FileSize, rec.FileType,
		extractedAt.Format(time.RFC3339), rec.ModifiedOn, string(metadata),
		rec.Risk.Score, string(rec.Risk.Level), string(result),
	)
	if err != nil {
		return 0, fmt.Errorf("insert record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert record id: %w", err)
	}
	rec.ID = id
	return id, nil
}

const selectColumns = `id, file_path, file_name, file_size, file_type, extracted_at, modified_on, metadata, risk_result`

// ByID retrieves one record by its database ID.
func (s *Store) ByID(id int64) (*Record, error) {
	row := s.db.QueryRow(`SELECT `+selectColumns+` FROM records WHERE id = ?`, id)
	return scanRecord(row)
}

// LatestByPath retrieves the most recent record for a file path.
func (s *Store) LatestByPath(path string) (*Record, error) {
	row := s.db.QueryRow(`SELECT `+selectColumns+` FROM records WHERE file_path = ? ORDER BY id DESC LIMIT 1`, path)
	return scanRecord(row)
}

// Recent retrieves the newest records, newest first.
func (s *Store) Recent(limit int) ([]*Record, error) {
	return s.Search(Query{Sort: SortDateDesc, Limit: limit})
}

// Search lists records matching the query filters.
func (s *Store) Search(q Query) ([]*Record, error) {
	query := `SELECT ` + selectColumns + ` FROM records WHERE 1=1`
	var args []any

	if term := strings.TrimSpace(q.Term); term != "" {
		query += ` AND (file_name LIKE ? OR file_path LIKE ?)`
		pattern := "%" + term + "%"
		args = append(args, pattern, pattern)
	}
	if q.FileType != "" {
		query += ` AND file_type = ?`
		args = append(args, strings.ToLower(q.FileType))
	}
	if q.Level != "" {
		query += ` AND risk_level = ?`
		args = append(args, strings.ToUpper(q.Level))
	}
	if !q.Since.IsZero() {
		query += ` AND extracted_at >= ?`
		args = append(args, q.Since.UTC().Format(time.RFC3339))
	}

	switch q.Sort {
	case SortDateAsc:
		query += ` ORDER BY extracted_at ASC, id ASC`
	case SortNameAsc:
		query += ` ORDER BY file_name ASC`
	case SortNameDesc:
		query += ` ORDER BY file_name DESC`
	case SortScoreDesc:
		query += ` ORDER BY risk_score DESC, id DESC`
	default:
		query += ` ORDER BY extracted_at DESC, id DESC`
	}

	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Stats reports aggregate counts across all stored records.
func (s *Store) Stats() (Stats, error) {
	stats := Stats{Types: map[string]int{}, Levels: map[string]int{}}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM records`).Scan(&stats.Total); err != nil {
		return stats, fmt.Errorf("count records: %w", err)
	}

	rows, err := s.db.Query(`SELECT file_type, COUNT(*) FROM records GROUP BY file_type`)
	if err != nil {
		return stats, fmt.Errorf("count types: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var fileType string
		var count int
		if err := rows.Scan(&fileType, &count); err != nil {
			return stats, err
		}
		stats.Types[fileType] = count
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	levelRows, err := s.db.Query(`SELECT risk_level, COUNT(*) FROM records GROUP BY risk_level`)
	if err != nil {
		return stats, fmt.Errorf("count levels: %w", err)
	}
	defer levelRows.Close()
	for levelRows.Next() {
		var level string
		var count int
		if err := levelRows.Scan(&level, &count); err != nil {
			return stats, err
		}
		stats.Levels[level] = count
	}
	return stats, levelRows.Err()
}

// Delete removes one record by ID.
func (s *Store) Delete(id int64) error {
	res, err := s.db.Exec(`DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear removes every record.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM records`); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	return nil
}

// Optimize asks SQLite to refresh its query planner statistics.
func (s *Store) Optimize() error {
	if _, err := s.db.Exec(`PRAGMA optimize`); err != nil {
		return fmt.Errorf("optimize database: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var extractedAt, metadata, result string
	var modifiedOn sql.NullString

	err := row.Scan(&rec.ID, &rec.FilePath, &rec.FileName, &rec.FileSize, &rec.FileType,
		&extractedAt, &modifiedOn, &metadata, &result)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}

	if t, err := time.Parse(time.RFC3339, extractedAt); err == nil {
		rec.ExtractedAt = t
	}
	rec.ModifiedOn = modifiedOn.String

	if err := json.Unmarshal([]byte(metadata), &rec.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	if err := json.Unmarshal([]byte(result), &rec.Risk); err != nil {
		return nil, fmt.Errorf("unmarshal risk result: %w", err)
	}

	return &rec, nil
}
