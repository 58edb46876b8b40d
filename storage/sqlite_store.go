package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// RunRecord is one account's outcome from one export run.
type RunRecord struct {
	ID          int64
	RunAt       time.Time
	Prefix      string
	RecordCount int
	CSVPath     string
	Uploaded    bool
	Error       string
}

// SQLiteStore keeps the export run history in a local SQLite database so
// scheduled runs leave an inspectable trail.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS export_runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_at TEXT NOT NULL,
	prefix TEXT NOT NULL,
	record_count INTEGER NOT NULL CHECK(record_count >= 0),
	csv_path TEXT NOT NULL,
	uploaded INTEGER NOT NULL DEFAULT 0,
	error TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_export_runs_run_at ON export_runs(run_at);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("ensure sqlite schema: %w", err)
	}
	return nil
}

// RecordRun appends one account outcome to the history.
func (s *SQLiteStore) RecordRun(record RunRecord) error {
	const query = `
INSERT INTO export_runs (run_at, prefix, record_count, csv_path, uploaded, error)
VALUES (?, ?, ?, ?, ?, ?)`

	uploaded := 0
	if record.Uploaded {
		uploaded = 1
	}
	runAt := record.RunAt
	if runAt.IsZero() {
		runAt = time.Now()
	}

	if _, err := s.db.Exec(query,
		runAt.UTC().Format(time.RFC3339),
		record.Prefix,
		record.RecordCount,
		record.CSVPath,
		uploaded,
		record.Error,
	); err != nil {
		return fmt.Errorf("insert export run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent run records, newest first.
func (s *SQLiteStore) ListRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	const query = `
SELECT id, run_at, prefix, record_count, csv_path, uploaded, error
FROM export_runs
ORDER BY run_at DESC, id DESC
LIMIT ?`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("query export runs: %w", err)
	}
	defer rows.Close()

	records := make([]RunRecord, 0, limit)
	for rows.Next() {
		var record RunRecord
		var runAt string
		var uploaded int
		if err := rows.Scan(&record.ID, &runAt, &record.Prefix, &record.RecordCount,
			&record.CSVPath, &uploaded, &record.Error); err != nil {
			return nil, fmt.Errorf("scan export run: %w", err)
		}
		parsed, parseErr := time.Parse(time.RFC3339, runAt)
		if parseErr != nil {
			return nil, fmt.Errorf("parse run_at %q: %w", runAt, parseErr)
		}
		record.RunAt = parsed
		record.Uploaded = uploaded != 0
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate export runs: %w", err)
	}
	return records, nil
}
