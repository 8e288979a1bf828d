// Package stats keeps a local log of query runs: how long each one took,
// how many rows came back, and whether it succeeded. Query text is never
// stored; the log is timing bookkeeping, not a history.
package stats

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fathomhq/fathom-cli/internal/config"
)

// Entry is one recorded query run.
type Entry struct {
	ID         int64
	DurationMs int64
	Rows       int
	OK         bool
	ErrorKind  string
	Timestamp  time.Time
}

// Summary aggregates the whole log.
type Summary struct {
	TotalQueries  int
	SuccessCount  int
	ErrorCount    int
	AvgDurationMs float64
	P50DurationMs int64
	MaxDurationMs int64
	TotalRows     int64
	LastRun       time.Time
}

// Manager owns the stats database.
type Manager struct {
	db *sql.DB
}

// NewManager opens (or creates) the stats database at dbPath.
func NewManager(dbPath string) (*Manager, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, config.DirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create stats directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open stats database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to stats database: %w", err)
	}

	m := &Manager{db: db}
	if err := m.initSchema(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS query_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		duration_ms INTEGER NOT NULL,
		row_count INTEGER NOT NULL DEFAULT 0,
		ok INTEGER NOT NULL,
		error_kind TEXT,
		timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON query_runs(timestamp);
	CREATE INDEX IF NOT EXISTS idx_runs_ok ON query_runs(ok);
	`

	if _, err := m.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize stats schema: %w", err)
	}
	return nil
}

// Save records one run. The error, if any, is reduced to its message; the
// query that produced it is deliberately not part of the entry.
func (m *Manager) Save(entry Entry) error {
	insert := `
		INSERT INTO query_runs (duration_ms, row_count, ok, error_kind, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`

	ok := 0
	if entry.OK {
		ok = 1
	}
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	timestampStr := ts.Local().Format("2006-01-02 15:04:05")

	_, err := m.db.Exec(insert, entry.DurationMs, entry.Rows, ok, entry.ErrorKind, timestampStr)
	if err != nil {
		return fmt.Errorf("failed to save stats entry: %w", err)
	}
	return nil
}

// Summarize aggregates every recorded run. An empty log returns a zero
// Summary and no error.
func (m *Manager) Summarize() (Summary, error) {
	var s Summary

	row := m.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(ok), 0),
			COALESCE(SUM(1 - ok), 0),
			COALESCE(AVG(duration_ms), 0),
			COALESCE(MAX(duration_ms), 0),
			COALESCE(SUM(row_count), 0),
			COALESCE(MAX(timestamp), '')
		FROM query_runs
	`)

	var lastRun string
	err := row.Scan(
		&s.TotalQueries,
		&s.SuccessCount,
		&s.ErrorCount,
		&s.AvgDurationMs,
		&s.MaxDurationMs,
		&s.TotalRows,
		&lastRun,
	)
	if err != nil {
		return s, fmt.Errorf("failed to summarize stats: %w", err)
	}

	if s.TotalQueries == 0 {
		return s, nil
	}

	if lastRun != "" {
		if ts, err := time.ParseInLocation("2006-01-02 15:04:05", lastRun, time.Local); err == nil {
			s.LastRun = ts
		}
	}

	// Median via OFFSET; the log is small enough that this stays cheap.
	median := m.db.QueryRow(`
		SELECT duration_ms FROM query_runs
		ORDER BY duration_ms
		LIMIT 1 OFFSET (SELECT (COUNT(*) - 1) / 2 FROM query_runs)
	`)
	if err := median.Scan(&s.P50DurationMs); err != nil {
		return s, fmt.Errorf("failed to compute median duration: %w", err)
	}

	return s, nil
}

// Recent returns the newest runs, most recent first.
func (m *Manager) Recent(limit int) ([]Entry, error) {
	rows, err := m.db.Query(`
		SELECT id, duration_ms, row_count, ok, COALESCE(error_kind, ''), timestamp
		FROM query_runs
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ok int
		var timestamp string
		if err := rows.Scan(&e.ID, &e.DurationMs, &e.Rows, &ok, &e.ErrorKind, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan stats entry: %w", err)
		}
		e.OK = ok == 1
		if ts, err := time.ParseInLocation("2006-01-02 15:04:05", timestamp, time.Local); err == nil {
			e.Timestamp = ts
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear drops every recorded run.
func (m *Manager) Clear() error {
	if _, err := m.db.Exec(`DELETE FROM query_runs`); err != nil {
		return fmt.Errorf("failed to clear stats: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (m *Manager) Close() error {
	return m.db.Close()
}
