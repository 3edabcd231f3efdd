// Package history persists a ledger of pipeline runs in SQLite so past work
// can be inspected after the process exits.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run statuses recorded in the ledger.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    video_id TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL,
    asr_backend TEXT NOT NULL,
    subtitle_mode TEXT NOT NULL,
    target_language TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    error TEXT NOT NULL DEFAULT '',
    output_path TEXT NOT NULL DEFAULT '',
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Run is one row of the ledger.
type Run struct {
	ID             string
	VideoID        string
	Title          string
	URL            string
	ASRBackend     string
	SubtitleMode   string
	TargetLanguage string
	Status         string
	Error          string
	OutputPath     string
	StartedAt      time.Time
	FinishedAt     time.Time
}

// Store manages run persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("history: database path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("history: ensure directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("history: apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: apply schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// StartRun records the beginning of a pipeline run and returns its ID.
func (s *Store) StartRun(ctx context.Context, run Run) (string, error) {
	id := uuid.NewString()
	started := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (
            id, video_id, title, url, asr_backend, subtitle_mode,
            target_language, status, started_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, run.VideoID, run.Title, run.URL, run.ASRBackend, run.SubtitleMode,
		run.TargetLanguage, StatusRunning, started)
	if err != nil {
		return "", fmt.Errorf("history: insert run: %w", err)
	}
	return id, nil
}

// FinishRun marks a run as completed or failed.
func (s *Store) FinishRun(ctx context.Context, id, status, errMessage, outputPath string) error {
	finished := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, output_path = ?, finished_at = ? WHERE id = ?`,
		status, errMessage, outputPath, finished, id)
	if err != nil {
		return fmt.Errorf("history: update run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("history: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("history: run %s not found", id)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, video_id, title, url, asr_backend, subtitle_mode,
            target_language, status, error, output_path, started_at, finished_at
        FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, finished string
		if err := rows.Scan(&run.ID, &run.VideoID, &run.Title, &run.URL,
			&run.ASRBackend, &run.SubtitleMode, &run.TargetLanguage,
			&run.Status, &run.Error, &run.OutputPath, &started, &finished); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		run.StartedAt = parseTimestamp(started)
		run.FinishedAt = parseTimestamp(finished)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate runs: %w", err)
	}
	return runs, nil
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
