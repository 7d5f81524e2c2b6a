package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped on schema changes; users delete the database to
// adopt a new schema.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by a different version.
var ErrSchemaMismatch = errors.New("journal schema version mismatch")

// Status values for a recorded run.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is one recorded pipeline invocation.
type Run struct {
	ID              string
	VideoPath       string
	SubtitlePath    string
	Voice           string
	Status          string
	OutputPath      string
	CueCount        int
	DroppedCues     int
	SubstitutedCues int
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Store manages run persistence backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open initializes or connects to the journal database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	store := &Store{db: db}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	}
	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete the journal to recreate it)",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

// Begin records a new run in the running state and returns its id.
func (s *Store) Begin(ctx context.Context, videoPath, subtitlePath, voice string) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, video_path, subtitle_path, voice, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, videoPath, subtitlePath, voice, StatusRunning, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// Outcome carries the counters recorded on completion.
type Outcome struct {
	OutputPath      string
	CueCount        int
	DroppedCues     int
	SubstitutedCues int
}

// Complete marks a run as finished successfully.
func (s *Store) Complete(ctx context.Context, id string, outcome Outcome) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, output_path = ?, cue_count = ?, dropped_cues = ?,
            substituted_cues = ?, updated_at = ? WHERE id = ?`,
		StatusCompleted, outcome.OutputPath, outcome.CueCount, outcome.DroppedCues,
		outcome.SubstitutedCues, now, id,
	)
	if err != nil {
		return fmt.Errorf("complete run %s: %w", id, err)
	}
	return nil
}

// Fail marks a run as failed with a diagnostic message.
func (s *Store) Fail(ctx context.Context, id, message string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		"UPDATE runs SET status = ?, error_message = ?, updated_at = ? WHERE id = ?",
		StatusFailed, message, now, id,
	)
	if err != nil {
		return fmt.Errorf("fail run %s: %w", id, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, video_path, subtitle_path, voice, status, output_path,
            cue_count, dropped_cues, substituted_cues, error_message, created_at, updated_at
         FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var createdAt, updatedAt string
		if err := rows.Scan(&run.ID, &run.VideoPath, &run.SubtitlePath, &run.Voice,
			&run.Status, &run.OutputPath, &run.CueCount, &run.DroppedCues,
			&run.SubstitutedCues, &run.ErrorMessage, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		run.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
