package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mashup/internal/acquire"
	"mashup/internal/config"
)

// ErrNotFound is returned when a job id or request id does not exist.
var ErrNotFound = errors.New("job not found")

// Store manages job persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the job history database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.JobsDBPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
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

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Create records a new pending job.
func (s *Store) Create(ctx context.Context, in NewJob) (*Job, error) {
	if strings.TrimSpace(in.RequestID) == "" {
		return nil, errors.New("create job: request id required")
	}
	now := formatTime(time.Now())
	res, err := s.execWithRetry(ctx,
		`INSERT INTO jobs (
            request_id, artist, item_count, clip_seconds, email, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.RequestID,
		in.Artist,
		in.ItemCount,
		in.ClipSeconds,
		nullableString(in.Email),
		StatusPending,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.Get(ctx, id)
}

// MarkRunning moves a pending job to running.
func (s *Store) MarkRunning(ctx context.Context, id int64) error {
	return s.transition(ctx, id,
		`UPDATE jobs SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		StatusRunning, formatTime(time.Now()), id, StatusPending,
	)
}

// Complete records a successful run.
func (s *Store) Complete(ctx context.Context, id int64, out Outcome) error {
	shortfall, err := encodeShortfall(out.Shortfall)
	if err != nil {
		return err
	}
	return s.transition(ctx, id,
		`UPDATE jobs SET status = ?, output_path = ?, items_used = ?, shortfall_json = ?, error_message = NULL, updated_at = ?
         WHERE id = ? AND status IN (?, ?)`,
		StatusCompleted, nullableString(out.OutputPath), out.ItemsUsed, shortfall, formatTime(time.Now()),
		id, StatusPending, StatusRunning,
	)
}

// Fail records a failed run with its error message.
func (s *Store) Fail(ctx context.Context, id int64, message string) error {
	return s.transition(ctx, id,
		`UPDATE jobs SET status = ?, error_message = ?, updated_at = ? WHERE id = ? AND status IN (?, ?)`,
		StatusFailed, nullableString(strings.TrimSpace(message)), formatTime(time.Now()),
		id, StatusPending, StatusRunning,
	)
}

// Get fetches a job by identifier.
func (s *Store) Get(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// GetByRequestID fetches a job by the request id handed to the client.
func (s *Store) GetByRequestID(ctx context.Context, requestID string) (*Job, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+jobColumns+` FROM jobs WHERE request_id = ?`, requestID)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job by request id: %w", err)
	}
	return job, nil
}

// List returns jobs newest first, optionally filtered by status. A limit <= 0
// returns every row.
func (s *Store) List(ctx context.Context, limit int, statuses ...Status) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := make([]any, 0, len(statuses)+1)
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		query += ` WHERE status IN (` + strings.Join(placeholders, ",") + `)`
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

// FailInterrupted marks jobs left running by a previous process as failed.
func (s *Store) FailInterrupted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, error_message = ?, updated_at = ? WHERE status IN (?, ?)`,
		StatusFailed, InterruptedReason, formatTime(time.Now()), StatusPending, StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("fail interrupted jobs: %w", err)
	}
	return res.RowsAffected()
}

// InterruptedReason is the error message stored for jobs abandoned by a restart.
const InterruptedReason = "Server stopped before the job finished"

func (s *Store) transition(ctx context.Context, id int64, query string, args ...any) error {
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update job %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		if _, getErr := s.Get(ctx, id); getErr != nil {
			return getErr
		}
		return fmt.Errorf("update job %d: invalid state transition", id)
	}
	return nil
}

func encodeShortfall(sf *acquire.Shortfall) (any, error) {
	if sf == nil {
		return nil, nil
	}
	data, err := json.Marshal(sf)
	if err != nil {
		return nil, fmt.Errorf("marshal shortfall: %w", err)
	}
	return string(data), nil
}
