package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/slurmgate/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db          *sql.DB
	successCode string
	logger      *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath.
// Use ":memory:" for an in-memory database (useful in tests).
// successCode is the exit-code token recorded as a clean run.
func NewSQLiteStore(dbPath, successCode string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// WAL improves concurrent read performance for the fleet API.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}

	return &SQLiteStore{
		db:          db,
		successCode: successCode,
		logger:      logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// RecordResults upserts one batch of terminal outcomes.
func (s *SQLiteStore) RecordResults(ctx context.Context, batchID string, results []model.Result) error {
	if len(results) == 0 {
		return nil
	}
	s.logger.Debug("sql", "op", "upsert", "table", "results", "batch_id", batchID, "count", len(results))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, res := range results {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO results (job_id, status, exit_code, success, batch_id, recorded_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(job_id) DO UPDATE SET
			   status = excluded.status,
			   exit_code = excluded.exit_code,
			   success = excluded.success,
			   batch_id = excluded.batch_id,
			   recorded_at = excluded.recorded_at`,
			res.JobID, string(res.Status), res.ExitCode,
			res.Succeeded(s.successCode), batchID, now,
		)
		if err != nil {
			return fmt.Errorf("upsert job %d: %w", res.JobID, err)
		}
	}

	return tx.Commit()
}

// GetResult returns the entry for a job, or nil if none exists.
func (s *SQLiteStore) GetResult(ctx context.Context, jobID int) (*Entry, error) {
	s.logger.Debug("sql", "op", "select", "table", "results", "job_id", jobID)

	row := s.db.QueryRowContext(ctx,
		`SELECT job_id, status, exit_code, success, batch_id, recorded_at
		 FROM results WHERE job_id = ?`, jobID)

	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListResults returns up to limit entries, newest first.
func (s *SQLiteStore) ListResults(ctx context.Context, limit int) ([]*Entry, error) {
	s.logger.Debug("sql", "op", "list", "table", "results", "limit", limit)

	query := `SELECT job_id, status, exit_code, success, batch_id, recorded_at
	          FROM results ORDER BY recorded_at DESC, job_id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (*Entry, error) {
	var entry Entry
	var recordedAt string
	if err := sc.Scan(&entry.JobID, &entry.Status, &entry.ExitCode, &entry.Success, &entry.BatchID, &recordedAt); err != nil {
		return nil, err
	}
	entry.RecordedAt, _ = time.Parse(time.RFC3339Nano, recordedAt)
	return &entry, nil
}
