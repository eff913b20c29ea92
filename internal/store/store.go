// Package store persists terminal job outcomes. The backend adapter
// itself keeps nothing across runs; this store is the collaborator that
// the watch command and the fleet API hand finished jobs to.
package store

import (
	"context"
	"time"

	"github.com/me/slurmgate/pkg/model"
)

// Entry is one recorded terminal outcome.
type Entry struct {
	JobID      int       `json:"job_id"`
	Status     string    `json:"status"`
	ExitCode   string    `json:"exit_code"`
	Success    bool      `json:"success"`
	BatchID    string    `json:"batch_id"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Store defines the persistence layer for job outcomes.
type Store interface {
	// RecordResults upserts one batch of results. A job re-observed
	// in a later poll overwrites its earlier entry.
	RecordResults(ctx context.Context, batchID string, results []model.Result) error

	// GetResult returns the entry for a job, or nil if none exists.
	GetResult(ctx context.Context, jobID int) (*Entry, error)

	// ListResults returns up to limit entries, newest first.
	// limit <= 0 means no limit.
	ListResults(ctx context.Context, limit int) ([]*Entry, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
