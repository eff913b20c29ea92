package store

import (
	"context"
	"database/sql"
	"fmt"
)

// migrate creates the schema. Statements are idempotent so migration
// can run on every startup.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS results (
		job_id      INTEGER PRIMARY KEY,
		status      TEXT NOT NULL,
		exit_code   TEXT NOT NULL,
		success     INTEGER NOT NULL,
		batch_id    TEXT NOT NULL,
		recorded_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_results_recorded_at ON results(recorded_at)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
