// Package listener amortizes status polling across a fleet of jobs:
// one user-scoped scheduler query per interval instead of one query per
// job.
package listener

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/me/slurmgate/internal/backend"
	"github.com/me/slurmgate/internal/cmdline"
	"github.com/me/slurmgate/internal/config"
	"github.com/me/slurmgate/internal/sacct"
	"github.com/me/slurmgate/pkg/model"
)

// Batch is one poll's worth of terminal outcomes. Results keep the
// order in which finished identifiers were first discovered during the
// poll. Jobs still in the running set are absent: silence means
// "still running", not "unknown". A batch may be empty.
type Batch struct {
	// ID correlates log lines for one poll.
	ID      string
	Results []model.Result
}

// Listener polls the scheduler once per interval for every job in its
// scope and publishes a Batch per poll to the results channel. It runs
// as a dedicated goroutine next to the caller's main logic and shares
// no mutable job state with it.
type Listener struct {
	command   []string
	runStates map[string]bool
	interval  time.Duration
	results   chan<- Batch
	runner    backend.CommandRunner
	logger    *slog.Logger
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// New creates a Listener for the profile's scope. The scope user must
// be set explicitly; the listener never falls back to ambient process
// state. results is the injected sink the caller consumes from.
func New(builder *cmdline.Builder, profile config.Profile, results chan<- Batch, logger *slog.Logger) (*Listener, error) {
	return newWithRunner(builder, profile, results, logger, &OSRunner{})
}

// OSRunner aliases the backend's process runner so callers construct
// listeners without importing backend directly.
type OSRunner = backend.OSCommandRunner

// newWithRunner is used by tests to inject a mock CommandRunner.
func newWithRunner(builder *cmdline.Builder, profile config.Profile, results chan<- Batch, logger *slog.Logger, runner backend.CommandRunner) (*Listener, error) {
	if profile.Scope.User == "" {
		return nil, model.NewConfigError("scope.user", "listener requires an explicit user scope")
	}

	command, err := builder.Query(cmdline.QueryScope{
		User:      profile.Scope.User,
		Partition: profile.Scope.Partition,
		Clusters:  profile.Scope.Clusters,
	})
	if err != nil {
		return nil, err
	}

	interval := profile.PollInterval.Std()
	if interval <= 0 {
		interval = time.Second
	}

	return &Listener{
		command:   command,
		runStates: profile.RunningSet(),
		interval:  interval,
		results:   results,
		runner:    runner,
		logger:    logger.With("component", "listener"),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}, nil
}

// Start runs the polling loop: one query immediately, then one per
// interval. It blocks until ctx is cancelled or Stop is called. A query
// failure ends the loop with a PollError returned to the owner, never
// swallowed and never retried internally.
func (l *Listener) Start(ctx context.Context) error {
	defer close(l.doneCh)

	l.logger.Info("listener started", "interval", l.interval, "command", l.command)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		if err := l.poll(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			l.logger.Error("poll failed", "error", err)
			return &model.PollError{Err: err}
		}

		select {
		case <-ctx.Done():
			l.logger.Info("listener stopping (context cancelled)")
			return ctx.Err()
		case <-l.stopCh:
			l.logger.Info("listener stopping (stop called)")
			return nil
		case <-ticker.C:
		}
	}
}

// Stop signals the loop to exit and waits for the current poll to
// finish.
func (l *Listener) Stop() {
	close(l.stopCh)
	<-l.doneCh
}

// poll issues one batched query and publishes its Batch.
func (l *Listener) poll(ctx context.Context) error {
	stdout, stderr, exitCode, runErr := l.runner.Run(ctx, l.command[0], l.command[1:]...)
	if runErr != nil {
		return &model.ProcessError{Command: l.command, Stdout: stdout, Stderr: stderr, Err: runErr}
	}
	if exitCode != 0 {
		return &model.ProcessError{Command: l.command, ExitCode: exitCode, Stdout: stdout, Stderr: stderr}
	}

	records, err := sacct.ParseTable(stdout)
	if err != nil {
		return err
	}

	batch := Batch{ID: "poll_" + uuid.New().String()[:8]}
	for _, rec := range sacct.Reduce(records) {
		if l.runStates[rec.State] {
			continue
		}
		batch.Results = append(batch.Results, model.Result{
			JobID:    rec.JobID,
			Status:   model.StatusFinished,
			ExitCode: rec.ExitCode,
		})
	}

	l.logger.Debug("poll complete",
		"batch_id", batch.ID,
		"rows", len(records),
		"finished", len(batch.Results),
	)

	select {
	case l.results <- batch:
		return nil
	case <-l.stopCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
