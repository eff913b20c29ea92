package backend

import (
	"context"
	"log/slog"

	"github.com/me/slurmgate/internal/cmdline"
	"github.com/me/slurmgate/internal/config"
	"github.com/me/slurmgate/internal/sacct"
	"github.com/me/slurmgate/pkg/model"
)

// Slurm submits, cancels, and polls jobs through the Slurm CLI
// (sbatch/scancel/sacct by default; the profile may rename them).
// Operations block on the spawned process and perform no retries;
// retry policy belongs to the caller.
type Slurm struct {
	builder   *cmdline.Builder
	runStates map[string]bool
	runner    CommandRunner
	logger    *slog.Logger
}

// NewSlurm creates a Slurm backend using the given command builder and
// profile.
func NewSlurm(builder *cmdline.Builder, profile config.Profile, logger *slog.Logger) *Slurm {
	return newSlurmWithRunner(builder, profile, logger, &OSCommandRunner{})
}

// newSlurmWithRunner is used by tests to inject a mock CommandRunner.
func newSlurmWithRunner(builder *cmdline.Builder, profile config.Profile, logger *slog.Logger, runner CommandRunner) *Slurm {
	return &Slurm{
		builder:   builder,
		runStates: profile.RunningSet(),
		runner:    runner,
		logger:    logger.With("component", "slurm-backend"),
	}
}

// Submit sends the job to the batch system and stores the assigned
// identifier on the Job. A non-zero scheduler exit is a ProcessError
// carrying the captured output; unexpected output is a ParseError, so
// callers can tell a rejected job from a misbehaving scheduler.
func (s *Slurm) Submit(ctx context.Context, job *model.Job) (int, error) {
	if job.Submitted() {
		return 0, model.NewConfigError("job_id", "job was already submitted")
	}

	command, err := s.builder.Submit(job.Spec)
	if err != nil {
		return 0, err
	}
	s.logger.Debug("submitting job", "name", job.Spec.Name, "command", command)

	stdout, err := s.run(ctx, command)
	if err != nil {
		return 0, err
	}

	id, err := sacct.ParseSubmission(stdout)
	if err != nil {
		return 0, err
	}
	job.ID = id
	job.Status = model.StatusRunning

	s.logger.Info("job submitted", "name", job.Spec.Name, "job_id", id)
	return id, nil
}

// Cancel issues one cancellation command for the stored identifier.
// It does not wait for the cancellation to take effect: a non-zero exit
// from the cancel command is logged and ignored, only a spawn failure
// is returned. The Job's status is not touched.
func (s *Slurm) Cancel(ctx context.Context, job *model.Job) error {
	if !job.Submitted() {
		return model.NewConfigError("job_id", "cancel requires a submitted job")
	}

	command, err := s.builder.Cancel(job.ID)
	if err != nil {
		return err
	}
	s.logger.Debug("cancelling job", "job_id", job.ID, "command", command)

	stdout, stderr, exitCode, runErr := s.runner.Run(ctx, command[0], command[1:]...)
	if runErr != nil {
		return &model.ProcessError{Command: command, Stdout: stdout, Stderr: stderr, Err: runErr}
	}
	if exitCode != 0 {
		s.logger.Warn("cancel command exited non-zero", "job_id", job.ID, "exit_code", exitCode, "stderr", stderr)
	}
	return nil
}

// Status issues one identifier-scoped query and maps the surviving row
// onto the status model. No visible data row means the job is still
// being scheduled and reports RUNNING without touching the stored exit
// code. Once FINISHED has been observed the job never reports RUNNING
// again.
func (s *Slurm) Status(ctx context.Context, job *model.Job) (model.Status, error) {
	if !job.Submitted() {
		return "", model.NewConfigError("job_id", "status requires a submitted job")
	}

	command, err := s.builder.Query(cmdline.QueryScope{
		JobID:     job.ID,
		Partition: job.Spec.Partition,
		Clusters:  job.Spec.Clusters,
	})
	if err != nil {
		return "", err
	}

	stdout, err := s.run(ctx, command)
	if err != nil {
		return "", err
	}
	s.logger.Debug("status query", "job_id", job.ID, "output", stdout)

	records, err := sacct.ParseTable(stdout)
	if err != nil {
		return "", err
	}

	for _, rec := range sacct.Reduce(records) {
		if rec.JobID != job.ID {
			continue
		}
		if !s.runStates[rec.State] {
			job.Status = model.StatusFinished
			job.ExitCode = rec.ExitCode
			return model.StatusFinished, nil
		}
	}

	// FINISHED is terminal; a stale or empty query result never
	// moves the job backwards.
	if job.Status == model.StatusFinished {
		return model.StatusFinished, nil
	}
	return model.StatusRunning, nil
}

// ExitCode returns the stored exit-code token. If none has been
// observed it performs exactly one Status call to populate it first;
// the result is still "" when the job has not finished.
func (s *Slurm) ExitCode(ctx context.Context, job *model.Job) (string, error) {
	if job.ExitCode == "" {
		if _, err := s.Status(ctx, job); err != nil {
			return "", err
		}
	}
	return job.ExitCode, nil
}

// run executes a built command and returns stdout, mapping spawn
// failures and non-zero exits onto ProcessError.
func (s *Slurm) run(ctx context.Context, command []string) (string, error) {
	stdout, stderr, exitCode, runErr := s.runner.Run(ctx, command[0], command[1:]...)
	if runErr != nil {
		return "", &model.ProcessError{Command: command, Stdout: stdout, Stderr: stderr, Err: runErr}
	}
	if exitCode != 0 {
		return "", &model.ProcessError{Command: command, ExitCode: exitCode, Stdout: stdout, Stderr: stderr}
	}
	return stdout, nil
}
