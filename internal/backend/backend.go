// Package backend implements the submit/cancel/status lifecycle against
// one external batch scheduler at a time.
package backend

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/me/slurmgate/pkg/model"
)

// Backend is a pluggable adapter for a batch scheduling system.
type Backend interface {
	// Submit sends the job to the scheduler and returns the assigned
	// job identifier, which is also stored on the Job.
	Submit(ctx context.Context, job *model.Job) (int, error)

	// Cancel issues a fire-and-forget cancellation for a submitted
	// job. It does not verify the cancellation took effect and does
	// not update the Job's status. Calling it on an unsubmitted Job
	// is a contract violation.
	Cancel(ctx context.Context, job *model.Job) error

	// Status queries the scheduler for the job's current state. Each
	// call issues a fresh external query; callers tracking many jobs
	// should use the batched listener instead.
	Status(ctx context.Context, job *model.Job) (model.Status, error)

	// ExitCode returns the job's exit-code token, performing one
	// Status call first if none has been observed yet. The result is
	// "" while the job has not finished.
	ExitCode(ctx context.Context, job *model.Job) (string, error)
}

// CommandRunner abstracts command execution for testing.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, exitCode int, err error)
}

// OSCommandRunner is the real implementation using os/exec.
type OSCommandRunner struct{}

func (r *OSCommandRunner) Run(ctx context.Context, name string, args ...string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	runErr := cmd.Run()

	stdout := stdoutBuf.String()
	stderr := stderrBuf.String()

	switch e := runErr.(type) {
	case nil:
		return stdout, stderr, 0, nil
	case *exec.ExitError:
		return stdout, stderr, e.ExitCode(), nil
	default:
		return stdout, stderr, -1, runErr
	}
}
