package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/me/slurmgate/internal/cmdline"
	"github.com/me/slurmgate/internal/config"
	"github.com/me/slurmgate/pkg/model"
)

// mockCommandRunner records calls and returns canned responses.
type mockCommandRunner struct {
	calls   []mockCall
	results []mockResult
	callIdx int
}

type mockCall struct {
	name string
	args []string
}

type mockResult struct {
	stdout   string
	stderr   string
	exitCode int
	err      error
}

func (m *mockCommandRunner) Run(_ context.Context, name string, args ...string) (string, string, int, error) {
	m.calls = append(m.calls, mockCall{name: name, args: args})
	if m.callIdx >= len(m.results) {
		return "", "", -1, fmt.Errorf("unexpected call %d", m.callIdx)
	}
	r := m.results[m.callIdx]
	m.callIdx++
	return r.stdout, r.stderr, r.exitCode, r.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSlurm(runner CommandRunner) *Slurm {
	profile := config.Default()
	builder := cmdline.NewBuilder(profile)
	return newSlurmWithRunner(builder, profile, testLogger(), runner)
}

func TestSubmit(t *testing.T) {
	runner := &mockCommandRunner{
		results: []mockResult{
			{stdout: "Submitted batch job 4242\n"},
		},
	}
	s := newTestSlurm(runner)
	job := model.NewJob(model.JobSpec{Name: "align", RunScript: "run.sh"})

	id, err := s.Submit(context.Background(), job)
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if id != 4242 {
		t.Errorf("id = %d, want 4242", id)
	}
	if job.ID != 4242 {
		t.Errorf("job.ID = %d, want 4242", job.ID)
	}

	if len(runner.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(runner.calls))
	}
	if runner.calls[0].name != "sbatch" {
		t.Errorf("command = %q, want sbatch", runner.calls[0].name)
	}
}

func TestSubmitSchedulerRejection(t *testing.T) {
	runner := &mockCommandRunner{
		results: []mockResult{
			{stderr: "sbatch: error: invalid partition\n", exitCode: 1},
		},
	}
	s := newTestSlurm(runner)
	job := model.NewJob(model.JobSpec{RunScript: "run.sh", Partition: "nope"})

	_, err := s.Submit(context.Background(), job)
	if err == nil {
		t.Fatal("expected error")
	}
	var procErr *model.ProcessError
	if !errors.As(err, &procErr) {
		t.Fatalf("error = %T, want *model.ProcessError", err)
	}
	if procErr.Stderr != "sbatch: error: invalid partition\n" {
		t.Errorf("stderr not captured: %q", procErr.Stderr)
	}
	if job.Submitted() {
		t.Error("failed submission must not assign an ID")
	}
}

func TestSubmitUnexpectedOutput(t *testing.T) {
	runner := &mockCommandRunner{
		results: []mockResult{
			{stdout: "something odd\n"},
		},
	}
	s := newTestSlurm(runner)
	job := model.NewJob(model.JobSpec{RunScript: "run.sh"})

	_, err := s.Submit(context.Background(), job)
	var parseErr *model.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %T, want *model.ParseError", err)
	}
}

func TestSubmitTwice(t *testing.T) {
	runner := &mockCommandRunner{}
	s := newTestSlurm(runner)
	job := model.NewJob(model.JobSpec{RunScript: "run.sh"})
	job.ID = 99

	_, err := s.Submit(context.Background(), job)
	var cfgErr *model.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %T, want *model.ConfigError", err)
	}
	if len(runner.calls) != 0 {
		t.Error("no process should be spawned for a resubmission")
	}
}

func TestCancelUnsubmitted(t *testing.T) {
	s := newTestSlurm(&mockCommandRunner{})
	job := model.NewJob(model.JobSpec{Name: "never-submitted"})

	err := s.Cancel(context.Background(), job)
	var cfgErr *model.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %T, want *model.ConfigError", err)
	}
}

func TestCancelFireAndForget(t *testing.T) {
	runner := &mockCommandRunner{
		results: []mockResult{
			{stderr: "scancel: job already completed\n", exitCode: 1},
		},
	}
	s := newTestSlurm(runner)
	job := model.NewJob(model.JobSpec{})
	job.ID = 4242

	// Non-zero exit is not verified, only a spawn failure is an error.
	if err := s.Cancel(context.Background(), job); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if runner.calls[0].name != "scancel" {
		t.Errorf("command = %q, want scancel", runner.calls[0].name)
	}
	if job.Status != model.StatusRunning {
		t.Error("cancel must not update status")
	}
}

func TestStatusRunning(t *testing.T) {
	runner := &mockCommandRunner{
		results: []mockResult{
			{stdout: "JobID|State|ExitCode\n4242|RUNNING|\n4242.batch|RUNNING|\n"},
		},
	}
	s := newTestSlurm(runner)
	job := model.NewJob(model.JobSpec{})
	job.ID = 4242

	status, err := s.Status(context.Background(), job)
	if err != nil {
		t.Fatalf("Status error: %v", err)
	}
	if status != model.StatusRunning {
		t.Errorf("status = %s, want RUNNING", status)
	}
	if job.ExitCode != "" {
		t.Errorf("exit code = %q, want unset", job.ExitCode)
	}
}

func TestStatusFinished(t *testing.T) {
	runner := &mockCommandRunner{
		results: []mockResult{
			{stdout: "JobID|State|ExitCode\n4242|COMPLETED|0:0\n"},
		},
	}
	s := newTestSlurm(runner)
	job := model.NewJob(model.JobSpec{})
	job.ID = 4242

	status, err := s.Status(context.Background(), job)
	if err != nil {
		t.Fatalf("Status error: %v", err)
	}
	if status != model.StatusFinished {
		t.Errorf("status = %s, want FINISHED", status)
	}
	if job.ExitCode != "0:0" {
		t.Errorf("exit code = %q, want 0:0", job.ExitCode)
	}
}

func TestStatusNotYetVisible(t *testing.T) {
	runner := &mockCommandRunner{
		results: []mockResult{
			{stdout: "JobID|State|ExitCode\n"},
		},
	}
	s := newTestSlurm(runner)
	job := model.NewJob(model.JobSpec{})
	job.ID = 4242

	status, err := s.Status(context.Background(), job)
	if err != nil {
		t.Fatalf("Status error: %v", err)
	}
	if status != model.StatusRunning {
		t.Errorf("status = %s, want RUNNING", status)
	}
}

func TestStatusIdempotent(t *testing.T) {
	output := "JobID|State|ExitCode\n4242|FAILED|1:0\n"
	runner := &mockCommandRunner{
		results: []mockResult{
			{stdout: output},
			{stdout: output},
		},
	}
	s := newTestSlurm(runner)
	job := model.NewJob(model.JobSpec{})
	job.ID = 4242

	for i := 0; i < 2; i++ {
		status, err := s.Status(context.Background(), job)
		if err != nil {
			t.Fatalf("Status call %d error: %v", i, err)
		}
		if status != model.StatusFinished {
			t.Errorf("call %d: status = %s, want FINISHED", i, status)
		}
		if job.ExitCode != "1:0" {
			t.Errorf("call %d: exit code = %q, want 1:0", i, job.ExitCode)
		}
	}
	// No caching: each call issues its own query.
	if len(runner.calls) != 2 {
		t.Errorf("expected 2 queries, got %d", len(runner.calls))
	}
}

func TestStatusQueryFailure(t *testing.T) {
	runner := &mockCommandRunner{
		results: []mockResult{
			{stderr: "sacct: error\n", exitCode: 1},
		},
	}
	s := newTestSlurm(runner)
	job := model.NewJob(model.JobSpec{})
	job.ID = 4242

	_, err := s.Status(context.Background(), job)
	var procErr *model.ProcessError
	if !errors.As(err, &procErr) {
		t.Fatalf("error = %T, want *model.ProcessError (query failure is not a status)", err)
	}
}

func TestExitCodeTriggersOneStatus(t *testing.T) {
	runner := &mockCommandRunner{
		results: []mockResult{
			{stdout: "JobID|State|ExitCode\n4242|COMPLETED|0:0\n"},
		},
	}
	s := newTestSlurm(runner)
	job := model.NewJob(model.JobSpec{})
	job.ID = 4242

	code, err := s.ExitCode(context.Background(), job)
	if err != nil {
		t.Fatalf("ExitCode error: %v", err)
	}
	if code != "0:0" {
		t.Errorf("exit code = %q, want 0:0", code)
	}
	if len(runner.calls) != 1 {
		t.Errorf("expected exactly 1 status query, got %d", len(runner.calls))
	}

	// Populated code is returned without another query.
	code, err = s.ExitCode(context.Background(), job)
	if err != nil {
		t.Fatalf("ExitCode error: %v", err)
	}
	if code != "0:0" || len(runner.calls) != 1 {
		t.Errorf("second call: code = %q, queries = %d", code, len(runner.calls))
	}
}

func TestExitCodeStillRunning(t *testing.T) {
	runner := &mockCommandRunner{
		results: []mockResult{
			{stdout: "JobID|State|ExitCode\n4242|PENDING|\n"},
		},
	}
	s := newTestSlurm(runner)
	job := model.NewJob(model.JobSpec{})
	job.ID = 4242

	code, err := s.ExitCode(context.Background(), job)
	if err != nil {
		t.Fatalf("ExitCode error: %v", err)
	}
	if code != "" {
		t.Errorf("exit code = %q, want unset for running job", code)
	}
}
