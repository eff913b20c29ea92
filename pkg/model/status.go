package model

// Status represents the lifecycle state of a Job as seen by the caller.
//
// A job moves unsubmitted → RUNNING → FINISHED and never backwards;
// FINISHED is terminal. The scheduler's own state vocabulary (PENDING,
// COMPLETED, FAILED, ...) is collapsed onto these two values: anything
// in the configured running set maps to RUNNING, everything else to
// FINISHED.
type Status string

const (
	StatusRunning  Status = "RUNNING"
	StatusFinished Status = "FINISHED"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if the job is in a final state.
func (s Status) IsTerminal() bool {
	return s == StatusFinished
}

// Record is one data row of a scheduler status query: a job identifier
// with its raw state and exit-code strings. Records are transient:
// they are consumed immediately to update a Job or build a result batch
// and are never persisted.
type Record struct {
	JobID    int
	State    string
	ExitCode string
}

// Result is a terminal outcome emitted by the batched listener for one job.
type Result struct {
	JobID    int
	Status   Status
	ExitCode string
}

// Succeeded reports whether the result's exit-code token equals the
// configured success token (for Slurm, "0:0"). The token itself is
// treated as opaque.
func (r Result) Succeeded(successCode string) bool {
	return r.ExitCode == successCode
}
