package model

import "strings"

// JobSpec is the immutable input for a submission. Every field is
// optional: an empty field contributes nothing to the generated command
// line; it is omitted, never defaulted to a placeholder.
//
// Run arguments may be given either as an ordered sequence (RunArgs) or
// as a single pre-joined string (RunArgsRaw). RunArgsRaw is appended to
// the command verbatim, so the caller owns its internal quoting.
// RunArgs tokens are space-joined before the final shell-word split,
// which means tokens containing embedded whitespace are NOT individually
// escaped in sequence form. Set at most one of the two.
type JobSpec struct {
	// Name is the scheduler-visible job name.
	Name string `yaml:"name"`

	// LogPath is the output log file written by the scheduler.
	LogPath string `yaml:"log"`

	// RunScript is the script executed on the worker node. Required
	// for submission; building a submit command without it is a
	// caller contract violation.
	RunScript string `yaml:"run_script"`

	RunArgs    []string `yaml:"run_args"`
	RunArgsRaw string   `yaml:"run_args_raw"`

	// Batch submission options (see scheduler documentation).
	Partition string `yaml:"partition"`
	Exclude   string `yaml:"exclude"`
	Clusters  string `yaml:"clusters"`
	QOS       string `yaml:"qos"`
	Mem       string `yaml:"mem"`
	Time      string `yaml:"time"`
	Export    string `yaml:"export"`
}

// RunArgsString returns the run arguments as a single string: RunArgsRaw
// verbatim when set, otherwise the space-joined RunArgs sequence.
func (s JobSpec) RunArgsString() string {
	if s.RunArgsRaw != "" {
		return s.RunArgsRaw
	}
	return strings.Join(s.RunArgs, " ")
}

// Job is the unit of work handed to a backend: a spec plus the mutable
// identity and last-known outcome filled in as the job progresses.
//
// A Job is owned exclusively by the caller that created it. Concurrent
// Status calls on the same Job are not internally synchronized;
// callers that poll one Job from several goroutines must serialize
// access themselves. Distinct Jobs may be used concurrently without
// shared state.
type Job struct {
	Spec JobSpec

	// ID is the identifier assigned by the scheduler at submission.
	// Zero means the job has not been submitted yet.
	ID int

	// Status is the last observed status. ExitCode is set if and only
	// if Status is StatusFinished.
	Status   Status
	ExitCode string
}

// NewJob creates an unsubmitted Job for the given spec.
func NewJob(spec JobSpec) *Job {
	return &Job{Spec: spec, Status: StatusRunning}
}

// Submitted reports whether the scheduler has assigned an identifier.
func (j *Job) Submitted() bool {
	return j.ID != 0
}
