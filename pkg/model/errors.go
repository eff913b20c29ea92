package model

import "fmt"

// ConfigError reports a malformed or missing required field in a
// JobSpec or profile. It fails fast and is never retried.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config error: %s", e.Message)
	}
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Message)
}

// NewConfigError creates a ConfigError for the given field.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// ProcessError reports a scheduler CLI invocation that failed: non-zero
// exit or an I/O failure spawning the process. It is surfaced to the
// caller as-is and never interpreted as a job status.
type ProcessError struct {
	Command  []string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("process error: %v: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("process error: %v exited %d: %s", e.Command, e.ExitCode, e.Stderr)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// ParseError reports scheduler output that did not match the expected
// positional or tabular shape. It is distinct from ProcessError so that
// callers can tell "scheduler rejected the job" from "scheduler behaved
// unexpectedly".
type ParseError struct {
	Output  string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s: %q", e.Message, e.Output)
}

// PollError reports a query failure inside the batched listener. It
// terminates the current run of the loop and is returned to the loop's
// owner; swallowing it would be a correctness violation.
type PollError struct {
	Err error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("poll error: %v", e.Err)
}

func (e *PollError) Unwrap() error {
	return e.Err
}
