// Package cmdline builds scheduler command lines from job specs and the
// active profile. The output is an argv token slice ready for direct
// process execution; no secondary shell parsing happens downstream.
package cmdline

import (
	"fmt"
	"strconv"
	"strings"

	shellwords "github.com/mattn/go-shellwords"

	"github.com/me/slurmgate/internal/config"
	"github.com/me/slurmgate/pkg/model"
)

// ScriptResolver turns a run-script path into the exact invocation
// token placed on the command line (e.g. after making it executable or
// injecting a preamble). The default resolver returns the path as-is.
type ScriptResolver func(runScript string) string

// CommandWrapper rewrites the fully assembled command string before it
// is split into argv tokens. It is the hook for callers that need to
// run scheduler commands through an outer command (ssh, a shell with a
// sourced environment, ...). The default wrapper is the identity.
type CommandWrapper func(command string) string

// QueryScope selects which jobs a status query covers. JobID scopes to
// one submission; User scopes to every job visible to that user.
// Partition and Clusters narrow either form.
type QueryScope struct {
	JobID     int
	User      string
	Partition string
	Clusters  string
}

// Builder constructs submit, cancel, and query command lines.
type Builder struct {
	profile  config.Profile
	resolver ScriptResolver
	wrapper  CommandWrapper
}

// Option configures optional Builder hooks.
type Option func(*Builder)

// WithScriptResolver sets the run-script resolution hook.
func WithScriptResolver(r ScriptResolver) Option {
	return func(b *Builder) {
		b.resolver = r
	}
}

// WithCommandWrapper sets the command-wrapping hook.
func WithCommandWrapper(w CommandWrapper) Option {
	return func(b *Builder) {
		b.wrapper = w
	}
}

// NewBuilder creates a Builder for the given profile.
func NewBuilder(profile config.Profile, opts ...Option) *Builder {
	b := &Builder{
		profile:  profile,
		resolver: func(s string) string { return s },
		wrapper:  func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Submit builds the submission command for spec. Optional fields map to
// exactly one flag each, in fixed order: name, log, partition, exclude,
// clusters, qos, mem, time, export, then the resolved script, then run
// arguments. Empty fields contribute nothing. An empty RunScript is a
// caller contract violation.
func (b *Builder) Submit(spec model.JobSpec) ([]string, error) {
	if spec.RunScript == "" {
		return nil, model.NewConfigError("run_script", "required for submission")
	}

	flags := b.profile.SubmitFlags
	var sb strings.Builder
	sb.WriteString(b.profile.Commands.Submit)
	appendFlag(&sb, flags.Name, spec.Name)
	appendFlag(&sb, flags.Log, spec.LogPath)
	appendFlag(&sb, flags.Partition, spec.Partition)
	appendFlag(&sb, flags.Exclude, spec.Exclude)
	appendFlag(&sb, flags.Clusters, spec.Clusters)
	appendFlag(&sb, flags.QOS, spec.QOS)
	appendFlag(&sb, flags.Mem, spec.Mem)
	appendFlag(&sb, flags.Time, spec.Time)
	appendFlag(&sb, flags.Export, spec.Export)

	sb.WriteByte(' ')
	sb.WriteString(b.resolver(spec.RunScript))

	if args := spec.RunArgsString(); args != "" {
		sb.WriteByte(' ')
		sb.WriteString(args)
	}

	return b.split(sb.String())
}

// Cancel builds the cancellation command for an assigned job ID.
func (b *Builder) Cancel(jobID int) ([]string, error) {
	if jobID == 0 {
		return nil, model.NewConfigError("job_id", "cancel requires a submitted job")
	}
	return b.split(b.profile.Commands.Cancel + " " + strconv.Itoa(jobID))
}

// Query builds the status query command for the given scope, requesting
// the profile's status columns in parseable form.
func (b *Builder) Query(scope QueryScope) ([]string, error) {
	flags := b.profile.QueryFlags
	var sb strings.Builder
	sb.WriteString(b.profile.Commands.Query)
	appendFlag(&sb, flags.Partition, scope.Partition)
	appendFlag(&sb, flags.Clusters, scope.Clusters)
	if scope.JobID != 0 {
		appendFlag(&sb, flags.Job, strconv.Itoa(scope.JobID))
	}
	appendFlag(&sb, flags.User, scope.User)
	if flags.Parseable != "" {
		sb.WriteByte(' ')
		sb.WriteString(flags.Parseable)
	}
	appendFlag(&sb, flags.Columns, b.profile.StatusColumns)

	return b.split(sb.String())
}

// split applies the command wrapper and breaks the result into argv
// tokens with shell-word semantics: quotes and escapes are honored, no
// variable expansion is performed.
func (b *Builder) split(command string) ([]string, error) {
	wrapped := b.wrapper(command)
	tokens, err := shellwords.Parse(wrapped)
	if err != nil {
		return nil, fmt.Errorf("split command %q: %w", wrapped, err)
	}
	return tokens, nil
}

// appendFlag writes one flag/value pair. A flag ending in "=" is joined
// to its value; otherwise the value follows as a separate word. Empty
// flags or values are skipped entirely.
func appendFlag(sb *strings.Builder, flag, value string) {
	if flag == "" || value == "" {
		return
	}
	sb.WriteByte(' ')
	sb.WriteString(flag)
	if !strings.HasSuffix(flag, "=") {
		sb.WriteByte(' ')
	}
	sb.WriteString(value)
}
