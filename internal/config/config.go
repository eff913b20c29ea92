// Package config holds the scheduler profile: binary names, flag names,
// state vocabulary, and polling scope. Flag spellings are configuration
// data, not code: a different batch system is a different profile, not
// a different build.
package config

import (
	"fmt"
	"os"
	"os/user"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration with YAML support for strings like "30s".
type Duration time.Duration

// UnmarshalYAML decodes either an integer number of seconds or a
// time.ParseDuration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var secs int64
	if err := value.Decode(&secs); err == nil {
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Commands names the scheduler binaries.
type Commands struct {
	Submit string `yaml:"submit"`
	Cancel string `yaml:"cancel"`
	Query  string `yaml:"query"`
}

// SubmitFlags maps each JobSpec field to its submission flag. A flag
// ending in "=" is joined to its value ("--qos=normal"); otherwise the
// value follows as a separate token ("-J name"). An empty flag disables
// the field for this scheduler.
type SubmitFlags struct {
	Name      string `yaml:"name"`
	Log       string `yaml:"log"`
	Partition string `yaml:"partition"`
	Exclude   string `yaml:"exclude"`
	Clusters  string `yaml:"clusters"`
	QOS       string `yaml:"qos"`
	Mem       string `yaml:"mem"`
	Time      string `yaml:"time"`
	Export    string `yaml:"export"`
}

// QueryFlags maps status-query qualifiers to their flags, same "="
// convention as SubmitFlags.
type QueryFlags struct {
	Partition string `yaml:"partition"`
	Clusters  string `yaml:"clusters"`
	Job       string `yaml:"job"`
	User      string `yaml:"user"`
	Parseable string `yaml:"parseable"`
	Columns   string `yaml:"columns"`
}

// Scope restricts the batched listener's query to one user, and
// optionally one partition and cluster set. User is always passed in
// explicitly; the listener never reads it from ambient process state.
type Scope struct {
	User      string `yaml:"user"`
	Partition string `yaml:"partition"`
	Clusters  string `yaml:"clusters"`
}

// Profile is the full scheduler profile.
type Profile struct {
	Commands    Commands    `yaml:"commands"`
	SubmitFlags SubmitFlags `yaml:"submit_flags"`
	QueryFlags  QueryFlags  `yaml:"query_flags"`

	// ScriptOptionsID is the directive keyword recognized in run
	// scripts ("#SBATCH ..." for Slurm).
	ScriptOptionsID string `yaml:"script_options_id"`

	// StatusColumns are the columns requested from the query command.
	StatusColumns string `yaml:"status_columns"`

	// RunStates are the scheduler state tokens that mean "not yet
	// finished". Any other token is treated as terminal.
	RunStates []string `yaml:"run_states"`

	// SuccessCode is the exit-code token reported for a clean run.
	SuccessCode string `yaml:"success_code"`

	Scope        Scope    `yaml:"scope"`
	PollInterval Duration `yaml:"poll_interval"`
}

// Default returns the stock Slurm profile. The listener scope user
// defaults to the current OS user.
func Default() Profile {
	return Profile{
		Commands: Commands{
			Submit: "sbatch",
			Cancel: "scancel",
			Query:  "sacct",
		},
		SubmitFlags: SubmitFlags{
			Name:      "-J",
			Log:       "-o",
			Partition: "-p",
			Exclude:   "-x",
			Clusters:  "-M",
			QOS:       "--qos=",
			Mem:       "--mem=",
			Time:      "--time=",
			Export:    "--export=",
		},
		QueryFlags: QueryFlags{
			Partition: "-r",
			Clusters:  "-M",
			Job:       "-j",
			User:      "-u",
			Parseable: "-P",
			Columns:   "-o",
		},
		ScriptOptionsID: "SBATCH",
		StatusColumns:   "JobID,State,ExitCode",
		RunStates:       []string{"PENDING", "RUNNING"},
		SuccessCode:     "0:0",
		Scope:           Scope{User: currentUser()},
		PollInterval:    Duration(time.Second),
	}
}

// Load reads a YAML profile from path, overlaid on Default(). Fields
// absent from the file keep their default value.
func Load(path string) (Profile, error) {
	p := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return p, nil
}

// RunningSet returns the run-state tokens as a lookup set.
func (p Profile) RunningSet() map[string]bool {
	set := make(map[string]bool, len(p.RunStates))
	for _, s := range p.RunStates {
		set[s] = true
	}
	return set
}

// currentUser returns the OS user name, or "" if it cannot be resolved.
func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}
