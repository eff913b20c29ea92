package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultProfile(t *testing.T) {
	p := Default()

	if p.Commands.Submit != "sbatch" || p.Commands.Cancel != "scancel" || p.Commands.Query != "sacct" {
		t.Errorf("unexpected commands: %+v", p.Commands)
	}
	if p.SuccessCode != "0:0" {
		t.Errorf("success_code = %q, want 0:0", p.SuccessCode)
	}
	if p.PollInterval.Std() != time.Second {
		t.Errorf("poll_interval = %v, want 1s", p.PollInterval.Std())
	}

	set := p.RunningSet()
	for _, s := range []string{"PENDING", "RUNNING"} {
		if !set[s] {
			t.Errorf("running set missing %s", s)
		}
	}
	if set["COMPLETED"] {
		t.Error("COMPLETED must not be in the running set")
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	content := `
scope:
  user: alice
  partition: gpu
poll_interval: 30s
run_states: [PENDING, RUNNING, REQUEUED]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if p.Scope.User != "alice" {
		t.Errorf("scope.user = %q, want alice", p.Scope.User)
	}
	if p.Scope.Partition != "gpu" {
		t.Errorf("scope.partition = %q, want gpu", p.Scope.Partition)
	}
	if p.PollInterval.Std() != 30*time.Second {
		t.Errorf("poll_interval = %v, want 30s", p.PollInterval.Std())
	}
	if !p.RunningSet()["REQUEUED"] {
		t.Error("overlaid run_states missing REQUEUED")
	}

	// Untouched fields keep defaults.
	if p.Commands.Submit != "sbatch" {
		t.Errorf("commands.submit = %q, want sbatch", p.Commands.Submit)
	}
	if p.SubmitFlags.QOS != "--qos=" {
		t.Errorf("submit_flags.qos = %q, want --qos=", p.SubmitFlags.QOS)
	}
}

func TestLoadIntegerInterval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	if err := os.WriteFile(path, []byte("poll_interval: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if p.PollInterval.Std() != 5*time.Second {
		t.Errorf("poll_interval = %v, want 5s", p.PollInterval.Std())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/profile.yaml"); err == nil {
		t.Fatal("expected error for missing profile")
	}
}
