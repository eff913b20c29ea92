package store

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/me/slurmgate/pkg/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := NewSQLiteStore(":memory:", "0:0", logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestRecordAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	results := []model.Result{
		{JobID: 11, Status: model.StatusFinished, ExitCode: "1:0"},
		{JobID: 12, Status: model.StatusFinished, ExitCode: "0:0"},
	}
	if err := s.RecordResults(ctx, "poll_abc", results); err != nil {
		t.Fatalf("RecordResults: %v", err)
	}

	entry, err := s.GetResult(ctx, 11)
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if entry == nil {
		t.Fatal("entry for job 11 missing")
	}
	if entry.ExitCode != "1:0" || entry.Success {
		t.Errorf("entry = %+v, want exit 1:0, success=false", entry)
	}
	if entry.BatchID != "poll_abc" {
		t.Errorf("batch_id = %q, want poll_abc", entry.BatchID)
	}

	entry, err = s.GetResult(ctx, 12)
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if !entry.Success {
		t.Error("0:0 should be recorded as success")
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)

	entry, err := s.GetResult(context.Background(), 999)
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if entry != nil {
		t.Errorf("entry = %+v, want nil", entry)
	}
}

func TestReobservedJobOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := []model.Result{{JobID: 20, Status: model.StatusFinished, ExitCode: "0:0"}}
	if err := s.RecordResults(ctx, "poll_1", first); err != nil {
		t.Fatal(err)
	}
	second := []model.Result{{JobID: 20, Status: model.StatusFinished, ExitCode: "0:0"}}
	if err := s.RecordResults(ctx, "poll_2", second); err != nil {
		t.Fatal(err)
	}

	entries, err := s.ListResults(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].BatchID != "poll_2" {
		t.Errorf("batch_id = %q, want poll_2", entries[0].BatchID)
	}
}

func TestListLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var results []model.Result
	for i := 1; i <= 5; i++ {
		results = append(results, model.Result{JobID: i, Status: model.StatusFinished, ExitCode: "0:0"})
	}
	if err := s.RecordResults(ctx, "poll_x", results); err != nil {
		t.Fatal(err)
	}

	entries, err := s.ListResults(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 entries, got %d", len(entries))
	}
}

func TestRecordEmptyBatch(t *testing.T) {
	s := newTestStore(t)
	if err := s.RecordResults(context.Background(), "poll_empty", nil); err != nil {
		t.Fatalf("empty batch should be a no-op, got %v", err)
	}
}
