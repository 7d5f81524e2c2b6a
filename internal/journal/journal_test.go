package journal

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id, err := store.Begin(ctx, "/videos/demo.mp4", "/videos/demo.srt", "Samantha")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty run id")
	}

	outcome := Outcome{
		OutputPath:      "/videos/demo_tts_audio.mp4",
		CueCount:        10,
		DroppedCues:     1,
		SubstitutedCues: 2,
	}
	if err := store.Complete(ctx, id, outcome); err != nil {
		t.Fatalf("complete: %v", err)
	}

	runs, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if run.Status != StatusCompleted {
		t.Fatalf("unexpected status: %s", run.Status)
	}
	if run.OutputPath != outcome.OutputPath || run.DroppedCues != 1 || run.SubstitutedCues != 2 {
		t.Fatalf("outcome not persisted: %+v", run)
	}
	if run.CreatedAt.IsZero() || run.UpdatedAt.IsZero() {
		t.Fatal("timestamps not persisted")
	}
}

func TestFailedRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id, err := store.Begin(ctx, "/videos/demo.mp4", "/videos/demo.srt", "")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := store.Fail(ctx, id, "mux with aac: exit status 1"); err != nil {
		t.Fatalf("fail: %v", err)
	}

	runs, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if runs[0].Status != StatusFailed || runs[0].ErrorMessage == "" {
		t.Fatalf("failure not persisted: %+v", runs[0])
	}
}

func TestRecentOrdering(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := store.Begin(ctx, "/videos/demo.mp4", "/videos/demo.srt", ""); err != nil {
			t.Fatalf("begin %d: %v", i, err)
		}
	}
	runs, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("limit not applied, got %d runs", len(runs))
	}
	if runs[0].CreatedAt.Before(runs[1].CreatedAt) {
		t.Fatal("runs not ordered newest first")
	}
}

func TestReopenExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := store.Begin(context.Background(), "/v.mp4", "/v.srt", ""); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	runs, err := reopened.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected persisted run after reopen, got %d", len(runs))
	}
}
