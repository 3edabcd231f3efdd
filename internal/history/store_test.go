package history_test

import (
	"context"
	"path/filepath"
	"testing"

	"subgen/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStartAndFinishRun(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	id, err := store.StartRun(ctx, history.Run{
		VideoID:      "abc123",
		Title:        "Demo Video",
		URL:          "https://example.com/watch?v=abc123",
		ASRBackend:   "local",
		SubtitleMode: "soft",
	})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if id == "" {
		t.Fatal("expected a run id")
	}

	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d", len(runs))
	}
	if runs[0].Status != history.StatusRunning {
		t.Fatalf("status = %q", runs[0].Status)
	}
	if runs[0].StartedAt.IsZero() {
		t.Fatal("started_at not recorded")
	}

	if err := store.FinishRun(ctx, id, history.StatusCompleted, "", "/tmp/out.mp4"); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	runs, err = store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if runs[0].Status != history.StatusCompleted {
		t.Fatalf("status = %q", runs[0].Status)
	}
	if runs[0].OutputPath != "/tmp/out.mp4" {
		t.Fatalf("output path = %q", runs[0].OutputPath)
	}
	if runs[0].FinishedAt.IsZero() {
		t.Fatal("finished_at not recorded")
	}
}

func TestFinishUnknownRunFails(t *testing.T) {
	store := openStore(t)
	if err := store.FinishRun(context.Background(), "missing", history.StatusFailed, "boom", ""); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	for _, videoID := range []string{"one", "two", "three"} {
		if _, err := store.StartRun(ctx, history.Run{VideoID: videoID, URL: "u", ASRBackend: "local", SubtitleMode: "soft"}); err != nil {
			t.Fatalf("StartRun(%s): %v", videoID, err)
		}
	}
	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("limit not applied: %d", len(runs))
	}
	if runs[0].VideoID != "three" {
		t.Fatalf("expected newest first, got %q", runs[0].VideoID)
	}
}
