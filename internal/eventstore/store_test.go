package eventstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/scribeworks/meetscribe/internal/config"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestOpenEphemeralKeepsNothing(t *testing.T) {
	ctx := context.Background()
	cfg := config.StoreConfig{RetentionMode: "ephemeral"}
	store, err := Open(ctx, cfg, newLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.SaveJob(ctx, Job{JobID: "job-1", SessionID: "s1", Status: "completed"}); err != nil {
		t.Fatalf("save job: %v", err)
	}
	if _, err := store.GetJob(ctx, "job-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from ephemeral store, got %v", err)
	}
}

func TestSessionAndJobRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.StoreConfig{Path: filepath.Join(tmp, "meetscribe.db"), RetentionMode: "session"}
	store, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	if err := store.BeginSession(ctx, "sess-1"); err != nil {
		t.Fatalf("begin session: %v", err)
	}
	if err := store.EndSession(ctx, "sess-1", "hello world", 90*time.Second); err != nil {
		t.Fatalf("end session: %v", err)
	}

	job := Job{
		JobID:             "job-1",
		SessionID:         "sess-1",
		Status:            "completed",
		AnalysisType:      "summary",
		Transcript:        "[00:00] Speaker 1: hello world",
		Analysis:          "short meeting",
		SyntheticSpeakers: true,
	}
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("save job: %v", err)
	}

	got, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != "completed" || got.Analysis != "short meeting" || !got.SyntheticSpeakers {
		t.Fatalf("unexpected job row: %+v", got)
	}

	jobs, err := store.ListSessionJobs(ctx, "sess-1", 10)
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
}

func TestSaveJobUpserts(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.StoreConfig{Path: filepath.Join(tmp, "meetscribe.db"), RetentionMode: "session"}
	store, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	if err := store.BeginSession(ctx, "sess-1"); err != nil {
		t.Fatalf("begin session: %v", err)
	}
	if err := store.SaveJob(ctx, Job{JobID: "job-1", SessionID: "sess-1", Status: "processing"}); err != nil {
		t.Fatalf("save processing: %v", err)
	}
	if err := store.SaveJob(ctx, Job{JobID: "job-1", SessionID: "sess-1", Status: "failed", Error: "no transcript available"}); err != nil {
		t.Fatalf("save terminal: %v", err)
	}

	got, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != "failed" || got.Error != "no transcript available" {
		t.Fatalf("upsert did not apply: %+v", got)
	}
}

func TestGetJobNotFound(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.StoreConfig{Path: filepath.Join(tmp, "meetscribe.db"), RetentionMode: "session"}
	store, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if _, err := store.GetJob(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPruneByDaysAndSessions(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.StoreConfig{Path: filepath.Join(tmp, "meetscribe.db"), RetentionMode: "persistent", RetentionDays: 1, MaxSessions: 1}
	store, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	store.clock = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	if err := store.BeginSession(ctx, "old-session"); err != nil {
		t.Fatalf("begin old session: %v", err)
	}
	if err := store.SaveJob(ctx, Job{JobID: "old-job", SessionID: "old-session", Status: "completed"}); err != nil {
		t.Fatalf("save old job: %v", err)
	}

	store.clock = func() time.Time { return time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC) }
	if err := store.BeginSession(ctx, "new-session"); err != nil {
		t.Fatalf("begin new session: %v", err)
	}
	if err := store.Prune(ctx); err != nil {
		t.Fatalf("prune: %v", err)
	}

	if _, err := store.GetJob(ctx, "old-job"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected old job pruned, got %v", err)
	}
	jobs, err := store.ListSessionJobs(ctx, "old-session", 10)
	if err != nil {
		t.Fatalf("list old session jobs: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("expected old session jobs pruned, got %d", len(jobs))
	}
}
