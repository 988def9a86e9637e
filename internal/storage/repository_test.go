package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/micro-ha/eink-canvas/addon/internal/model"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo, err := New(context.Background(), filepath.Join(t.TempDir(), "logs.db"), logger)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestAppendAndRecentLogsRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		entry := model.LogEntry{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Level:     model.LogLevelInfo,
			Message:   fmt.Sprintf("event %d", i),
		}
		if err := repo.AppendLog(ctx, "192.168.1.42", entry); err != nil {
			t.Fatalf("AppendLog() error: %v", err)
		}
	}

	entries, err := repo.RecentLogs(ctx, "192.168.1.42", 10)
	if err != nil {
		t.Fatalf("RecentLogs() error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("RecentLogs() len = %d, want 3", len(entries))
	}
	if entries[0].Message != "event 0" || entries[2].Message != "event 2" {
		t.Fatalf("unexpected order: %v", entries)
	}
	if !entries[1].Timestamp.Equal(base.Add(time.Second)) {
		t.Fatalf("Timestamp = %v, want %v", entries[1].Timestamp, base.Add(time.Second))
	}
	if entries[0].Level != model.LogLevelInfo {
		t.Fatalf("Level = %q, want info", entries[0].Level)
	}
}

func TestAppendLogPrunesBeyondRetention(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < retainedPerHost+20; i++ {
		entry := model.LogEntry{
			Timestamp: time.Now().UTC(),
			Level:     model.LogLevelInfo,
			Message:   fmt.Sprintf("event %d", i),
		}
		if err := repo.AppendLog(ctx, "192.168.1.42", entry); err != nil {
			t.Fatalf("AppendLog() error: %v", err)
		}
	}

	entries, err := repo.RecentLogs(ctx, "192.168.1.42", 0)
	if err != nil {
		t.Fatalf("RecentLogs() error: %v", err)
	}
	if len(entries) != retainedPerHost {
		t.Fatalf("RecentLogs() len = %d, want %d", len(entries), retainedPerHost)
	}
	if entries[len(entries)-1].Message != fmt.Sprintf("event %d", retainedPerHost+19) {
		t.Fatalf("newest entry = %q", entries[len(entries)-1].Message)
	}
}

func TestLogsAreScopedPerHost(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	entry := model.LogEntry{Timestamp: time.Now().UTC(), Level: model.LogLevelError, Message: "fetch failed"}

	if err := repo.AppendLog(ctx, "192.168.1.42", entry); err != nil {
		t.Fatalf("AppendLog() error: %v", err)
	}
	entries, err := repo.RecentLogs(ctx, "192.168.1.99", 10)
	if err != nil {
		t.Fatalf("RecentLogs() error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("RecentLogs() for other host len = %d, want 0", len(entries))
	}
}

func TestPurgeHost(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	entry := model.LogEntry{Timestamp: time.Now().UTC(), Level: model.LogLevelInfo, Message: "x"}

	if err := repo.AppendLog(ctx, "192.168.1.42", entry); err != nil {
		t.Fatalf("AppendLog() error: %v", err)
	}
	if err := repo.PurgeHost(ctx, "192.168.1.42"); err != nil {
		t.Fatalf("PurgeHost() error: %v", err)
	}
	entries, err := repo.RecentLogs(ctx, "192.168.1.42", 10)
	if err != nil {
		t.Fatalf("RecentLogs() error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("RecentLogs() len = %d after purge, want 0", len(entries))
	}
}
