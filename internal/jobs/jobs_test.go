package jobs_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"log/slog"

	dbfs "github.com/garnizeh/curator/db"
	"github.com/garnizeh/curator/internal/db"
	"github.com/garnizeh/curator/internal/jobs"
	"github.com/garnizeh/curator/internal/repository/sqlite"
	"github.com/garnizeh/curator/pkg/models"
)

func setupJobRepo(t *testing.T) (*db.DB, *sqlite.SQLiteRepo) {
	t.Helper()
	ctx := context.Background()
	logger := slog.Default()
	// unique shared in-memory DB per test so parallel tests don't collide
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	d, err := db.New(ctx, dsn, logger)
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := db.Migrate(ctx, d, dbfs.Migrations); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return d, sqlite.New(d, logger)
}

func TestEnqueueAndProcess(t *testing.T) {
	ctx := context.Background()
	_, repo := setupJobRepo(t)

	handled := make(chan struct{}, 1)
	handlers := map[string]jobs.Handler{
		"test": func(ctx context.Context, j *models.BackgroundJob) error {
			handled <- struct{}{}
			return nil
		},
	}
	pool := jobs.NewWorkerPool(repo, handlers, slog.Default(), 1)
	pool.Start(ctx)
	defer pool.Stop()

	if _, err := pool.Enqueue(ctx, "test", map[string]string{"foo": "bar"}, 10, 3); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case <-handled:
		// ok
	case <-time.After(3 * time.Second):
		t.Fatalf("handler was not called")
	}
}

func TestFailingJobMovesToDeadLetter(t *testing.T) {
	ctx := context.Background()
	d, repo := setupJobRepo(t)

	attempted := make(chan struct{}, 4)
	handlers := map[string]jobs.Handler{
		"boom": func(ctx context.Context, j *models.BackgroundJob) error {
			attempted <- struct{}{}
			return errors.New("always fails")
		},
	}
	pool := jobs.NewWorkerPool(repo, handlers, slog.Default(), 1)
	pool.Start(ctx)
	defer pool.Stop()

	if _, err := pool.Enqueue(ctx, "boom", nil, 0, 1); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case <-attempted:
	case <-time.After(3 * time.Second):
		t.Fatalf("handler was not called")
	}

	// the single allowed attempt failed; the job lands in the dead letter table
	deadline := time.Now().Add(3 * time.Second)
	for {
		var count int
		row := d.QueryRow(ctx, `SELECT COUNT(1) FROM dead_letter_jobs`)
		if err := row.Scan(&count); err != nil {
			t.Fatalf("count dead letters: %v", err)
		}
		if count == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job never reached dead letter, count=%d", count)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestUnknownJobTypeDeadLetters(t *testing.T) {
	ctx := context.Background()
	d, repo := setupJobRepo(t)

	pool := jobs.NewWorkerPool(repo, map[string]jobs.Handler{}, slog.Default(), 1)
	pool.Start(ctx)
	defer pool.Stop()

	if _, err := pool.Enqueue(ctx, "nobody.handles.this", nil, 0, 3); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		var lastErr string
		row := d.QueryRow(ctx, `SELECT last_error FROM dead_letter_jobs LIMIT 1`)
		if err := row.Scan(&lastErr); err == nil {
			if lastErr != "no handler" {
				t.Fatalf("last_error = %q, want %q", lastErr, "no handler")
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("job never reached dead letter")
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestBackoffDuration(t *testing.T) {
	if got := jobs.BackoffDuration(0); got != time.Second {
		t.Fatalf("attempt 0: got %v", got)
	}
	if got := jobs.BackoffDuration(1); got != 2*time.Second {
		t.Fatalf("attempt 1: got %v", got)
	}
	if got := jobs.BackoffDuration(3); got != 8*time.Second {
		t.Fatalf("attempt 3: got %v", got)
	}
	if got := jobs.BackoffDuration(20); got != 5*time.Minute {
		t.Fatalf("attempt 20 should cap: got %v", got)
	}
}
