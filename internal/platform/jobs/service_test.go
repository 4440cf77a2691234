package jobs

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type runRecorder struct {
	mu       sync.Mutex
	inserted []string
	statuses []string
}

type idRow struct{ id string }

func (r idRow) Scan(dest ...any) error {
	*(dest[0].(*string)) = r.id
	return nil
}

func (r *runRecorder) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserted = append(r.inserted, args[0].(string))
	return idRow{id: "run-1"}
}

func (r *runRecorder) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if strings.Contains(sql, "UPDATE job_runs") {
		r.statuses = append(r.statuses, args[0].(string))
	}
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (r *runRecorder) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("not used")
}

func (r *runRecorder) snapshot() ([]string, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.inserted...), append([]string(nil), r.statuses...)
}

func TestRunNowRecordsStatus(t *testing.T) {
	db := &runRecorder{}
	svc := New(db)
	ctx := context.Background()

	details, err := svc.RunNow(ctx, JobReviewOverdue, func(context.Context) (any, error) {
		return map[string]int64{"updated": 2}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := details.(map[string]int64)["updated"]; got != 2 {
		t.Fatalf("unexpected details %v", details)
	}

	_, err = svc.RunNow(ctx, JobEnrollmentExpiry, func(context.Context) (any, error) {
		return nil, errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected job error to propagate")
	}

	inserted, statuses := db.snapshot()
	if len(inserted) != 2 || inserted[0] != JobReviewOverdue {
		t.Fatalf("unexpected job_runs inserts %v", inserted)
	}
	if len(statuses) != 2 || statuses[0] != "completed" || statuses[1] != "failed" {
		t.Fatalf("unexpected statuses %v", statuses)
	}
}

func TestEnqueueRunsOnWorker(t *testing.T) {
	db := &runRecorder{}
	svc := New(db)
	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)

	done := make(chan struct{})
	svc.Enqueue(JobCertificatePDF, func(context.Context) (any, error) {
		close(done)
		return nil, nil
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("queued job did not run")
	}
	cancel()
	svc.Wait()
}

func TestEveryIgnoresDisabledInterval(t *testing.T) {
	svc := New(&runRecorder{})
	svc.Every(JobReviewOverdue, 0, func(context.Context) (any, error) { return nil, nil })
	if len(svc.schedules) != 0 {
		t.Fatalf("expected no schedules, got %d", len(svc.schedules))
	}
	svc.Every(JobReviewOverdue, time.Minute, func(context.Context) (any, error) { return nil, nil })
	if len(svc.schedules) != 1 {
		t.Fatalf("expected one schedule, got %d", len(svc.schedules))
	}
}
