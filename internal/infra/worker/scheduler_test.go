package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeSweeper struct {
	maxAge  time.Duration
	removed int
}

func (f *fakeSweeper) SweepDebounce(maxAge time.Duration) int {
	f.maxAge = maxAge
	return f.removed
}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	cfg := DefaultConfig()
	cfg.JobTimeout = time.Second
	s, err := NewScheduler(&cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), globalTestMetrics)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	return s
}

func TestScheduler_RunSweepJob(t *testing.T) {
	// Arrange
	s := newTestScheduler(t)
	sw := &fakeSweeper{removed: 3}
	const job = "sweep_run_test"

	// Act
	s.Run(context.Background(), job, SweepJob(sw, 90*time.Minute))

	// Assert
	if sw.maxAge != 90*time.Minute {
		t.Errorf("expected max age to be passed through, got %v", sw.maxAge)
	}
	if got := testutil.ToFloat64(globalTestMetrics.JobRunsTotal.WithLabelValues(job, "success")); got != 1 {
		t.Errorf("expected 1 success, got %v", got)
	}
	if got := testutil.ToFloat64(globalTestMetrics.JobItemsTotal.WithLabelValues(job)); got != 3 {
		t.Errorf("expected 3 swept items, got %v", got)
	}
}

func TestScheduler_RunFailureAndPanic(t *testing.T) {
	s := newTestScheduler(t)
	const job = "failing_job_test"

	s.Run(context.Background(), job, func(context.Context) (int, error) { return 0, errors.New("boom") })
	s.Run(context.Background(), job, func(context.Context) (int, error) { panic("kaboom") })

	if got := testutil.ToFloat64(globalTestMetrics.JobRunsTotal.WithLabelValues(job, "failure")); got != 2 {
		t.Errorf("expected 2 failures, got %v", got)
	}
}

func TestScheduler_RunAppliesTimeout(t *testing.T) {
	s := newTestScheduler(t)
	var hasDeadline bool

	s.Run(context.Background(), "deadline_test", func(ctx context.Context) (int, error) {
		_, hasDeadline = ctx.Deadline()
		return 0, nil
	})

	if !hasDeadline {
		t.Error("expected job context to carry the job timeout")
	}
}

func TestSweepJob_CanceledContext(t *testing.T) {
	sw := &fakeSweeper{removed: 1}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := SweepJob(sw, time.Hour)(ctx)

	if !errors.Is(err, context.Canceled) || n != 0 {
		t.Errorf("expected canceled job to skip the sweep, got %d, %v", n, err)
	}
	if sw.maxAge != 0 {
		t.Error("sweeper must not be called")
	}
}

func TestScheduler_AddAndStop(t *testing.T) {
	s := newTestScheduler(t)

	if err := s.Add("bad", "not a schedule", SweepJob(&fakeSweeper{}, time.Hour)); err == nil {
		t.Error("expected invalid schedule to be rejected")
	}
	if err := s.Add(JobDebounceSweep, "*/5 * * * *", SweepJob(&fakeSweeper{}, time.Hour)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Errorf("Stop: %v", err)
	}
}

func TestNewScheduler_InvalidTimezone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "Nowhere/Town"

	if _, err := NewScheduler(&cfg, nil, nil); err == nil {
		t.Error("expected timezone error")
	}
}
