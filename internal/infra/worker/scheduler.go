package worker

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/robfig/cron/v3"
)

// JobFunc runs one job and returns the number of items it processed.
type JobFunc func(ctx context.Context) (int, error)

// Scheduler runs named jobs on cron schedules.
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
	logger  *slog.Logger
	metrics *WorkerMetrics
}

// NewScheduler creates a scheduler evaluating schedules in cfg.Timezone.
// metrics may be nil.
func NewScheduler(cfg *WorkerConfig, logger *slog.Logger, metrics *WorkerMetrics) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		timeout: cfg.JobTimeout,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Add schedules fn under name.
func (s *Scheduler) Add(name, schedule string, fn JobFunc) error {
	if _, err := s.cron.AddFunc(schedule, func() { s.Run(context.Background(), name, fn) }); err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}
	s.logger.Info("job scheduled", slog.String("job", name), slog.String("schedule", schedule))
	return nil
}

// Run executes fn once with the job timeout, recording its outcome. A panic
// in fn is logged and counted as a failure.
func (s *Scheduler) Run(ctx context.Context, name string, fn JobFunc) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	n, err := s.safeRun(ctx, fn)
	duration := time.Since(start)

	if s.metrics != nil {
		s.metrics.RecordJobDuration(name, duration.Seconds())
	}
	if err != nil {
		s.logger.Error("job failed",
			slog.String("job", name),
			slog.Duration("duration", duration),
			slog.Any("error", err))
		if s.metrics != nil {
			s.metrics.RecordJobRun(name, "failure")
		}
		return
	}

	s.logger.Debug("job completed",
		slog.String("job", name),
		slog.Int("items", n),
		slog.Duration("duration", duration))
	if s.metrics != nil {
		s.metrics.RecordJobRun(name, "success")
		s.metrics.RecordItems(name, n)
		s.metrics.RecordLastSuccess(name)
	}
}

func (s *Scheduler) safeRun(ctx context.Context, fn JobFunc) (n int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("job panicked", slog.Any("panic", rec), slog.String("stack", string(debug.Stack())))
			err = fmt.Errorf("job panicked: %v", rec)
		}
	}()
	return fn(ctx)
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker stop: %w", ctx.Err())
	}
}

// Sweeper is implemented by notify.Dispatcher.
type Sweeper interface {
	SweepDebounce(maxAge time.Duration) int
}

// SweepJob returns a job that sweeps debounce entries idle for maxAge.
func SweepJob(s Sweeper, maxAge time.Duration) JobFunc {
	return func(ctx context.Context) (int, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return s.SweepDebounce(maxAge), nil
	}
}

// JobDebounceSweep names the debounce sweep in logs and metrics.
const JobDebounceSweep = "debounce_sweep"
