// Package worker runs the notifier's periodic maintenance jobs on a cron
// schedule. Today that is the debounce sweep, which drops per-user cooldown
// entries that have been idle longer than DebounceMaxAge.
package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"turn-notify/internal/pkg/config"
)

// WorkerConfig holds the maintenance schedule.
type WorkerConfig struct {
	// SweepSchedule is a five-field cron expression.
	// Default: "*/10 * * * *"
	SweepSchedule string

	// Timezone is the IANA zone the schedule is evaluated in.
	// Default: "UTC"
	Timezone string

	// DebounceMaxAge is how long an idle debounce entry is kept.
	// Range: 1m-24h. Default: 1h
	DebounceMaxAge time.Duration

	// JobTimeout bounds a single job run.
	// Range: 1s-10m. Default: 1m
	JobTimeout time.Duration
}

// DefaultConfig returns the default schedule.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		SweepSchedule:  "*/10 * * * *",
		Timezone:       "UTC",
		DebounceMaxAge: time.Hour,
		JobTimeout:     time.Minute,
	}
}

func validateMaxAge(d time.Duration) error {
	return config.ValidateDuration(d, time.Minute, 24*time.Hour)
}

func validateJobTimeout(d time.Duration) error {
	return config.ValidateDuration(d, time.Second, 10*time.Minute)
}

// Validate reports every invalid field.
func (c *WorkerConfig) Validate() error {
	var errs []error
	if err := config.ValidateCronSchedule(c.SweepSchedule); err != nil {
		errs = append(errs, fmt.Errorf("sweep schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := validateMaxAge(c.DebounceMaxAge); err != nil {
		errs = append(errs, fmt.Errorf("debounce max age: %w", err))
	}
	if err := validateJobTimeout(c.JobTimeout); err != nil {
		errs = append(errs, fmt.Errorf("job timeout: %w", err))
	}
	return errors.Join(errs...)
}

// LoadConfigFromEnv reads the schedule from the environment. Invalid values
// fall back to their defaults with a warning and a metric; it never fails.
//
// Environment variables:
//   - DEBOUNCE_SWEEP_SCHEDULE: cron expression
//   - WORKER_TIMEZONE: IANA timezone name
//   - DEBOUNCE_MAX_AGE: duration, e.g. "2h"
//   - WORKER_JOB_TIMEOUT: duration
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) *WorkerConfig {
	cfg := DefaultConfig()
	var cm *config.ConfigMetrics
	if metrics != nil {
		cm = metrics.ConfigMetrics
	}
	tr := config.NewTracker(logger, cm)

	cfg.SweepSchedule = config.Track(tr, "sweep_schedule",
		config.LoadEnvStringValidated("DEBOUNCE_SWEEP_SCHEDULE", cfg.SweepSchedule, config.ValidateCronSchedule))
	cfg.Timezone = config.Track(tr, "timezone",
		config.LoadEnvStringValidated("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone))
	cfg.DebounceMaxAge = config.Track(tr, "debounce_max_age",
		config.LoadEnvDuration("DEBOUNCE_MAX_AGE", cfg.DebounceMaxAge, validateMaxAge))
	cfg.JobTimeout = config.Track(tr, "job_timeout",
		config.LoadEnvDuration("WORKER_JOB_TIMEOUT", cfg.JobTimeout, validateJobTimeout))

	tr.Finish()
	return &cfg
}
