// Package retry re-runs profile store reads and bot sends that failed for a
// transient reason, waiting an exponentially growing, jittered delay between
// attempts.
package retry

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"syscall"
	"time"
)

// Config is a backoff policy.
type Config struct {
	// MaxAttempts counts the first call; 1 disables retries.
	MaxAttempts int

	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// JitterFraction adds up to this share of the delay at random, in [0, 1].
	JitterFraction float64
}

// DBConfig is the policy for profile lookups: three quick tries, since a
// webhook is already waiting on the answer.
func DBConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   100 * time.Millisecond,
		MaxDelay:       time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// SenderConfig is the policy for one bot delivery. A turn notification is
// stale after a few seconds, so it gets a single retry.
func SenderConfig() Config {
	return Config{
		MaxAttempts:    2,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// WithBackoff calls fn until it succeeds, returns an error IsRetryable
// rejects, or MaxAttempts is reached. The last error is returned wrapped.
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	delay := cfg.InitialDelay
	var err error

	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			if attempt > 1 {
				slog.Info("retry succeeded", slog.Int("attempt", attempt))
			}
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		if attempt >= cfg.MaxAttempts {
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, err)
		}

		slog.Warn("transient failure, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", cfg.MaxAttempts),
			slog.Duration("delay", delay),
			slog.Any("error", err))

		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		}

		delay = addJitter(min(time.Duration(float64(delay)*cfg.Multiplier), cfg.MaxDelay), cfg.JitterFraction)
	}
}

// IsRetryable reports whether err is transient: a dropped or refused
// connection, a timeout, or an HTTPError with status 408, 429 or 5xx.
// Cancellation is never retried.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone):
		return true
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ETIMEDOUT), errors.Is(err, syscall.ENETUNREACH):
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		code := httpErr.StatusCode
		return code >= 500 && code < 600 ||
			code == http.StatusTooManyRequests ||
			code == http.StatusRequestTimeout
	}
	return false
}

// HTTPError carries a platform API status so IsRetryable can classify it.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func addJitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}
	fraction = min(fraction, 1.0)
	// #nosec G404 -- jitter needs no cryptographic randomness
	return d + time.Duration(rand.Float64()*float64(d)*fraction)
}
