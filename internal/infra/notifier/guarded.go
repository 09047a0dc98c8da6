package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"turn-notify/internal/resilience/circuitbreaker"
	"turn-notify/internal/resilience/retry"
	"turn-notify/internal/usecase/notify"

	"github.com/sony/gobreaker"
)

// GuardConfig holds the protections applied around a bot. Nil Limiter or
// Breaker disables that protection.
type GuardConfig struct {
	Limiter *RateLimiter
	Breaker *circuitbreaker.CircuitBreaker
	Retry   retry.Config
	Logger  *slog.Logger
}

// Guarded decorates a bot with rate limiting, a circuit breaker and retries.
//
// Every attempt waits for a limiter token and runs through the breaker.
// Transient failures (5xx, 408, 429, network timeouts) are retried with
// backoff. Client errors such as a user who blocked the bot are returned at
// once and do not count against the breaker, since they say nothing about
// the bot's health.
type Guarded struct {
	bot    notify.Bot
	cfg    GuardConfig
	logger *slog.Logger
}

// NewGuarded wraps bot.
func NewGuarded(bot notify.Bot, cfg GuardConfig) *Guarded {
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = retry.SenderConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Guarded{
		bot:    bot,
		cfg:    cfg,
		logger: logger.With(slog.String("bot_id", bot.ID()), slog.String("platform", bot.Platform())),
	}
}

func (g *Guarded) ID() string                   { return g.bot.ID() }
func (g *Guarded) Platform() string             { return g.bot.Platform() }
func (g *Guarded) Mention(userID string) string { return g.bot.Mention(userID) }

// Unwrap returns the underlying platform bot.
func (g *Guarded) Unwrap() notify.Bot { return g.bot }

// SendDirect implements notify.Sender.
func (g *Guarded) SendDirect(ctx context.Context, userID, message, contextGroupID string) ([]string, error) {
	return g.call(ctx, func() ([]string, error) {
		return g.bot.SendDirect(ctx, userID, message, contextGroupID)
	})
}

// SendGroup implements notify.Sender.
func (g *Guarded) SendGroup(ctx context.Context, groupID, message string) ([]string, error) {
	return g.call(ctx, func() ([]string, error) {
		return g.bot.SendGroup(ctx, groupID, message)
	})
}

func (g *Guarded) call(ctx context.Context, fn func() ([]string, error)) ([]string, error) {
	var ids []string
	err := retry.WithBackoff(ctx, g.cfg.Retry, func() error {
		if g.cfg.Limiter != nil {
			if err := g.cfg.Limiter.Allow(ctx); err != nil {
				return fmt.Errorf("rate limiter error: %w", err)
			}
		}
		var err error
		ids, err = g.execute(fn)
		return err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		g.logger.Debug("bot circuit open, skipping send", slog.Any("error", err))
	}
	return ids, err
}

// sendOutcome carries a client error through the breaker as a success.
type sendOutcome struct {
	ids []string
	err error
}

func (g *Guarded) execute(fn func() ([]string, error)) ([]string, error) {
	if g.cfg.Breaker == nil {
		return fn()
	}
	res, err := g.cfg.Breaker.Execute(func() (interface{}, error) {
		ids, err := fn()
		if err != nil && isClientError(err) {
			return sendOutcome{err: err}, nil
		}
		return sendOutcome{ids: ids}, err
	})
	if err != nil {
		return nil, err
	}
	out := res.(sendOutcome)
	return out.ids, out.err
}
