// Package circuitbreaker stops calling a bot or the profile store once it
// keeps failing, built on github.com/sony/gobreaker.
package circuitbreaker

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Config describes when a breaker trips and how it recovers.
type Config struct {
	Name string

	// MaxRequests is how many trial calls pass while half-open.
	MaxRequests uint32

	// Interval resets the closed-state counts. Timeout is how long the
	// breaker stays open before a trial call.
	Interval time.Duration
	Timeout  time.Duration

	// The breaker opens once at least MinRequests calls were counted and
	// the failure ratio reaches FailureThreshold.
	FailureThreshold float64
	MinRequests      uint32
}

// BotConfig is the breaker for one bot account. A revoked token or a bot
// removed from its groups trips only its own breaker, so the dispatcher
// moves on to the next candidate without waiting on it.
func BotConfig(botID string) Config {
	return Config{
		Name:             "bot-" + botID,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// CircuitBreaker is a named gobreaker.CircuitBreaker.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// New builds a breaker from cfg. State changes are logged at warn level.
func New(cfg Config) *CircuitBreaker {
	return &CircuitBreaker{
		name: cfg.Name,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        cfg.Name,
			MaxRequests: cfg.MaxRequests,
			Interval:    cfg.Interval,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.Requests >= cfg.MinRequests &&
					float64(c.TotalFailures)/float64(c.Requests) >= cfg.FailureThreshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("circuit breaker state changed",
					slog.String("circuit", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()))
			},
		}),
	}
}

// Execute runs fn unless the breaker is open, in which case it returns
// gobreaker.ErrOpenState without calling fn.
func (cb *CircuitBreaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	return cb.breaker.Execute(fn)
}

func (cb *CircuitBreaker) State() gobreaker.State { return cb.breaker.State() }

func (cb *CircuitBreaker) Name() string { return cb.name }

func (cb *CircuitBreaker) IsOpen() bool { return cb.breaker.State() == gobreaker.StateOpen }
