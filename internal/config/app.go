// Package config assembles the turn-notify process configuration: listener
// and runtime settings from the environment, and the notification file
// (routing rules and bot accounts) from YAML.
package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"turn-notify/internal/infra/db"
	pkgconfig "turn-notify/internal/pkg/config"
)

// Default values for AppConfig.
const (
	DefaultHTTPAddr           = ":8080"
	DefaultNotifyConfigPath   = "config/notify.yaml"
	DefaultDebounceCapacity   = 1000
	DefaultDispatchConcurrent = 16
	DefaultShutdownTimeout    = 10 * time.Second
	DefaultAPITimeout         = 5 * time.Second
	DefaultWebhookRate        = 0.0
	DefaultWebhookBurst       = 10
	DefaultVersion            = "dev"
)

// AppConfig holds the process settings read from the environment.
type AppConfig struct {
	// HTTPAddr serves the profile API, health and metrics.
	HTTPAddr string

	// WebhookAddr, when set and different from HTTPAddr, moves the webhook
	// route to its own listener.
	WebhookAddr string

	DatabaseURL      string
	NotifyConfigPath string

	DebounceCapacity      int
	DispatchMaxConcurrent int

	// JWTSecret signs and verifies session tokens for the profile API.
	// Empty disables the profile API.
	JWTSecret string

	Version         string
	ShutdownTimeout time.Duration
	APITimeout      time.Duration

	// WebhookRate and WebhookBurst bound webhook requests per client IP.
	// Zero rate leaves the webhook unthrottled.
	WebhookRate  float64
	WebhookBurst int
	TrustProxy   bool
}

// SeparateWebhookListener reports whether the webhook gets its own server.
func (c *AppConfig) SeparateWebhookListener() bool {
	return c.WebhookAddr != "" && c.WebhookAddr != c.HTTPAddr
}

// WebhookRateLimited reports whether the webhook route gets a per-client
// token bucket. It is off unless WEBHOOK_RATE_LIMIT is set, since every
// turn notification arrives from the same game server.
func (c *AppConfig) WebhookRateLimited() bool {
	return c.WebhookRate > 0
}

// LoadAppConfig reads AppConfig from the environment. Invalid values fall
// back to their defaults and are logged and counted on metrics, which may be
// nil.
func LoadAppConfig(logger *slog.Logger, metrics *pkgconfig.ConfigMetrics) *AppConfig {
	t := pkgconfig.NewTracker(logger, metrics)

	cfg := &AppConfig{
		HTTPAddr: pkgconfig.Track(t, "http_addr",
			pkgconfig.LoadEnvStringValidated("HTTP_ADDR", DefaultHTTPAddr, pkgconfig.ValidateListenAddr)),
		WebhookAddr: pkgconfig.Track(t, "webhook_addr",
			pkgconfig.LoadEnvStringValidated("WEBHOOK_ADDR", "", pkgconfig.ValidateListenAddr)),
		DatabaseURL:      pkgconfig.LoadEnvString("DATABASE_URL", db.DefaultDSN),
		NotifyConfigPath: pkgconfig.LoadEnvString("NOTIFY_CONFIG", DefaultNotifyConfigPath),
		DebounceCapacity: pkgconfig.Track(t, "debounce_capacity",
			pkgconfig.LoadEnvInt("DEBOUNCE_CAPACITY", DefaultDebounceCapacity, func(v int) error {
				return pkgconfig.ValidateIntRange(v, 1, 1_000_000)
			})),
		DispatchMaxConcurrent: pkgconfig.Track(t, "dispatch_max_concurrent",
			pkgconfig.LoadEnvInt("DISPATCH_MAX_CONCURRENT", DefaultDispatchConcurrent, func(v int) error {
				return pkgconfig.ValidateIntRange(v, 1, 1024)
			})),
		JWTSecret: pkgconfig.LoadEnvString("JWT_SECRET", ""),
		Version:   pkgconfig.LoadEnvString("VERSION", DefaultVersion),
		ShutdownTimeout: pkgconfig.Track(t, "shutdown_timeout",
			pkgconfig.LoadEnvDuration("SHUTDOWN_TIMEOUT", DefaultShutdownTimeout, func(d time.Duration) error {
				return pkgconfig.ValidateDuration(d, time.Second, 5*time.Minute)
			})),
		APITimeout: pkgconfig.Track(t, "api_timeout",
			pkgconfig.LoadEnvDuration("API_TIMEOUT", DefaultAPITimeout, func(d time.Duration) error {
				return pkgconfig.ValidateDuration(d, 100*time.Millisecond, time.Minute)
			})),
		WebhookRate: pkgconfig.Track(t, "webhook_rate",
			pkgconfig.LoadEnv("WEBHOOK_RATE_LIMIT", DefaultWebhookRate, parseFloat, validateRate)),
		WebhookBurst: pkgconfig.Track(t, "webhook_burst",
			pkgconfig.LoadEnvInt("WEBHOOK_RATE_BURST", DefaultWebhookBurst, func(v int) error {
				return pkgconfig.ValidateIntRange(v, 1, 10_000)
			})),
		TrustProxy: pkgconfig.Track(t, "trust_proxy", pkgconfig.LoadEnvBool("TRUST_PROXY", false)),
	}

	if cfg.JWTSecret != "" && len(cfg.JWTSecret) < 32 {
		t.Logger.Warn("JWT_SECRET is shorter than 32 characters")
	}

	t.Finish()
	return cfg
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func validateRate(v float64) error {
	if v < 0 || v > 10_000 {
		return fmt.Errorf("rate must be in [0, 10000], got %v", v)
	}
	return nil
}
