package http

import (
	"log/slog"
	"net/http"
	"time"

	"turn-notify/internal/handler/http/auth"
	"turn-notify/internal/handler/http/profile"
	"turn-notify/internal/handler/http/requestid"
	"turn-notify/internal/handler/http/webhook"
	"turn-notify/internal/observability/tracing"
	"turn-notify/internal/usecase/binding"
)

// DefaultWebhookPath is where the game server posts turn notifications.
const DefaultWebhookPath = "/18xx"

// RouterConfig collects what the routers mount.
type RouterConfig struct {
	Dispatcher  webhook.Dispatcher
	WebhookPath string
	// WebhookLimiter, when set, limits webhook requests per client.
	WebhookLimiter *RateLimiter

	Bindings *binding.Service
	Auth     *auth.Authenticator
	// APITimeout bounds profile API requests. Zero disables it.
	APITimeout time.Duration

	Health *HealthHandler
	Limits InputLimits
	Logger *slog.Logger
}

func (c RouterConfig) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// common is the middleware every listener shares, outermost first.
func (c RouterConfig) common() []Middleware {
	return []Middleware{
		Recover(c.logger()),
		requestid.Middleware,
		tracing.Middleware,
		Logging(c.logger()),
		MetricsMiddleware,
		InputValidation(c.Limits),
	}
}

func (c RouterConfig) mountWebhook(mux *http.ServeMux) {
	path := c.WebhookPath
	if path == "" {
		path = DefaultWebhookPath
	}
	var mw []func(http.Handler) http.Handler
	if c.WebhookLimiter != nil {
		mw = append(mw, c.WebhookLimiter.Limit)
	}
	webhook.Register(mux, path, c.Dispatcher, c.logger(), mw...)
}

// NewRouter serves probes, metrics, the profile API and, when a dispatcher
// is set, the webhook on one listener.
func NewRouter(c RouterConfig) http.Handler {
	mux := http.NewServeMux()

	health := c.Health
	if health == nil {
		health = &HealthHandler{}
	}
	mux.Handle("GET /health", health)
	mux.Handle("GET /ready", &ReadyHandler{Store: health.Store})
	mux.Handle("GET /live", LiveHandler{})
	mux.Handle("GET /metrics", MetricsHandler())

	if c.Bindings != nil && c.Auth != nil {
		api := http.NewServeMux()
		profile.Register(api, c.Bindings, c.Auth, c.logger())
		var h http.Handler = api
		if c.APITimeout > 0 {
			h = Timeout(c.APITimeout)(h)
		}
		mux.Handle("/profiles", h)
		mux.Handle("/profiles/", h)
	}

	if c.Dispatcher != nil {
		c.mountWebhook(mux)
	}

	return Chain(mux, c.common()...)
}

// NewWebhookRouter serves only the webhook and a liveness probe, for a
// listener exposed to the game server apart from the API.
func NewWebhookRouter(c RouterConfig) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /live", LiveHandler{})
	c.mountWebhook(mux)
	return Chain(mux, c.common()...)
}
