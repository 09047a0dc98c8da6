// Package http holds the HTTP surface of the notifier: health probes,
// request middleware, metrics and the router that mounts the webhook and
// profile API handlers.
package http

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"turn-notify/internal/handler/http/respond"

	"github.com/sony/gobreaker"
)

// Health statuses.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"` // RFC 3339, UTC
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus is the result of one health check.
type CheckStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Pinger checks that the profile store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// breakerStater is implemented by stores guarded by a circuit breaker.
type breakerStater interface {
	State() gobreaker.State
}

// pooled is implemented by stores that expose their *sql.DB.
type pooled interface {
	DB() *sql.DB
}

// BotLister lists the configured bots.
type BotLister interface {
	IDs() []string
}

// Lener reports a size.
type Lener interface {
	Len() int
}

// HealthHandler reports the store, bot and debounce state. Only the store
// decides overall health; a degraded pool or an open breaker is reported
// but still answers 200 so the webhook keeps being acknowledged.
type HealthHandler struct {
	Store    Pinger
	Bots     BotLister
	Debounce Lener
	Version  string
	Timeout  time.Duration
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	checks := map[string]CheckStatus{"database": h.checkStore(ctx)}
	if h.Bots != nil {
		checks["bots"] = checkBots(h.Bots)
	}
	if h.Debounce != nil {
		checks["debounce"] = CheckStatus{
			Status:  StatusHealthy,
			Details: map[string]any{"entries": h.Debounce.Len()},
		}
	}

	status, code := StatusHealthy, http.StatusOK
	for name, c := range checks {
		if c.Status == StatusUnhealthy {
			status, code = StatusUnhealthy, http.StatusServiceUnavailable
			slog.Default().Warn("health check failed",
				slog.String("check", name),
				slog.String("message", c.Message))
		}
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	})
}

func (h *HealthHandler) checkStore(ctx context.Context) CheckStatus {
	if h.Store == nil {
		return CheckStatus{Status: StatusUnhealthy, Message: "not configured"}
	}
	details := map[string]any{}
	if b, ok := h.Store.(breakerStater); ok {
		details["circuit_breaker"] = b.State().String()
	}

	if err := h.Store.PingContext(ctx); err != nil {
		return CheckStatus{
			Status:  StatusUnhealthy,
			Message: respond.SanitizeError(err),
			Details: details,
		}
	}

	p, ok := h.Store.(pooled)
	if !ok || p.DB() == nil {
		return CheckStatus{Status: StatusHealthy, Details: details}
	}
	stats := p.DB().Stats()
	details["open_connections"] = stats.OpenConnections
	details["in_use"] = stats.InUse
	details["idle"] = stats.Idle
	details["wait_count"] = stats.WaitCount
	details["wait_duration_ms"] = stats.WaitDuration.Milliseconds()
	details["max_open_connections"] = stats.MaxOpenConnections

	if stats.MaxOpenConnections > 0 {
		utilization := float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
		details["utilization_percent"] = utilization
		if utilization >= 80.0 {
			return CheckStatus{
				Status:  StatusDegraded,
				Message: "connection pool utilization above 80%",
				Details: details,
			}
		}
	}
	return CheckStatus{Status: StatusHealthy, Details: details}
}

func checkBots(bots BotLister) CheckStatus {
	ids := bots.IDs()
	if len(ids) == 0 {
		return CheckStatus{Status: StatusDegraded, Message: "no bots configured"}
	}
	return CheckStatus{Status: StatusHealthy, Details: map[string]any{"ids": ids}}
}

// ReadyHandler answers 200 once the profile store responds.
type ReadyHandler struct {
	Store Pinger
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.Store == nil {
		http.Error(w, "database not configured", http.StatusServiceUnavailable)
		return
	}
	if err := h.Store.PingContext(ctx); err != nil {
		http.Error(w, "database not ready", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ready"))
}

// LiveHandler always answers 200.
type LiveHandler struct{}

func (LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("alive"))
}
