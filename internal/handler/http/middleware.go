package http

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"turn-notify/internal/handler/http/requestid"
	"turn-notify/internal/handler/http/respond"
	"turn-notify/internal/handler/http/responsewriter"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Chain applies mw to h so that the first middleware is the outermost.
func Chain(h http.Handler, mw ...Middleware) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

// Logging logs one line per request with its status, size, latency and the
// request and trace ids.
func Logging(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := responsewriter.Wrap(w)

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if wrapped.StatusCode() >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(r.Context(), level, "request completed",
				slog.String("request_id", requestid.FromContext(r.Context())),
				slog.String("trace_id", trace.SpanFromContext(r.Context()).SpanContext().TraceID().String()),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.Header.Get("User-Agent")),
				slog.Int("status", wrapped.StatusCode()),
				slog.Int("bytes", wrapped.BytesWritten()),
				slog.Duration("duration", duration),
			)
		})
	}
}

// Recover turns a handler panic into a 500 response and an error log.
// http.ErrAbortHandler is re-raised so the server can abort the connection.
func Recover(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := responsewriter.Wrap(w)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				logger.Error("panic recovered",
					slog.String("request_id", requestid.FromContext(r.Context())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)
				if !rw.Written() {
					respond.SafeError(rw, http.StatusInternalServerError, errors.New("internal error"))
				}
			}()
			next.ServeHTTP(rw, r)
		})
	}
}

// LimitRequestBody caps request bodies at maxBytes.
func LimitRequestBody(maxBytes int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimiterConfig configures RateLimiter.
type RateLimiterConfig struct {
	// Rate is the sustained number of requests per second per client.
	Rate float64

	// Burst is the number of requests a client may make at once.
	Burst int

	// IdleTTL is how long an idle client's bucket is kept.
	IdleTTL time.Duration

	// TrustProxy reads the client address from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that sets them.
	TrustProxy bool
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per client IP with a token bucket per client.
type RateLimiter struct {
	cfg RateLimiterConfig
	now func() time.Time

	mu        sync.Mutex
	clients   map[string]*clientBucket
	lastClean time.Time
}

// NewRateLimiter creates a RateLimiter. Zero fields take defaults of 5 req/s,
// burst 10 and a ten minute idle TTL.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.Rate <= 0 {
		cfg.Rate = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	return &RateLimiter{
		cfg:       cfg,
		now:       time.Now,
		clients:   make(map[string]*clientBucket),
		lastClean: time.Now(),
	}
}

// Limit answers 429 once a client has used up its bucket.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r, rl.cfg.TrustProxy)
		if !rl.allow(ip) {
			rateLimitedTotal.Inc()
			w.Header().Set("Retry-After", "1")
			respond.JSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(ip string) bool {
	now := rl.now()

	rl.mu.Lock()
	if now.Sub(rl.lastClean) >= rl.cfg.IdleTTL {
		rl.evictIdle(now)
	}
	b, ok := rl.clients[ip]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rate.Limit(rl.cfg.Rate), rl.cfg.Burst)}
		rl.clients[ip] = b
	}
	b.lastSeen = now
	rl.mu.Unlock()

	return b.limiter.AllowN(now, 1)
}

// evictIdle drops buckets unused for IdleTTL. Caller holds mu.
func (rl *RateLimiter) evictIdle(now time.Time) {
	rl.lastClean = now
	for ip, b := range rl.clients {
		if now.Sub(b.lastSeen) >= rl.cfg.IdleTTL {
			delete(rl.clients, ip)
		}
	}
}

// Clients returns the number of tracked clients.
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// clientIP returns the caller's address. Forwarding headers are honored only
// when trustProxy is set.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip.String()
			}
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			if ip := net.ParseIP(strings.TrimSpace(xri)); ip != nil {
				return ip.String()
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
