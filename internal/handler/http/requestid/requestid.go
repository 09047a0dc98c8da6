// Package requestid propagates a per-request id through contexts, logs and
// response headers.
package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const (
	// RequestIDKey is the context key for request ids.
	RequestIDKey contextKey = "request_id"
	// RequestIDHeader is the header read from callers and echoed back.
	RequestIDHeader = "X-Request-ID"

	maxIDLength = 128
)

// FromContext returns the request id in ctx, or "".
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithRequestID stores id in ctx. Dispatch goroutines use it to keep the
// originating webhook's id after the request has returned.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// New returns a fresh random id.
func New() string {
	return uuid.NewString()
}

// valid accepts caller-supplied ids made of printable, log-safe characters.
func valid(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == ':':
		default:
			return false
		}
	}
	return true
}

// Middleware reuses a well-formed X-Request-ID from the caller or generates
// a UUID v4, then sets it on the response and the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !valid(id) {
			id = New()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
	})
}
