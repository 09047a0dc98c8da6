package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"turn-notify/internal/handler/http/requestid"
	"turn-notify/internal/handler/http/respond"
	"turn-notify/internal/usecase/binding"
)

type ctxKey string

const ctxSession ctxKey = "session"

// WithSession stores sess in ctx.
func WithSession(ctx context.Context, sess binding.Session) context.Context {
	return context.WithValue(ctx, ctxSession, sess)
}

// SessionFromContext returns the session set by Middleware.
func SessionFromContext(ctx context.Context) (binding.Session, bool) {
	sess, ok := ctx.Value(ctxSession).(binding.Session)
	return sess, ok
}

// Authenticator verifies bearer session tokens.
type Authenticator struct {
	Secret []byte
	Logger *slog.Logger
}

// Middleware rejects requests without a valid token with 401 and passes the
// session on to next.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sess, err := a.authenticate(r.Header.Get("Authorization"))
		if err != nil {
			RecordAuthRequest("", "failure")
			RecordAuthDuration(time.Since(start))
			logger.Warn("authentication failed",
				slog.String("request_id", requestid.FromContext(r.Context())),
				slog.String("path", r.URL.Path),
				slog.Any("error", err))
			respond.SafeErrorV2(w, http.StatusUnauthorized,
				respond.NewAppError(http.StatusUnauthorized, "unauthorized", err))
			return
		}

		RecordAuthRequest(sess.Platform, "success")
		RecordAuthDuration(time.Since(start))
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

func (a *Authenticator) authenticate(header string) (binding.Session, error) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return binding.Session{}, ErrMissingToken
	}
	sess, err := ParseToken(a.Secret, strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		return binding.Session{}, fmt.Errorf("parse session token: %w", err)
	}
	return sess, nil
}
