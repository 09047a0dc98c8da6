package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"turn-notify/internal/handler/http/requestid"
	"turn-notify/internal/pkg/config"
)

// Options controls New.
type Options struct {
	Level  slog.Level
	Format string // "json" (default) or "text"
}

// ParseLevel maps a LOG_LEVEL value to a slog level. Unknown values are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a logger writing to w. Source locations are added when the
// level is debug.
func New(w io.Writer, opts Options) *slog.Logger {
	hopts := &slog.HandlerOptions{
		Level:     opts.Level,
		AddSource: opts.Level <= slog.LevelDebug,
	}
	if strings.EqualFold(opts.Format, "text") {
		return slog.New(slog.NewTextHandler(w, hopts))
	}
	return slog.New(slog.NewJSONHandler(w, hopts))
}

// NewLogger creates the process logger on stdout from LOG_LEVEL and LOG_FORMAT.
func NewLogger() *slog.Logger {
	return New(os.Stdout, Options{
		Level:  ParseLevel(config.LoadEnvString("LOG_LEVEL", "info")),
		Format: config.LoadEnvString("LOG_FORMAT", "json"),
	})
}

// WithRequestID returns logger with the request id from ctx attached, or
// logger itself when ctx carries none.
func WithRequestID(ctx context.Context, logger *slog.Logger) *slog.Logger {
	reqID := requestid.FromContext(ctx)
	if reqID == "" {
		return logger
	}
	return logger.With(slog.String("request_id", reqID))
}

type contextKey string

const loggerContextKey contextKey = "logger"

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// FromContext returns the logger stored by WithLogger, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
