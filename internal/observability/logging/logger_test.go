package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"turn-notify/internal/handler/http/requestid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNew_JSON(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	logger := New(&buf, Options{Level: slog.LevelInfo})

	// Act
	logger.Debug("hidden")
	logger.Info("delivered", slog.Int64("webhook_id", 42), slog.String("user_id", "u1"))

	// Assert
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "debug line should be filtered at info level")

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "delivered", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, float64(42), entry["webhook_id"])
	assert.Equal(t, "u1", entry["user_id"])
	assert.NotContains(t, entry, "source")
}

func TestNew_TextWithSourceAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{Level: slog.LevelDebug, Format: "TEXT"})

	logger.Debug("probe")

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "msg=probe")
	assert.Contains(t, out, "source=")
}

func TestNewLogger_FromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "json")

	logger := NewLogger()

	require.NotNil(t, logger)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelError))
}

func TestWithRequestID(t *testing.T) {
	t.Run("adds request id", func(t *testing.T) {
		var buf bytes.Buffer
		base := New(&buf, Options{})
		ctx := requestid.WithRequestID(context.Background(), "req-123")

		WithRequestID(ctx, base).Info("hello")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "req-123", entry["request_id"])
	})

	t.Run("returns same logger without request id", func(t *testing.T) {
		base := New(&bytes.Buffer{}, Options{})
		assert.Same(t, base, WithRequestID(context.Background(), base))
	})
}

func TestLoggerContext(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{})

	ctx := WithLogger(context.Background(), logger)
	FromContext(ctx).Info("from context")

	assert.Contains(t, buf.String(), "from context")
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}
