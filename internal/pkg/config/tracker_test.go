package config

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTracker(t *testing.T) {
	var buf bytes.Buffer
	m := NewConfigMetrics("test_tracker")
	tr := NewTracker(slog.New(slog.NewTextHandler(&buf, nil)), m)

	t.Setenv("TRACKER_PORT", "not-a-number")
	t.Setenv("TRACKER_NAME", "notify")

	port := Track(tr, "port", LoadEnvInt("TRACKER_PORT", 8080, nil))
	name := Track(tr, "name", LoadEnvStringValidated("TRACKER_NAME", "x", nil))
	tr.Finish()

	assert.Equal(t, 8080, port)
	assert.Equal(t, "notify", name)
	assert.Equal(t, []string{"port"}, tr.Fallbacks())
	assert.Contains(t, buf.String(), "configuration fallback applied")
	assert.Contains(t, buf.String(), "field=port")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("port")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.FallbackActive))
}

func TestTracker_NilMetrics(t *testing.T) {
	tr := NewTracker(nil, nil)
	t.Setenv("TRACKER_TTL", "soon")

	got := Track(tr, "ttl", LoadEnvInt("TRACKER_TTL", 5, nil))
	tr.Finish()

	assert.Equal(t, 5, got)
	assert.Len(t, tr.Fallbacks(), 1)
}
