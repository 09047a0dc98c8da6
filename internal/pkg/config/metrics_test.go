package config

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestConfigMetrics(t *testing.T) {
	m := NewConfigMetrics("test_config_metrics")
	assert.Equal(t, "test_config_metrics", m.componentName)

	m.RecordLoadTimestamp()
	assert.Greater(t, testutil.ToFloat64(m.LoadTimestamp), float64(0))

	m.RecordFallback("http_addr")
	m.RecordFallback("http_addr")
	assert.Equal(t, float64(2), testutil.ToFloat64(m.ValidationErrorsTotal.WithLabelValues("http_addr")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("http_addr")))

	m.SetFallbackActive(true)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.FallbackActive))
	m.SetFallbackActive(false)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.FallbackActive))

	m.RecordReload("success")
	m.RecordReload("error")
	m.RecordReload("success")
	assert.Equal(t, float64(2), testutil.ToFloat64(m.ReloadsTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ReloadsTotal.WithLabelValues("error")))
}
