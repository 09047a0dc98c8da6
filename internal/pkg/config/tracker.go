package config

import "log/slog"

// Tracker collects the fallbacks of one component's load, logging each one
// and recording it on the component's metrics. Metrics may be nil.
type Tracker struct {
	Logger  *slog.Logger
	Metrics *ConfigMetrics

	fallbacks []string
}

// NewTracker returns a Tracker. A nil logger uses slog.Default.
func NewTracker(logger *slog.Logger, metrics *ConfigMetrics) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{Logger: logger, Metrics: metrics}
}

// Track returns r.Value, reporting a fallback under field when one applied.
func Track[T any](t *Tracker, field string, r LoadResult[T]) T {
	if r.FallbackApplied {
		t.fallbacks = append(t.fallbacks, field)
		t.Logger.Warn("configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", r.Warning))
		if t.Metrics != nil {
			t.Metrics.RecordFallback(field)
		}
	}
	return r.Value
}

// Fallbacks lists the fields that fell back to their defaults.
func (t *Tracker) Fallbacks() []string {
	return t.fallbacks
}

// Finish stamps the load time and the fallback-active gauge.
func (t *Tracker) Finish() {
	if t.Metrics == nil {
		return
	}
	t.Metrics.SetFallbackActive(len(t.fallbacks) > 0)
	t.Metrics.RecordLoadTimestamp()
}
