package auth

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	authRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_requests_total",
			Help: "Total profile API authentications by platform and result",
		},
		[]string{"platform", "result"}, // result: success | failure
	)

	authDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auth_duration_seconds",
			Help:    "Session token verification duration",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		},
	)
)

// RecordAuthRequest counts an authentication. platform is empty on failure.
func RecordAuthRequest(platform, result string) {
	if platform == "" {
		platform = "unknown"
	}
	authRequestsTotal.WithLabelValues(platform, result).Inc()
}

// RecordAuthDuration observes how long verification took.
func RecordAuthDuration(d time.Duration) {
	authDuration.Observe(d.Seconds())
}
