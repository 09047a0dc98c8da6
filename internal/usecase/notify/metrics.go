package notify

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the turn notification dispatcher
var (
	// webhooksReceivedTotal tracks inbound webhook texts by parse outcome
	webhooksReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_webhooks_received_total",
			Help: "Total number of webhook texts received",
		},
		[]string{"outcome"}, // outcome: accepted|malformed|store_error
	)

	// dispatchesTotal tracks per-profile dispatch results
	dispatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_dispatches_total",
			Help: "Total number of per-profile dispatches by result",
		},
		[]string{"result"}, // result: delivered|suppressed|exhausted|skipped|store_error
	)

	// deliveryAttemptsTotal tracks individual sender calls
	deliveryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_delivery_attempts_total",
			Help: "Total number of delivery attempts against a candidate",
		},
		[]string{"platform", "mode", "status"}, // mode: direct|group, status: success|failure
	)

	// deliveryDuration tracks sender call duration
	deliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notify_delivery_duration_seconds",
			Help:    "Delivery attempt duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"platform"},
	)

	// activeDispatches tracks in-flight dispatch goroutines
	activeDispatches = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notify_active_dispatches",
			Help: "Number of in-flight dispatch goroutines",
		},
	)

	// debounceEntries tracks the debounce cache size
	debounceEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notify_debounce_entries",
			Help: "Number of keys held by the debounce cache",
		},
	)

	// debounceEvictionsTotal tracks keys evicted by capacity pressure
	debounceEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notify_debounce_evictions_total",
			Help: "Total number of debounce keys evicted by capacity pressure",
		},
	)

	// poolWaitsTotal tracks dispatches that had to wait for a worker slot
	poolWaitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notify_pool_waits_total",
			Help: "Total number of dispatches that waited for a free worker slot",
		},
	)

	// duplicateProfilesTotal tracks lookups returning several profiles for one id
	duplicateProfilesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notify_duplicate_profiles_total",
			Help: "Total number of lookups that returned more than one profile for a webhook id",
		},
	)
)

// RecordWebhook records an inbound webhook by outcome.
func RecordWebhook(outcome string) {
	webhooksReceivedTotal.WithLabelValues(outcome).Inc()
}

// RecordDispatch records the result of one per-profile dispatch.
func RecordDispatch(result string) {
	dispatchesTotal.WithLabelValues(result).Inc()
}

// RecordAttempt records one delivery attempt and its duration.
//
// Parameters:
//   - platform: The bot's platform (e.g. "discord")
//   - mode: "direct" or "group"
//   - success: Whether the attempt produced a delivery id
//   - duration: How long the sender call took
func RecordAttempt(platform, mode string, success bool, duration time.Duration) {
	status := "failure"
	if success {
		status = "success"
	}
	deliveryAttemptsTotal.WithLabelValues(platform, mode, status).Inc()
	deliveryDuration.WithLabelValues(platform).Observe(duration.Seconds())
}

// IncrementActiveDispatches increments the in-flight dispatch gauge by 1.
func IncrementActiveDispatches() {
	activeDispatches.Inc()
}

// DecrementActiveDispatches decrements the in-flight dispatch gauge by 1.
func DecrementActiveDispatches() {
	activeDispatches.Dec()
}

// SetDebounceEntries sets the debounce cache size gauge.
func SetDebounceEntries(n int) {
	debounceEntries.Set(float64(n))
}

// RecordDebounceEviction records a capacity eviction.
func RecordDebounceEviction() {
	debounceEvictionsTotal.Inc()
}

// RecordDuplicateProfiles records a webhook id bound to several profiles.
func RecordDuplicateProfiles() {
	duplicateProfilesTotal.Inc()
}

// RecordPoolWait records a dispatch that found every worker slot busy.
func RecordPoolWait() {
	poolWaitsTotal.Inc()
}
