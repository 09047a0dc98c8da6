package worker

import (
	"turn-notify/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics embeds the worker's ConfigMetrics and adds per-job metrics:
//
//	worker_job_runs_total{job,status}
//	worker_job_duration_seconds{job}
//	worker_job_items_total{job}
//	worker_job_last_success_timestamp{job}
//
// Metrics are registered on creation, so create one per process.
type WorkerMetrics struct {
	*config.ConfigMetrics

	JobRunsTotal            *prometheus.CounterVec
	JobDurationSeconds      *prometheus.HistogramVec
	JobItemsTotal           *prometheus.CounterVec
	JobLastSuccessTimestamp *prometheus.GaugeVec
}

// NewWorkerMetrics registers the worker metrics.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		JobRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_job_runs_total",
			Help: "Total number of maintenance job runs by job and status",
		}, []string{"job", "status"}),

		JobDurationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of maintenance job runs in seconds",
			Buckets: []float64{.001, .01, .1, .5, 1, 5, 30},
		}, []string{"job"}),

		JobItemsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_job_items_total",
			Help: "Total number of items processed by maintenance jobs",
		}, []string{"job"}),

		JobLastSuccessTimestamp: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "worker_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful run of each job",
		}, []string{"job"}),
	}
}

// RecordJobRun counts a run of job with status "success" or "failure".
func (m *WorkerMetrics) RecordJobRun(job, status string) {
	m.JobRunsTotal.WithLabelValues(job, status).Inc()
}

// RecordJobDuration observes a run's duration in seconds.
func (m *WorkerMetrics) RecordJobDuration(job string, seconds float64) {
	m.JobDurationSeconds.WithLabelValues(job).Observe(seconds)
}

// RecordItems adds n processed items to job's total.
func (m *WorkerMetrics) RecordItems(job string, n int) {
	m.JobItemsTotal.WithLabelValues(job).Add(float64(n))
}

// RecordLastSuccess stamps job's last successful run.
func (m *WorkerMetrics) RecordLastSuccess(job string) {
	m.JobLastSuccessTimestamp.WithLabelValues(job).SetToCurrentTime()
}
