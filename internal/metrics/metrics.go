package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsSubmittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stats_jobs_submitted_total",
			Help: "Total number of jobs accepted by the dispatcher",
		},
	)

	JobsRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stats_jobs_rejected_total",
			Help: "Total number of submissions rejected because shutdown had begun",
		},
	)

	JobsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stats_jobs_completed_total",
			Help: "Total number of jobs whose outcome was persisted",
		},
		[]string{"outcome"}, // success | failure
	)

	JobsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stats_jobs_running",
			Help: "Current number of jobs being executed by workers",
		},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stats_queue_depth",
			Help: "Current number of jobs waiting for a free worker",
		},
	)

	// 1ms .. ~16s
	JobDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stats_job_duration_seconds",
			Help:    "Computation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		},
	)
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
