// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OffersComputed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lender_offers_computed_total",
			Help: "Total number of offers returned by lender assignment",
		},
	)

	LendersSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lender_assignment_skipped_total",
			Help: "Lenders left out of an assignment evaluation",
		},
		[]string{"reason"},
	)

	DuplicateLenderIDs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lender_assignment_duplicate_ids_total",
			Help: "Duplicate lender ids seen during assignment evaluation",
		},
	)

	AssignmentDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lender_assignment_duration_seconds",
			Help:    "Duration of lender assignment evaluation in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12),
		},
	)

	ApplicationsByStatus = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "application_status_changes_total",
			Help: "Application status changes by target status",
		},
		[]string{"status"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Status notifications by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)
)
