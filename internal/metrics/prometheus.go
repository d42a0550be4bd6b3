// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the achievements engine.
var (
	// Job runs.
	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "achievements_job_runs_total",
			Help: "Total periodic job invocations by outcome",
		},
		[]string{"job", "status"},
	)

	JobRunsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "achievements_job_runs_skipped_total",
			Help: "Total job invocations skipped because the period was already claimed",
		},
		[]string{"job", "reason"},
	)

	JobDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "achievements_job_duration_seconds",
			Help:    "Time taken to execute a periodic job",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~256s
		},
		[]string{"job"},
	)

	JobUsersProcessed = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "achievements_job_users_processed",
			Help: "Number of users processed by the last run of each job",
		},
		[]string{"job"},
	)

	JobLastSuccessTimestamp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "achievements_job_last_success_timestamp",
			Help: "Unix timestamp of the last completed run of each job",
		},
		[]string{"job"},
	)

	// Grants.
	BadgesGrantedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "achievements_badges_granted_total",
			Help: "Total number of badges granted",
		},
		[]string{"badge_slug", "category"},
	)

	AwardsGrantedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "achievements_awards_granted_total",
			Help: "Total number of periodic awards granted",
		},
		[]string{"type"},
	)

	// Digests and notifications.
	DigestsQueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "achievements_digests_queued_total",
			Help: "Total email summaries handed to the queue",
		},
		[]string{"period"},
	)

	DigestsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "achievements_digests_failed_total",
			Help: "Total email summaries that could not be queued",
		},
		[]string{"reason"},
	)

	NotificationsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "achievements_notifications_failed_total",
			Help: "Total grant notifications that could not be dispatched",
		},
		[]string{"type"},
	)
)

// RecordJobRun records a job invocation outcome.
func RecordJobRun(job, status string) {
	JobRunsTotal.WithLabelValues(job, status).Inc()
}

// RecordJobSkipped records a skipped job invocation.
func RecordJobSkipped(job, reason string) {
	JobRunsSkippedTotal.WithLabelValues(job, reason).Inc()
}

// ObserveJobDuration observes the duration of a job run.
func ObserveJobDuration(job string, seconds float64) {
	JobDurationSeconds.WithLabelValues(job).Observe(seconds)
}

// SetJobUsersProcessed sets the user count of the last run.
func SetJobUsersProcessed(job string, count int) {
	JobUsersProcessed.WithLabelValues(job).Set(float64(count))
}

// SetJobLastSuccess sets the last success timestamp of a job to now.
func SetJobLastSuccess(job string) {
	JobLastSuccessTimestamp.WithLabelValues(job).SetToCurrentTime()
}

// RecordBadgeGranted records a badge grant.
func RecordBadgeGranted(slug, category string) {
	BadgesGrantedTotal.WithLabelValues(slug, category).Inc()
}

// RecordAwardGranted records an award grant.
func RecordAwardGranted(awardType string) {
	AwardsGrantedTotal.WithLabelValues(awardType).Inc()
}

// RecordDigestQueued records a queued email summary.
func RecordDigestQueued(period string) {
	DigestsQueuedTotal.WithLabelValues(period).Inc()
}

// RecordDigestFailed records a failed email summary.
func RecordDigestFailed(reason string) {
	DigestsFailedTotal.WithLabelValues(reason).Inc()
}

// RecordNotificationFailed records a failed notification dispatch.
func RecordNotificationFailed(notificationType string) {
	NotificationsFailedTotal.WithLabelValues(notificationType).Inc()
}
