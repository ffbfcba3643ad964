package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	presentai = "presentai"

	// Job metrics
	jobsCreatedTotal   = "jobs_created_total"
	jobsCompletedTotal = "jobs_completed_total"
	jobsFailedTotal    = "jobs_failed_total"
	jobStageDuration   = "job_stage_duration_seconds"

	// Analysis metrics
	analysisTasksTotal = "analysis_tasks_total"

	// Poll metrics
	pollTimeoutsTotal = "poll_timeouts_total"

	// Remediation metrics
	remediationItemsTotal = "remediation_items_total"

	// Labels
	stageLabel       = "stage"
	taskLabel        = "task"
	taskOutcomeLabel = "outcome"
	pollTargetLabel  = "target"
	itemOutcomeLabel = "outcome"
)

var jobStageDurationLabels = []string{
	stageLabel,
}

var analysisTasksTotalLabels = []string{
	taskLabel,
	taskOutcomeLabel,
}

var pollTimeoutsTotalLabels = []string{
	pollTargetLabel,
}

var remediationItemsTotalLabels = []string{
	itemOutcomeLabel,
}

/**
* Metrics definition
**/
var jobsCreatedTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: presentai,
		Name:      jobsCreatedTotal,
		Help:      "number of analysis jobs created",
	},
)

var jobsCompletedTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: presentai,
		Name:      jobsCompletedTotal,
		Help:      "number of analysis jobs completed",
	},
)

var jobsFailedTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: presentai,
		Name:      jobsFailedTotal,
		Help:      "number of analysis jobs failed",
	},
)

var jobStageDurationMetric = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Subsystem: presentai,
		Name:      jobStageDuration,
		Help:      "duration of each pipeline stage in seconds",
		Buckets:   []float64{1, 5, 15, 60, 180, 600},
	},
	jobStageDurationLabels,
)

var analysisTasksTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: presentai,
		Name:      analysisTasksTotal,
		Help:      "number of analysis tasks by task name and outcome",
	},
	analysisTasksTotalLabels,
)

var pollTimeoutsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: presentai,
		Name:      pollTimeoutsTotal,
		Help:      "number of readiness polls that hit their ceiling",
	},
	pollTimeoutsTotalLabels,
)

var remediationItemsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: presentai,
		Name:      remediationItemsTotal,
		Help:      "number of remediation items by outcome",
	},
	remediationItemsTotalLabels,
)

func IncreaseJobsCreatedMetric() {
	jobsCreatedTotalMetric.Inc()
}

func IncreaseJobsCompletedMetric() {
	jobsCompletedTotalMetric.Inc()
}

func IncreaseJobsFailedMetric() {
	jobsFailedTotalMetric.Inc()
}

func ObserveJobStageDurationMetric(stage string, d time.Duration) {
	labels := prometheus.Labels{
		stageLabel: stage,
	}
	jobStageDurationMetric.With(labels).Observe(d.Seconds())
}

func IncreaseAnalysisTasksMetric(task string, outcome string) {
	labels := prometheus.Labels{
		taskLabel:        task,
		taskOutcomeLabel: outcome,
	}
	analysisTasksTotalMetric.With(labels).Inc()
}

func IncreasePollTimeoutsMetric(target string) {
	labels := prometheus.Labels{
		pollTargetLabel: target,
	}
	pollTimeoutsTotalMetric.With(labels).Inc()
}

func IncreaseRemediationItemsMetric(outcome string) {
	labels := prometheus.Labels{
		itemOutcomeLabel: outcome,
	}
	remediationItemsTotalMetric.With(labels).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(jobsCreatedTotalMetric)
	prometheus.MustRegister(jobsCompletedTotalMetric)
	prometheus.MustRegister(jobsFailedTotalMetric)
	prometheus.MustRegister(jobStageDurationMetric)
	prometheus.MustRegister(analysisTasksTotalMetric)
	prometheus.MustRegister(pollTimeoutsTotalMetric)
	prometheus.MustRegister(remediationItemsTotalMetric)
}
