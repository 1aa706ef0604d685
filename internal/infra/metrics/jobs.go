package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(scheduledJobsTotal, deferredJobRunsTotal) }

var scheduledJobsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "scheduled_jobs_total",
		Help: "Deferred jobs registered, labeled by job name.",
	},
	[]string{"name"}, // 'delete-message', 'member-kick'
)

var deferredJobRunsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "deferred_job_runs_total",
		Help: "Deferred job executions by name and outcome.",
	},
	[]string{"name", "status"}, // 'completed', 'failed'
)

func IncScheduledJob(name string) {
	scheduledJobsTotal.WithLabelValues(norm(name)).Inc()
}

func IncDeferredJobRun(name, status string) {
	deferredJobRunsTotal.WithLabelValues(norm(name), norm(status)).Inc()
}
