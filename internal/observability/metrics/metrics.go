package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "greenthumb_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "greenthumb_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	ownershipDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "greenthumb_ownership_denials_total",
		Help: "Mutations rejected because the caller does not own the resource",
	}, []string{"resource", "action"})

	authFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "greenthumb_auth_failures_total",
		Help: "Failed authentication attempts by stage",
	}, []string{"stage"})

	sweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "greenthumb_due_sweep_runs_total",
		Help: "Due-schedule sweeps by result",
	}, []string{"result"})

	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "greenthumb_due_sweep_duration_seconds",
		Help:    "Duration of due-schedule sweeps",
		Buckets: prometheus.DefBuckets,
	})

	dueSchedules = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "greenthumb_due_schedules",
		Help: "Care schedules found due by the most recent sweep",
	})

	notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "greenthumb_notifications_total",
		Help: "Due reminders by outcome (sent, error, skipped)",
	}, []string{"result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveOwnershipDenial counts a rejected mutation.
func ObserveOwnershipDenial(resource, action string) {
	ownershipDenials.WithLabelValues(resource, action).Inc()
}

// ObserveAuthFailure counts a failed login, refresh or token check.
func ObserveAuthFailure(stage string) {
	authFailures.WithLabelValues(stage).Inc()
}

// ObserveSweep records one sweep run.
func ObserveSweep(result string, duration time.Duration, due int) {
	sweepRuns.WithLabelValues(result).Inc()
	sweepDuration.Observe(duration.Seconds())
	if due < 0 {
		due = 0
	}
	dueSchedules.Set(float64(due))
}

// ObserveNotification counts a reminder outcome.
func ObserveNotification(result string) {
	notifications.WithLabelValues(result).Inc()
}
