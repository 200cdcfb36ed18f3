// Package metrics holds the Prometheus collectors for rollover runs,
// completion transitions and XP movement.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/julianstephens/habitual/internal/constants"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	rolloverRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "rollover",
			Name:      "runs_total",
			Help:      "Total number of daily rollover runs.",
		},
		[]string{"result"},
	)

	rolloverDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "rollover",
			Name:      "run_duration_seconds",
			Help:      "Duration of daily rollover runs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		},
	)

	instancesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "rollover",
			Name:      "instances_created_total",
			Help:      "Habit instances created by rollover runs.",
		},
	)

	instancesMissed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "rollover",
			Name:      "instances_missed_total",
			Help:      "Habit instances marked missed by rollover runs.",
		},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "completion",
			Name:      "transitions_total",
			Help:      "Completion operations by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	xpMoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "leveling",
			Name:      "xp_total",
			Help:      "XP awarded and revoked.",
		},
		[]string{"direction"},
	)
)

func init() {
	Registry.MustRegister(
		rolloverRuns,
		rolloverDuration,
		instancesCreated,
		instancesMissed,
		transitions,
		xpMoved,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordRollover records one rollover run.
func RecordRollover(duration time.Duration, created, missed int, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	rolloverRuns.WithLabelValues(result).Inc()
	rolloverDuration.Observe(duration.Seconds())
	if err == nil {
		instancesCreated.Add(float64(created))
		instancesMissed.Add(float64(missed))
	}
}

// RecordTransition records a completion operation. outcome is "ok" or the
// error kind that rejected it.
func RecordTransition(operation, outcome string) {
	transitions.WithLabelValues(operation, outcome).Inc()
}

// RecordXP records XP movement; negative amounts count as revoked.
func RecordXP(amount int) {
	switch {
	case amount > 0:
		xpMoved.WithLabelValues("awarded").Add(float64(amount))
	case amount < 0:
		xpMoved.WithLabelValues("revoked").Add(float64(-amount))
	}
}
