package trigger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Counts build requests received, by flavor.
	buildsRequested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "buildplan",
		Subsystem: "trigger",
		Name:      "builds_requested_total",
		Help:      "Build requests received, by flavor.",
	}, []string{"flavor"})

	// Counts requests that compiled to an empty plan, by flavor.
	buildsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "buildplan",
		Subsystem: "trigger",
		Name:      "builds_skipped_total",
		Help:      "Build requests skipped with an empty plan, by flavor.",
	}, []string{"flavor"})

	// Counts requests that failed compiling or submitting, by flavor.
	buildsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "buildplan",
		Subsystem: "trigger",
		Name:      "builds_failed_total",
		Help:      "Build requests that failed, by flavor.",
	}, []string{"flavor"})

	// Counts builds submitted to the executor, by flavor.
	buildsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "buildplan",
		Subsystem: "trigger",
		Name:      "builds_submitted_total",
		Help:      "Builds submitted to the executor, by flavor.",
	}, []string{"flavor"})
)
