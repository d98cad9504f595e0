// Package observability holds the Prometheus collectors of the service.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "liftcoach"

var (
	planSourceCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "plan",
		Name:      "generated_total",
		Help:      "Plans generated, labelled by whether the language model or the fallback produced them.",
	}, []string{"source"})

	planFallbackCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "plan",
		Name:      "fallbacks_total",
		Help:      "Language model failures that were replaced by the deterministic fallback plan.",
	}, []string{"reason"})

	aiLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "ai",
		Name:      "generation_duration_seconds",
		Help:      "Duration of language model calls including failures.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
	})

	suggestionCount = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "suggest",
		Name:      "suggestions",
		Help:      "Number of exercises returned per suggestion request.",
		Buckets:   prometheus.LinearBuckets(0, 2, 7),
	})

	completedSessions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "workout",
		Name:      "sessions_completed_total",
		Help:      "Workout sessions marked completed.",
	})
)

func init() {
	prometheus.MustRegister(planSourceCounter, planFallbackCounter, aiLatency, suggestionCount, completedSessions)
}

// RecordPlan counts a generated plan by source.
func RecordPlan(source string) {
	planSourceCounter.WithLabelValues(source).Inc()
}

// RecordPlanFallback counts a fallback caused by reason.
func RecordPlanFallback(reason string) {
	planFallbackCounter.WithLabelValues(reason).Inc()
}

// ObserveAILatency records how long a language model call took.
func ObserveAILatency(d time.Duration) {
	aiLatency.Observe(d.Seconds())
}

// ObserveSuggestions records the size of a suggestion list.
func ObserveSuggestions(n int) {
	suggestionCount.Observe(float64(n))
}

// RecordSessionCompleted counts a completed workout session.
func RecordSessionCompleted() {
	completedSessions.Inc()
}
