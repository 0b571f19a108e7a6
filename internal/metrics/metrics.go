package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nexoratech/riskvault/internal/models"
)

const (
	// OutcomeSuccess labels completed analyses.
	OutcomeSuccess = "success"
	// OutcomeError labels failed analyses (input defects or dependency issues).
	OutcomeError = "error"
)

var (
	analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "riskvault",
			Name:      "analyses_total",
			Help:      "Total number of analyses handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	analysisDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "riskvault",
			Name:      "analysis_seconds",
			Help:      "Analysis latency in seconds.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5},
		},
	)

	eventsScoredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "riskvault",
			Name:      "events_scored_total",
			Help:      "Total number of events scored, partitioned by risk level.",
		},
		[]string{"risk_level"},
	)
)

// Register attaches riskvault collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		analysesTotal,
		analysisDurationSeconds,
		eventsScoredTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveAnalysis records an analysis duration and outcome label.
func ObserveAnalysis(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	analysesTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	analysisDurationSeconds.Observe(duration.Seconds())
}

// CountScoredEvents increments the per-level counters for a scored batch.
func CountScoredEvents(events []models.Event) {
	for _, ev := range events {
		eventsScoredTotal.WithLabelValues(string(ev.RiskLevel)).Inc()
	}
}
