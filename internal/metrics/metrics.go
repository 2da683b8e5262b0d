package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the Prometheus collectors for a parser process. All
// methods are safe on a nil receiver so components can run without them.
type Metrics struct {
	Registry           *prometheus.Registry
	AttemptsTotal      *prometheus.CounterVec
	ExtractionFailures *prometheus.CounterVec
	ProductsSaved      prometheus.Counter
	SaveFailures       prometheus.Counter
	RunDuration        prometheus.Histogram
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	attempts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parser_navigation_attempts_total",
			Help: "Retried browser operations by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)
	extraction := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parser_extraction_failures_total",
			Help: "Fields that could not be extracted, by field and error kind.",
		},
		[]string{"field", "kind"},
	)
	saved := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "parser_products_saved_total",
			Help: "Product records written to the database.",
		},
	)
	saveFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "parser_save_failures_total",
			Help: "Product records that could not be written.",
		},
	)
	runDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "parser_run_duration_seconds",
			Help:    "Wall time of a full parser run.",
			Buckets: []float64{10, 20, 30, 45, 60, 90, 120, 180, 300},
		},
	)

	registry.MustRegister(attempts, extraction, saved, saveFailures, runDuration)

	return &Metrics{
		Registry:           registry,
		AttemptsTotal:      attempts,
		ExtractionFailures: extraction,
		ProductsSaved:      saved,
		SaveFailures:       saveFailures,
		RunDuration:        runDuration,
	}
}

// IncAttempt records one attempt; outcome is "success", "timeout" or "failure".
func (m *Metrics) IncAttempt(operation, outcome string) {
	if m == nil {
		return
	}
	m.AttemptsTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) IncExtractionFailure(field, kind string) {
	if m == nil {
		return
	}
	m.ExtractionFailures.WithLabelValues(field, kind).Inc()
}

func (m *Metrics) IncSaved() {
	if m == nil {
		return
	}
	m.ProductsSaved.Inc()
}

func (m *Metrics) IncSaveFailure() {
	if m == nil {
		return
	}
	m.SaveFailures.Inc()
}

func (m *Metrics) ObserveRun(d time.Duration) {
	if m == nil {
		return
	}
	m.RunDuration.Observe(d.Seconds())
}
