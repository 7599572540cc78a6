package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/wildfunctions/factory_numbers/pkg/expr"
)

// Metrics are the Prometheus instruments updated by a run.
type Metrics struct {
	// Evaluations counts evaluated assignments by outcome (expr.Reason).
	Evaluations *prometheus.CounterVec
	// SizesCompleted counts fully searched expression sizes.
	SizesCompleted prometheus.Counter
	// SizeDuration observes the wall time of each size.
	SizeDuration prometheus.Histogram
	// Values is the number of distinct values found so far.
	Values prometheus.Gauge
}

// NewMetrics creates the instruments and registers them with reg. A nil reg
// creates unregistered instruments.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	m := &Metrics{
		Evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "factory_numbers_evaluations_total",
			Help: "Evaluated assignments by outcome",
		}, []string{"result"}),
		SizesCompleted: f.NewCounter(prometheus.CounterOpts{
			Name: "factory_numbers_sizes_completed_total",
			Help: "Expression sizes fully searched",
		}),
		SizeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "factory_numbers_size_duration_seconds",
			Help:    "Wall time spent per expression size",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 12), // 1ms to ~70min
		}),
		Values: f.NewGauge(prometheus.GaugeOpts{
			Name: "factory_numbers_values",
			Help: "Distinct positive values reached",
		}),
	}
	// Pre-create every label so all outcomes show up at zero
	for _, r := range expr.Reasons() {
		m.Evaluations.WithLabelValues(r.String())
	}
	return m
}
