package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	computationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "democracy_weight_computations_total",
		Help: "Weight computations by scheme and outcome",
	}, []string{"scheme", "outcome"})

	unresolvedNamesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "democracy_unresolved_names_total",
		Help: "Requested names that did not resolve to a registry model",
	}, []string{"scheme"})

	computationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "democracy_weight_computation_duration_seconds",
		Help:    "Duration of genealogy build plus weight propagation",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	}, []string{"scheme"})

	registryModels = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "democracy_registry_models",
		Help: "Models in the loaded registry",
	})
)

// ObserveComputation records one successful weight query.
func ObserveComputation(scheme string, d time.Duration, unresolved int) {
	computationsTotal.WithLabelValues(scheme, "ok").Inc()
	computationDuration.WithLabelValues(scheme).Observe(d.Seconds())
	if unresolved > 0 {
		unresolvedNamesTotal.WithLabelValues(scheme).Add(float64(unresolved))
	}
}

// ObserveFailure records a rejected weight query.
func ObserveFailure(scheme string) {
	computationsTotal.WithLabelValues(scheme, "error").Inc()
}

// SetRegistrySize records the number of models currently loaded.
func SetRegistrySize(n int) {
	registryModels.Set(float64(n))
}
