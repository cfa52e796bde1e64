// metrics/metrics.go

// Package metrics exposes Prometheus instrumentation for the decision
// engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arbiterhq/arbiter/model"
)

// Collector holds the engine's Prometheus metrics.
type Collector struct {
	EvaluationsTotal   *prometheus.CounterVec
	EvaluationDuration prometheus.Histogram
	PolicyErrorsTotal  prometheus.Counter
}

// NewCollector builds and registers the metrics. A nil registerer uses
// the default Prometheus registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		EvaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "abac_evaluations_total",
				Help: "Total number of access evaluations by final decision.",
			},
			[]string{"decision"},
		),
		EvaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "abac_evaluation_duration_seconds",
				Help:    "Histogram of access evaluation latencies.",
				Buckets: prometheus.DefBuckets,
			},
		),
		PolicyErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "abac_policy_errors_total",
				Help: "Total number of per-policy evaluation errors.",
			},
		),
	}
	reg.MustRegister(c.EvaluationsTotal)
	reg.MustRegister(c.EvaluationDuration)
	reg.MustRegister(c.PolicyErrorsTotal)
	return c
}

// ObserveEvaluation records one completed evaluation.
func (c *Collector) ObserveEvaluation(decision model.Decision, elapsed time.Duration, policyErrors int) {
	c.EvaluationsTotal.WithLabelValues(string(decision)).Inc()
	c.EvaluationDuration.Observe(elapsed.Seconds())
	if policyErrors > 0 {
		c.PolicyErrorsTotal.Add(float64(policyErrors))
	}
}
