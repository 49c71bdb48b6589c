package engine

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/balanceguard/metric"
)

// engineMetrics holds Prometheus metrics for rule execution.
type engineMetrics struct {
	evaluations   *prometheus.CounterVec   // By rule and outcome (pass/fail/error/skipped)
	duration      *prometheus.HistogramVec // By rule
	slow          *prometheus.CounterVec   // By rule
	ruleErrors    *prometheus.CounterVec   // By rule and kind
	shortCircuits prometheus.Counter
}

// newEngineMetrics creates and registers engine metrics with the provided registry.
func newEngineMetrics(registry *metric.MetricsRegistry) (*engineMetrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	m := &engineMetrics{
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "engine",
			Name:      "rule_evaluations_total",
			Help:      "Total number of rule evaluations",
		}, []string{"rule", "outcome"}),

		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metric.Namespace,
			Subsystem: "engine",
			Name:      "rule_duration_seconds",
			Help:      "Rule check duration in seconds",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"rule"}),

		slow: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "engine",
			Name:      "slow_executions_total",
			Help:      "Rule executions over the slow threshold",
		}, []string{"rule"}),

		ruleErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "engine",
			Name:      "rule_errors_total",
			Help:      "Rules that failed to produce a verdict",
		}, []string{"rule", "kind"}), // kind: invalid_structure, invalid_format, timeout, execution

		shortCircuits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "engine",
			Name:      "short_circuits_total",
			Help:      "Batches stopped by a failing critical rule",
		}),
	}

	if err := registry.RegisterCounterVec("engine", "rule_evaluations", m.evaluations); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogramVec("engine", "rule_duration", m.duration); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("engine", "slow_executions", m.slow); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("engine", "rule_errors", m.ruleErrors); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter("engine", "short_circuits", m.shortCircuits); err != nil {
		return nil, err
	}

	return m, nil
}

// recordExecution records one executed rule.
func (m *engineMetrics) recordExecution(res Result, slow bool) {
	if m == nil {
		return
	}

	outcome := "pass"
	switch {
	case res.Error:
		outcome = "error"
		m.ruleErrors.WithLabelValues(res.Rule, errorKind(res)).Inc()
	case !res.Valid:
		outcome = "fail"
	}

	m.evaluations.WithLabelValues(res.Rule, outcome).Inc()
	m.duration.WithLabelValues(res.Rule).Observe(res.ExecutionTime.Seconds())
	if slow {
		m.slow.WithLabelValues(res.Rule).Inc()
	}
}

func (m *engineMetrics) recordSkipped(ruleName string) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(ruleName, "skipped").Inc()
}

func (m *engineMetrics) recordShortCircuit() {
	if m == nil {
		return
	}
	m.shortCircuits.Inc()
}
