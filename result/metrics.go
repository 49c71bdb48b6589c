package result

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/balanceguard/metric"
)

// processorMetrics holds Prometheus metrics for result processing.
type processorMetrics struct {
	processed *prometheus.CounterVec // By outcome (valid/invalid)
	issues    *prometheus.CounterVec // By kind (error/warning) and category
	autoFixes *prometheus.CounterVec // By rule
	duration  prometheus.Histogram
}

func newProcessorMetrics(registry *metric.MetricsRegistry) (*processorMetrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	m := &processorMetrics{
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "processor",
			Name:      "results_total",
			Help:      "Total number of processed validation requests",
		}, []string{"outcome"}),

		issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "processor",
			Name:      "issues_total",
			Help:      "Issues reported by processed requests",
		}, []string{"kind", "category"}),

		autoFixes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "processor",
			Name:      "auto_fixes_total",
			Help:      "Auto-fixes that changed a proposed value",
		}, []string{"rule"}),

		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metric.Namespace,
			Subsystem: "processor",
			Name:      "duration_seconds",
			Help:      "Result processing duration in seconds",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
		}),
	}

	if err := registry.RegisterCounterVec("processor", "results", m.processed); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("processor", "issues", m.issues); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("processor", "auto_fixes", m.autoFixes); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogram("processor", "duration", m.duration); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *processorMetrics) recordProcessed(r *ProcessedResult) {
	if m == nil {
		return
	}

	outcome := "valid"
	if !r.Valid {
		outcome = "invalid"
	}
	m.processed.WithLabelValues(outcome).Inc()
	for _, issue := range r.Errors {
		m.issues.WithLabelValues("error", string(issue.Category)).Inc()
	}
	for _, issue := range r.Warnings {
		m.issues.WithLabelValues("warning", string(issue.Category)).Inc()
	}
	m.duration.Observe(r.Metadata.ProcessingTime.Seconds())
}

func (m *processorMetrics) recordAutoFix(ruleName string) {
	if m == nil {
		return
	}
	m.autoFixes.WithLabelValues(ruleName).Inc()
}
