package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric exported by balanceguard.
const Namespace = "balanceguard"

// Metrics contains request-level validation metrics (not rule-specific)
type Metrics struct {
	ValidationsTotal   *prometheus.CounterVec
	ValidationDuration *prometheus.HistogramVec
	ErrorsTotal        *prometheus.CounterVec
	RulesRegistered    prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all core metrics
func NewMetrics() *Metrics {
	return &Metrics{
		ValidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "validation",
				Name:      "requests_total",
				Help:      "Total number of validation requests by outcome",
			},
			[]string{"property", "outcome"},
		),

		ValidationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "validation",
				Name:      "duration_seconds",
				Help:      "End to end validation request duration in seconds",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"property"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of internal errors by component and class",
			},
			[]string{"component", "class"},
		),

		RulesRegistered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "rules",
				Name:      "registered",
				Help:      "Number of rules in the catalog",
			},
		),
	}
}

// RecordValidation increments the request counter for a property and outcome
func (c *Metrics) RecordValidation(property string, valid bool) {
	outcome := "rejected"
	if valid {
		outcome = "accepted"
	}
	c.ValidationsTotal.WithLabelValues(property, outcome).Inc()
}

// RecordValidationDuration records end to end request time
func (c *Metrics) RecordValidationDuration(property string, duration time.Duration) {
	c.ValidationDuration.WithLabelValues(property).Observe(duration.Seconds())
}

// RecordError increments the error counter
func (c *Metrics) RecordError(component, class string) {
	c.ErrorsTotal.WithLabelValues(component, class).Inc()
}

// RecordRuleCount updates the catalog size gauge
func (c *Metrics) RecordRuleCount(count int) {
	c.RulesRegistered.Set(float64(count))
}

func (c *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{c.ValidationsTotal, c.ValidationDuration, c.ErrorsTotal, c.RulesRegistered}
}
