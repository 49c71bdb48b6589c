// Package metric provides the Prometheus registry shared by the balanceguard
// components.
//
// The package offers a centralized registry that owns a private
// prometheus.Registry, a small set of request-level metrics (Metrics) and an
// extensible registration API for component-specific metrics (MetricsRegistrar).
//
// # Basic Usage
//
//	registry := metric.NewMetricsRegistry()
//
//	eng := engine.New(engine.DefaultConfig(), logger, registry)
//	proc := result.New(rules, result.DefaultOptions(), logger, registry)
//
//	registry.CoreMetrics().RecordValidation("health", true)
//
// A nil registry disables metrics everywhere: constructors accept nil and skip
// registration.
//
// # Core Metrics
//
//   - balanceguard_validation_requests_total{property,outcome}
//   - balanceguard_validation_duration_seconds{property}
//   - balanceguard_errors_total{component,class}
//   - balanceguard_rules_registered
//
// Components register their own collectors under a component prefix so that
// duplicate registration is reported as an invalid error instead of a panic:
//
//	err := registry.RegisterCounterVec("engine", "rule_evaluations", vec)
//
// # Export
//
// There is no HTTP endpoint. WriteText renders every gathered family in the
// Prometheus text format, which the CLI uses for its --metrics flag.
package metric
