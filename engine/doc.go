// Package engine executes balance rules safely and records how they behave.
//
// # Overview
//
// The Engine takes rules from a rule.Registry (or anywhere else) and runs them
// against one proposed change:
//
//	rules := eng.ApplicableRules(registry.Rules(rule.Filter{}), ctx)
//	batch := eng.ExecuteRules(eng.OptimizeRuleOrder(rules), oldValue, newValue, ctx)
//
// # Failure Boundary
//
// A rule can never crash the caller. Structural problems (nil check, missing
// name, auto-fix without a fix function) are reported without invoking the
// check. Panics, returned errors and unexpected return shapes are recovered into
// a Result with Error set. When a rule with critical severity errors, the rest of
// the batch is skipped.
//
// Config.RuleTimeBudget optionally bounds each check. A check that misses the
// budget is reported as an error; its goroutine is left to finish on its own.
//
// # Telemetry
//
// The engine keeps running totals, a per-rule aggregate of executions slower
// than Config.SlowThreshold, and a bounded history of execution records with
// sanitized contexts. Executions slower than Config.WarnThreshold are logged.
// When a metric.MetricsRegistry is supplied the same data is exported to
// Prometheus.
package engine
