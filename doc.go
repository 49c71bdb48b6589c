// Package balanceguard checks proposed game balance changes for bubble types
// before they ship.
//
// A change names a bubble type, a property (health, score, size, maxAge, ...)
// and an old and new value. The change runs through a catalog of rules. Each rule
// yields a verdict, and the verdicts are folded into one result: errors,
// warnings, and suggested fixes for the values a rule can repair.
//
// # Architecture
//
// The module is layered bottom-up. Each layer depends only on the ones above it
// in this list:
//
//	errors      error classes and sentinels shared by every package
//	metric      Prometheus registry, core request metrics, text export
//	rule        Rule, Severity, Category, Context and the built-in catalog
//	engine      applicability, ordering, isolated execution, telemetry
//	result      aggregation, auto-fix, reports, history analytics
//	validator   request facade, bubble-wide validation, batches, tracing
//	config      YAML configuration with layering and env overrides
//
// Supporting packages live under pkg/:
//
//	pkg/buffer   bounded history rings for the engine and processor
//	pkg/worker   generic worker pool behind validator.ValidateBatch
//	pkg/tracing  OpenTelemetry provider setup (OTLP over HTTP)
//
// The cmd/balanceguard binary wires everything from a config file.
//
// # Rule Catalog
//
// The default registry holds fifteen rules:
//
//	bubble_health_range            boss_bubble_health_special
//	bubble_health_gradual_change   score_range
//	score_balance_ratio            score_gradual_change
//	size_range                     size_hierarchy
//	size_gradual_change            time_range
//	bubble_lifetime_balance        electric_effect_intensity
//	rainbow_duration_balance       performance_impact
//	configuration_consistency
//
// Rules are grouped by Category and ranked by Severity. Critical and high
// findings make a change invalid. Medium and low findings are warnings.
//
// # Basic Usage
//
//	logger := slog.Default()
//	registry := metric.NewMetricsRegistry()
//
//	rules := rule.NewDefaultRegistry(logger)
//	eng := engine.New(engine.DefaultConfig(), logger, registry)
//	proc := result.New(rules, result.DefaultOptions(), logger, registry)
//	v := validator.New(rules, eng, proc, logger, validator.WithMetrics(registry))
//
//	out := v.Validate(ctx, validator.Request{
//	    OldValue: 1.0,
//	    NewValue: 3.0,
//	    Context:  rule.Context{BubbleType: "normal", PropertyType: "health"},
//	})
//	if !out.Valid {
//	    fmt.Print(result.DetailedReport(out))
//	}
//
// # Failure Model
//
// A rule that panics, returns an error, returns a malformed verdict or runs past
// its time budget never aborts a request. The engine records it as a failed
// result carrying the cause, and the processor reports it like any other
// finding. Only configuration loading returns errors to the caller.
//
// # Command Line
//
//	balanceguard validate -b boss -p health --old 10 --new 25
//	balanceguard bubble -b normal --current health=1,score=10 --proposed health=2
//	balanceguard batch -f changes.yaml --workers 8
//	balanceguard rules list --category value_range
//	balanceguard config init -o balanceguard.yaml
//
// Exit status is 0 when every change is accepted, 1 when one is rejected and 2
// on usage or configuration errors.
package balanceguard
