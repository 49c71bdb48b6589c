// Package validator is the entry point for checking proposed balance changes.
//
// A Validator ties a rule.Registry, an engine.Engine and a result.Processor
// together. Validate handles one property change; ValidateBubbleConfig checks
// every changed property of a bubble type against the proposed configuration.
// Each request runs inside an OpenTelemetry span named after the operation.
//
//	v := validator.New(registry, eng, proc, logger, validator.WithMetrics(metrics))
//	out := v.Validate(ctx, validator.Request{
//		OldValue: 3.0,
//		NewValue: 4.0,
//		Context:  rule.Context{BubbleType: "normal", PropertyType: "health"},
//	})
//	if !out.Valid {
//		fmt.Print(proc.DetailedReport(out))
//	}
package validator
