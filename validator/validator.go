package validator

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/c360/balanceguard/engine"
	"github.com/c360/balanceguard/metric"
	"github.com/c360/balanceguard/result"
	"github.com/c360/balanceguard/rule"
)

const tracerName = "balanceguard/validator"

// Request is one proposed change.
type Request struct {
	// Filter narrows the catalog before applicability filtering. The zero
	// value selects every rule.
	Filter   rule.Filter
	OldValue any
	NewValue any
	Context  rule.Context
}

// Validator runs requests through the rule registry, engine and processor.
type Validator struct {
	registry  *rule.Registry
	engine    *engine.Engine
	processor *result.Processor
	logger    *slog.Logger
	tracer    trace.Tracer
	core      *metric.Metrics

	metricsRegistry *metric.MetricsRegistry

	mu    sync.Mutex
	stats stats
}

// Option configures a Validator.
type Option func(*Validator)

// WithMetrics records request metrics in the registry's core metrics.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(v *Validator) {
		if registry != nil {
			v.metricsRegistry = registry
			v.core = registry.CoreMetrics()
		}
	}
}

// WithTracerProvider overrides the global OpenTelemetry tracer provider.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(v *Validator) {
		if provider != nil {
			v.tracer = provider.Tracer(tracerName)
		}
	}
}

// New wires a validator from its parts.
func New(registry *rule.Registry, eng *engine.Engine, processor *result.Processor, logger *slog.Logger, opts ...Option) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	v := &Validator{
		registry:  registry,
		engine:    eng,
		processor: processor,
		logger:    logger.With("component", "validator"),
		tracer:    otel.Tracer(tracerName),
		stats:     newStats(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.core != nil {
		v.core.RecordRuleCount(registry.Len())
	}
	return v
}

// Validate selects the applicable rules, runs them and processes the results.
func (v *Validator) Validate(ctx context.Context, req Request) *result.ProcessedResult {
	_, span := v.tracer.Start(ctx, "validator.Validate",
		trace.WithAttributes(
			attribute.String("bubble_type", req.Context.BubbleType),
			attribute.String("property", req.Context.PropertyType),
		))
	defer span.End()

	start := time.Now()
	rctx := req.Context

	rules := v.engine.ApplicableRules(v.registry.Rules(req.Filter), &rctx)
	ordered := v.engine.OptimizeRuleOrder(rules)
	batch := v.engine.ExecuteRules(ordered, req.OldValue, req.NewValue, &rctx)
	out := v.processor.ProcessResults(batch.Results, req.OldValue, req.NewValue, &rctx)

	span.SetAttributes(
		attribute.String("request_id", out.Metadata.RequestID),
		attribute.Bool("valid", out.Valid),
		attribute.Int("rules_executed", batch.Summary.Executed),
		attribute.Int("errors", len(out.Errors)),
		attribute.Int("warnings", len(out.Warnings)),
		attribute.Int("auto_fixes", len(out.Metadata.AppliedFixes)),
	)
	if batch.Summary.ShortCircuited != "" {
		span.SetAttributes(attribute.String("short_circuited", batch.Summary.ShortCircuited))
	}
	if !out.Valid {
		span.SetStatus(codes.Error, "validation rejected")
	}

	v.stats.record(&v.mu, req.Context.BubbleType, out)
	if v.core != nil {
		v.core.RecordValidation(req.Context.PropertyType, out.Valid)
		v.core.RecordValidationDuration(req.Context.PropertyType, time.Since(start))
	}

	v.logger.Debug("Validation completed",
		"request_id", out.Metadata.RequestID,
		"bubble_type", req.Context.BubbleType,
		"property", req.Context.PropertyType,
		"valid", out.Valid,
		"errors", len(out.Errors),
		"warnings", len(out.Warnings))
	return out
}

// PropertyResult is the validation of one changed property.
type PropertyResult struct {
	Property string                  `json:"property"`
	OldValue any                     `json:"old_value"`
	NewValue float64                 `json:"new_value"`
	Result   *result.ProcessedResult `json:"result"`
}

// BubbleReport is the outcome of validating a bubble configuration change.
type BubbleReport struct {
	ValidationID  string           `json:"validation_id"`
	BubbleType    string           `json:"bubble_type"`
	Valid         bool             `json:"valid"`
	Properties    []PropertyResult `json:"properties"`
	ErrorCount    int              `json:"error_count"`
	WarningCount  int              `json:"warning_count"`
	ExecutionTime time.Duration    `json:"execution_time"`
	Timestamp     time.Time        `json:"timestamp"`
}

// ValidateBubbleConfig validates every changed property of one bubble type.
// Properties are checked in name order against the proposed configuration,
// with the bubble's own merged values added to the related values.
func (v *Validator) ValidateBubbleConfig(
	ctx context.Context,
	bubbleType string,
	current, proposed map[string]float64,
	related map[string]map[string]float64,
) *BubbleReport {
	ctx, span := v.tracer.Start(ctx, "validator.ValidateBubbleConfig",
		trace.WithAttributes(
			attribute.String("bubble_type", bubbleType),
			attribute.Int("properties", len(proposed)),
		))
	defer span.End()

	start := time.Now()
	report := &BubbleReport{
		ValidationID: uuid.NewString(),
		BubbleType:   bubbleType,
		Valid:        true,
		Properties:   []PropertyResult{},
	}

	merged := make(map[string]float64, len(current)+len(proposed))
	for k, val := range current {
		merged[k] = val
	}
	for k, val := range proposed {
		merged[k] = val
	}
	relatedValues := make(map[string]map[string]float64, len(related)+1)
	for k, props := range related {
		relatedValues[k] = props
	}
	relatedValues[bubbleType] = merged

	properties := make([]string, 0, len(proposed))
	for prop := range proposed {
		properties = append(properties, prop)
	}
	sort.Strings(properties)

	for _, prop := range properties {
		newValue := proposed[prop]
		var oldValue any
		if prev, ok := current[prop]; ok {
			if prev == newValue {
				continue
			}
			oldValue = prev
		}

		out := v.Validate(ctx, Request{
			OldValue: oldValue,
			NewValue: newValue,
			Context: rule.Context{
				BubbleType:    bubbleType,
				PropertyType:  prop,
				RelatedValues: relatedValues,
			},
		})

		report.Properties = append(report.Properties, PropertyResult{
			Property: prop,
			OldValue: oldValue,
			NewValue: newValue,
			Result:   out,
		})
		report.ErrorCount += len(out.Errors)
		report.WarningCount += len(out.Warnings)
		if !out.Valid {
			report.Valid = false
		}
	}

	report.ExecutionTime = time.Since(start)
	report.Timestamp = time.Now()

	span.SetAttributes(
		attribute.Bool("valid", report.Valid),
		attribute.Int("changed", len(report.Properties)),
		attribute.Int("errors", report.ErrorCount),
	)
	if !report.Valid {
		span.SetStatus(codes.Error, "bubble configuration rejected")
	}
	return report
}

// Registry returns the rule registry.
func (v *Validator) Registry() *rule.Registry {
	return v.registry
}

// Engine returns the rule engine.
func (v *Validator) Engine() *engine.Engine {
	return v.engine
}

// Processor returns the result processor.
func (v *Validator) Processor() *result.Processor {
	return v.processor
}
