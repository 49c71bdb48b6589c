package validator

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/c360/balanceguard/engine"
	"github.com/c360/balanceguard/errors"
	"github.com/c360/balanceguard/metric"
	"github.com/c360/balanceguard/result"
	"github.com/c360/balanceguard/rule"
)

func newTestValidator(t *testing.T, opts ...Option) *Validator {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := rule.NewDefaultRegistry(logger)
	eng := engine.New(engine.DefaultConfig(), logger, nil)
	proc := result.New(registry, result.DefaultOptions(), logger, nil)
	t.Cleanup(func() {
		_ = proc.Close()
		_ = eng.Close()
	})
	return New(registry, eng, proc, logger, opts...)
}

func issueRules(issues []result.Issue) []string {
	names := make([]string, 0, len(issues))
	for _, issue := range issues {
		names = append(names, issue.Rule)
	}
	return names
}

func healthRequest(oldValue, newValue float64) Request {
	return Request{
		OldValue: oldValue,
		NewValue: newValue,
		Context:  rule.Context{BubbleType: "normal", PropertyType: "health"},
	}
}

func TestValidate_AcceptsSmallChange(t *testing.T) {
	v := newTestValidator(t)

	out := v.Validate(context.Background(), healthRequest(3, 3.5))

	assert.True(t, out.Valid)
	assert.Empty(t, out.Errors)
	assert.NotEmpty(t, out.Metadata.RequestID)

	applied := make([]string, 0, len(out.RulesApplied))
	for _, app := range out.RulesApplied {
		applied = append(applied, app.Rule)
	}
	assert.Contains(t, applied, "bubble_health_range")
	assert.Contains(t, applied, "bubble_health_gradual_change")
	assert.NotContains(t, applied, "boss_bubble_health_special")
	assert.NotContains(t, applied, "size_range")
	assert.NotContains(t, applied, "performance_impact")
}

func TestValidate_RejectsOutOfRange(t *testing.T) {
	v := newTestValidator(t)

	out := v.Validate(context.Background(), healthRequest(3, 8))

	require.False(t, out.Valid)
	rules := issueRules(out.Errors)
	assert.Contains(t, rules, "bubble_health_range")
	assert.Contains(t, rules, "bubble_health_gradual_change")
	assert.Equal(t, "bubble_health_range", out.Errors[0].Rule, "equal priorities keep registration order")
}

func TestValidate_Filter(t *testing.T) {
	v := newTestValidator(t)

	req := healthRequest(3, 8)
	req.Filter = rule.Filter{Category: rule.CategoryValueRange}
	out := v.Validate(context.Background(), req)

	require.False(t, out.Valid)
	assert.Equal(t, []string{"bubble_health_range"}, issueRules(out.Errors))
}

func TestValidate_WarningDoesNotBlock(t *testing.T) {
	v := newTestValidator(t)

	out := v.Validate(context.Background(), Request{
		NewValue: 35.0,
		Context:  rule.Context{BubbleType: "electric", PropertyType: "intensity"},
	})

	assert.True(t, out.Valid)
	assert.Empty(t, out.Errors)
	assert.Equal(t, []string{"electric_effect_intensity"}, issueRules(out.Warnings))
}

func TestValidate_Stats(t *testing.T) {
	v := newTestValidator(t)
	ctx := context.Background()

	v.Validate(ctx, healthRequest(3, 3.5))
	v.Validate(ctx, healthRequest(3, 8))
	v.Validate(ctx, healthRequest(3, 8))

	stats := v.Stats()
	assert.Equal(t, int64(3), stats.TotalValidations)
	assert.Equal(t, int64(2), stats.FailedValidations)
	assert.InDelta(t, 33.33, stats.SuccessRate, 0.01)
	assert.Equal(t, int64(2), stats.ErrorsByRule["bubble_health_range"])
	assert.Equal(t, int64(2), stats.ErrorsByBubbleType["normal"])

	stats.ErrorsByRule["bubble_health_range"] = 99
	assert.Equal(t, int64(2), v.Stats().ErrorsByRule["bubble_health_range"], "stats are copied")

	v.ResetStats()
	assert.Zero(t, v.Stats().TotalValidations)
	assert.Zero(t, v.Stats().SuccessRate)
}

func TestValidate_Tracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	v := newTestValidator(t, WithTracerProvider(provider))
	v.Validate(context.Background(), healthRequest(3, 8))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "validator.Validate", span.Name)
	assert.Equal(t, codes.Error, span.Status.Code)

	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "normal", attrs["bubble_type"].AsString())
	assert.Equal(t, "health", attrs["property"].AsString())
	assert.False(t, attrs["valid"].AsBool())
	assert.Equal(t, int64(2), attrs["errors"].AsInt64())
}

func TestValidate_CoreMetrics(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	v := newTestValidator(t, WithMetrics(registry))
	core := registry.CoreMetrics()

	assert.Equal(t, float64(15), testutil.ToFloat64(core.RulesRegistered))

	v.Validate(context.Background(), healthRequest(3, 3.5))
	v.Validate(context.Background(), healthRequest(3, 8))

	assert.Equal(t, float64(1), testutil.ToFloat64(core.ValidationsTotal.WithLabelValues("health", "accepted")))
	assert.Equal(t, float64(1), testutil.ToFloat64(core.ValidationsTotal.WithLabelValues("health", "rejected")))
}

func TestValidateBubbleConfig(t *testing.T) {
	v := newTestValidator(t)
	current := map[string]float64{"health": 2, "score": 2, "size": 30}

	t.Run("consistent change", func(t *testing.T) {
		report := v.ValidateBubbleConfig(context.Background(), "normal", current,
			map[string]float64{"health": 2.2, "score": 2.2, "size": 30}, nil)

		assert.True(t, report.Valid)
		assert.NotEmpty(t, report.ValidationID)
		assert.Equal(t, "normal", report.BubbleType)
		assert.Zero(t, report.ErrorCount)
		require.Len(t, report.Properties, 2, "unchanged size is skipped")
		assert.Equal(t, "health", report.Properties[0].Property)
		assert.Equal(t, "score", report.Properties[1].Property)
		assert.Equal(t, 2.0, report.Properties[0].OldValue)
	})

	t.Run("rejected change", func(t *testing.T) {
		report := v.ValidateBubbleConfig(context.Background(), "normal", current,
			map[string]float64{"health": 9}, nil)

		require.False(t, report.Valid)
		require.Len(t, report.Properties, 1)
		out := report.Properties[0].Result
		assert.Contains(t, issueRules(out.Errors), "bubble_health_range")
		assert.Contains(t, issueRules(out.Errors), "configuration_consistency")
		assert.Equal(t, len(out.Errors), report.ErrorCount)
	})

	t.Run("new property has no previous value", func(t *testing.T) {
		report := v.ValidateBubbleConfig(context.Background(), "normal", current,
			map[string]float64{"speed": 2}, nil)

		require.Len(t, report.Properties, 1)
		assert.Nil(t, report.Properties[0].OldValue)
		assert.True(t, report.Valid)
	})

	t.Run("related values reach hierarchy rules", func(t *testing.T) {
		related := map[string]map[string]float64{"normal": {"size": 30}}
		report := v.ValidateBubbleConfig(context.Background(), "iron", map[string]float64{"size": 28},
			map[string]float64{"size": 25}, related)

		require.False(t, report.Valid)
		assert.Contains(t, issueRules(report.Properties[0].Result.Errors), "size_hierarchy")
	})

	stats := v.Stats()
	assert.Equal(t, int64(5), stats.TotalValidations)
	assert.Equal(t, int64(2), stats.FailedValidations)
	assert.Equal(t, int64(1), stats.ErrorsByBubbleType["iron"])
}

func TestValidateBatch(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	v := newTestValidator(t, WithMetrics(registry))

	reqs := []Request{
		healthRequest(3, 3.5),
		healthRequest(3, 8),
		{NewValue: 35.0, Context: rule.Context{BubbleType: "electric", PropertyType: "intensity"}},
	}

	for round := 0; round < 2; round++ {
		out, err := v.ValidateBatch(context.Background(), reqs, BatchOptions{Workers: 2})
		require.NoError(t, err)
		require.Len(t, out, 3)
		assert.True(t, out[0].Valid)
		assert.False(t, out[1].Valid)
		assert.True(t, out[2].Valid)
		assert.Len(t, out[2].Warnings, 1)
	}

	assert.Equal(t, int64(6), v.Stats().TotalValidations)
}

func TestValidateBatch_TimeoutDiscardsLateResults(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gate := make(chan struct{})
	rules := rule.NewRegistry(logger)
	require.NoError(t, rules.AddRule("slow", rule.Options{
		Severity: rule.SeverityMedium,
		Check: func(_, _ any, _ *rule.Context) any {
			<-gate
			return true
		},
	}))
	eng := engine.New(engine.DefaultConfig(), logger, nil)
	proc := result.New(rules, result.DefaultOptions(), logger, nil)
	t.Cleanup(func() {
		_ = proc.Close()
		_ = eng.Close()
	})
	metrics := metric.NewMetricsRegistry()
	v := New(rules, eng, proc, logger, WithMetrics(metrics))

	out, err := v.ValidateBatch(context.Background(), []Request{healthRequest(3, 3.5)},
		BatchOptions{Workers: 1, Timeout: 50 * time.Millisecond})
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
	require.Len(t, out, 1)

	poolMetricsLive := func() bool {
		families, _ := metrics.PrometheusRegistry().Gather()
		for _, f := range families {
			if strings.HasPrefix(f.GetName(), metric.Namespace+"_worker_") {
				return true
			}
		}
		return false
	}
	assert.True(t, poolMetricsLive())

	close(gate)
	require.Eventually(t, func() bool { return !poolMetricsLive() }, time.Second, 5*time.Millisecond)
	assert.Nil(t, out[0], "a result finished after the timeout is discarded")

	again, err := v.ValidateBatch(context.Background(), []Request{healthRequest(3, 3.5)}, BatchOptions{Workers: 1})
	require.NoError(t, err)
	require.NotNil(t, again[0])
	assert.True(t, again[0].Valid)
}

func TestValidateBatch_Empty(t *testing.T) {
	v := newTestValidator(t)

	out, err := v.ValidateBatch(context.Background(), nil, BatchOptions{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestValidateBatch_Cancelled(t *testing.T) {
	v := newTestValidator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := v.ValidateBatch(ctx, []Request{healthRequest(3, 3.5)}, BatchOptions{})
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
	assert.Len(t, out, 1)
}
