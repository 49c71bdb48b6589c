package engine

import (
	stderrors "errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/balanceguard/errors"
	"github.com/c360/balanceguard/metric"
	"github.com/c360/balanceguard/rule"
)

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func testRule(name string, check rule.CheckFunc) *rule.Rule {
	return &rule.Rule{
		Name:     name,
		Category: rule.CategoryValueRange,
		Severity: rule.SeverityMedium,
		Enabled:  true,
		Priority: 1,
		Check:    check,
	}
}

func passCheck(_, _ any, _ *rule.Context) any { return true }

func failCheck(_, _ any, _ *rule.Context) any { return rule.Fail("rejected") }

func TestExecuteRule_Outcomes(t *testing.T) {
	e := newTestEngine(t, Config{})
	ctx := &rule.Context{BubbleType: "normal", PropertyType: "health"}

	res := e.ExecuteRule(testRule("pass", passCheck), 1, 2, ctx)
	assert.True(t, res.Valid)
	assert.False(t, res.Error)
	assert.Equal(t, rule.SeverityMedium, res.Severity)

	res = e.ExecuteRule(testRule("fail", failCheck), 1, 2, ctx)
	assert.False(t, res.Valid)
	assert.False(t, res.Error)
	assert.Equal(t, "rejected", res.Message)

	override := testRule("override", func(_, _ any, _ *rule.Context) any {
		return map[string]any{"valid": false, "message": "soft", "severity": "warning", "suggestion": "lower it"}
	})
	res = e.ExecuteRule(override, 1, 2, ctx)
	assert.Equal(t, rule.SeverityWarning, res.Severity)
	assert.Equal(t, "lower it", res.Suggestion)
}

func TestExecuteRule_InvalidStructure(t *testing.T) {
	e := newTestEngine(t, Config{})
	called := false
	spy := func(_, _ any, _ *rule.Context) any {
		called = true
		return true
	}

	tests := []struct {
		name string
		rule *rule.Rule
	}{
		{"nil rule", nil},
		{"no name", testRule("", spy)},
		{"no check", testRule("no_check", nil)},
		{"auto-fix without function", func() *rule.Rule {
			r := testRule("no_fix", spy)
			r.AutoFix = true
			return r
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.ExecuteRule(tt.rule, 1, 2, nil)
			assert.False(t, res.Valid)
			assert.True(t, res.Error)
			assert.ErrorIs(t, res.OriginalError, errors.ErrInvalidRuleStructure)
			assert.True(t, errors.IsInvalid(res.OriginalError))
		})
	}
	assert.False(t, called)
}

func TestExecuteRule_RecoversFailures(t *testing.T) {
	e := newTestEngine(t, Config{})

	panicking := testRule("panics", func(_, _ any, _ *rule.Context) any { panic("boom") })
	res := e.ExecuteRule(panicking, 1, 2, nil)
	assert.True(t, res.Error)
	assert.False(t, res.Valid)
	assert.ErrorIs(t, res.OriginalError, errors.ErrRuleExecution)
	assert.Contains(t, res.Message, "boom")

	erroring := testRule("errors", func(_, _ any, _ *rule.Context) any { return stderrors.New("bad input") })
	res = e.ExecuteRule(erroring, 1, 2, nil)
	assert.True(t, res.Error)
	assert.ErrorIs(t, res.OriginalError, errors.ErrRuleExecution)

	shaped := testRule("shape", func(_, _ any, _ *rule.Context) any { return "yes" })
	res = e.ExecuteRule(shaped, 1, 2, nil)
	assert.True(t, res.Error)
	assert.False(t, res.Valid)
	assert.ErrorIs(t, res.OriginalError, errors.ErrInvalidResultFormat)
	assert.Contains(t, res.Message, "string")

	// Nil context is replaced before the check sees it.
	sawContext := testRule("ctx", func(_, _ any, ctx *rule.Context) any { return ctx != nil })
	assert.True(t, e.ExecuteRule(sawContext, 1, 2, nil).Valid)
}

func TestExecuteRule_Idempotent(t *testing.T) {
	e := newTestEngine(t, Config{})
	registry := rule.NewDefaultRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := registry.Rule("boss_bubble_health_special")
	ctx := &rule.Context{
		BubbleType:    "boss",
		PropertyType:  "health",
		RelatedValues: map[string]map[string]float64{"normal": {"health": 2}},
	}

	first := e.ExecuteRule(r, 30, 50, ctx)
	second := e.ExecuteRule(r, 30, 50, ctx)
	assert.Equal(t, first.Valid, second.Valid)
	assert.Equal(t, first.Message, second.Message)
	assert.Contains(t, first.Message, "25.0倍")
}

func TestExecuteRule_TimeBudget(t *testing.T) {
	e := newTestEngine(t, Config{RuleTimeBudget: 10 * time.Millisecond})

	slow := testRule("slow", func(_, _ any, _ *rule.Context) any {
		time.Sleep(200 * time.Millisecond)
		return true
	})
	res := e.ExecuteRule(slow, 1, 2, nil)
	assert.True(t, res.Error)
	assert.ErrorIs(t, res.OriginalError, errors.ErrRuleTimeout)
	assert.True(t, errors.IsTransient(res.OriginalError))
	assert.Less(t, res.ExecutionTime, 150*time.Millisecond)

	res = e.ExecuteRule(testRule("fast", passCheck), 1, 2, nil)
	assert.True(t, res.Valid)

	panicking := testRule("panics", func(_, _ any, _ *rule.Context) any { panic("boom") })
	assert.True(t, e.ExecuteRule(panicking, 1, 2, nil).Error)
}

func TestExecuteRules_Summary(t *testing.T) {
	e := newTestEngine(t, Config{})

	disabled := testRule("disabled", passCheck)
	disabled.Enabled = false
	broken := testRule("broken", func(_, _ any, _ *rule.Context) any { panic("x") })

	batch := e.ExecuteRules([]*rule.Rule{
		testRule("a", passCheck),
		disabled,
		testRule("b", failCheck),
		broken,
	}, 1, 2, nil)

	require.Len(t, batch.Results, 4)
	assert.True(t, batch.Results[1].Skipped)
	assert.Equal(t, Summary{
		TotalRules:         4,
		Executed:           3,
		Skipped:            1,
		Passed:             1,
		Failed:             1,
		Errors:             1,
		TotalExecutionTime: batch.Summary.TotalExecutionTime,
	}, batch.Summary)
}

func TestExecuteRules_CriticalErrorShortCircuits(t *testing.T) {
	e := newTestEngine(t, Config{})

	critical := testRule("critical", func(_, _ any, _ *rule.Context) any { panic("catastrophe") })
	critical.Severity = rule.SeverityCritical

	ranAfter := false
	after := testRule("after", func(_, _ any, _ *rule.Context) any {
		ranAfter = true
		return true
	})

	batch := e.ExecuteRules([]*rule.Rule{testRule("before", passCheck), critical, after}, 1, 2, nil)

	assert.False(t, ranAfter)
	assert.Len(t, batch.Results, 2)
	assert.Equal(t, "critical", batch.Summary.ShortCircuited)
	assert.Equal(t, 2, batch.Summary.Executed)
}

func TestExecuteRules_CriticalValidationFailureContinues(t *testing.T) {
	e := newTestEngine(t, Config{})

	critical := testRule("critical", failCheck)
	critical.Severity = rule.SeverityCritical

	batch := e.ExecuteRules([]*rule.Rule{critical, testRule("after", passCheck)}, 1, 2, nil)
	assert.Len(t, batch.Results, 2)
	assert.Empty(t, batch.Summary.ShortCircuited)
}

func TestExecuteRules_Empty(t *testing.T) {
	e := newTestEngine(t, Config{})

	batch := e.ExecuteRules(nil, 1, 2, nil)
	assert.NotNil(t, batch.Results)
	assert.Empty(t, batch.Results)
	assert.Equal(t, 0, batch.Summary.Executed)

	off := testRule("off", passCheck)
	off.Enabled = false
	batch = e.ExecuteRules([]*rule.Rule{off}, 1, 2, nil)
	assert.Equal(t, 0, batch.Summary.Executed)
	assert.Equal(t, 1, batch.Summary.Skipped)
}

func TestHistory_BoundedFIFO(t *testing.T) {
	e := newTestEngine(t, Config{HistorySize: 5})
	r := testRule("counter", passCheck)

	for i := 0; i < 12; i++ {
		e.ExecuteRule(r, i, i+1, nil)
	}

	history := e.History()
	require.Len(t, history, 5)
	for i, record := range history {
		assert.Equal(t, rule.FormatValue(7+i), record.OldValue)
	}

	stats := e.Statistics()
	assert.Equal(t, int64(12), stats.TotalExecutions)
	assert.Equal(t, 5, stats.HistorySize)
	assert.Equal(t, int64(7), stats.HistoryEvictions)

	e.ClearHistory()
	assert.Empty(t, e.History())
	assert.Equal(t, int64(12), e.Statistics().TotalExecutions)
}

func TestHistory_SanitizesContext(t *testing.T) {
	e := newTestEngine(t, Config{MaxRelatedValues: 2})
	ctx := &rule.Context{
		BubbleType: "normal",
		RelatedValues: map[string]map[string]float64{
			"a": {"size": 1}, "b": {"size": 2}, "c": {"size": 3},
		},
		Extra: map[string]any{"fn": func() {}, "tag": "x"},
	}

	e.ExecuteRule(testRule("r", passCheck), 1, 2, ctx)

	history := e.History()
	require.Len(t, history, 1)
	assert.Len(t, history[0].Context.RelatedValues, 2)
	assert.NotContains(t, history[0].Context.Extra, "fn")
	assert.Len(t, ctx.RelatedValues, 3)
}

func TestTelemetry_SlowRules(t *testing.T) {
	e := newTestEngine(t, Config{SlowThreshold: time.Millisecond, WarnThreshold: 2 * time.Millisecond})

	slow := testRule("slow", func(_, _ any, _ *rule.Context) any {
		time.Sleep(5 * time.Millisecond)
		return true
	})
	e.ExecuteRule(slow, 1, 2, nil)
	e.ExecuteRule(slow, 1, 2, nil)

	perf := e.PerformanceMetrics()
	assert.Equal(t, int64(2), perf.TotalExecutions)
	assert.Equal(t, int64(2), perf.SlowExecutions)
	require.Contains(t, perf.RuleTimings, "slow")
	timing := perf.RuleTimings["slow"]
	assert.Equal(t, int64(2), timing.Count)
	assert.GreaterOrEqual(t, timing.Max, timing.Average)
	assert.Equal(t, timing.Total/2, timing.Average)

	e.ResetMetrics()
	perf = e.PerformanceMetrics()
	assert.Zero(t, perf.TotalExecutions)
	assert.Empty(t, perf.RuleTimings)
	assert.Len(t, e.History(), 2)
}

func TestMetrics_Exported(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	e := New(Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)), registry)
	defer e.Close()

	critical := testRule("critical", func(_, _ any, _ *rule.Context) any { panic("x") })
	critical.Severity = rule.SeverityCritical

	e.ExecuteRules([]*rule.Rule{testRule("ok", passCheck), testRule("no", failCheck), critical}, 1, 2, nil)

	require.NotNil(t, e.metrics)
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.evaluations.WithLabelValues("ok", "pass")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.evaluations.WithLabelValues("no", "fail")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.ruleErrors.WithLabelValues("critical", "execution")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.shortCircuits))
	assert.Equal(t, 1.0, testutil.ToFloat64(registry.CoreMetrics().ErrorsTotal.WithLabelValues("engine", "execution")))
}
