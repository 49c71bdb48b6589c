package engine

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/c360/balanceguard/errors"
	"github.com/c360/balanceguard/metric"
	"github.com/c360/balanceguard/pkg/buffer"
	"github.com/c360/balanceguard/rule"
)

// Engine executes rules against proposed changes. It never owns rules; it only
// holds its execution history and timing aggregates. Safe for concurrent use.
type Engine struct {
	cfg     Config
	logger  *slog.Logger
	metrics *engineMetrics
	core    *metric.Metrics
	history *buffer.Ring[ExecutionRecord]

	mu   sync.Mutex
	perf performance
}

// New creates an engine. A nil metrics registry disables Prometheus metrics.
func New(cfg Config, logger *slog.Logger, metricsRegistry *metric.MetricsRegistry) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "rule-engine")
	cfg = cfg.withDefaults()

	metrics, err := newEngineMetrics(metricsRegistry)
	if err != nil {
		logger.Error("Failed to initialize rule engine metrics", "error", err)
		metrics = nil // Continue without metrics
	}

	history, err := buffer.NewRing[ExecutionRecord](cfg.HistorySize,
		buffer.WithMetrics(metricsRegistry, "engine_history"))
	if err != nil {
		logger.Error("Failed to initialize execution history metrics", "error", err)
		history, _ = buffer.NewRing[ExecutionRecord](cfg.HistorySize)
	}

	e := &Engine{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		history: history,
		perf:    newPerformance(),
	}
	if metricsRegistry != nil {
		e.core = metricsRegistry.CoreMetrics()
	}
	return e
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// ExecuteRule runs one rule. It never panics: malformed rules, panicking checks
// and unexpected return shapes all become results with Error set.
func (e *Engine) ExecuteRule(r *rule.Rule, oldValue, newValue any, ctx *rule.Context) Result {
	if ctx == nil {
		ctx = &rule.Context{}
	}

	start := time.Now()
	res := e.execute(r, oldValue, newValue, ctx)
	res.ExecutionTime = time.Since(start)

	e.record(res, oldValue, newValue, ctx)
	return res
}

func (e *Engine) execute(r *rule.Rule, oldValue, newValue any, ctx *rule.Context) Result {
	if err := r.ValidateStructure(); err != nil {
		res := Result{Severity: rule.SeverityMedium, Valid: false, Error: true, Message: err.Error()}
		if r != nil {
			res.Rule, res.Category, res.AutoFix = r.Name, r.Category, r.AutoFix
			if r.Severity.IsValid() {
				res.Severity = r.Severity
			}
		}
		res.OriginalError = errors.WrapInvalid(err, "Engine", "ExecuteRule", "rule structure validation")
		e.logger.Error("Invalid rule structure", "rule", res.Rule, "error", err)
		return res
	}

	res := Result{
		Rule:     r.Name,
		Category: r.Category,
		Severity: r.Severity,
		AutoFix:  r.AutoFix,
	}

	inv := e.invoke(r, oldValue, newValue, ctx)
	if inv.err != nil {
		res.Valid = false
		res.Error = true
		res.Message = inv.err.Error()
		res.OriginalError = classify(inv.err)

		attrs := []any{"rule", r.Name, "severity", r.Severity.String(), "error", inv.err}
		if len(inv.stack) > 0 {
			attrs = append(attrs, "stack", string(inv.stack))
		}
		e.logger.Error("Rule execution failed", attrs...)
		return res
	}

	res.Valid = inv.outcome.Valid
	res.Message = inv.outcome.Message
	res.Suggestion = inv.outcome.Suggestion
	if inv.outcome.Severity.IsValid() {
		res.Severity = inv.outcome.Severity
	}
	return res
}

type invocation struct {
	outcome rule.Outcome
	err     error
	stack   []byte
}

func (e *Engine) invoke(r *rule.Rule, oldValue, newValue any, ctx *rule.Context) invocation {
	budget := e.cfg.RuleTimeBudget
	if budget <= 0 {
		return runCheck(r, oldValue, newValue, ctx)
	}

	// The goroutine outlives a timed-out check; its result is discarded.
	done := make(chan invocation, 1)
	go func() {
		done <- runCheck(r, oldValue, newValue, ctx)
	}()

	timer := time.NewTimer(budget)
	defer timer.Stop()

	select {
	case inv := <-done:
		return inv
	case <-timer.C:
		return invocation{err: fmt.Errorf("%w: %w after %s", errors.ErrRuleExecution, errors.ErrRuleTimeout, budget)}
	}
}

func runCheck(r *rule.Rule, oldValue, newValue any, ctx *rule.Context) (inv invocation) {
	defer func() {
		if rec := recover(); rec != nil {
			inv = invocation{
				err:   fmt.Errorf("%w: panic: %v", errors.ErrRuleExecution, rec),
				stack: debug.Stack(),
			}
		}
	}()

	out, err := rule.Normalize(r.Check(oldValue, newValue, ctx))
	return invocation{outcome: out, err: err}
}

func classify(err error) error {
	switch {
	case stderrors.Is(err, errors.ErrRuleTimeout):
		return errors.WrapTransient(err, "Engine", "ExecuteRule", "rule check")
	case stderrors.Is(err, errors.ErrInvalidResultFormat):
		return errors.WrapInvalid(err, "Engine", "ExecuteRule", "result normalization")
	default:
		return errors.Wrap(err, "Engine", "ExecuteRule", "rule check")
	}
}

// errorKind labels a failed result for metrics.
func errorKind(res Result) string {
	switch {
	case stderrors.Is(res.OriginalError, errors.ErrInvalidRuleStructure):
		return "invalid_structure"
	case stderrors.Is(res.OriginalError, errors.ErrInvalidResultFormat):
		return "invalid_format"
	case stderrors.Is(res.OriginalError, errors.ErrRuleTimeout):
		return "timeout"
	default:
		return "execution"
	}
}

// ExecuteRules runs rules in the given order. Disabled rules are recorded as
// skipped. The batch stops after the first critical rule that errors.
func (e *Engine) ExecuteRules(rules []*rule.Rule, oldValue, newValue any, ctx *rule.Context) Batch {
	batch := Batch{
		Results: make([]Result, 0, len(rules)),
		Summary: Summary{TotalRules: len(rules)},
	}

	for _, r := range rules {
		if r != nil && !r.Enabled {
			batch.Results = append(batch.Results, Result{
				Rule:     r.Name,
				Category: r.Category,
				Severity: r.Severity,
				AutoFix:  r.AutoFix,
				Skipped:  true,
			})
			batch.Summary.Skipped++
			e.metrics.recordSkipped(r.Name)
			continue
		}

		res := e.ExecuteRule(r, oldValue, newValue, ctx)
		batch.Results = append(batch.Results, res)
		batch.Summary.Executed++
		batch.Summary.TotalExecutionTime += res.ExecutionTime

		switch {
		case res.Error:
			batch.Summary.Errors++
		case res.Valid:
			batch.Summary.Passed++
		default:
			batch.Summary.Failed++
		}

		if res.Error && res.Severity == rule.SeverityCritical {
			batch.Summary.ShortCircuited = res.Rule
			e.metrics.recordShortCircuit()
			e.logger.Warn("Critical rule failed, stopping batch",
				"rule", res.Rule,
				"remaining", len(rules)-len(batch.Results))
			break
		}
	}

	return batch
}

// ApplicableRules returns the enabled rules whose applicability matches ctx,
// highest priority first. Performance rules need ctx.CheckPerformance.
func (e *Engine) ApplicableRules(all []*rule.Rule, ctx *rule.Context) []*rule.Rule {
	if ctx == nil {
		ctx = &rule.Context{}
	}

	out := make([]*rule.Rule, 0, len(all))
	for _, r := range all {
		if r == nil || !r.Enabled {
			continue
		}
		if !r.AppliesTo.Matches(ctx) {
			continue
		}
		if r.Category == rule.CategoryPerformance && !ctx.CheckPerformance {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}

// OptimizeRuleOrder returns a reordered copy: critical rules first, then by
// descending priority, then by ascending observed average execution time.
func (e *Engine) OptimizeRuleOrder(rules []*rule.Rule) []*rule.Rule {
	out := make([]*rule.Rule, 0, len(rules))
	for _, r := range rules {
		if r != nil {
			out = append(out, r)
		}
	}

	e.mu.Lock()
	averages := make(map[string]time.Duration, len(e.perf.rules))
	for name, timing := range e.perf.rules {
		averages[name] = timing.Average
	}
	e.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		aCritical, bCritical := a.Severity == rule.SeverityCritical, b.Severity == rule.SeverityCritical
		if aCritical != bCritical {
			return aCritical
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return averages[a.Name] < averages[b.Name]
	})
	return out
}

// Close releases the history ring and its metrics.
func (e *Engine) Close() error {
	return e.history.Close()
}
