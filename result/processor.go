package result

import (
	"fmt"
	"log/slog"
	"reflect"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/c360/balanceguard/engine"
	"github.com/c360/balanceguard/errors"
	"github.com/c360/balanceguard/metric"
	"github.com/c360/balanceguard/pkg/buffer"
	"github.com/c360/balanceguard/rule"
)

// RuleSource resolves rules by name for auto-fixing. *rule.Registry satisfies it.
type RuleSource interface {
	Rule(name string) *rule.Rule
}

// Processor turns engine results into one decision, applies safe auto-fixes
// and keeps rolling analytics. Safe for concurrent use.
type Processor struct {
	source          RuleSource
	logger          *slog.Logger
	metrics         *processorMetrics
	core            *metric.Metrics
	metricsRegistry *metric.MetricsRegistry

	mu       sync.RWMutex
	opts     Options
	history  *buffer.Ring[HistoryEntry]
	lifetime lifetimeTotals
}

// New creates a processor. A nil source disables auto-fixing; a nil metrics
// registry disables Prometheus metrics.
func New(source RuleSource, opts Options, logger *slog.Logger, metricsRegistry *metric.MetricsRegistry) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "result-processor")

	if opts.MaxHistorySize == 0 {
		opts.MaxHistorySize = DefaultHistorySize
	}
	opts = opts.normalized()

	metrics, err := newProcessorMetrics(metricsRegistry)
	if err != nil {
		logger.Error("Failed to initialize result processor metrics", "error", err)
		metrics = nil // Continue without metrics
	}

	p := &Processor{
		source:          source,
		logger:          logger,
		metrics:         metrics,
		metricsRegistry: metricsRegistry,
		opts:            opts,
	}
	if metricsRegistry != nil {
		p.core = metricsRegistry.CoreMetrics()
	}
	p.history = p.newHistory(opts.MaxHistorySize)
	return p
}

func (p *Processor) newHistory(capacity int) *buffer.Ring[HistoryEntry] {
	history, err := buffer.NewRing[HistoryEntry](capacity,
		buffer.WithMetrics(p.metricsRegistry, "processor_history"))
	if err != nil {
		p.logger.Error("Failed to initialize result history metrics", "error", err)
		history, _ = buffer.NewRing[HistoryEntry](capacity)
	}
	return history
}

// Options returns the current options.
func (p *Processor) Options() Options {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.opts
}

// Configure merges an update into the options. Changing MaxHistorySize
// rebuilds the history, keeping the newest entries.
func (p *Processor) Configure(u Update) Options {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.opts.merge(u)
	if next.MaxHistorySize != p.history.Cap() {
		kept := p.history.Last(next.MaxHistorySize)
		_ = p.history.Close()
		p.history = p.newHistory(next.MaxHistorySize)
		for _, entry := range kept {
			_ = p.history.Append(entry)
		}
	}
	p.opts = next

	p.logger.Info("Result processor configured",
		"detailed_reports", next.EnableDetailedReports,
		"performance_metrics", next.IncludePerformanceMetrics,
		"max_suggestions", next.MaxSuggestions,
		"auto_fix_threshold", next.AutoFixThreshold.String(),
		"max_history_size", next.MaxHistorySize)
	return next
}

// ProcessResults classifies the results of one request. It always returns a
// well-formed result; internal failures become a single system error.
func (p *Processor) ProcessResults(results []engine.Result, oldValue, newValue any, ctx *rule.Context) (out *ProcessedResult) {
	start := time.Now()
	opts := p.Options()

	defer func() {
		if rec := recover(); rec != nil {
			out = p.aggregationFailure(rec, oldValue, newValue, ctx, start)
		}
	}()

	out = &ProcessedResult{
		Errors:         []Issue{},
		Warnings:       []Issue{},
		Suggestions:    []string{},
		RulesApplied:   []RuleApplication{},
		AutoFixedValue: newValue,
	}

	for _, res := range results {
		if res.Skipped {
			continue
		}
		out.RulesApplied = append(out.RulesApplied, RuleApplication{
			Rule:          res.Rule,
			Valid:         res.Valid,
			Error:         res.Error,
			Severity:      res.Severity,
			Category:      res.Category,
			ExecutionTime: res.ExecutionTime,
		})

		if res.Error {
			out.Warnings = append(out.Warnings, Issue{
				Rule:     res.Rule,
				Message:  fmt.Sprintf("Rule execution error: %s", res.Message),
				Severity: rule.SeverityWarning,
				Category: rule.CategorySystem,
			})
			continue
		}
		if res.Valid {
			continue
		}

		issue := Issue{
			Rule:     res.Rule,
			Message:  res.Message,
			Severity: res.Severity,
			Category: res.Category,
			AutoFix:  res.AutoFix && res.Severity.AtMost(opts.AutoFixThreshold),
		}
		if issue.Severity.IsWarning() {
			out.Warnings = append(out.Warnings, issue)
		} else {
			out.Errors = append(out.Errors, issue)
		}
		if res.Suggestion != "" && len(out.Suggestions) < opts.MaxSuggestions {
			out.Suggestions = append(out.Suggestions, res.Suggestion)
		}
		if issue.AutoFix {
			out.AutoFixAvailable = true
		}
	}

	out.Valid = len(out.Errors) == 0

	var fixes []AppliedFix
	if shouldApplyAutoFix(out) {
		out.AutoFixedValue, fixes = p.processAutoFix(out.Warnings, oldValue, newValue, ctx)
	}
	if fixes == nil {
		fixes = []AppliedFix{}
	}

	out.Summary = generateSummary(out)
	out.Metadata = Metadata{
		RequestID:      uuid.NewString(),
		OriginalValue:  oldValue,
		RequestedValue: newValue,
		Context:        ctx.Sanitize(maxStoredRelated),
		Timestamp:      time.Now(),
		AppliedFixes:   fixes,
		ProcessingTime: time.Since(start),
	}

	p.addToHistory(out)
	p.metrics.recordProcessed(out)
	return out
}

// shouldApplyAutoFix reports whether fixes may run: only when something is
// fixable and no hard error was found.
func shouldApplyAutoFix(r *ProcessedResult) bool {
	return r.AutoFixAvailable && len(r.Errors) == 0
}

// processAutoFix applies fixes least severe first, each on the previous output.
func (p *Processor) processAutoFix(issues []Issue, oldValue, newValue any, ctx *rule.Context) (any, []AppliedFix) {
	fixable := make([]Issue, 0, len(issues))
	for _, issue := range issues {
		if issue.AutoFix {
			fixable = append(fixable, issue)
		}
	}
	sort.SliceStable(fixable, func(i, j int) bool {
		return fixable[i].Severity < fixable[j].Severity
	})

	current := newValue
	fixes := []AppliedFix{}
	if p.source == nil {
		return current, fixes
	}

	for _, issue := range fixable {
		r := p.source.Rule(issue.Rule)
		if r == nil || r.AutoFixFn == nil {
			p.logger.Warn("Auto-fix rule unavailable", "rule", issue.Rule)
			continue
		}

		fixed, err := applyFix(r, oldValue, current, ctx)
		if err != nil {
			p.logger.Error("Auto-fix failed", "rule", issue.Rule, "error", err)
			if p.core != nil {
				p.core.RecordError("processor", "auto_fix")
			}
			continue
		}
		if reflect.DeepEqual(fixed, current) {
			continue
		}

		fixes = append(fixes, AppliedFix{
			Rule:          issue.Rule,
			OriginalValue: current,
			FixedValue:    fixed,
			Issue:         issue.Message,
		})
		p.metrics.recordAutoFix(issue.Rule)
		current = fixed
	}

	return current, fixes
}

func applyFix(r *rule.Rule, oldValue, current any, ctx *rule.Context) (fixed any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Wrap(fmt.Errorf("%w: panic: %v", errors.ErrAutoFixFailed, rec),
				"Processor", "processAutoFix", "auto-fix "+r.Name)
		}
	}()
	return r.AutoFixFn(oldValue, current, ctx), nil
}

func (p *Processor) aggregationFailure(rec any, oldValue, newValue any, ctx *rule.Context, start time.Time) *ProcessedResult {
	err := errors.Wrap(fmt.Errorf("%w: %v", errors.ErrProcessingFailed, rec), "Processor", "ProcessResults", "aggregation")
	p.logger.Error("Result processing failed", "error", err, "stack", string(debug.Stack()))
	if p.core != nil {
		p.core.RecordError("processor", "aggregation")
	}

	out := &ProcessedResult{
		Valid: false,
		Errors: []Issue{{
			Rule:     "system",
			Message:  err.Error(),
			Severity: rule.SeverityCritical,
			Category: rule.CategorySystem,
		}},
		Warnings:       []Issue{},
		Suggestions:    []string{},
		RulesApplied:   []RuleApplication{},
		AutoFixedValue: newValue,
		Metadata: Metadata{
			RequestID:      uuid.NewString(),
			OriginalValue:  oldValue,
			RequestedValue: newValue,
			Timestamp:      time.Now(),
			AppliedFixes:   []AppliedFix{},
			ProcessingTime: time.Since(start),
		},
	}
	func() {
		defer func() { _ = recover() }()
		out.Metadata.Context = ctx.Sanitize(maxStoredRelated)
	}()
	out.Summary = generateSummary(out)
	p.addToHistory(out)
	p.metrics.recordProcessed(out)
	return out
}

// Close releases the history ring and its metrics.
func (p *Processor) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.history.Close()
}
