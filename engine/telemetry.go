package engine

import (
	"time"

	"github.com/c360/balanceguard/rule"
)

// RuleTiming aggregates the slow executions of one rule.
type RuleTiming struct {
	Count   int64         `json:"count"`
	Total   time.Duration `json:"total"`
	Average time.Duration `json:"average"`
	Max     time.Duration `json:"max"`
}

// PerformanceMetrics is a snapshot of the engine's timing telemetry.
type PerformanceMetrics struct {
	TotalExecutions      int64                 `json:"total_executions"`
	TotalExecutionTime   time.Duration         `json:"total_execution_time"`
	AverageExecutionTime time.Duration         `json:"average_execution_time"`
	SlowExecutions       int64                 `json:"slow_executions"`
	RuleTimings          map[string]RuleTiming `json:"rule_timings"`
}

// Statistics summarizes the engine state.
type Statistics struct {
	TotalExecutions      int64         `json:"total_executions"`
	TotalErrors          int64         `json:"total_errors"`
	AverageExecutionTime time.Duration `json:"average_execution_time"`
	SlowExecutions       int64         `json:"slow_executions"`
	TrackedRules         int           `json:"tracked_rules"`
	HistorySize          int           `json:"history_size"`
	HistoryCapacity      int           `json:"history_capacity"`
	HistoryEvictions     int64         `json:"history_evictions"`
}

type performance struct {
	executions int64
	errors     int64
	slow       int64
	total      time.Duration
	rules      map[string]*RuleTiming
}

func newPerformance() performance {
	return performance{rules: make(map[string]*RuleTiming)}
}

func (p *performance) average() time.Duration {
	if p.executions == 0 {
		return 0
	}
	return p.total / time.Duration(p.executions)
}

// record updates telemetry and appends a sanitized history record.
func (e *Engine) record(res Result, oldValue, newValue any, ctx *rule.Context) {
	slow := res.ExecutionTime > e.cfg.SlowThreshold

	e.mu.Lock()
	e.perf.executions++
	e.perf.total += res.ExecutionTime
	if res.Error {
		e.perf.errors++
	}
	if slow {
		e.perf.slow++
		timing, ok := e.perf.rules[res.Rule]
		if !ok {
			timing = &RuleTiming{}
			e.perf.rules[res.Rule] = timing
		}
		timing.Count++
		timing.Total += res.ExecutionTime
		timing.Average = timing.Total / time.Duration(timing.Count)
		if res.ExecutionTime > timing.Max {
			timing.Max = res.ExecutionTime
		}
	}
	e.mu.Unlock()

	if res.ExecutionTime > e.cfg.WarnThreshold {
		e.logger.Warn("Slow rule execution",
			"rule", res.Rule,
			"duration_ms", res.ExecutionTimeMs(),
			"threshold_ms", e.cfg.WarnThreshold.Milliseconds())
	}

	e.metrics.recordExecution(res, slow)
	if res.Error && e.core != nil {
		e.core.RecordError("engine", errorKind(res))
	}

	record := ExecutionRecord{
		Rule:          res.Rule,
		Valid:         res.Valid,
		Error:         res.Error,
		Message:       res.Message,
		ExecutionTime: res.ExecutionTime,
		Timestamp:     time.Now(),
		OldValue:      rule.FormatValue(oldValue),
		NewValue:      rule.FormatValue(newValue),
		Context:       ctx.Sanitize(e.cfg.MaxRelatedValues),
	}
	if err := e.history.Append(record); err != nil {
		e.logger.Debug("Execution history unavailable", "error", err)
	}
}

// PerformanceMetrics returns a copy of the timing telemetry.
func (e *Engine) PerformanceMetrics() PerformanceMetrics {
	e.mu.Lock()
	defer e.mu.Unlock()

	timings := make(map[string]RuleTiming, len(e.perf.rules))
	for name, t := range e.perf.rules {
		timings[name] = *t
	}
	return PerformanceMetrics{
		TotalExecutions:      e.perf.executions,
		TotalExecutionTime:   e.perf.total,
		AverageExecutionTime: e.perf.average(),
		SlowExecutions:       e.perf.slow,
		RuleTimings:          timings,
	}
}

// Statistics returns counters plus history occupancy.
func (e *Engine) Statistics() Statistics {
	e.mu.Lock()
	stats := Statistics{
		TotalExecutions:      e.perf.executions,
		TotalErrors:          e.perf.errors,
		AverageExecutionTime: e.perf.average(),
		SlowExecutions:       e.perf.slow,
		TrackedRules:         len(e.perf.rules),
	}
	e.mu.Unlock()

	stats.HistorySize = e.history.Len()
	stats.HistoryCapacity = e.history.Cap()
	stats.HistoryEvictions = e.history.Counters().Evicted
	return stats
}

// ResetMetrics clears the timing telemetry. History is kept.
func (e *Engine) ResetMetrics() {
	e.mu.Lock()
	e.perf = newPerformance()
	e.mu.Unlock()
}

// ClearHistory drops every execution record.
func (e *Engine) ClearHistory() {
	e.history.Reset()
}

// History returns the execution records, oldest first.
func (e *Engine) History() []ExecutionRecord {
	return e.history.Snapshot()
}
