package result

import (
	"time"

	"github.com/c360/balanceguard/rule"
)

var reportedSeverities = []rule.Severity{
	rule.SeverityCritical,
	rule.SeverityHigh,
	rule.SeverityMedium,
	rule.SeverityLow,
	rule.SeverityWarning,
}

// generateSummary counts outcomes, timings, severities and categories.
func generateSummary(r *ProcessedResult) Summary {
	s := Summary{
		Executed:          len(r.RulesApplied),
		ErrorCount:        len(r.Errors),
		WarningCount:      len(r.Warnings),
		SeverityBreakdown: make(map[rule.Severity]int, len(reportedSeverities)),
		CategoryBreakdown: make(map[rule.Category]int),
	}

	var perf PerformanceSummary
	timed := 0
	for _, applied := range r.RulesApplied {
		switch {
		case applied.Error:
			s.ExecutionErrors++
		case applied.Valid:
			s.Passed++
		default:
			s.Failed++
		}

		if applied.ExecutionTime <= 0 {
			continue
		}
		timed++
		perf.TotalExecutionTime += applied.ExecutionTime
		if perf.SlowestRule == "" || applied.ExecutionTime > perf.SlowestTime {
			perf.SlowestRule, perf.SlowestTime = applied.Rule, applied.ExecutionTime
		}
		if perf.FastestRule == "" || applied.ExecutionTime < perf.FastestTime {
			perf.FastestRule, perf.FastestTime = applied.Rule, applied.ExecutionTime
		}
	}
	if timed > 0 {
		perf.AverageExecutionTime = perf.TotalExecutionTime / time.Duration(timed)
		s.Performance = &perf
	}

	for _, sev := range reportedSeverities {
		s.SeverityBreakdown[sev] = 0
	}
	for _, issues := range [][]Issue{r.Errors, r.Warnings} {
		for _, issue := range issues {
			s.SeverityBreakdown[issue.Severity]++
			s.CategoryBreakdown[issue.Category]++
		}
	}
	return s
}
