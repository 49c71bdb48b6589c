package result

import (
	"fmt"
	"strings"
	"time"

	"github.com/c360/balanceguard/rule"
)

// DetailedReportDisabled is returned by DetailedReport when reports are off.
const DetailedReportDisabled = "Detailed reporting is disabled"

// DetailedReport renders a plain-text report. Sections always appear in the
// same order: result, timestamp, summary, errors, warnings, suggestions,
// applied fixes, performance. Empty lists are omitted.
func (p *Processor) DetailedReport(r *ProcessedResult) string {
	opts := p.Options()
	if !opts.EnableDetailedReports {
		return DetailedReportDisabled
	}
	if r == nil {
		return "No result"
	}

	var b strings.Builder

	b.WriteString("=== Balance Validation Report ===\n")
	status := "VALID"
	if !r.Valid {
		status = "INVALID"
	}
	fmt.Fprintf(&b, "Overall Result: %s\n", status)
	fmt.Fprintf(&b, "Timestamp: %s\n", r.Metadata.Timestamp.Format(time.RFC3339))
	if r.Metadata.RequestID != "" {
		fmt.Fprintf(&b, "Request ID: %s\n", r.Metadata.RequestID)
	}

	s := r.Summary
	b.WriteString("\n--- Summary ---\n")
	fmt.Fprintf(&b, "Rules executed: %d (passed: %d, failed: %d, execution errors: %d)\n",
		s.Executed, s.Passed, s.Failed, s.ExecutionErrors)
	fmt.Fprintf(&b, "Errors: %d, Warnings: %d\n", s.ErrorCount, s.WarningCount)
	fmt.Fprintf(&b, "Value: %s -> %s", rule.FormatValue(r.Metadata.OriginalValue), rule.FormatValue(r.Metadata.RequestedValue))
	if len(r.Metadata.AppliedFixes) > 0 {
		fmt.Fprintf(&b, " (auto-fixed: %s)", rule.FormatValue(r.AutoFixedValue))
	}
	b.WriteString("\n")

	writeIssues(&b, "Errors", r.Errors)
	writeIssues(&b, "Warnings", r.Warnings)

	if len(r.Suggestions) > 0 {
		b.WriteString("\n--- Suggestions ---\n")
		for i, suggestion := range r.Suggestions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, suggestion)
		}
	}

	if len(r.Metadata.AppliedFixes) > 0 {
		b.WriteString("\n--- Applied Fixes ---\n")
		for i, fix := range r.Metadata.AppliedFixes {
			fmt.Fprintf(&b, "%d. %s: %s -> %s\n", i+1, fix.Rule,
				rule.FormatValue(fix.OriginalValue), rule.FormatValue(fix.FixedValue))
		}
	}

	if opts.IncludePerformanceMetrics {
		b.WriteString("\n--- Performance ---\n")
		fmt.Fprintf(&b, "Processing time: %.3fms", ms(r.Metadata.ProcessingTime))
		if perf := s.Performance; perf != nil {
			fmt.Fprintf(&b, ", rule time: %.3fms (avg %.3fms), slowest: %s (%.3fms), fastest: %s (%.3fms)",
				ms(perf.TotalExecutionTime), ms(perf.AverageExecutionTime),
				perf.SlowestRule, ms(perf.SlowestTime),
				perf.FastestRule, ms(perf.FastestTime))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeIssues(b *strings.Builder, title string, issues []Issue) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(b, "\n--- %s ---\n", title)
	for i, issue := range issues {
		fmt.Fprintf(b, "%d. [%s] %s: %s\n", i+1, issue.Severity, issue.Rule, issue.Message)
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
