package result

import (
	"time"

	"github.com/c360/balanceguard/rule"
)

// Issue is one rejected or flagged rule outcome.
type Issue struct {
	Rule     string        `json:"rule"`
	Message  string        `json:"message"`
	Severity rule.Severity `json:"severity"`
	Category rule.Category `json:"category"`
	// AutoFix is set when the rule offers a fix within the auto-fix threshold.
	AutoFix bool `json:"auto_fix"`
}

// AppliedFix records one value change made by an auto-fix.
type AppliedFix struct {
	Rule          string `json:"rule"`
	OriginalValue any    `json:"original_value"`
	FixedValue    any    `json:"fixed_value"`
	Issue         string `json:"issue"`
}

// RuleApplication is one line of the execution ledger.
type RuleApplication struct {
	Rule          string        `json:"rule"`
	Valid         bool          `json:"valid"`
	Error         bool          `json:"error"`
	Severity      rule.Severity `json:"severity"`
	Category      rule.Category `json:"category"`
	ExecutionTime time.Duration `json:"execution_time"`
}

// Metadata describes the request a result belongs to.
type Metadata struct {
	RequestID      string        `json:"request_id"`
	OriginalValue  any           `json:"original_value"`
	RequestedValue any           `json:"requested_value"`
	Context        rule.Context  `json:"context"`
	ProcessingTime time.Duration `json:"processing_time"`
	Timestamp      time.Time     `json:"timestamp"`
	AppliedFixes   []AppliedFix  `json:"applied_fixes"`
}

// PerformanceSummary describes rule timings of one request.
type PerformanceSummary struct {
	TotalExecutionTime   time.Duration `json:"total_execution_time"`
	AverageExecutionTime time.Duration `json:"average_execution_time"`
	SlowestRule          string        `json:"slowest_rule"`
	SlowestTime          time.Duration `json:"slowest_time"`
	FastestRule          string        `json:"fastest_rule"`
	FastestTime          time.Duration `json:"fastest_time"`
}

// Summary aggregates one request.
type Summary struct {
	Executed          int                   `json:"executed"`
	Passed            int                   `json:"passed"`
	Failed            int                   `json:"failed"`
	ExecutionErrors   int                   `json:"execution_errors"`
	ErrorCount        int                   `json:"error_count"`
	WarningCount      int                   `json:"warning_count"`
	Performance       *PerformanceSummary   `json:"performance,omitempty"`
	SeverityBreakdown map[rule.Severity]int `json:"severity_breakdown"`
	CategoryBreakdown map[rule.Category]int `json:"category_breakdown"`
}

// ProcessedResult is the single decision for one validation request.
type ProcessedResult struct {
	Valid            bool              `json:"valid"`
	Errors           []Issue           `json:"errors"`
	Warnings         []Issue           `json:"warnings"`
	Suggestions      []string          `json:"suggestions"`
	AutoFixAvailable bool              `json:"auto_fix_available"`
	AutoFixedValue   any               `json:"auto_fixed_value"`
	RulesApplied     []RuleApplication `json:"rules_applied"`
	Metadata         Metadata          `json:"metadata"`
	Summary          Summary           `json:"summary"`
}

// HistoryEntry is the compact analytics record of one request.
type HistoryEntry struct {
	Timestamp        time.Time     `json:"timestamp"`
	Valid            bool          `json:"valid"`
	ErrorCount       int           `json:"error_count"`
	WarningCount     int           `json:"warning_count"`
	ProcessingTime   time.Duration `json:"processing_time"`
	RulesExecuted    int           `json:"rules_executed"`
	AutoFixesApplied int           `json:"auto_fixes_applied"`
}
