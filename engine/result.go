package engine

import (
	"time"

	"github.com/c360/balanceguard/rule"
)

// Result is the outcome of running one rule.
type Result struct {
	Rule     string        `json:"rule"`
	Category rule.Category `json:"category"`
	// Severity is the rule default unless the check overrode it.
	Severity      rule.Severity `json:"severity"`
	Valid         bool          `json:"valid"`
	Message       string        `json:"message,omitempty"`
	Suggestion    string        `json:"suggestion,omitempty"`
	ExecutionTime time.Duration `json:"execution_time"`
	// Error is set when the rule itself failed rather than rejecting the value.
	Error         bool  `json:"error"`
	OriginalError error `json:"-"`
	Skipped       bool  `json:"skipped,omitempty"`
	AutoFix       bool  `json:"auto_fix"`
}

// ExecutionTimeMs reports the execution time in fractional milliseconds.
func (r Result) ExecutionTimeMs() float64 {
	return float64(r.ExecutionTime) / float64(time.Millisecond)
}

// Summary tallies one batch.
type Summary struct {
	TotalRules         int           `json:"total_rules"`
	Executed           int           `json:"executed"`
	Skipped            int           `json:"skipped"`
	Passed             int           `json:"passed"`
	Failed             int           `json:"failed"`
	Errors             int           `json:"errors"`
	TotalExecutionTime time.Duration `json:"total_execution_time"`
	// ShortCircuited names the critical rule that stopped the batch.
	ShortCircuited string `json:"short_circuited,omitempty"`
}

// Batch is the output of ExecuteRules.
type Batch struct {
	Results []Result `json:"results"`
	Summary Summary  `json:"summary"`
}

// ExecutionRecord is one entry of the execution history.
type ExecutionRecord struct {
	Rule          string        `json:"rule"`
	Valid         bool          `json:"valid"`
	Error         bool          `json:"error"`
	Message       string        `json:"message,omitempty"`
	ExecutionTime time.Duration `json:"execution_time"`
	Timestamp     time.Time     `json:"timestamp"`
	OldValue      string        `json:"old_value"`
	NewValue      string        `json:"new_value"`
	Context       rule.Context  `json:"context"`
}
