package result

import "github.com/c360/balanceguard/rule"

// History bounds
const (
	DefaultHistorySize = 50
	MinHistorySize     = 10
	MaxHistorySize     = 200

	// maxStoredRelated caps related bubble types kept in result metadata.
	maxStoredRelated = 10
	// recentWindow is the analytics trend window.
	recentWindow = 20
)

// Options configures a Processor.
type Options struct {
	EnableDetailedReports     bool          `json:"enable_detailed_reports"`
	IncludePerformanceMetrics bool          `json:"include_performance_metrics"`
	MaxSuggestions            int           `json:"max_suggestions"`
	AutoFixThreshold          rule.Severity `json:"auto_fix_threshold"`
	MaxHistorySize            int           `json:"max_history_size"`
}

// DefaultOptions returns the standard processor options.
func DefaultOptions() Options {
	return Options{
		EnableDetailedReports:     true,
		IncludePerformanceMetrics: true,
		MaxSuggestions:            5,
		AutoFixThreshold:          rule.SeverityMedium,
		MaxHistorySize:            DefaultHistorySize,
	}
}

// Update carries a partial change for Configure. Nil fields are left alone.
type Update struct {
	EnableDetailedReports     *bool
	IncludePerformanceMetrics *bool
	MaxSuggestions            *int
	AutoFixThreshold          *rule.Severity
	MaxHistorySize            *int
}

func (o Options) merge(u Update) Options {
	if u.EnableDetailedReports != nil {
		o.EnableDetailedReports = *u.EnableDetailedReports
	}
	if u.IncludePerformanceMetrics != nil {
		o.IncludePerformanceMetrics = *u.IncludePerformanceMetrics
	}
	if u.MaxSuggestions != nil {
		o.MaxSuggestions = *u.MaxSuggestions
	}
	if u.AutoFixThreshold != nil && u.AutoFixThreshold.IsValid() {
		o.AutoFixThreshold = *u.AutoFixThreshold
	}
	if u.MaxHistorySize != nil {
		o.MaxHistorySize = *u.MaxHistorySize
	}
	return o.normalized()
}

func (o Options) normalized() Options {
	if o.MaxSuggestions < 0 {
		o.MaxSuggestions = 0
	}
	if !o.AutoFixThreshold.IsValid() {
		o.AutoFixThreshold = rule.SeverityMedium
	}
	o.MaxHistorySize = clampHistory(o.MaxHistorySize)
	return o
}

func clampHistory(n int) int {
	switch {
	case n < MinHistorySize:
		return MinHistorySize
	case n > MaxHistorySize:
		return MaxHistorySize
	default:
		return n
	}
}
