package engine

import "time"

// Config tunes telemetry and history. Zero fields take the defaults.
type Config struct {
	// HistorySize is the capacity of the execution history ring.
	HistorySize int
	// SlowThreshold marks an execution as slow for per-rule aggregation.
	SlowThreshold time.Duration
	// WarnThreshold additionally logs a warning for the execution.
	WarnThreshold time.Duration
	// RuleTimeBudget bounds a single check. Zero runs checks inline without a budget.
	RuleTimeBudget time.Duration
	// MaxRelatedValues caps the related bubble types kept in stored contexts.
	MaxRelatedValues int
}

// Defaults
const (
	DefaultHistorySize      = 100
	DefaultSlowThreshold    = 10 * time.Millisecond
	DefaultWarnThreshold    = 50 * time.Millisecond
	DefaultMaxRelatedValues = 20
)

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() Config {
	return Config{
		HistorySize:      DefaultHistorySize,
		SlowThreshold:    DefaultSlowThreshold,
		WarnThreshold:    DefaultWarnThreshold,
		MaxRelatedValues: DefaultMaxRelatedValues,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.HistorySize <= 0 {
		c.HistorySize = d.HistorySize
	}
	if c.SlowThreshold <= 0 {
		c.SlowThreshold = d.SlowThreshold
	}
	if c.WarnThreshold <= 0 {
		c.WarnThreshold = d.WarnThreshold
	}
	if c.MaxRelatedValues <= 0 {
		c.MaxRelatedValues = d.MaxRelatedValues
	}
	if c.RuleTimeBudget < 0 {
		c.RuleTimeBudget = 0
	}
	return c
}
