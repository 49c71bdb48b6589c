package rule

import (
	"fmt"
	"strings"
)

// Severity is the ordered severity scale shared by rules, the engine and the
// result processor: low < warning < medium < high < critical.
// The zero value means "unset" and sorts below every real severity.
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityWarning
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = map[Severity]string{
	SeverityLow:      "low",
	SeverityWarning:  "warning",
	SeverityMedium:   "medium",
	SeverityHigh:     "high",
	SeverityCritical: "critical",
}

// Severities lists every severity from least to most severe.
func Severities() []Severity {
	return []Severity{SeverityLow, SeverityWarning, SeverityMedium, SeverityHigh, SeverityCritical}
}

// String returns the lowercase severity name.
func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return "unset"
}

// IsValid reports whether s is one of the defined severities.
func (s Severity) IsValid() bool {
	_, ok := severityNames[s]
	return ok
}

// AtMost reports whether s is no more severe than limit.
func (s Severity) AtMost(limit Severity) bool {
	return s <= limit
}

// IsWarning reports whether an issue of this severity is non-blocking.
func (s Severity) IsWarning() bool {
	return s == SeverityWarning || s == SeverityLow
}

// ParseSeverity converts a severity name into a Severity.
func ParseSeverity(value string) (Severity, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for sev, name := range severityNames {
		if name == normalized {
			return sev, nil
		}
	}
	return 0, fmt.Errorf("unknown severity %q", value)
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Category groups rules by the concern they check.
type Category string

const (
	CategoryValueRange    Category = "value_range"
	CategoryBalanceImpact Category = "balance_impact"
	CategoryCompatibility Category = "compatibility"
	CategoryProgression   Category = "progression"
	CategorySafety        Category = "safety"
	CategoryPerformance   Category = "performance"

	// CategoryGeneral is assigned when a rule is registered without a category.
	CategoryGeneral Category = "general"
	// CategorySystem tags issues raised by the engine itself rather than a rule verdict.
	CategorySystem Category = "system"
)
