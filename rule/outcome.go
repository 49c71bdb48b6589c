package rule

import (
	"fmt"

	"github.com/c360/balanceguard/errors"
)

// Outcome is the normalized verdict of one check: either a pass, or a failure with
// a message and optional severity override and suggestion.
type Outcome struct {
	Valid      bool     `json:"valid"`
	Message    string   `json:"message,omitempty"`
	Severity   Severity `json:"severity,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// Pass is the verdict for an acceptable value.
func Pass() Outcome {
	return Outcome{Valid: true}
}

// Fail rejects a value with a user-facing message.
func Fail(message string) Outcome {
	return Outcome{Valid: false, Message: message}
}

// Failf is Fail with formatting.
func Failf(format string, args ...any) Outcome {
	return Fail(fmt.Sprintf(format, args...))
}

// WithSeverity overrides the rule's default severity for this verdict.
func (o Outcome) WithSeverity(s Severity) Outcome {
	o.Severity = s
	return o
}

// WithSuggestion attaches a remediation hint.
func (o Outcome) WithSuggestion(s string) Outcome {
	o.Suggestion = s
	return o
}

// Normalize converts whatever a check returned into an Outcome.
//
// Accepted shapes are bool, Outcome, *Outcome and map[string]any with a boolean
// "valid" key. A returned error is reported as ErrRuleExecution; anything else is
// ErrInvalidResultFormat.
func Normalize(raw any) (Outcome, error) {
	switch v := raw.(type) {
	case bool:
		return Outcome{Valid: v}, nil
	case Outcome:
		return v, nil
	case *Outcome:
		if v == nil {
			return Outcome{}, fmt.Errorf("%w: nil *Outcome", errors.ErrInvalidResultFormat)
		}
		return *v, nil
	case map[string]any:
		return normalizeMap(v)
	case error:
		return Outcome{}, fmt.Errorf("%w: %w", errors.ErrRuleExecution, v)
	case nil:
		return Outcome{}, fmt.Errorf("%w: check returned nil", errors.ErrInvalidResultFormat)
	default:
		return Outcome{}, fmt.Errorf("%w: unexpected %T", errors.ErrInvalidResultFormat, raw)
	}
}

func normalizeMap(m map[string]any) (Outcome, error) {
	valid, ok := m["valid"].(bool)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: result object has no boolean \"valid\" field", errors.ErrInvalidResultFormat)
	}

	out := Outcome{Valid: valid}
	if msg, ok := m["message"].(string); ok {
		out.Message = msg
	}
	if suggestion, ok := m["suggestion"].(string); ok {
		out.Suggestion = suggestion
	}
	switch sev := m["severity"].(type) {
	case string:
		// Unknown names fall back to the rule severity
		if parsed, err := ParseSeverity(sev); err == nil {
			out.Severity = parsed
		}
	case Severity:
		out.Severity = sev
	}
	return out, nil
}
