// Package errors provides the error taxonomy for balanceguard.
//
// # Overview
//
// Three classes are used: Transient (a rule ran out of its time budget), Invalid
// (malformed rules, malformed rule output, bad configuration) and Fatal
// (configuration that cannot be loaded at all).
//
// Rule-level failures never escape the engine as panics or returned errors. They are
// carried inside execution results with the original error attached, so callers
// inspect them with errors.Is against the sentinels below:
//
//   - ErrInvalidRuleStructure: a rule missing its name or check function; never executed
//   - ErrRuleExecution: the check panicked or returned an error
//   - ErrInvalidResultFormat: the check returned something other than a bool or outcome
//   - ErrRuleTimeout: the check did not finish within the configured budget
//
// # Error Wrapping Pattern
//
// All error wrapping follows the format:
//
//	component.method: action failed: cause
//
// for example:
//
//	return errors.WrapInvalid(err, "Registry", "AddRule", "rule validation")
//
// ClassifiedError keeps the component and operation so log records can be grouped
// without parsing the message.
package errors
