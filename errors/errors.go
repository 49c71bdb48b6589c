package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorClass says how a caller should react to an error.
type ErrorClass int

const (
	// ErrorTransient may succeed on another attempt, e.g. a rule that ran past its budget.
	ErrorTransient ErrorClass = iota
	// ErrorInvalid comes from a malformed rule, rule output or configuration.
	ErrorInvalid
	// ErrorFatal stops processing.
	ErrorFatal
)

var classNames = [...]string{
	ErrorTransient: "transient",
	ErrorInvalid:   "invalid",
	ErrorFatal:     "fatal",
}

func (c ErrorClass) String() string {
	if c < 0 || int(c) >= len(classNames) {
		return "unknown"
	}
	return classNames[c]
}

// Rule catalog
var (
	ErrInvalidRule  = errors.New("invalid rule definition")
	ErrRuleNotFound = errors.New("rule not found")
)

// Rule execution
var (
	ErrInvalidRuleStructure = errors.New("invalid rule structure")
	ErrRuleExecution        = errors.New("rule execution failed")
	ErrInvalidResultFormat  = errors.New("invalid rule result format")
	ErrRuleTimeout          = errors.New("rule exceeded time budget")
)

// Result processing
var (
	ErrAutoFixFailed    = errors.New("auto-fix failed")
	ErrProcessingFailed = errors.New("result processing failed")
)

// Configuration
var (
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrConfigNotFound = errors.New("configuration not found")
)

// sentinelClasses classifies plain sentinel chains that never went through a
// Wrap helper.
var sentinelClasses = []struct {
	err   error
	class ErrorClass
}{
	{ErrRuleTimeout, ErrorTransient},
	{context.DeadlineExceeded, ErrorTransient},
	{context.Canceled, ErrorTransient},
	{ErrConfigNotFound, ErrorFatal},
	{ErrInvalidRule, ErrorInvalid},
	{ErrInvalidRuleStructure, ErrorInvalid},
	{ErrInvalidResultFormat, ErrorInvalid},
	{ErrInvalidConfig, ErrorInvalid},
}

// ClassifiedError carries a class plus the component and operation that
// produced the error.
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

func (ce *ClassifiedError) Error() string {
	if ce.Message == "" {
		return ce.Err.Error()
	}
	return ce.Message
}

func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// classOf reports the explicit class of err, falling back to the sentinel table.
func classOf(err error) (ErrorClass, bool) {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class, true
	}
	for _, s := range sentinelClasses {
		if errors.Is(err, s.err) {
			return s.class, true
		}
	}
	return 0, false
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	class, ok := classOf(err)
	return ok && class == ErrorTransient
}

// IsInvalid reports whether err stems from bad rules, rule output or configuration.
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}
	class, ok := classOf(err)
	return ok && class == ErrorInvalid
}

// IsFatal reports whether err should stop processing. Unclassified errors
// mentioning "fatal" or "out of memory" count as fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if class, ok := classOf(err); ok {
		return class == ErrorFatal
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "fatal") || strings.Contains(msg, "out of memory")
}

// Classify returns the class of err. Unrecognized errors, including rule
// panics, are reported as invalid; nil is transient.
func Classify(err error) ErrorClass {
	switch {
	case err == nil, IsTransient(err):
		return ErrorTransient
	case IsFatal(err):
		return ErrorFatal
	default:
		return ErrorInvalid
	}
}

// Wrap adds context in the form "component.method: action failed: cause".
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

func wrapAs(class ErrorClass, err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, method, action)
	return &ClassifiedError{
		Class:     class,
		Err:       wrapped,
		Message:   wrapped.Error(),
		Component: component,
		Operation: method,
	}
}

// WrapTransient is Wrap plus the transient class.
func WrapTransient(err error, component, method, action string) error {
	return wrapAs(ErrorTransient, err, component, method, action)
}

// WrapInvalid is Wrap plus the invalid class.
func WrapInvalid(err error, component, method, action string) error {
	return wrapAs(ErrorInvalid, err, component, method, action)
}

// WrapFatal is Wrap plus the fatal class.
func WrapFatal(err error, component, method, action string) error {
	return wrapAs(ErrorFatal, err, component, method, action)
}

// Invalidf formats a detail onto sentinel and wraps it as invalid. The result
// still matches sentinel with errors.Is.
func Invalidf(sentinel error, component, method, format string, args ...any) error {
	detail := fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), sentinel)
	return WrapInvalid(detail, component, method, "validation")
}
