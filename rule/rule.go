package rule

import (
	"fmt"

	"github.com/c360/balanceguard/errors"
)

// CheckFunc inspects a proposed change. It must be pure and synchronous and
// should return a bool or an Outcome (see Normalize).
type CheckFunc func(oldValue, newValue any, ctx *Context) any

// AutoFixFunc returns a repaired value for a proposed change.
type AutoFixFunc func(oldValue, newValue any, ctx *Context) any

// Rule is one named unit of validation logic.
type Rule struct {
	Name        string        `json:"name"`
	Category    Category      `json:"category"`
	Description string        `json:"description"`
	Severity    Severity      `json:"severity"`
	Enabled     bool          `json:"enabled"`
	Priority    int           `json:"priority"`
	AutoFix     bool          `json:"auto_fix"`
	AppliesTo   Applicability `json:"applies_to"`

	Check     CheckFunc   `json:"-"`
	AutoFixFn AutoFixFunc `json:"-"`
}

// Clone returns a shallow copy with its own applicability slices.
func (r *Rule) Clone() *Rule {
	if r == nil {
		return nil
	}
	c := *r
	c.AppliesTo = Applicability{
		BubbleTypes:      append([]string(nil), r.AppliesTo.BubbleTypes...),
		PropertyTypes:    append([]string(nil), r.AppliesTo.PropertyTypes...),
		PropertyContains: append([]string(nil), r.AppliesTo.PropertyContains...),
	}
	return &c
}

// ValidateStructure checks the invariants a rule needs before it can run.
// The returned error wraps ErrInvalidRuleStructure.
func (r *Rule) ValidateStructure() error {
	switch {
	case r == nil:
		return fmt.Errorf("%w: rule is nil", errors.ErrInvalidRuleStructure)
	case r.Name == "":
		return fmt.Errorf("%w: rule has no name", errors.ErrInvalidRuleStructure)
	case r.Check == nil:
		return fmt.Errorf("%w: rule %q has no check function", errors.ErrInvalidRuleStructure, r.Name)
	case r.AutoFix && r.AutoFixFn == nil:
		return fmt.Errorf("%w: rule %q enables auto-fix without a fix function", errors.ErrInvalidRuleStructure, r.Name)
	}
	return nil
}

// Options configures AddRule. Zero values select the defaults: category
// general, severity medium, enabled, priority 1.
type Options struct {
	Category    Category
	Description string
	Severity    Severity
	Disabled    bool
	Priority    int
	AutoFix     bool
	AutoFixFn   AutoFixFunc
	Check       CheckFunc
	AppliesTo   Applicability
}

func (o Options) build(name string) *Rule {
	r := &Rule{
		Name:        name,
		Category:    o.Category,
		Description: o.Description,
		Severity:    o.Severity,
		Enabled:     !o.Disabled,
		Priority:    o.Priority,
		AutoFix:     o.AutoFix,
		AutoFixFn:   o.AutoFixFn,
		Check:       o.Check,
		AppliesTo:   o.AppliesTo,
	}
	if r.Category == "" {
		r.Category = CategoryGeneral
	}
	if !r.Severity.IsValid() {
		r.Severity = SeverityMedium
	}
	if r.Priority == 0 {
		r.Priority = 1
	}
	return r
}

// Filter selects rules by any combination of fields. Nil pointers and zero
// values do not filter.
type Filter struct {
	Category Category
	Severity Severity
	Enabled  *bool
	AutoFix  *bool
}

// Bool returns a pointer for Filter fields.
func Bool(v bool) *bool {
	return &v
}

func (f Filter) matches(r *Rule) bool {
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if f.Severity != 0 && r.Severity != f.Severity {
		return false
	}
	if f.Enabled != nil && r.Enabled != *f.Enabled {
		return false
	}
	if f.AutoFix != nil && r.AutoFix != *f.AutoFix {
		return false
	}
	return true
}
