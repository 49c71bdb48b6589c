package rule

import (
	"log/slog"
	"sync"

	"github.com/c360/balanceguard/errors"
)

// Registry owns the rule catalog and the balance tables the built-in rules
// consult. It is safe for concurrent use and only hands out copies of rules.
type Registry struct {
	rules  map[string]*Rule
	order  []string
	tables *Tables
	logger *slog.Logger
	mu     sync.RWMutex
}

// Statistics summarizes the catalog.
type Statistics struct {
	Total      int              `json:"total"`
	Enabled    int              `json:"enabled"`
	Disabled   int              `json:"disabled"`
	AutoFix    int              `json:"auto_fix"`
	ByCategory map[Category]int `json:"by_category"`
	BySeverity map[Severity]int `json:"by_severity"`
}

// NewRegistry creates an empty registry backed by the default balance tables.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		rules:  make(map[string]*Rule),
		tables: DefaultTables(),
		logger: logger.With("component", "rule-registry"),
	}
}

// NewDefaultRegistry creates a registry preloaded with the built-in catalog.
func NewDefaultRegistry(logger *slog.Logger) *Registry {
	r := NewRegistry(logger)
	r.RegisterDefaults()
	return r
}

// AddRule registers or replaces a rule. A replaced rule keeps its position in
// registration order.
func (r *Registry) AddRule(name string, opts Options) error {
	if name == "" {
		return errors.Invalidf(errors.ErrInvalidRule, "Registry", "AddRule", "rule name is required")
	}
	if opts.Check == nil {
		return errors.Invalidf(errors.ErrInvalidRule, "Registry", "AddRule", "rule %q has no check function", name)
	}
	if opts.AutoFix && opts.AutoFixFn == nil {
		return errors.Invalidf(errors.ErrInvalidRule, "Registry", "AddRule",
			"rule %q enables auto-fix without a fix function", name)
	}

	rule := opts.build(name)

	r.mu.Lock()
	_, replaced := r.rules[name]
	r.rules[name] = rule
	if !replaced {
		r.order = append(r.order, name)
	}
	r.mu.Unlock()

	r.logger.Info("Rule registered",
		"rule", name,
		"category", rule.Category,
		"severity", rule.Severity.String(),
		"replaced", replaced)
	return nil
}

// RemoveRule deletes a rule and reports whether it existed.
func (r *Registry) RemoveRule(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rules[name]; !ok {
		return false
	}
	delete(r.rules, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Rule returns a copy of the named rule, or nil.
func (r *Registry) Rule(name string) *Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rules[name].Clone()
}

// Rules returns copies of every rule matching filter in registration order.
func (r *Registry) Rules(filter Filter) []*Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Rule, 0, len(r.order))
	for _, name := range r.order {
		rule := r.rules[name]
		if filter.matches(rule) {
			out = append(out, rule.Clone())
		}
	}
	return out
}

// SetRuleEnabled toggles a rule and reports whether it exists.
func (r *Registry) SetRuleEnabled(name string, enabled bool) bool {
	r.mu.Lock()
	rule, ok := r.rules[name]
	if ok {
		rule.Enabled = enabled
	}
	r.mu.Unlock()

	if !ok {
		r.logger.Warn("Cannot toggle unknown rule", "rule", name)
		return false
	}
	r.logger.Info("Rule toggled", "rule", name, "enabled", enabled)
	return true
}

// SetCategoryEnabled toggles every rule of a category and returns how many
// rules the category holds.
func (r *Registry) SetCategoryEnabled(category Category, enabled bool) int {
	r.mu.Lock()
	changed := 0
	for _, rule := range r.rules {
		if rule.Category == category {
			rule.Enabled = enabled
			changed++
		}
	}
	r.mu.Unlock()

	r.logger.Info("Category toggled", "category", category, "enabled", enabled, "changed", changed)
	return changed
}

// Statistics counts rules by state, category and severity.
func (r *Registry) Statistics() Statistics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Statistics{
		ByCategory: make(map[Category]int),
		BySeverity: make(map[Severity]int),
	}
	for _, rule := range r.rules {
		stats.Total++
		if rule.Enabled {
			stats.Enabled++
		} else {
			stats.Disabled++
		}
		if rule.AutoFix {
			stats.AutoFix++
		}
		stats.ByCategory[rule.Category]++
		stats.BySeverity[rule.Severity]++
	}
	return stats
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

// Clear removes every rule.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.rules = make(map[string]*Rule)
	r.order = nil
	r.mu.Unlock()
}

// Tables returns the balance tables used by the built-in rules.
func (r *Registry) Tables() *Tables {
	return r.tables
}

// HealthLimits returns the allowed health range for a bubble type.
func (r *Registry) HealthLimits(bubbleType string) Limits {
	return r.tables.HealthLimits(bubbleType)
}

// ScoreLimits returns the allowed score range for a bubble type.
func (r *Registry) ScoreLimits(bubbleType string) Limits {
	return r.tables.ScoreLimits(bubbleType)
}

// ChangeThreshold returns the largest relative change allowed in one step.
func (r *Registry) ChangeThreshold(bubbleType, property string) float64 {
	return r.tables.ChangeThreshold(bubbleType, property)
}

// ScoreRatioRange returns the expected score ratio against a normal bubble.
func (r *Registry) ScoreRatioRange(bubbleType string) (Limits, bool) {
	return r.tables.ScoreRatioRange(bubbleType)
}

// SizeHierarchy returns bubble types from smallest to largest.
func (r *Registry) SizeHierarchy() []string {
	return r.tables.SizeHierarchy()
}
