// Package rule defines balance validation rules and the registry that owns them.
//
// A Rule pairs metadata (category, severity, priority, applicability) with a pure
// Check function that inspects a proposed change of one bubble property:
//
//	registry := rule.NewDefaultRegistry(logger)
//	r := registry.Rule("bubble_health_range")
//	outcome, err := rule.Normalize(r.Check(3, 7, &rule.Context{
//		BubbleType:   "normal",
//		PropertyType: "health",
//	}))
//
// Checks may return a bool, an Outcome, or a map with a boolean "valid" key.
// Normalize is the single place where those shapes are converted.
//
// The Registry also owns the balance tables (health and score limits, change
// thresholds, score ratios, size hierarchy). Every lookup has a fallback, so
// unknown bubble types never cause an error.
//
// Applicability is explicit: a rule's AppliesTo restricts it to bubble types
// and property names. Rules with an empty AppliesTo apply everywhere.
package rule
