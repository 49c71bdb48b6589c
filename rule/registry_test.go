package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/balanceguard/errors"
)

func alwaysPass(_, _ any, _ *Context) any { return true }

func TestRegistry_AddRuleDefaults(t *testing.T) {
	r := NewRegistry(quietLogger())

	require.NoError(t, r.AddRule("custom", Options{Check: alwaysPass}))

	got := r.Rule("custom")
	require.NotNil(t, got)
	assert.Equal(t, CategoryGeneral, got.Category)
	assert.Equal(t, SeverityMedium, got.Severity)
	assert.True(t, got.Enabled)
	assert.False(t, got.AutoFix)
	assert.Equal(t, 1, got.Priority)
}

func TestRegistry_AddRuleRejectsInvalid(t *testing.T) {
	r := NewRegistry(quietLogger())

	tests := []struct {
		name     string
		ruleName string
		opts     Options
	}{
		{"empty name", "", Options{Check: alwaysPass}},
		{"missing check", "no_check", Options{}},
		{"auto-fix without function", "no_fix", Options{Check: alwaysPass, AutoFix: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.AddRule(tt.ruleName, tt.opts)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidRule)
			assert.True(t, errors.IsInvalid(err))
		})
	}
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_OverwriteKeepsOrder(t *testing.T) {
	r := NewRegistry(quietLogger())
	require.NoError(t, r.AddRule("a", Options{Check: alwaysPass}))
	require.NoError(t, r.AddRule("b", Options{Check: alwaysPass}))
	require.NoError(t, r.AddRule("a", Options{Check: alwaysPass, Severity: SeverityCritical}))

	rules := r.Rules(Filter{})
	require.Len(t, rules, 2)
	assert.Equal(t, "a", rules[0].Name)
	assert.Equal(t, SeverityCritical, rules[0].Severity)
	assert.Equal(t, "b", rules[1].Name)
}

func TestRegistry_RemoveAndLookup(t *testing.T) {
	r := NewRegistry(quietLogger())
	require.NoError(t, r.AddRule("a", Options{Check: alwaysPass}))

	assert.True(t, r.RemoveRule("a"))
	assert.False(t, r.RemoveRule("a"))
	assert.Nil(t, r.Rule("a"))
	assert.NotNil(t, r.Rules(Filter{}))
	assert.Empty(t, r.Rules(Filter{}))
}

func TestRegistry_RulesAreCopies(t *testing.T) {
	r := NewDefaultRegistry(quietLogger())

	got := r.Rule("bubble_health_range")
	got.Enabled = false
	got.AppliesTo.PropertyTypes[0] = "mutated"

	fresh := r.Rule("bubble_health_range")
	assert.True(t, fresh.Enabled)
	assert.Equal(t, []string{"health"}, fresh.AppliesTo.PropertyTypes)
}

func TestRegistry_Filters(t *testing.T) {
	r := NewDefaultRegistry(quietLogger())

	autoFix := r.Rules(Filter{AutoFix: Bool(true)})
	names := make([]string, 0, len(autoFix))
	for _, rule := range autoFix {
		names = append(names, rule.Name)
	}
	assert.ElementsMatch(t, []string{
		"score_range", "size_range", "time_range", "electric_effect_intensity", "performance_impact",
	}, names)

	high := r.Rules(Filter{Severity: SeverityHigh})
	for _, rule := range high {
		assert.Equal(t, SeverityHigh, rule.Severity)
	}
	assert.Len(t, high, 3)

	perf := r.Rules(Filter{Category: CategoryPerformance, Severity: SeverityLow})
	require.Len(t, perf, 1)
	assert.Equal(t, "performance_impact", perf[0].Name)

	assert.Empty(t, r.Rules(Filter{Category: CategorySafety}))
}

func TestRegistry_Toggle(t *testing.T) {
	r := NewDefaultRegistry(quietLogger())

	assert.True(t, r.SetRuleEnabled("score_range", false))
	assert.True(t, r.SetRuleEnabled("score_range", false))
	assert.False(t, r.Rule("score_range").Enabled)
	assert.False(t, r.SetRuleEnabled("nonexistent", true))

	changed := r.SetCategoryEnabled(CategoryValueRange, false)
	assert.Equal(t, 4, changed)
	assert.Empty(t, r.Rules(Filter{Category: CategoryValueRange, Enabled: Bool(true)}))
	assert.Equal(t, 0, r.SetCategoryEnabled("unknown", false))
}

func TestRegistry_Statistics(t *testing.T) {
	r := NewDefaultRegistry(quietLogger())
	r.SetRuleEnabled("size_hierarchy", false)

	stats := r.Statistics()
	assert.Equal(t, r.Len(), stats.Total)
	assert.Equal(t, stats.Total-1, stats.Enabled)
	assert.Equal(t, 1, stats.Disabled)
	assert.Equal(t, 5, stats.AutoFix)
	assert.Equal(t, 1, stats.ByCategory[CategoryPerformance])
	assert.Equal(t, 1, stats.BySeverity[SeverityLow])

	r.Clear()
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, r.Statistics().Total)
}

func TestRegistry_LookupFallbacks(t *testing.T) {
	r := NewRegistry(quietLogger())

	assert.Equal(t, Limits{Min: 1, Max: 10}, r.HealthLimits("nonexistent-type"))
	assert.Equal(t, float64(100), r.ScoreLimits("nonexistent-type").Max)
	assert.Equal(t, Limits{Min: 5, Max: 50}, r.HealthLimits("boss"))
	assert.Equal(t, float64(50), r.ScoreLimits("normal").Max)

	_, ok := r.ScoreRatioRange("pink")
	assert.False(t, ok)

	assert.InDelta(t, 0.5, r.ChangeThreshold("normal", "unknownProp"), 1e-9)
	assert.InDelta(t, 0.3, r.ChangeThreshold("boss", "health"), 1e-9)
	assert.InDelta(t, 0.12, r.ChangeThreshold("electric", "intensity"), 1e-9)
	assert.InDelta(t, 0.6, r.ChangeThreshold("stone", "maxAge"), 1e-9)

	hierarchy := r.SizeHierarchy()
	hierarchy[0] = "mutated"
	assert.Equal(t, "normal", r.SizeHierarchy()[0])
}
