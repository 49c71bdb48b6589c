package rule

import (
	"fmt"
	"math"
)

var (
	healthProperty = Applicability{PropertyTypes: []string{"health"}}
	sizeProperty   = Applicability{PropertyTypes: []string{"size"}}
	scoreProperty  = Applicability{PropertyTypes: []string{"score"}}
	timeProperties = Applicability{
		PropertyTypes:    []string{"maxAge", "duration"},
		PropertyContains: []string{"Time"},
	}
)

// RegisterDefaults installs the built-in catalog, replacing rules of the same name.
func (r *Registry) RegisterDefaults() {
	for _, d := range r.builtinRules() {
		if err := r.AddRule(d.name, d.opts); err != nil {
			// Built-ins are static; a failure here is a programming error.
			panic(fmt.Sprintf("builtin rule %s: %v", d.name, err))
		}
	}
	r.logger.Info("Built-in rules initialized", "count", r.Len())
}

type builtin struct {
	name string
	opts Options
}

func (r *Registry) builtinRules() []builtin {
	t := r.tables
	var out []builtin
	out = append(out, healthRules(t)...)
	out = append(out, scoreRules(t)...)
	out = append(out, sizeRules(t)...)
	out = append(out, timeRules()...)
	out = append(out, effectRules()...)
	out = append(out, systemRules()...)
	return out
}

func orEmpty(ctx *Context) *Context {
	if ctx == nil {
		return &Context{}
	}
	return ctx
}

func healthRules(t *Tables) []builtin {
	return []builtin{
		{"bubble_health_range", Options{
			Category:    CategoryValueRange,
			Description: "バブル体力値の妥当な範囲をチェック",
			Severity:    SeverityHigh,
			AppliesTo:   healthProperty,
			Check: func(_, newValue any, ctx *Context) any {
				ctx = orEmpty(ctx)
				v, ok := AsNumber(newValue)
				if !ok {
					return Fail("体力値は数値である必要があります")
				}
				if v <= 0 {
					return Fail("体力値は正の数である必要があります")
				}
				limits := t.HealthLimits(ctx.BubbleType)
				if !limits.Contains(v) {
					return Failf("%sバブルの体力値は%s〜%sの範囲で設定してください",
						ctx.BubbleType, FormatNumber(limits.Min), FormatNumber(limits.Max))
				}
				return Pass()
			},
		}},
		{"bubble_health_gradual_change", Options{
			Category:    CategoryBalanceImpact,
			Description: "体力値の急激な変更を防止",
			Severity:    SeverityMedium,
			AppliesTo:   healthProperty,
			Check:       gradualChange(t, "health", "体力値"),
		}},
		{"boss_bubble_health_special", Options{
			Category:    CategoryBalanceImpact,
			Description: "Bossバブルの体力値特別チェック",
			Severity:    SeverityHigh,
			AppliesTo:   Applicability{BubbleTypes: []string{"boss"}, PropertyTypes: []string{"health"}},
			Check: func(_, newValue any, ctx *Context) any {
				ctx = orEmpty(ctx)
				if ctx.BubbleType != "boss" {
					return Pass()
				}
				v, ok := AsNumber(newValue)
				if !ok {
					return Fail("Bossバブルの体力値は数値である必要があります")
				}
				normalHealth, ok := ctx.Related("normal", "health")
				if !ok {
					normalHealth = 1
				}
				ratio := v / normalHealth
				if ratio < 3 {
					return Failf("Bossバブルの体力は通常バブルの少なくとも3倍以上に設定してください（現在: %.1f倍）", ratio)
				}
				if ratio > 20 {
					return Failf("Bossバブルの体力が高すぎます（通常バブルの%.1f倍）。ゲームプレイ性を損なう可能性があります", ratio)
				}
				return Pass()
			},
		}},
	}
}

// gradualChange rejects a relative change larger than the bubble/property
// threshold. A zero old value has no relative change and passes.
func gradualChange(t *Tables, property, label string) CheckFunc {
	return func(oldValue, newValue any, ctx *Context) any {
		ctx = orEmpty(ctx)
		prev, okOld := AsNumber(oldValue)
		next, okNew := AsNumber(newValue)
		if !okOld || !okNew || prev == 0 {
			return Pass()
		}

		ratio := math.Abs(next-prev) / prev
		threshold := t.ChangeThreshold(ctx.BubbleType, property)
		if ratio <= threshold {
			return Pass()
		}

		step := roundHalfUp(prev * (1 + sign(next-prev)*threshold))
		return Failf("%sの変更が大きすぎます（%.1f%% > %s%%）。段階的な調整を推奨します",
			label, ratio*100, FormatNumber(threshold*100)).
			WithSuggestion(fmt.Sprintf("段階的調整: %s → %s → %s",
				FormatNumber(prev), FormatNumber(step), FormatNumber(next)))
	}
}

func scoreRules(t *Tables) []builtin {
	return []builtin{
		{"score_range", Options{
			Category:    CategoryValueRange,
			Description: "スコア値の妥当な範囲をチェック",
			Severity:    SeverityMedium,
			AutoFix:     true,
			Check: func(_, newValue any, ctx *Context) any {
				ctx = orEmpty(ctx)
				v, ok := AsNumber(newValue)
				if !ok {
					return Fail("スコア値は数値である必要があります")
				}
				if v < 0 {
					return Fail("スコア値は0以上である必要があります")
				}
				limits := t.ScoreLimits(ctx.BubbleType)
				if v > limits.Max {
					return Failf("%sバブルのスコアが上限（%s）を超えています", ctx.BubbleType, FormatNumber(limits.Max))
				}
				return Pass()
			},
			AutoFixFn: func(_, newValue any, ctx *Context) any {
				v, ok := AsNumber(newValue)
				if !ok {
					return newValue
				}
				limits := t.ScoreLimits(orEmpty(ctx).BubbleType)
				return clamp(v, 0, limits.Max)
			},
		}},
		{"score_balance_ratio", Options{
			Category:    CategoryBalanceImpact,
			Description: "バブルタイプ間のスコア比率バランスをチェック",
			Severity:    SeverityMedium,
			Check: func(_, newValue any, ctx *Context) any {
				ctx = orEmpty(ctx)
				v, ok := AsNumber(newValue)
				if !ok || ctx.RelatedValues == nil {
					return Pass()
				}
				normalScore, ok := ctx.Related("normal", "score")
				if !ok {
					normalScore = defaultNormalScore
				}
				ratio := v / normalScore
				expected, ok := t.ScoreRatioRange(ctx.BubbleType)
				if ok && !expected.Contains(ratio) {
					return Failf("%sバブルのスコア比率が推奨範囲外です（%.1f倍、推奨: %s〜%s倍）",
						ctx.BubbleType, ratio, FormatNumber(expected.Min), FormatNumber(expected.Max))
				}
				return Pass()
			},
		}},
		{"score_gradual_change", Options{
			Category:    CategoryBalanceImpact,
			Description: "スコア値の急激な変更を防止",
			Severity:    SeverityMedium,
			AppliesTo:   scoreProperty,
			Check:       gradualChange(t, "score", "スコア値"),
		}},
	}
}

func sizeRules(t *Tables) []builtin {
	return []builtin{
		{"size_range", Options{
			Category:    CategoryValueRange,
			Description: "バブルサイズの妥当な範囲をチェック",
			Severity:    SeverityHigh,
			AutoFix:     true,
			AppliesTo:   sizeProperty,
			Check: func(_, newValue any, ctx *Context) any {
				ctx = orEmpty(ctx)
				v, ok := AsNumber(newValue)
				if !ok {
					return Fail("サイズ値は数値である必要があります")
				}
				if v <= 0 {
					return Fail("サイズ値は正の数である必要があります")
				}
				limits := SizeLimits(ctx.CanvasSize)
				if v > limits.Max {
					return Failf("サイズが大きすぎます（%s > %s）。画面サイズとの比率を考慮してください",
						FormatNumber(v), FormatNumber(limits.Max))
				}
				if v < limits.Min {
					return Failf("サイズが小さすぎます（%s < %s）。クリック可能性を考慮してください",
						FormatNumber(v), FormatNumber(limits.Min))
				}
				return Pass()
			},
			AutoFixFn: func(_, newValue any, ctx *Context) any {
				v, ok := AsNumber(newValue)
				if !ok {
					return newValue
				}
				limits := SizeLimits(orEmpty(ctx).CanvasSize)
				return clamp(v, limits.Min, limits.Max)
			},
		}},
		{"size_hierarchy", Options{
			Category:    CategoryProgression,
			Description: "バブルタイプ間のサイズ階層をチェック",
			Severity:    SeverityMedium,
			AppliesTo:   sizeProperty,
			Check: func(_, newValue any, ctx *Context) any {
				ctx = orEmpty(ctx)
				v, ok := AsNumber(newValue)
				if !ok || ctx.RelatedValues == nil {
					return Pass()
				}
				hierarchy := t.SizeHierarchy()
				current := -1
				for i, name := range hierarchy {
					if name == ctx.BubbleType {
						current = i
						break
					}
				}
				if current < 0 {
					return Pass()
				}
				for _, smaller := range hierarchy[:current] {
					if size, ok := ctx.Related(smaller, "size"); ok && v <= size {
						return Failf("%sバブルのサイズは%sバブル（%s）より大きくする必要があります",
							ctx.BubbleType, smaller, FormatNumber(size))
					}
				}
				for _, larger := range hierarchy[current+1:] {
					if size, ok := ctx.Related(larger, "size"); ok && v >= size {
						return Failf("%sバブルのサイズは%sバブル（%s）より小さくする必要があります",
							ctx.BubbleType, larger, FormatNumber(size))
					}
				}
				return Pass()
			},
		}},
		{"size_gradual_change", Options{
			Category:    CategoryBalanceImpact,
			Description: "サイズ値の急激な変更を防止",
			Severity:    SeverityMedium,
			AppliesTo:   sizeProperty,
			Check:       gradualChange(t, "size", "サイズ値"),
		}},
	}
}

func isTimeProperty(property string) bool {
	return property == "maxAge" || property == "duration" || containsSubstring(property, "Time")
}

func timeRules() []builtin {
	return []builtin{
		{"time_range", Options{
			Category:    CategoryValueRange,
			Description: "時間値の妥当な範囲をチェック",
			Severity:    SeverityMedium,
			AutoFix:     true,
			AppliesTo:   timeProperties,
			Check: func(_, newValue any, ctx *Context) any {
				ctx = orEmpty(ctx)
				if !isTimeProperty(ctx.PropertyType) {
					return Pass()
				}
				v, ok := AsNumber(newValue)
				if !ok {
					return Fail("時間値は数値である必要があります")
				}
				if v <= 0 {
					return Fail("時間値は正の数である必要があります")
				}
				if v > maxTimeMs {
					return Failf("時間値が長すぎます（%sms > %sms）", FormatNumber(v), FormatNumber(maxTimeMs))
				}
				if v < minTimeMs {
					return Failf("時間値が短すぎます（%sms < %sms）", FormatNumber(v), FormatNumber(minTimeMs))
				}
				return Pass()
			},
			AutoFixFn: func(_, newValue any, _ *Context) any {
				v, ok := AsNumber(newValue)
				if !ok {
					return newValue
				}
				return clamp(v, minTimeMs, maxTimeMs)
			},
		}},
		{"bubble_lifetime_balance", Options{
			Category:    CategoryBalanceImpact,
			Description: "バブル寿命のゲームバランスをチェック",
			Severity:    SeverityMedium,
			AppliesTo:   timeProperties,
			Check: func(_, newValue any, ctx *Context) any {
				ctx = orEmpty(ctx)
				if ctx.PropertyType != "maxAge" {
					return Pass()
				}
				v, ok := AsNumber(newValue)
				if !ok {
					return Pass()
				}
				ratio := v / stageTimeMs
				switch {
				case ratio > 0.8:
					return Failf("バブル寿命がステージ時間の%.1f%%です。ゲームの緊張感を損なう可能性があります", ratio*100)
				case ratio < 0.01:
					return Failf("バブル寿命が短すぎます（ステージ時間の%.1f%%）。プレイヤーが対応できない可能性があります", ratio*100)
				case ratio > 0.6:
					return Failf("バブル寿命がステージ時間の%.1f%%に近づいています。緊張感の低下に注意してください", ratio*100).
						WithSeverity(SeverityWarning)
				}
				return Pass()
			},
		}},
	}
}

func effectRules() []builtin {
	return []builtin{
		{"electric_effect_intensity", Options{
			Category:    CategoryBalanceImpact,
			Description: "電気効果の強度をチェック",
			Severity:    SeverityMedium,
			AutoFix:     true,
			AppliesTo:   Applicability{BubbleTypes: []string{"electric"}},
			Check: func(_, newValue any, ctx *Context) any {
				ctx = orEmpty(ctx)
				if ctx.BubbleType != "electric" || ctx.PropertyType != "intensity" {
					return Pass()
				}
				v, ok := AsNumber(newValue)
				if !ok {
					return Fail("電気効果の強度は数値である必要があります")
				}
				if v < 1 || v > 50 {
					return Failf("電気効果の強度は1〜50の範囲で設定してください（現在: %s）", FormatNumber(v))
				}
				if v > 30 {
					return Failf("電気効果の強度が高すぎます（%s）。プレイヤーの操作性に深刻な影響を与える可能性があります",
						FormatNumber(v)).WithSeverity(SeverityWarning)
				}
				return Pass()
			},
			AutoFixFn: func(_, newValue any, _ *Context) any {
				v, ok := AsNumber(newValue)
				if !ok {
					return newValue
				}
				return clamp(v, 1, 50)
			},
		}},
		{"rainbow_duration_balance", Options{
			Category:    CategoryBalanceImpact,
			Description: "Rainbow効果の持続時間バランスをチェック",
			Severity:    SeverityMedium,
			Check: func(_, newValue any, ctx *Context) any {
				ctx = orEmpty(ctx)
				if ctx.BubbleType != "rainbow" || ctx.PropertyType != "duration" {
					return Pass()
				}
				v, ok := AsNumber(newValue)
				if !ok {
					return Pass()
				}
				if v < 3000 {
					return Failf("Rainbow効果の持続時間が短すぎます（%sms）。最低3000ms推奨", FormatNumber(v))
				}
				if v > 15000 {
					return Failf("Rainbow効果の持続時間が長すぎます（%sms）。ゲームバランスを崩す可能性があります", FormatNumber(v))
				}
				return Pass()
			},
		}},
	}
}

const (
	maxParticleCount      = 100.0
	maxAnimationFrequency = 60.0
	minScoreHealthRatio   = 0.5
	maxScoreHealthRatio   = 10.0
)

func systemRules() []builtin {
	return []builtin{
		{"performance_impact", Options{
			Category:    CategoryPerformance,
			Description: "パフォーマンスへの影響をチェック",
			Severity:    SeverityLow,
			AutoFix:     true,
			Check: func(_, newValue any, ctx *Context) any {
				ctx = orEmpty(ctx)
				v, ok := AsNumber(newValue)
				if !ok {
					return Pass()
				}
				switch ctx.PropertyType {
				case "particleCount":
					if v > maxParticleCount {
						return Failf("パーティクル数が多すぎます（%s）。パフォーマンスに影響する可能性があります", FormatNumber(v))
					}
				case "animationFrequency":
					if v > maxAnimationFrequency {
						return Failf("アニメーション頻度が高すぎます（%sfps）。60fps以下を推奨", FormatNumber(v))
					}
				}
				return Pass()
			},
			AutoFixFn: func(_, newValue any, ctx *Context) any {
				v, ok := AsNumber(newValue)
				if !ok {
					return newValue
				}
				switch orEmpty(ctx).PropertyType {
				case "particleCount":
					return math.Min(v, maxParticleCount)
				case "animationFrequency":
					return math.Min(v, maxAnimationFrequency)
				}
				return newValue
			},
		}},
		{"configuration_consistency", Options{
			Category:    CategoryCompatibility,
			Description: "設定値間の整合性をチェック",
			Severity:    SeverityMedium,
			Check: func(_, newValue any, ctx *Context) any {
				ctx = orEmpty(ctx)
				if ctx.RelatedValues == nil || ctx.PropertyType != "health" {
					return Pass()
				}
				health, ok := AsNumber(newValue)
				if !ok || health <= 0 {
					return Pass()
				}
				score, ok := ctx.Related(ctx.BubbleType, "score")
				if !ok {
					score = health
				}
				ratio := score / health
				if ratio < minScoreHealthRatio {
					return Failf("体力に対してスコアが低すぎます（比率: %.2f）。バランス調整を推奨", ratio)
				}
				if ratio > maxScoreHealthRatio {
					return Failf("体力に対してスコアが高すぎます（比率: %.2f）。バランス調整を推奨", ratio)
				}
				return Pass()
			},
		}},
	}
}
