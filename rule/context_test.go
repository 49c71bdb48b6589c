package rule

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_Sanitize(t *testing.T) {
	related := make(map[string]map[string]float64)
	for i := 0; i < 30; i++ {
		related[fmt.Sprintf("type%02d", i)] = map[string]float64{"size": float64(i)}
	}
	ctx := &Context{
		BubbleType:    "normal",
		PropertyType:  "size",
		RelatedValues: related,
		CanvasSize:    &CanvasSize{Width: 100, Height: 50},
		Extra: map[string]any{
			"callback": func() {},
			"note":     "kept",
		},
	}

	clean := ctx.Sanitize(20)

	assert.Len(t, clean.RelatedValues, 20)
	assert.Contains(t, clean.RelatedValues, "type00")
	assert.NotContains(t, clean.RelatedValues, "type20")
	assert.Equal(t, map[string]any{"note": "kept"}, clean.Extra)

	clean.RelatedValues["type00"]["size"] = 99
	clean.CanvasSize.Width = 1
	assert.Equal(t, float64(0), related["type00"]["size"])
	assert.Equal(t, float64(100), ctx.CanvasSize.Width)

	_, err := json.Marshal(clean)
	require.NoError(t, err)

	var nilCtx *Context
	assert.Equal(t, Context{}, nilCtx.Sanitize(10))
}

func TestContext_Related(t *testing.T) {
	ctx := &Context{RelatedValues: map[string]map[string]float64{
		"normal": {"health": 2, "score": 0},
	}}

	v, ok := ctx.Related("normal", "health")
	assert.True(t, ok)
	assert.Equal(t, float64(2), v)

	_, ok = ctx.Related("normal", "score")
	assert.False(t, ok)
	_, ok = ctx.Related("boss", "health")
	assert.False(t, ok)

	var nilCtx *Context
	_, ok = nilCtx.Related("normal", "health")
	assert.False(t, ok)
}

func TestApplicability_Matches(t *testing.T) {
	tests := []struct {
		name    string
		applies Applicability
		ctx     *Context
		want    bool
	}{
		{"empty matches all", Applicability{}, &Context{BubbleType: "x", PropertyType: "y"}, true},
		{"empty matches nil", Applicability{}, nil, true},
		{"bubble match", Applicability{BubbleTypes: []string{"boss"}}, &Context{BubbleType: "boss", PropertyType: "score"}, true},
		{"bubble mismatch", Applicability{BubbleTypes: []string{"boss"}}, &Context{BubbleType: "normal"}, false},
		{"property match", healthProperty, &Context{BubbleType: "normal", PropertyType: "health"}, true},
		{"property mismatch", healthProperty, &Context{BubbleType: "normal", PropertyType: "score"}, false},
		{"both required", Applicability{BubbleTypes: []string{"boss"}, PropertyTypes: []string{"health"}},
			&Context{BubbleType: "boss", PropertyType: "score"}, false},
		{"contains fragment", timeProperties, &Context{PropertyType: "spawnTime"}, true},
		{"exact time property", timeProperties, &Context{PropertyType: "duration"}, true},
		{"no time property", timeProperties, &Context{PropertyType: "size"}, false},
		{"nil context restricted", healthProperty, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.applies.Matches(tt.ctx))
		})
	}
}

func TestAsNumber(t *testing.T) {
	for _, v := range []any{1, int64(2), uint8(3), float32(1.5), 2.5, json.Number("4")} {
		_, ok := AsNumber(v)
		assert.True(t, ok, "%T", v)
	}
	for _, v := range []any{"1", nil, true, []int{1}} {
		_, ok := AsNumber(v)
		assert.False(t, ok, "%T", v)
	}
	assert.Equal(t, "0.1", FormatNumber(0.1))
	assert.Equal(t, "180", FormatNumber(180))
	assert.Equal(t, "null", FormatValue(nil))
	assert.Equal(t, "abc", FormatValue("abc"))
}

func TestContext_SanitizeDropsNestedUnencodable(t *testing.T) {
	type withChan struct {
		Name string
		Ch   chan int
	}
	ctx := &Context{
		Extra: map[string]any{
			"ch":     make(chan int),
			"nan":    math.NaN(),
			"struct": withChan{Name: "x", Ch: make(chan int)},
			"nested": map[string]any{
				"fn": func() {},
				"ok": 1,
				"deeper": map[string]any{
					"ch":   make(chan struct{}),
					"keep": "yes",
				},
			},
			"list":   []any{1, func() {}, "two", make(chan int)},
			"labels": map[string]string{"tier": "boss"},
		},
	}

	clean := ctx.Sanitize(20)

	assert.Equal(t, map[string]any{
		"nested": map[string]any{
			"ok":     1,
			"deeper": map[string]any{"keep": "yes"},
		},
		"list":   []any{1, "two"},
		"labels": map[string]string{"tier": "boss"},
	}, clean.Extra)

	_, err := json.Marshal(clean)
	require.NoError(t, err)

	// The caller's maps are left untouched.
	assert.Contains(t, ctx.Extra, "ch")
	assert.Contains(t, ctx.Extra["nested"].(map[string]any), "fn")
}
