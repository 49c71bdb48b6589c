package rule

import (
	"encoding/json"
	"reflect"
	"sort"
)

// CanvasSize is the play-field size used by size checks.
type CanvasSize struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Context describes one proposed change. Rules treat it as read-only.
type Context struct {
	BubbleType   string `json:"bubble_type"`
	PropertyType string `json:"property_type"`

	// RelatedValues holds the current values of other bubble types, keyed by
	// bubble type then property, e.g. RelatedValues["normal"]["health"].
	RelatedValues map[string]map[string]float64 `json:"related_values,omitempty"`

	CanvasSize       *CanvasSize `json:"canvas_size,omitempty"`
	CheckPerformance bool        `json:"check_performance"`

	// Extra carries caller-specific data. Only JSON-encodable values survive
	// Sanitize, at any nesting depth.
	Extra map[string]any `json:"extra,omitempty"`
}

// Related returns a non-zero related value.
func (c *Context) Related(bubbleType, property string) (float64, bool) {
	if c == nil || c.RelatedValues == nil {
		return 0, false
	}
	v, ok := c.RelatedValues[bubbleType][property]
	if !ok || v == 0 {
		return 0, false
	}
	return v, true
}

// Sanitize returns a storable copy: extras that cannot be encoded as JSON
// (funcs, channels, and anything holding them) are removed, and RelatedValues
// keeps at most maxRelated bubble types (lexical order).
func (c *Context) Sanitize(maxRelated int) Context {
	if c == nil {
		return Context{}
	}

	out := Context{
		BubbleType:       c.BubbleType,
		PropertyType:     c.PropertyType,
		CheckPerformance: c.CheckPerformance,
	}

	if c.CanvasSize != nil {
		canvas := *c.CanvasSize
		out.CanvasSize = &canvas
	}

	if len(c.RelatedValues) > 0 {
		keys := make([]string, 0, len(c.RelatedValues))
		for k := range c.RelatedValues {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if maxRelated >= 0 && len(keys) > maxRelated {
			keys = keys[:maxRelated]
		}

		out.RelatedValues = make(map[string]map[string]float64, len(keys))
		for _, k := range keys {
			props := make(map[string]float64, len(c.RelatedValues[k]))
			for p, v := range c.RelatedValues[k] {
				props[p] = v
			}
			out.RelatedValues[k] = props
		}
	}

	if extra := storableMap(c.Extra); len(extra) > 0 {
		out.Extra = extra
	}

	return out
}

func storableMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		if kept, ok := storable(v); ok {
			out[k] = kept
		}
	}
	return out
}

// storable copies v with unencodable members dropped. It reports false when v
// itself cannot be stored.
func storable(v any) (any, bool) {
	switch val := v.(type) {
	case nil:
		return nil, true
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if kept, ok := storable(item); ok {
				out[k] = kept
			}
		}
		return out, true
	case []any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			if kept, ok := storable(item); ok {
				out = append(out, kept)
			}
		}
		return out, true
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return nil, false
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v, true
	}

	// Floats (NaN, Inf), typed containers and structs are kept only when they encode.
	if _, err := json.Marshal(v); err != nil {
		return nil, false
	}
	return v, true
}

// Applicability restricts a rule to matching contexts. An empty Applicability
// matches every context.
type Applicability struct {
	BubbleTypes      []string `json:"bubble_types,omitempty"`
	PropertyTypes    []string `json:"property_types,omitempty"`
	PropertyContains []string `json:"property_contains,omitempty"`
}

// IsZero reports whether no restriction is set.
func (a Applicability) IsZero() bool {
	return len(a.BubbleTypes) == 0 && len(a.PropertyTypes) == 0 && len(a.PropertyContains) == 0
}

// Matches reports whether ctx satisfies both the bubble and property restrictions.
func (a Applicability) Matches(ctx *Context) bool {
	if a.IsZero() {
		return true
	}

	var bubbleType, propertyType string
	if ctx != nil {
		bubbleType, propertyType = ctx.BubbleType, ctx.PropertyType
	}

	if len(a.BubbleTypes) > 0 && !contains(a.BubbleTypes, bubbleType) {
		return false
	}

	if len(a.PropertyTypes) == 0 && len(a.PropertyContains) == 0 {
		return true
	}
	if contains(a.PropertyTypes, propertyType) {
		return true
	}
	for _, fragment := range a.PropertyContains {
		if fragment != "" && propertyType != "" && containsSubstring(propertyType, fragment) {
			return true
		}
	}
	return false
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
