package rule

// Limits is an inclusive numeric range.
type Limits struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within the range.
func (l Limits) Contains(v float64) bool {
	return v >= l.Min && v <= l.Max
}

const (
	strictChangeThreshold  = 0.3
	defaultChangeThreshold = 0.5

	defaultNormalScore = 10.0
	minBubbleSize      = 10.0
	canvasSizeRatio    = 0.3
	minTimeMs          = 100.0
	maxTimeMs          = 600000.0
	stageTimeMs        = 300000.0
)

var (
	defaultCanvas = CanvasSize{Width: 800, Height: 600}

	fallbackHealthLimits = Limits{Min: 1, Max: 10}
	fallbackScoreLimits  = Limits{Min: 0, Max: 100}
)

// Tables holds the per-bubble-type balance data. Lookups never fail: unknown
// bubble types and properties get fallback values.
type Tables struct {
	health          map[string]Limits
	score           map[string]Limits
	scoreRatios     map[string]Limits
	strictTypes     map[string]bool
	changeModifiers map[string]float64
	sizeHierarchy   []string
}

// DefaultTables returns the game's shipped balance tables.
func DefaultTables() *Tables {
	return &Tables{
		health: map[string]Limits{
			"normal":     {1, 5},
			"stone":      {1, 8},
			"iron":       {2, 12},
			"diamond":    {3, 20},
			"rainbow":    {1, 3},
			"pink":       {1, 3},
			"clock":      {1, 3},
			"electric":   {1, 5},
			"poison":     {1, 5},
			"spiky":      {1, 8},
			"escaping":   {1, 5},
			"boss":       {5, 50},
			"golden":     {1, 10},
			"frozen":     {2, 15},
			"magnetic":   {1, 8},
			"explosive":  {1, 6},
			"phantom":    {1, 4},
			"multiplier": {1, 3},
		},
		score: map[string]Limits{
			"normal":     {0, 50},
			"stone":      {0, 100},
			"iron":       {0, 150},
			"diamond":    {0, 200},
			"rainbow":    {0, 300},
			"pink":       {0, 80},
			"clock":      {0, 100},
			"electric":   {0, 120},
			"poison":     {0, 60},
			"spiky":      {0, 100},
			"escaping":   {0, 80},
			"boss":       {0, 500},
			"golden":     {0, 400},
			"frozen":     {0, 120},
			"magnetic":   {0, 100},
			"explosive":  {0, 180},
			"phantom":    {0, 150},
			"multiplier": {0, 250},
		},
		scoreRatios: map[string]Limits{
			"normal":    {0.8, 1.2},
			"stone":     {1.2, 2.0},
			"iron":      {1.8, 3.0},
			"diamond":   {2.5, 4.0},
			"rainbow":   {3.0, 6.0},
			"boss":      {8.0, 15.0},
			"golden":    {5.0, 10.0},
			"explosive": {2.0, 4.0},
		},
		strictTypes: map[string]bool{
			"boss":     true,
			"rainbow":  true,
			"electric": true,
		},
		changeModifiers: map[string]float64{
			"health":    1.0,
			"score":     0.8,
			"size":      0.6,
			"maxAge":    1.2,
			"duration":  1.0,
			"intensity": 0.4,
		},
		sizeHierarchy: []string{
			"normal", "stone", "iron", "diamond", "rainbow",
			"golden", "explosive", "boss",
		},
	}
}

// HealthLimits returns the allowed health range, {1,10} for unknown types.
func (t *Tables) HealthLimits(bubbleType string) Limits {
	if l, ok := t.health[bubbleType]; ok {
		return l
	}
	return fallbackHealthLimits
}

// ScoreLimits returns the allowed score range, {0,100} for unknown types.
func (t *Tables) ScoreLimits(bubbleType string) Limits {
	if l, ok := t.score[bubbleType]; ok {
		return l
	}
	return fallbackScoreLimits
}

// ScoreRatioRange returns the expected score multiple of a normal bubble.
// Types without an expectation report false.
func (t *Tables) ScoreRatioRange(bubbleType string) (Limits, bool) {
	l, ok := t.scoreRatios[bubbleType]
	return l, ok
}

// ChangeThreshold returns the maximum relative change per adjustment step.
func (t *Tables) ChangeThreshold(bubbleType, property string) float64 {
	base := defaultChangeThreshold
	if t.strictTypes[bubbleType] {
		base = strictChangeThreshold
	}
	modifier, ok := t.changeModifiers[property]
	if !ok || modifier == 0 {
		modifier = 1.0
	}
	return base * modifier
}

// SizeHierarchy returns bubble types ordered from smallest to largest.
func (t *Tables) SizeHierarchy() []string {
	return append([]string(nil), t.sizeHierarchy...)
}

// SizeLimits returns the allowed size range for a canvas. A nil or empty
// canvas means 800x600.
func SizeLimits(canvas *CanvasSize) Limits {
	c := defaultCanvas
	if canvas != nil && canvas.Width > 0 && canvas.Height > 0 {
		c = *canvas
	}
	short := c.Width
	if c.Height < short {
		short = c.Height
	}
	return Limits{Min: minBubbleSize, Max: short * canvasSizeRatio}
}
