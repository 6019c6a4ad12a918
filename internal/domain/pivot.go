package domain

import "time"

// Level labels, in the fixed R3..S3 order used for lookups and display.
const (
	LabelR3    = "R3"
	LabelR2    = "R2"
	LabelR1    = "R1"
	LabelPivot = "Pivot"
	LabelS1    = "S1"
	LabelS2    = "S2"
	LabelS3    = "S3"

	// LabelNone marks a synthesized level when nothing lies on that side of price.
	LabelNone = "None"
)

// LevelLabels lists the seven pivot labels from highest to lowest.
var LevelLabels = []string{LabelR3, LabelR2, LabelR1, LabelPivot, LabelS1, LabelS2, LabelS3}

// Default session values used until the user saves their own levels.
const (
	DefaultR3    = 535.00
	DefaultR2    = 533.50
	DefaultR1    = 532.00
	DefaultPivot = 530.50
	DefaultS1    = 529.47
	DefaultS2    = 528.38
	DefaultS3    = 527.00
	DefaultPrice = 530.00
)

// PivotLevels holds the daily support/resistance reference prices.
// Expected order is R3 > R2 > R1 > Pivot > S1 > S2 > S3.
type PivotLevels struct {
	R3    float64 `json:"r3" yaml:"r3"`
	R2    float64 `json:"r2" yaml:"r2"`
	R1    float64 `json:"r1" yaml:"r1"`
	Pivot float64 `json:"pivot" yaml:"pivot"`
	S1    float64 `json:"s1" yaml:"s1"`
	S2    float64 `json:"s2" yaml:"s2"`
	S3    float64 `json:"s3" yaml:"s3"`
}

// Level is a single labelled price.
type Level struct {
	Label string  `json:"label"`
	Price float64 `json:"price"`
}

// DefaultPivotLevels returns the levels a fresh session starts with.
func DefaultPivotLevels() PivotLevels {
	return PivotLevels{
		R3:    DefaultR3,
		R2:    DefaultR2,
		R1:    DefaultR1,
		Pivot: DefaultPivot,
		S1:    DefaultS1,
		S2:    DefaultS2,
		S3:    DefaultS3,
	}
}

// Levels returns the seven levels in R3..S3 order.
func (p PivotLevels) Levels() []Level {
	return []Level{
		{Label: LabelR3, Price: p.R3},
		{Label: LabelR2, Price: p.R2},
		{Label: LabelR1, Price: p.R1},
		{Label: LabelPivot, Price: p.Pivot},
		{Label: LabelS1, Price: p.S1},
		{Label: LabelS2, Price: p.S2},
		{Label: LabelS3, Price: p.S3},
	}
}

// PriceOf returns the price of the level with the given label.
func (p PivotLevels) PriceOf(label string) (float64, bool) {
	for _, l := range p.Levels() {
		if l.Label == label {
			return l.Price, true
		}
	}
	return 0, false
}

// BrokenLevel marks a pivot level treated as breached by price action.
type BrokenLevel struct {
	Label string  `json:"label"`
	Price float64 `json:"price"`
}

// NearestLevels is the closest resistance above and support below a price.
type NearestLevels struct {
	Resistance Level `json:"resistance"`
	Support    Level `json:"support"`
}

// PivotConfig is the session-owned configuration read by the engine.
// The engine receives it by value and never writes to it.
type PivotConfig struct {
	SessionID   string        `json:"sessionId"`
	Levels      PivotLevels   `json:"levels"`
	Price       float64       `json:"price"`
	Broken      []BrokenLevel `json:"broken"`
	Initialized bool          `json:"initialized"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// NewPivotConfig creates an uninitialized configuration holding the defaults.
func NewPivotConfig(sessionID string, levels PivotLevels, price float64) PivotConfig {
	return PivotConfig{
		SessionID: sessionID,
		Levels:    levels,
		Price:     price,
		Broken:    []BrokenLevel{},
		UpdatedAt: time.Now().UTC(),
	}
}

// Clone returns a copy that shares no memory with c.
func (c PivotConfig) Clone() PivotConfig {
	out := c
	out.Broken = make([]BrokenLevel, len(c.Broken))
	copy(out.Broken, c.Broken)
	return out
}

// BrokenLabels returns the labels of the broken levels in stored order.
func (c PivotConfig) BrokenLabels() []string {
	labels := make([]string, 0, len(c.Broken))
	for _, b := range c.Broken {
		labels = append(labels, b.Label)
	}
	return labels
}
