package domain

import (
	"math"
	"time"
)

// Trend is the directional classification of the underlying.
type Trend string

const (
	Uptrend   Trend = "UPTREND"
	Downtrend Trend = "DOWNTREND"
	Neutral   Trend = "NEUTRAL"
)

// Direction is the slope of a single 8/21 EMA pair on its own.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
	DirectionFlat Direction = "NEUTRAL"
)

// Recommendation is the discrete trade decision.
type Recommendation string

const (
	BuyCalls            Recommendation = "BUY CALLS"
	BuyPuts             Recommendation = "BUY PUTS"
	WaitForConfirmation Recommendation = "WAIT FOR CONFIRMATION"
	NoTrade             Recommendation = "NO TRADE"
)

// IsActionable reports whether the recommendation is an entry.
func (r Recommendation) IsActionable() bool {
	return r == BuyCalls || r == BuyPuts
}

// Display colours for recommendations and detail rows.
const (
	ColorGreen  = "green"
	ColorRed    = "red"
	ColorOrange = "orange"

	TonePositive = "positive"
	ToneNegative = "negative"
	ToneNeutral  = "neutral"
)

// EMAPair is an 8-period and 21-period EMA of one instrument.
type EMAPair struct {
	EMA8  float64 `json:"ema8"`
	EMA21 float64 `json:"ema21"`
}

// Direction compares the pair with exact equality, no tolerance band.
func (p EMAPair) Direction() Direction {
	switch {
	case p.EMA8 > p.EMA21:
		return DirectionUp
	case p.EMA8 < p.EMA21:
		return DirectionDown
	default:
		return DirectionFlat
	}
}

// Gap is the absolute spread between the two averages.
func (p EMAPair) Gap() float64 {
	return math.Abs(p.EMA8 - p.EMA21)
}

// IndicatorSnapshot is the per-evaluation input. It is never persisted.
type IndicatorSnapshot struct {
	SPY   EMAPair `json:"spy"`
	Call  EMAPair `json:"call"`
	Put   EMAPair `json:"put"`
	Price float64 `json:"price"`
}

// ScoreDetail is one rule's contribution. Weight is informational only.
type ScoreDetail struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
	Message  string  `json:"message"`
	Weight   string  `json:"weight"`
	Tone     string  `json:"tone"`
}

// Contribution is a positive share of the total, used for breakdown charts.
type Contribution struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
	Share    float64 `json:"share"` // percent of the positive total
}

// Result is the outcome of one evaluation.
type Result struct {
	ID             string         `json:"id,omitempty"`
	SessionID      string         `json:"sessionId,omitempty"`
	Trend          Trend          `json:"trend"`
	TotalScore     float64        `json:"totalScore"`
	Recommendation Recommendation `json:"recommendation"`
	Color          string         `json:"color"`
	Context        PivotContext   `json:"context"`
	Nearest        NearestLevels  `json:"nearest"`
	Price          float64        `json:"price"`
	Details        []ScoreDetail  `json:"details"`
	Breakdown      []Contribution `json:"breakdown"`
	EvaluatedAt    time.Time      `json:"evaluatedAt"`
}
