package indicators

import (
	"errors"
	"math"
)

var ErrInvalidRange = errors.New("high/low/close must be finite with low <= close <= high and high > low")

// FloorPivots are the classic daily pivot levels.
type FloorPivots struct {
	R3    float64
	R2    float64
	R1    float64
	Pivot float64
	S1    float64
	S2    float64
	S3    float64
}

// CalculatePivotPoints derives floor pivots from the prior session's high, low and close.
func CalculatePivotPoints(high, low, close float64) (FloorPivots, error) {
	for _, v := range []float64{high, low, close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return FloorPivots{}, ErrInvalidRange
		}
	}
	if high <= low || close < low || close > high {
		return FloorPivots{}, ErrInvalidRange
	}

	p := (high + low + close) / 3
	rng := high - low

	return FloorPivots{
		R3:    high + 2*(p-low),
		R2:    p + rng,
		R1:    2*p - low,
		Pivot: p,
		S1:    2*p - high,
		S2:    p - rng,
		S3:    low - 2*(high-p),
	}, nil
}
