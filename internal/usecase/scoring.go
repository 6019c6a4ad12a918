package usecase

import (
	"fmt"

	"pillar-backend/internal/domain"
)

// Rule categories in display order. Weights are informational; the score
// ranges of each rule already encode them.
const (
	CategoryTrend              = "1. SPY EMA Trend"
	CategoryOptionConfirmation = "2. Option Chart Confirmation"
	CategoryOpposingOption     = "3. Opposing Option Divergence"
	CategoryEMAGap             = "4. EMA Gap Size"
	CategoryOptionAlignment    = "5. Option Trend Alignment"
	CategoryPivotZone          = "6. Pivot Zone Context"
)

var categoryWeights = map[string]string{
	CategoryTrend:              "25%",
	CategoryOptionConfirmation: "25%",
	CategoryOpposingOption:     "15%",
	CategoryEMAGap:             "10%",
	CategoryOptionAlignment:    "10%",
	CategoryPivotZone:          "15%",
}

// EMA gap window in index points, inclusive on both ends.
const (
	IdealGapMin = 0.5
	IdealGapMax = 1.0
)

// DetermineTrend classifies SPY from its 8/21 EMAs. Equality is NEUTRAL, with no tolerance.
func DetermineTrend(spy domain.EMAPair) (domain.Trend, float64, string) {
	switch spy.Direction() {
	case domain.DirectionUp:
		return domain.Uptrend, 25, "Uptrend detected (8 EMA > 21 EMA)"
	case domain.DirectionDown:
		return domain.Downtrend, 25, "Downtrend detected (8 EMA < 21 EMA)"
	default:
		return domain.Neutral, 0, "Neutral trend (8 EMA = 21 EMA)"
	}
}

func alignedMessage(side string, aligned bool) string {
	if aligned {
		return side + " chart aligned ✓"
	}
	return side + " chart not aligned ✗"
}

// ScoreOptionConfirmation checks the CALL and PUT charts agree with the trend.
// Partial credit only goes to the side being traded: CALL in an uptrend, PUT in a downtrend.
func ScoreOptionConfirmation(trend domain.Trend, call, put domain.EMAPair) (float64, string) {
	switch trend {
	case domain.Uptrend:
		callAligned := call.EMA8 > call.EMA21
		putAligned := put.EMA8 < put.EMA21
		callMsg := alignedMessage("CALL", callAligned)
		putMsg := alignedMessage("PUT", putAligned)

		if callAligned && putAligned {
			return 25, fmt.Sprintf("%s, %s - Perfect alignment for UPTREND", callMsg, putMsg)
		} else if callAligned {
			return 15, fmt.Sprintf("%s, %s - Partial alignment for UPTREND", callMsg, putMsg)
		}
		return 0, fmt.Sprintf("%s, %s - Poor alignment for UPTREND", callMsg, putMsg)

	case domain.Downtrend:
		callAligned := call.EMA8 < call.EMA21
		putAligned := put.EMA8 > put.EMA21
		callMsg := alignedMessage("CALL", callAligned)
		putMsg := alignedMessage("PUT", putAligned)

		if callAligned && putAligned {
			return 25, fmt.Sprintf("%s, %s - Perfect alignment for DOWNTREND", callMsg, putMsg)
		} else if putAligned {
			return 15, fmt.Sprintf("%s, %s - Partial alignment for DOWNTREND", putMsg, callMsg)
		}
		return 0, fmt.Sprintf("%s, %s - Poor alignment for DOWNTREND", callMsg, putMsg)
	}

	return 0, "Neutral SPY trend - Option chart alignment not applicable"
}

// ScoreOpposingOption checks the side not being traded is weakening.
func ScoreOpposingOption(trend domain.Trend, call, put domain.EMAPair) (float64, string) {
	switch trend {
	case domain.Uptrend:
		if put.EMA8 < put.EMA21 {
			return 15, "PUT options weak as expected in uptrend ✓"
		} else if put.EMA8 == put.EMA21 {
			return 7.5, "PUT options neutral in uptrend (partial credit) ⚠️"
		}
		return 0, "PUT options strong in uptrend (contradicting signal) ✗"

	case domain.Downtrend:
		if call.EMA8 < call.EMA21 {
			return 15, "CALL options weak as expected in downtrend ✓"
		} else if call.EMA8 == call.EMA21 {
			return 7.5, "CALL options neutral in downtrend (partial credit) ⚠️"
		}
		return 0, "CALL options strong in downtrend (contradicting signal) ✗"
	}

	return 0, "Neutral SPY trend - Opposing option analysis not applicable"
}

// ScoreEMAGap rewards a moderate SPY EMA spread and penalizes tight or stretched ones.
func ScoreEMAGap(spy domain.EMAPair) (float64, string) {
	gap := spy.Gap()

	if gap >= IdealGapMin && gap <= IdealGapMax {
		return 10, fmt.Sprintf("Ideal EMA gap: %.2f points ✓", gap)
	} else if gap > IdealGapMax {
		return -10, fmt.Sprintf("Overextended EMA gap: %.2f points ✗", gap)
	}
	return -5, fmt.Sprintf("Too tight EMA gap: %.2f points ⚠️", gap)
}

// ScoreOptionAlignment is a coarser cross-check: each option leg is
// classified on its own and compared with the expected direction.
func ScoreOptionAlignment(trend domain.Trend, call, put domain.EMAPair) (float64, string) {
	callDir := call.Direction()
	putDir := put.Direction()

	switch trend {
	case domain.Uptrend:
		if callDir == domain.DirectionUp && putDir == domain.DirectionDown {
			return 10, "Both options perfectly aligned with SPY uptrend ✓"
		} else if callDir == domain.DirectionUp || putDir == domain.DirectionDown {
			return 5, "One option aligned with SPY uptrend, one diverging ⚠️"
		}
		return 0, "Neither option aligned with SPY uptrend ✗"

	case domain.Downtrend:
		if callDir == domain.DirectionDown && putDir == domain.DirectionUp {
			return 10, "Both options perfectly aligned with SPY downtrend ✓"
		} else if callDir == domain.DirectionDown || putDir == domain.DirectionUp {
			return 5, "One option aligned with SPY downtrend, one diverging ⚠️"
		}
		return 0, "Neither option aligned with SPY downtrend ✗"
	}

	return 0, "Neutral SPY trend - Option trend alignment not applicable"
}

// ScorePivotZone scores a resolved pivot context. Manual and auto-detected
// contexts share this table, so the same kind always scores the same.
func ScorePivotZone(trend domain.Trend, kind domain.ContextKind) (float64, string) {
	if trend == domain.Neutral {
		return 0, "Neutral SPY trend - Pivot zone analysis not applicable"
	}

	up := trend == domain.Uptrend
	switch kind {
	case domain.ContextFavorableEntry:
		if up {
			return 15, "CALLs near support - favorable entry point ✓"
		}
		return 15, "PUTs near resistance - favorable entry point ✓"
	case domain.ContextBroken:
		if up {
			return 15, "Broken resistance - favorable for continuation ✓"
		}
		return 15, "Broken support - favorable for continuation ✓"
	case domain.ContextMidRange:
		return 7.5, "Price in mid-range - moderately favorable ⚠️"
	case domain.ContextBounceZone:
		return -5, "Price near potential reversal level - unfavorable ✗"
	}

	return 0, "Pivot zone context unavailable"
}

func newDetail(category string, score float64, message string) domain.ScoreDetail {
	tone := domain.ToneNeutral
	if score > 0 {
		tone = domain.TonePositive
	} else if score < 0 {
		tone = domain.ToneNegative
	}
	return domain.ScoreDetail{
		Category: category,
		Score:    score,
		Message:  message,
		Weight:   categoryWeights[category],
		Tone:     tone,
	}
}
