package usecase

import (
	"pillar-backend/internal/domain"
)

// Score bounds and recommendation thresholds.
const (
	MinScore         = 0.0
	MaxScore         = 100.0
	ExecuteThreshold = 90.0
	ConfirmThreshold = 70.0
)

// Engine evaluates a snapshot against a pivot configuration.
// It holds no state and performs no I/O, so one Engine can serve any number of goroutines.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs the six rules and aggregates them into a Result.
// cfg is read only; the provider decides how the pivot context is obtained.
func (e *Engine) Evaluate(cfg domain.PivotConfig, snap domain.IndicatorSnapshot, provider ContextProvider) domain.Result {
	if provider == nil {
		provider = AutoContext{}
	}

	trend, trendScore, trendMsg := DetermineTrend(snap.SPY)
	confirmScore, confirmMsg := ScoreOptionConfirmation(trend, snap.Call, snap.Put)
	opposingScore, opposingMsg := ScoreOpposingOption(trend, snap.Call, snap.Put)
	gapScore, gapMsg := ScoreEMAGap(snap.SPY)
	alignScore, alignMsg := ScoreOptionAlignment(trend, snap.Call, snap.Put)

	nearest := FindNearestLevels(snap.Price, cfg.Levels)
	pivotCtx := provider.Resolve(trend, snap.Price, cfg, nearest)
	pivotScore, pivotMsg := ScorePivotZone(trend, pivotCtx.Kind)

	details := []domain.ScoreDetail{
		newDetail(CategoryTrend, trendScore, trendMsg),
		newDetail(CategoryOptionConfirmation, confirmScore, confirmMsg),
		newDetail(CategoryOpposingOption, opposingScore, opposingMsg),
		newDetail(CategoryEMAGap, gapScore, gapMsg),
		newDetail(CategoryOptionAlignment, alignScore, alignMsg),
		newDetail(CategoryPivotZone, pivotScore, pivotMsg),
	}

	total := TotalScore(details)
	rec, color := Recommend(total, trend)

	return domain.Result{
		Trend:          trend,
		TotalScore:     total,
		Recommendation: rec,
		Color:          color,
		Context:        pivotCtx,
		Nearest:        nearest,
		Price:          snap.Price,
		Details:        details,
		Breakdown:      Breakdown(details),
	}
}

// TotalScore sums the sub-scores and clamps the sum to [0, 100].
func TotalScore(details []domain.ScoreDetail) float64 {
	total := 0.0
	for _, d := range details {
		total += d.Score
	}
	if total > MaxScore {
		total = MaxScore
	}
	if total < MinScore {
		total = MinScore
	}
	return total
}

// Recommend maps a clamped total and trend to a recommendation and display colour.
// There are exactly three tiers: >=90, 70-89 and <70.
func Recommend(total float64, trend domain.Trend) (domain.Recommendation, string) {
	if total >= ExecuteThreshold {
		switch trend {
		case domain.Uptrend:
			return domain.BuyCalls, domain.ColorGreen
		case domain.Downtrend:
			return domain.BuyPuts, domain.ColorRed
		default:
			return domain.NoTrade, domain.ColorOrange
		}
	} else if total >= ConfirmThreshold {
		return domain.WaitForConfirmation, domain.ColorOrange
	}
	return domain.NoTrade, domain.ColorRed
}
