package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pillar-backend/internal/domain"
)

func downtrendSnapshot() domain.IndicatorSnapshot {
	return domain.IndicatorSnapshot{
		SPY:   pair(530.87, 531.40),
		Call:  pair(6.27, 6.97),
		Put:   pair(1.78, 1.59),
		Price: 530.00,
	}
}

func TestEvaluate_PerfectUptrend(t *testing.T) {
	snap := domain.IndicatorSnapshot{
		SPY:   pair(531.5, 530.8),
		Call:  pair(7, 6),
		Put:   pair(1, 2),
		Price: 530,
	}

	res := NewEngine().Evaluate(defaultConfig(), snap, ManualContext{Kind: domain.ContextFavorableEntry})

	assert.Equal(t, domain.Uptrend, res.Trend)
	assert.Equal(t, 100.0, res.TotalScore)
	assert.Equal(t, domain.BuyCalls, res.Recommendation)
	assert.Equal(t, domain.ColorGreen, res.Color)

	require.Len(t, res.Details, 6)
	scores := make([]float64, 0, 6)
	for _, d := range res.Details {
		scores = append(scores, d.Score)
	}
	assert.Equal(t, []float64{25, 25, 15, 10, 10, 15}, scores)
	assert.Equal(t, CategoryTrend, res.Details[0].Category)
	assert.Equal(t, CategoryPivotZone, res.Details[5].Category)
}

func TestEvaluate_DowntrendManual(t *testing.T) {
	res := NewEngine().Evaluate(defaultConfig(), downtrendSnapshot(), ManualContext{Kind: domain.ContextFavorableEntry})

	assert.Equal(t, domain.Downtrend, res.Trend)
	assert.Equal(t, 100.0, res.TotalScore)
	assert.Equal(t, domain.BuyPuts, res.Recommendation)
	assert.Equal(t, domain.ColorRed, res.Color)
	assert.Equal(t, domain.ContextSourceManual, res.Context.Source)
}

func TestEvaluate_DowntrendAuto(t *testing.T) {
	res := NewEngine().Evaluate(defaultConfig(), downtrendSnapshot(), nil)

	assert.Equal(t, domain.ContextBounceZone, res.Context.Kind)
	assert.Equal(t, domain.ContextSourceAuto, res.Context.Source)
	assert.Equal(t, -5.0, res.Details[5].Score)
	assert.Equal(t, 80.0, res.TotalScore)
	assert.Equal(t, domain.WaitForConfirmation, res.Recommendation)
	assert.Equal(t, domain.ColorOrange, res.Color)
	assert.Equal(t, domain.LabelPivot, res.Nearest.Resistance.Label)
	assert.Equal(t, domain.LabelS1, res.Nearest.Support.Label)
}

func TestEvaluate_NeutralTrend(t *testing.T) {
	snap := domain.IndicatorSnapshot{
		SPY:   pair(530, 530),
		Call:  pair(7, 6),
		Put:   pair(1, 2),
		Price: 530,
	}

	res := NewEngine().Evaluate(defaultConfig(), snap, ManualContext{Kind: domain.ContextFavorableEntry})

	assert.Equal(t, domain.Neutral, res.Trend)
	// only the tight gap penalty applies, which clamps to zero
	assert.Equal(t, 0.0, res.TotalScore)
	assert.Equal(t, domain.NoTrade, res.Recommendation)
	assert.Equal(t, domain.ColorRed, res.Color)
	assert.Empty(t, res.Breakdown)
}

func TestEvaluate_ManualMatchesAuto(t *testing.T) {
	cfg := defaultConfig()
	snap := downtrendSnapshot()
	engine := NewEngine()

	auto := engine.Evaluate(cfg, snap, AutoContext{})
	manual := engine.Evaluate(cfg, snap, ManualContext{Kind: auto.Context.Kind})

	assert.Equal(t, auto.Details[5].Score, manual.Details[5].Score)
	assert.Equal(t, auto.TotalScore, manual.TotalScore)
	assert.Equal(t, auto.Recommendation, manual.Recommendation)
}

func TestEvaluate_DoesNotMutateConfig(t *testing.T) {
	cfg := defaultConfig()
	broken, err := domain.NewBrokenLevels(cfg.Levels, []string{domain.LabelR1})
	require.NoError(t, err)
	cfg.Broken = broken
	before := cfg.Clone()

	res := NewEngine().Evaluate(cfg, downtrendSnapshot(), nil)

	assert.Equal(t, domain.ContextBroken, res.Context.Kind)
	assert.Equal(t, before, cfg)
}

func TestEvaluate_Deterministic(t *testing.T) {
	engine := NewEngine()
	a := engine.Evaluate(defaultConfig(), downtrendSnapshot(), nil)
	b := engine.Evaluate(defaultConfig(), downtrendSnapshot(), nil)
	assert.Equal(t, a, b)
}

func TestTotalScore_Clamps(t *testing.T) {
	details := func(scores ...float64) []domain.ScoreDetail {
		out := make([]domain.ScoreDetail, 0, len(scores))
		for _, s := range scores {
			out = append(out, domain.ScoreDetail{Score: s})
		}
		return out
	}

	assert.Equal(t, 100.0, TotalScore(details(25, 25, 25, 25, 25, 15)))
	assert.Equal(t, 0.0, TotalScore(details(-10, -5, -5)))
	assert.Equal(t, 82.5, TotalScore(details(25, 25, 7.5, 10, 10, 5)))
}

func TestRecommend(t *testing.T) {
	tests := map[string]struct {
		total float64
		trend domain.Trend
		rec   domain.Recommendation
		color string
	}{
		"89-wait":           {total: 89, trend: domain.Uptrend, rec: domain.WaitForConfirmation, color: domain.ColorOrange},
		"90-calls":          {total: 90, trend: domain.Uptrend, rec: domain.BuyCalls, color: domain.ColorGreen},
		"90-puts":           {total: 90, trend: domain.Downtrend, rec: domain.BuyPuts, color: domain.ColorRed},
		"70-wait":           {total: 70, trend: domain.Downtrend, rec: domain.WaitForConfirmation, color: domain.ColorOrange},
		"69-no-trade":       {total: 69, trend: domain.Uptrend, rec: domain.NoTrade, color: domain.ColorRed},
		"65-no-middle-tier": {total: 65, trend: domain.Uptrend, rec: domain.NoTrade, color: domain.ColorRed},
		"95-neutral":        {total: 95, trend: domain.Neutral, rec: domain.NoTrade, color: domain.ColorOrange},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rec, color := Recommend(tt.total, tt.trend)
			assert.Equal(t, tt.rec, rec)
			assert.Equal(t, tt.color, color)
		})
	}
}
