package usecase

import (
	"context"
	"fmt"

	"pillar-backend/internal/domain"
	"pillar-backend/internal/infrastructure/indicators"
)

// SeriesRequest carries close prices, oldest first, instead of precomputed EMAs.
type SeriesRequest struct {
	SPY     []float64
	Call    []float64
	Put     []float64
	Price   *float64
	Context ContextProvider
}

// EMAPairFromCloses computes the latest 8 and 21 period EMAs of a close series.
func EMAPairFromCloses(name string, closes []float64) (domain.EMAPair, error) {
	slow, ok := indicators.LastEMA(closes, indicators.SlowPeriod)
	if !ok {
		return domain.EMAPair{}, fmt.Errorf("%s: need %d closes, got %d: %w",
			name, indicators.SlowPeriod, len(closes), domain.ErrSeriesTooShort)
	}
	fast, _ := indicators.LastEMA(closes, indicators.FastPeriod)
	return domain.EMAPair{EMA8: fast, EMA21: slow}, nil
}

// AnalyzeSeries derives the three EMA pairs and evaluates them like Analyze.
func (s *AnalysisService) AnalyzeSeries(ctx context.Context, sessionID string, req SeriesRequest) (domain.Result, error) {
	spy, err := EMAPairFromCloses("spy", req.SPY)
	if err != nil {
		return domain.Result{}, err
	}
	call, err := EMAPairFromCloses("call", req.Call)
	if err != nil {
		return domain.Result{}, err
	}
	put, err := EMAPairFromCloses("put", req.Put)
	if err != nil {
		return domain.Result{}, err
	}

	return s.Analyze(ctx, sessionID, AnalysisRequest{
		SPY:     spy,
		Call:    call,
		Put:     put,
		Price:   req.Price,
		Context: req.Context,
	})
}
