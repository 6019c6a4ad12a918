package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"pillar-backend/internal/domain"
	"pillar-backend/internal/metrics"
)

// Context request modes.
const (
	ModeAuto   = "auto"
	ModeManual = "manual"
)

// Publisher receives every result, e.g. to stream it to connected clients.
type Publisher interface {
	Publish(sessionID string, res domain.Result)
}

// Notifier is told about every result and decides on its own whether to alert.
type Notifier interface {
	Notify(ctx context.Context, res domain.Result)
}

// AnalysisRequest carries one snapshot. A nil Price uses the session's saved
// price and a nil Context resolves automatically.
type AnalysisRequest struct {
	SPY     domain.EMAPair
	Call    domain.EMAPair
	Put     domain.EMAPair
	Price   *float64
	Context ContextProvider
}

// NewContextProvider picks the strategy for a request. An empty mode means auto.
func NewContextProvider(mode, label string) (ContextProvider, error) {
	switch mode {
	case "", ModeAuto:
		return AutoContext{}, nil
	case ModeManual:
		kind, err := domain.ParseContextKind(label)
		if err != nil {
			return nil, err
		}
		return ManualContext{Kind: kind}, nil
	default:
		return nil, fmt.Errorf("%w: mode %q", domain.ErrUnknownContext, mode)
	}
}

// AnalysisService ties the session store to the engine and fans results out.
type AnalysisService struct {
	store     domain.PivotStore
	engine    *Engine
	publisher Publisher
	notifier  Notifier
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewAnalysisService wires the service. publisher and notifier may be nil.
func NewAnalysisService(store domain.PivotStore, engine *Engine, publisher Publisher, notifier Notifier, m *metrics.Metrics) *AnalysisService {
	return &AnalysisService{
		store:     store,
		engine:    engine,
		publisher: publisher,
		notifier:  notifier,
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Analyze evaluates a snapshot against the session's saved configuration.
func (s *AnalysisService) Analyze(ctx context.Context, sessionID string, req AnalysisRequest) (domain.Result, error) {
	cfg, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return domain.Result{}, err
	}

	snap := domain.IndicatorSnapshot{
		SPY:   req.SPY,
		Call:  req.Call,
		Put:   req.Put,
		Price: cfg.Price,
	}
	if req.Price != nil {
		snap.Price = *req.Price
	}
	if err := domain.ValidateSnapshot(snap); err != nil {
		return domain.Result{}, err
	}

	res := s.engine.Evaluate(cfg, snap, req.Context)
	res.ID = uuid.NewString()
	res.SessionID = sessionID
	res.EvaluatedAt = s.now()

	s.metrics.ObserveEvaluation(string(res.Recommendation), res.Context.Source, res.TotalScore)
	log.Info().
		Str("session", sessionID).
		Str("trend", string(res.Trend)).
		Float64("score", res.TotalScore).
		Str("recommendation", string(res.Recommendation)).
		Str("context", res.Context.Source).
		Msg("evaluation complete")

	if s.publisher != nil {
		s.publisher.Publish(sessionID, res)
	}
	if s.notifier != nil && res.Recommendation.IsActionable() {
		go s.notifier.Notify(context.WithoutCancel(ctx), res)
	}
	return res, nil
}
