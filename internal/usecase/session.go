package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"pillar-backend/internal/domain"
	"pillar-backend/internal/infrastructure/indicators"
	"pillar-backend/internal/metrics"
)

// SavePivotsRequest is the explicit save action of the setup step.
// A nil Broken keeps the stored broken labels, re-resolved against Levels.
type SavePivotsRequest struct {
	Levels domain.PivotLevels
	Price  float64
	Broken *[]string
}

// RangeRequest derives levels from the prior session's high, low and close.
// Price defaults to the close.
type RangeRequest struct {
	High   float64
	Low    float64
	Close  float64
	Price  *float64
	Broken *[]string
}

// SessionForgetter drops per-session state held outside the store.
type SessionForgetter interface {
	Forget(sessionID string)
}

// SessionService owns the lifecycle of per-session pivot configurations.
type SessionService struct {
	store      domain.PivotStore
	defaults   domain.PivotLevels
	price      float64
	metrics    *metrics.Metrics
	forgetters []SessionForgetter
	now        func() time.Time
}

func NewSessionService(store domain.PivotStore, defaults domain.PivotLevels, price float64, m *metrics.Metrics) *SessionService {
	return &SessionService{
		store:    store,
		defaults: defaults,
		price:    price,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create starts a session holding the default configuration.
func (s *SessionService) Create(ctx context.Context) (domain.PivotConfig, error) {
	cfg := domain.NewPivotConfig(uuid.NewString(), s.defaults, s.price)
	cfg.UpdatedAt = s.now()

	if err := s.store.Create(ctx, cfg); err != nil {
		return domain.PivotConfig{}, fmt.Errorf("create session: %w", err)
	}
	s.metrics.IncSessions()
	log.Info().Str("session", cfg.SessionID).Msg("session created")
	return cfg, nil
}

func (s *SessionService) Get(ctx context.Context, sessionID string) (domain.PivotConfig, error) {
	return s.store.Get(ctx, sessionID)
}

// SavePivots validates and stores levels, price and broken levels together.
// Nothing is written when any part is invalid. Broken levels are only
// replaced when the request carries them.
func (s *SessionService) SavePivots(ctx context.Context, sessionID string, req SavePivotsRequest) (domain.PivotConfig, error) {
	if err := domain.ValidateLevels(req.Levels); err != nil {
		return domain.PivotConfig{}, err
	}
	if err := domain.ValidatePrice("price", req.Price); err != nil {
		return domain.PivotConfig{}, err
	}
	if req.Broken != nil {
		if _, err := domain.NewBrokenLevels(req.Levels, *req.Broken); err != nil {
			return domain.PivotConfig{}, err
		}
	}

	cfg, err := s.store.Update(ctx, sessionID, func(cfg *domain.PivotConfig) error {
		labels := cfg.BrokenLabels()
		if req.Broken != nil {
			labels = *req.Broken
		}
		broken, err := domain.NewBrokenLevels(req.Levels, labels)
		if err != nil {
			return err
		}
		cfg.Levels = req.Levels
		cfg.Price = req.Price
		cfg.Broken = broken
		cfg.Initialized = true
		cfg.UpdatedAt = s.now()
		return nil
	})
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.PivotConfig{}, err
	}
	if err != nil {
		return domain.PivotConfig{}, fmt.Errorf("save pivots: %w", err)
	}
	log.Info().
		Str("session", sessionID).
		Float64("pivot", cfg.Levels.Pivot).
		Strs("broken", cfg.BrokenLabels()).
		Msg("pivot levels saved")
	return cfg, nil
}

// SaveFromRange computes floor pivots rounded to cents and saves them.
func (s *SessionService) SaveFromRange(ctx context.Context, sessionID string, req RangeRequest) (domain.PivotConfig, error) {
	fp, err := indicators.CalculatePivotPoints(req.High, req.Low, req.Close)
	if errors.Is(err, indicators.ErrInvalidRange) {
		return domain.PivotConfig{}, fmt.Errorf("high=%v low=%v close=%v: %w", req.High, req.Low, req.Close, domain.ErrInvalidRange)
	}
	if err != nil {
		return domain.PivotConfig{}, err
	}

	price := req.Close
	if req.Price != nil {
		price = *req.Price
	}

	return s.SavePivots(ctx, sessionID, SavePivotsRequest{
		Levels: domain.PivotLevels{
			R3:    roundCents(fp.R3),
			R2:    roundCents(fp.R2),
			R1:    roundCents(fp.R1),
			Pivot: roundCents(fp.Pivot),
			S1:    roundCents(fp.S1),
			S2:    roundCents(fp.S2),
			S3:    roundCents(fp.S3),
		},
		Price:  price,
		Broken: req.Broken,
	})
}

// Reset re-initializes the session to the defaults, clearing broken levels.
func (s *SessionService) Reset(ctx context.Context, sessionID string) (domain.PivotConfig, error) {
	cfg, err := s.store.Update(ctx, sessionID, func(cfg *domain.PivotConfig) error {
		*cfg = domain.NewPivotConfig(sessionID, s.defaults, s.price)
		cfg.UpdatedAt = s.now()
		return nil
	})
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.PivotConfig{}, err
	}
	if err != nil {
		return domain.PivotConfig{}, fmt.Errorf("reset session: %w", err)
	}
	log.Info().Str("session", sessionID).Msg("session reset to defaults")
	return cfg, nil
}

// OnEnd registers state holders to clear when a session ends.
func (s *SessionService) OnEnd(f ...SessionForgetter) {
	s.forgetters = append(s.forgetters, f...)
}

// End removes the session and everything registered against it.
func (s *SessionService) End(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.forget(sessionID)
	log.Info().Str("session", sessionID).Msg("session ended")
	return nil
}

// PurgeExpired asks an expiring store for the sessions it has dropped and
// clears their state from every forgetter. Stores without expiry are a no-op.
func (s *SessionService) PurgeExpired(ctx context.Context) (int, error) {
	es, ok := s.store.(domain.ExpiringStore)
	if !ok {
		return 0, nil
	}
	ids, err := es.PurgeExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	for _, id := range ids {
		s.forget(id)
	}
	if len(ids) > 0 {
		log.Info().Int("removed", len(ids)).Msg("expired sessions purged")
	}
	return len(ids), nil
}

func (s *SessionService) forget(sessionID string) {
	for _, f := range s.forgetters {
		f.Forget(sessionID)
	}
}

func roundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
