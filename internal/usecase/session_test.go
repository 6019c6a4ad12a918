package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pillar-backend/internal/domain"
	"pillar-backend/internal/repository"
)

func newSessionService() *SessionService {
	store := repository.NewInMemoryPivotStore(0)
	return NewSessionService(store, domain.DefaultPivotLevels(), domain.DefaultPrice, nil)
}

func TestSessionService_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	svc := newSessionService()

	cfg, err := svc.Create(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.SessionID)
	assert.False(t, cfg.Initialized)
	assert.Equal(t, domain.DefaultPivotLevels(), cfg.Levels)

	got, err := svc.Get(ctx, cfg.SessionID)
	require.NoError(t, err)
	assert.Equal(t, cfg.SessionID, got.SessionID)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionService_SavePivots(t *testing.T) {
	ctx := context.Background()
	svc := newSessionService()
	cfg, err := svc.Create(ctx)
	require.NoError(t, err)

	levels := domain.PivotLevels{R3: 460, R2: 458, R1: 455, Pivot: 452, S1: 449, S2: 446, S3: 440}
	saved, err := svc.SavePivots(ctx, cfg.SessionID, SavePivotsRequest{
		Levels: levels,
		Price:  451,
		Broken: &[]string{domain.LabelR1},
	})
	require.NoError(t, err)
	assert.True(t, saved.Initialized)
	assert.Equal(t, []domain.BrokenLevel{{Label: domain.LabelR1, Price: 455}}, saved.Broken)

	got, err := svc.Get(ctx, cfg.SessionID)
	require.NoError(t, err)
	assert.Equal(t, levels, got.Levels)
	assert.Equal(t, 451.0, got.Price)
}

func TestSessionService_SavePivotsRejectsWithoutWriting(t *testing.T) {
	ctx := context.Background()
	svc := newSessionService()
	cfg, err := svc.Create(ctx)
	require.NoError(t, err)

	bad := domain.DefaultPivotLevels()
	bad.S1 = bad.Pivot + 1

	tests := map[string]struct {
		req  SavePivotsRequest
		want error
	}{
		"order":     {req: SavePivotsRequest{Levels: bad, Price: 530}, want: domain.ErrLevelOrder},
		"price":     {req: SavePivotsRequest{Levels: domain.DefaultPivotLevels(), Price: 0}, want: domain.ErrNonPositive},
		"unknown":   {req: SavePivotsRequest{Levels: domain.DefaultPivotLevels(), Price: 530, Broken: &[]string{"R4"}}, want: domain.ErrUnknownLevel},
		"duplicate": {req: SavePivotsRequest{Levels: domain.DefaultPivotLevels(), Price: 530, Broken: &[]string{"S1", "S1"}}, want: domain.ErrDuplicateBroken},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.SavePivots(ctx, cfg.SessionID, tt.req)
			assert.ErrorIs(t, err, tt.want)

			got, err := svc.Get(ctx, cfg.SessionID)
			require.NoError(t, err)
			assert.False(t, got.Initialized)
		})
	}

	_, err = svc.SavePivots(ctx, "missing", SavePivotsRequest{Levels: domain.DefaultPivotLevels(), Price: 530})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionService_SaveFromRange(t *testing.T) {
	ctx := context.Background()
	svc := newSessionService()
	cfg, err := svc.Create(ctx)
	require.NoError(t, err)

	saved, err := svc.SaveFromRange(ctx, cfg.SessionID, RangeRequest{High: 534, Low: 526, Close: 531})
	require.NoError(t, err)

	// pivot = (534 + 526 + 531) / 3 = 530.333...
	assert.Equal(t, 530.33, saved.Levels.Pivot)
	assert.Equal(t, 534.67, saved.Levels.R1)
	assert.Equal(t, 526.67, saved.Levels.S1)
	assert.Equal(t, 531.0, saved.Price)
	assert.NoError(t, domain.ValidateLevels(saved.Levels))

	_, err = svc.SaveFromRange(ctx, cfg.SessionID, RangeRequest{High: 520, Low: 526, Close: 521})
	assert.ErrorIs(t, err, domain.ErrInvalidRange)
}

func TestSessionService_Reset(t *testing.T) {
	ctx := context.Background()
	svc := newSessionService()
	cfg, err := svc.Create(ctx)
	require.NoError(t, err)

	_, err = svc.SavePivots(ctx, cfg.SessionID, SavePivotsRequest{
		Levels: domain.DefaultPivotLevels(),
		Price:  531,
		Broken: &[]string{domain.LabelS1, domain.LabelS2},
	})
	require.NoError(t, err)

	reset, err := svc.Reset(ctx, cfg.SessionID)
	require.NoError(t, err)
	assert.Empty(t, reset.Broken)
	assert.False(t, reset.Initialized)
	assert.Equal(t, domain.DefaultPrice, reset.Price)

	require.NoError(t, svc.End(ctx, cfg.SessionID))
	_, err = svc.Reset(ctx, cfg.SessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

type forgetRecorder struct {
	ids []string
}

func (f *forgetRecorder) Forget(sessionID string) {
	f.ids = append(f.ids, sessionID)
}

func TestSessionService_EndForgets(t *testing.T) {
	ctx := context.Background()
	svc := newSessionService()
	rec := &forgetRecorder{}
	svc.OnEnd(rec)

	cfg, err := svc.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.End(ctx, cfg.SessionID))
	assert.Equal(t, []string{cfg.SessionID}, rec.ids)

	assert.ErrorIs(t, svc.End(ctx, cfg.SessionID), domain.ErrSessionNotFound)
	assert.Len(t, rec.ids, 1)
}

func TestSessionService_SavePivotsKeepsBrokenWhenOmitted(t *testing.T) {
	ctx := context.Background()
	svc := newSessionService()
	cfg, err := svc.Create(ctx)
	require.NoError(t, err)

	_, err = svc.SavePivots(ctx, cfg.SessionID, SavePivotsRequest{
		Levels: domain.DefaultPivotLevels(),
		Price:  530,
		Broken: &[]string{domain.LabelR1, domain.LabelS2},
	})
	require.NoError(t, err)

	levels := domain.PivotLevels{R3: 460, R2: 458, R1: 455, Pivot: 452, S1: 449, S2: 446, S3: 440}
	saved, err := svc.SavePivots(ctx, cfg.SessionID, SavePivotsRequest{Levels: levels, Price: 451})
	require.NoError(t, err)
	assert.Equal(t, []domain.BrokenLevel{
		{Label: domain.LabelR1, Price: 455},
		{Label: domain.LabelS2, Price: 446},
	}, saved.Broken)

	cleared, err := svc.SavePivots(ctx, cfg.SessionID, SavePivotsRequest{Levels: levels, Price: 451, Broken: &[]string{}})
	require.NoError(t, err)
	assert.Empty(t, cleared.Broken)

	got, err := svc.Get(ctx, cfg.SessionID)
	require.NoError(t, err)
	assert.Empty(t, got.Broken)
}

func TestSessionService_SaveFromRangeKeepsBroken(t *testing.T) {
	ctx := context.Background()
	svc := newSessionService()
	cfg, err := svc.Create(ctx)
	require.NoError(t, err)

	_, err = svc.SavePivots(ctx, cfg.SessionID, SavePivotsRequest{
		Levels: domain.DefaultPivotLevels(),
		Price:  530,
		Broken: &[]string{domain.LabelS1},
	})
	require.NoError(t, err)

	saved, err := svc.SaveFromRange(ctx, cfg.SessionID, RangeRequest{High: 534, Low: 526, Close: 531})
	require.NoError(t, err)
	assert.Equal(t, []domain.BrokenLevel{{Label: domain.LabelS1, Price: 526.67}}, saved.Broken)
}

func TestSessionService_PurgeExpiredForgets(t *testing.T) {
	ctx := context.Background()
	store := repository.NewInMemoryPivotStore(10 * time.Millisecond)
	svc := NewSessionService(store, domain.DefaultPivotLevels(), domain.DefaultPrice, nil)
	devices := repository.NewDeviceRepository()
	rec := &forgetRecorder{}
	svc.OnEnd(devices, rec)

	cfg, err := svc.Create(ctx)
	require.NoError(t, err)
	devices.Register(cfg.SessionID, domain.Device{Token: "fcm-1"})

	require.Eventually(t, func() bool {
		n, err := svc.PurgeExpired(ctx)
		return err == nil && n == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{cfg.SessionID}, rec.ids)
	assert.Empty(t, devices.Tokens(cfg.SessionID))
	assert.Equal(t, 0, devices.Count())

	n, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSessionService_ConcurrentSavesKeepBroken(t *testing.T) {
	ctx := context.Background()
	svc := newSessionService()
	cfg, err := svc.Create(ctx)
	require.NoError(t, err)

	_, err = svc.SavePivots(ctx, cfg.SessionID, SavePivotsRequest{
		Levels: domain.DefaultPivotLevels(),
		Price:  530,
		Broken: &[]string{domain.LabelR1},
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.SavePivots(ctx, cfg.SessionID, SavePivotsRequest{
				Levels: domain.DefaultPivotLevels(),
				Price:  500 + float64(i),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := svc.Get(ctx, cfg.SessionID)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.LabelR1}, got.BrokenLabels())
}
