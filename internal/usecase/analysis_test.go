package usecase

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pillar-backend/internal/domain"
	"pillar-backend/internal/metrics"
	"pillar-backend/internal/repository"
)

type recordingPublisher struct {
	mu      sync.Mutex
	results map[string][]domain.Result
}

func (p *recordingPublisher) Publish(sessionID string, res domain.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.results == nil {
		p.results = make(map[string][]domain.Result)
	}
	p.results[sessionID] = append(p.results[sessionID], res)
}

type recordingNotifier struct {
	mu      sync.Mutex
	results []domain.Result
}

func (n *recordingNotifier) Notify(_ context.Context, res domain.Result) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, res)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.results)
}

type analysisFixture struct {
	sessions  *SessionService
	analysis  *AnalysisService
	publisher *recordingPublisher
	notifier  *recordingNotifier
	sessionID string
}

func newAnalysisFixture(t *testing.T) analysisFixture {
	t.Helper()
	store := repository.NewInMemoryPivotStore(0)
	m := metrics.New()
	pub := &recordingPublisher{}
	notifier := &recordingNotifier{}

	sessions := NewSessionService(store, domain.DefaultPivotLevels(), domain.DefaultPrice, m)
	cfg, err := sessions.Create(context.Background())
	require.NoError(t, err)

	return analysisFixture{
		sessions:  sessions,
		analysis:  NewAnalysisService(store, NewEngine(), pub, notifier, m),
		publisher: pub,
		notifier:  notifier,
		sessionID: cfg.SessionID,
	}
}

func downtrendRequest(provider ContextProvider) AnalysisRequest {
	snap := downtrendSnapshot()
	return AnalysisRequest{SPY: snap.SPY, Call: snap.Call, Put: snap.Put, Context: provider}
}

func TestAnalyze_UsesSavedPriceAndAutoContext(t *testing.T) {
	f := newAnalysisFixture(t)

	res, err := f.analysis.Analyze(context.Background(), f.sessionID, downtrendRequest(nil))
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, f.sessionID, res.SessionID)
	assert.False(t, res.EvaluatedAt.IsZero())
	assert.Equal(t, domain.DefaultPrice, res.Price)
	assert.Equal(t, domain.ContextSourceAuto, res.Context.Source)
	assert.Equal(t, 80.0, res.TotalScore)
	assert.Equal(t, domain.WaitForConfirmation, res.Recommendation)

	assert.Len(t, f.publisher.results[f.sessionID], 1)
	assert.Equal(t, 0, f.notifier.count())
}

func TestAnalyze_ManualActionableNotifies(t *testing.T) {
	f := newAnalysisFixture(t)

	res, err := f.analysis.Analyze(context.Background(), f.sessionID,
		downtrendRequest(ManualContext{Kind: domain.ContextFavorableEntry}))
	require.NoError(t, err)
	assert.Equal(t, domain.BuyPuts, res.Recommendation)

	require.Eventually(t, func() bool { return f.notifier.count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestAnalyze_PriceOverride(t *testing.T) {
	f := newAnalysisFixture(t)
	price := 545.0
	req := downtrendRequest(nil)
	req.Price = &price

	res, err := f.analysis.Analyze(context.Background(), f.sessionID, req)
	require.NoError(t, err)
	assert.Equal(t, 545.0, res.Price)
	assert.Equal(t, domain.ContextMidRange, res.Context.Kind)
}

func TestAnalyze_Errors(t *testing.T) {
	f := newAnalysisFixture(t)

	_, err := f.analysis.Analyze(context.Background(), "missing", downtrendRequest(nil))
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	req := downtrendRequest(nil)
	req.SPY.EMA8 = math.NaN()
	_, err = f.analysis.Analyze(context.Background(), f.sessionID, req)
	assert.ErrorIs(t, err, domain.ErrNonFinite)

	negative := -1.0
	req = downtrendRequest(nil)
	req.Price = &negative
	_, err = f.analysis.Analyze(context.Background(), f.sessionID, req)
	assert.ErrorIs(t, err, domain.ErrNonPositive)

	assert.Empty(t, f.publisher.results[f.sessionID])
}

func TestAnalyze_BrokenLevelsFromSession(t *testing.T) {
	f := newAnalysisFixture(t)
	ctx := context.Background()

	_, err := f.sessions.SavePivots(ctx, f.sessionID, SavePivotsRequest{
		Levels: domain.DefaultPivotLevels(),
		Price:  domain.DefaultPrice,
		Broken: &[]string{domain.LabelS1},
	})
	require.NoError(t, err)

	res, err := f.analysis.Analyze(ctx, f.sessionID, downtrendRequest(nil))
	require.NoError(t, err)
	assert.Equal(t, domain.ContextBroken, res.Context.Kind)
	assert.Equal(t, 100.0, res.TotalScore)
	assert.Equal(t, domain.BuyPuts, res.Recommendation)
}

func TestNewContextProvider(t *testing.T) {
	p, err := NewContextProvider("", "")
	require.NoError(t, err)
	assert.Equal(t, AutoContext{}, p)

	p, err = NewContextProvider(ModeManual, "Mid-range")
	require.NoError(t, err)
	assert.Equal(t, ManualContext{Kind: domain.ContextMidRange}, p)

	_, err = NewContextProvider(ModeManual, "mid-range")
	assert.ErrorIs(t, err, domain.ErrUnknownContext)

	_, err = NewContextProvider("guess", "")
	assert.ErrorIs(t, err, domain.ErrUnknownContext)
}

func TestAnalyzeSeries(t *testing.T) {
	f := newAnalysisFixture(t)

	rising := make([]float64, 30)
	falling := make([]float64, 30)
	for i := range rising {
		rising[i] = 520 + float64(i)*0.05
		falling[i] = 5 - float64(i)*0.1
	}

	res, err := f.analysis.AnalyzeSeries(context.Background(), f.sessionID, SeriesRequest{
		SPY:  rising,
		Call: rising,
		Put:  falling,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Uptrend, res.Trend)
	assert.Equal(t, 25.0, res.Details[1].Score)

	_, err = f.analysis.AnalyzeSeries(context.Background(), f.sessionID, SeriesRequest{
		SPY:  rising[:20],
		Call: rising,
		Put:  falling,
	})
	assert.ErrorIs(t, err, domain.ErrSeriesTooShort)
}
