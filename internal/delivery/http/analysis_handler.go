package http

import (
	"context"
	"fmt"
	"net/http"

	"pillar-backend/internal/domain"
	"pillar-backend/internal/usecase"
)

// Analyzer is the analysis service surface the handlers need.
type Analyzer interface {
	Analyze(ctx context.Context, sessionID string, req usecase.AnalysisRequest) (domain.Result, error)
	AnalyzeSeries(ctx context.Context, sessionID string, req usecase.SeriesRequest) (domain.Result, error)
}

type AnalysisHandler struct {
	analyzer Analyzer
}

func NewAnalysisHandler(analyzer Analyzer) *AnalysisHandler {
	return &AnalysisHandler{analyzer: analyzer}
}

type emaPairRequest struct {
	EMA8  *float64 `json:"ema8"`
	EMA21 *float64 `json:"ema21"`
}

func (p emaPairRequest) pair(name string) (domain.EMAPair, error) {
	if p.EMA8 == nil || p.EMA21 == nil {
		return domain.EMAPair{}, fmt.Errorf("%s: ema8 and ema21: %w", name, domain.ErrMissingValue)
	}
	return domain.EMAPair{EMA8: *p.EMA8, EMA21: *p.EMA21}, nil
}

type contextRequest struct {
	Mode  string `json:"mode"`
	Label string `json:"label,omitempty"`
}

func (c *contextRequest) provider() (usecase.ContextProvider, error) {
	if c == nil {
		return usecase.AutoContext{}, nil
	}
	return usecase.NewContextProvider(c.Mode, c.Label)
}

type analysisRequest struct {
	SPY     emaPairRequest  `json:"spy"`
	Call    emaPairRequest  `json:"call"`
	Put     emaPairRequest  `json:"put"`
	Price   *float64        `json:"price,omitempty"`
	Context *contextRequest `json:"context,omitempty"`
}

type seriesRequest struct {
	SPY     []float64       `json:"spy"`
	Call    []float64       `json:"call"`
	Put     []float64       `json:"put"`
	Price   *float64        `json:"price,omitempty"`
	Context *contextRequest `json:"context,omitempty"`
}

func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var body analysisRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	req, err := body.toUsecase()
	if err != nil {
		respondError(w, r, err)
		return
	}

	res, err := h.analyzer.Analyze(r.Context(), SessionID(r.Context()), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (b analysisRequest) toUsecase() (usecase.AnalysisRequest, error) {
	spy, err := b.SPY.pair("spy")
	if err != nil {
		return usecase.AnalysisRequest{}, err
	}
	call, err := b.Call.pair("call")
	if err != nil {
		return usecase.AnalysisRequest{}, err
	}
	put, err := b.Put.pair("put")
	if err != nil {
		return usecase.AnalysisRequest{}, err
	}
	provider, err := b.Context.provider()
	if err != nil {
		return usecase.AnalysisRequest{}, err
	}
	return usecase.AnalysisRequest{SPY: spy, Call: call, Put: put, Price: b.Price, Context: provider}, nil
}

func (h *AnalysisHandler) AnalyzeSeries(w http.ResponseWriter, r *http.Request) {
	var body seriesRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	provider, err := body.Context.provider()
	if err != nil {
		respondError(w, r, err)
		return
	}

	res, err := h.analyzer.AnalyzeSeries(r.Context(), SessionID(r.Context()), usecase.SeriesRequest{
		SPY:     body.SPY,
		Call:    body.Call,
		Put:     body.Put,
		Price:   body.Price,
		Context: provider,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type contextOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Contexts lists the keys and labels accepted for manual context selection.
func (h *AnalysisHandler) Contexts(w http.ResponseWriter, r *http.Request) {
	kinds := domain.ContextKinds()
	out := make([]contextOption, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, contextOption{Key: k.Key(), Label: k.Label()})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"modes":    []string{usecase.ModeAuto, usecase.ModeManual},
		"contexts": out,
	})
}
