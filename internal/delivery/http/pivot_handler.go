package http

import (
	"net/http"

	"pillar-backend/internal/domain"
	"pillar-backend/internal/usecase"
)

type PivotHandler struct {
	sessions Sessions
}

func NewPivotHandler(sessions Sessions) *PivotHandler {
	return &PivotHandler{sessions: sessions}
}

type pivotsResponse struct {
	Pivots  domain.PivotConfig   `json:"pivots"`
	Nearest domain.NearestLevels `json:"nearest"`
}

type savePivotsRequest struct {
	Levels domain.PivotLevels `json:"levels"`
	Price  float64            `json:"price"`
	Broken *[]string          `json:"broken,omitempty"`
}

type rangeRequest struct {
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Price  *float64  `json:"price,omitempty"`
	Broken *[]string `json:"broken,omitempty"`
}

func respondPivots(w http.ResponseWriter, cfg domain.PivotConfig) {
	writeJSON(w, http.StatusOK, pivotsResponse{
		Pivots:  cfg,
		Nearest: usecase.FindNearestLevels(cfg.Price, cfg.Levels),
	})
}

func (h *PivotHandler) Get(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.sessions.Get(r.Context(), SessionID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondPivots(w, cfg)
}

// Save is the explicit save action. Omitting broken keeps the stored labels;
// an empty list clears them.
func (h *PivotHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req savePivotsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cfg, err := h.sessions.SavePivots(r.Context(), SessionID(r.Context()), usecase.SavePivotsRequest{
		Levels: req.Levels,
		Price:  req.Price,
		Broken: req.Broken,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondPivots(w, cfg)
}

func (h *PivotHandler) SaveFromRange(w http.ResponseWriter, r *http.Request) {
	var req rangeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cfg, err := h.sessions.SaveFromRange(r.Context(), SessionID(r.Context()), usecase.RangeRequest{
		High:   req.High,
		Low:    req.Low,
		Close:  req.Close,
		Price:  req.Price,
		Broken: req.Broken,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondPivots(w, cfg)
}

// Reset re-initializes the session and clears its broken levels.
func (h *PivotHandler) Reset(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.sessions.Reset(r.Context(), SessionID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondPivots(w, cfg)
}
