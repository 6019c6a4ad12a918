package http

import (
	"context"
	"net/http"
	"time"

	"pillar-backend/internal/domain"
	"pillar-backend/internal/usecase"
)

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	GenerateToken(sessionID string) (string, time.Time, error)
}

// Sessions is the session service surface the handlers need.
type Sessions interface {
	Create(ctx context.Context) (domain.PivotConfig, error)
	Get(ctx context.Context, sessionID string) (domain.PivotConfig, error)
	SavePivots(ctx context.Context, sessionID string, req usecase.SavePivotsRequest) (domain.PivotConfig, error)
	SaveFromRange(ctx context.Context, sessionID string, req usecase.RangeRequest) (domain.PivotConfig, error)
	Reset(ctx context.Context, sessionID string) (domain.PivotConfig, error)
	End(ctx context.Context, sessionID string) error
}

type SessionHandler struct {
	sessions Sessions
	tokens   TokenIssuer
}

func NewSessionHandler(sessions Sessions, tokens TokenIssuer) *SessionHandler {
	return &SessionHandler{sessions: sessions, tokens: tokens}
}

type createSessionResponse struct {
	SessionID string             `json:"sessionId"`
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
	Pivots    domain.PivotConfig `json:"pivots"`
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.sessions.Create(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	token, expiresAt, err := h.tokens.GenerateToken(cfg.SessionID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID: cfg.SessionID,
		Token:     token,
		ExpiresAt: expiresAt,
		Pivots:    cfg,
	})
}

// End deletes the caller's session.
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(r.Context(), SessionID(r.Context())); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
