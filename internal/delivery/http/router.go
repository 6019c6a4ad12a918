package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"pillar-backend/internal/domain"
)

// SessionTokens issues and verifies session tokens.
type SessionTokens interface {
	TokenIssuer
	TokenValidator
}

// Deps is everything the router mounts.
type Deps struct {
	Sessions    Sessions
	Analyzer    Analyzer
	Devices     domain.DeviceRegistry
	Tokens      SessionTokens
	Stream      http.Handler // websocket endpoint, optional
	Metrics     http.Handler // prometheus exposition, optional
	StoreKind   string
	CORSOrigins []string
}

func NewRouter(d Deps) http.Handler {
	started := time.Now()

	sessions := NewSessionHandler(d.Sessions, d.Tokens)
	pivots := NewPivotHandler(d.Sessions)
	analysis := NewAnalysisHandler(d.Analyzer)
	devices := NewDeviceHandler(d.Devices, d.Sessions)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS(d.CORSOrigins))

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"store":  d.StoreKind,
			"uptime": time.Since(started).Round(time.Second).String(),
		})
	})
	r.Get("/api/contexts", analysis.Contexts)
	r.Post("/api/sessions", sessions.Create)

	r.Group(func(r chi.Router) {
		r.Use(SessionAuth(d.Tokens))

		r.Delete("/api/sessions", sessions.End)

		r.Get("/api/pivots", pivots.Get)
		r.Put("/api/pivots", pivots.Save)
		r.Delete("/api/pivots", pivots.Reset)
		r.Post("/api/pivots/from-range", pivots.SaveFromRange)

		r.Post("/api/analysis", analysis.Analyze)
		r.Post("/api/analysis/series", analysis.AnalyzeSeries)

		r.Post("/api/devices", devices.Register)
		r.Delete("/api/devices", devices.Unregister)
	})

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}
	if d.Stream != nil {
		r.Method(http.MethodGet, "/ws", d.Stream)
	}

	return r
}
