package http

import (
	"net/http"
	"time"

	"pillar-backend/internal/domain"
)

type DeviceHandler struct {
	devices  domain.DeviceRegistry
	sessions Sessions
}

func NewDeviceHandler(devices domain.DeviceRegistry, sessions Sessions) *DeviceHandler {
	return &DeviceHandler{devices: devices, sessions: sessions}
}

type deviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

type deviceResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Token == "" {
		writeError(w, r, http.StatusBadRequest, "Token is required")
		return
	}
	if req.Platform == "" {
		req.Platform = "android"
	}

	// tokens outlive ended and expired sessions
	sid := SessionID(r.Context())
	if _, err := h.sessions.Get(r.Context(), sid); err != nil {
		respondError(w, r, err)
		return
	}
	h.devices.Register(sid, domain.Device{
		Token:        req.Token,
		Platform:     req.Platform,
		RegisteredAt: time.Now().UTC(),
	})

	writeJSON(w, http.StatusOK, deviceResponse{
		Success: true,
		Message: "Token registered successfully",
		Count:   len(h.devices.Tokens(sid)),
	})
}

func (h *DeviceHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Token == "" {
		writeError(w, r, http.StatusBadRequest, "Token is required")
		return
	}

	sid := SessionID(r.Context())
	h.devices.Unregister(sid, req.Token)

	writeJSON(w, http.StatusOK, deviceResponse{
		Success: true,
		Message: "Token unregistered successfully",
		Count:   len(h.devices.Tokens(sid)),
	})
}
