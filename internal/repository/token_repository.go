package repository

import (
	"sort"
	"sync"

	"pillar-backend/internal/domain"
)

// DeviceRepository keeps push targets per session in memory.
type DeviceRepository struct {
	devices map[string]map[string]domain.Device // sessionID -> token -> device
	mu      sync.RWMutex
}

func NewDeviceRepository() *DeviceRepository {
	return &DeviceRepository{
		devices: make(map[string]map[string]domain.Device),
	}
}

// Register adds or refreshes a device for the session.
func (r *DeviceRepository) Register(sessionID string, d domain.Device) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byToken, ok := r.devices[sessionID]
	if !ok {
		byToken = make(map[string]domain.Device)
		r.devices[sessionID] = byToken
	}
	byToken[d.Token] = d
}

func (r *DeviceRepository) Unregister(sessionID, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byToken, ok := r.devices[sessionID]
	if !ok {
		return
	}
	delete(byToken, token)
	if len(byToken) == 0 {
		delete(r.devices, sessionID)
	}
}

// Tokens returns the session's tokens, sorted.
func (r *DeviceRepository) Tokens(sessionID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byToken := r.devices[sessionID]
	tokens := make([]string, 0, len(byToken))
	for token := range byToken {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}

// Count is the number of devices across all sessions.
func (r *DeviceRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, byToken := range r.devices {
		n += len(byToken)
	}
	return n
}

// Forget drops every device of a session.
func (r *DeviceRepository) Forget(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.devices, sessionID)
}
