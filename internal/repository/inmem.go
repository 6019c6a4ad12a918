package repository

import (
	"context"
	"sync"
	"time"

	"pillar-backend/internal/domain"
)

type memEntry struct {
	cfg       domain.PivotConfig
	expiresAt time.Time
}

// InMemoryPivotStore keeps sessions in process memory. A zero ttl never expires.
type InMemoryPivotStore struct {
	sessions map[string]memEntry
	ttl      time.Duration
	now      func() time.Time
	mu       sync.RWMutex
}

func NewInMemoryPivotStore(ttl time.Duration) *InMemoryPivotStore {
	return &InMemoryPivotStore{
		sessions: make(map[string]memEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (r *InMemoryPivotStore) expiry() time.Time {
	if r.ttl <= 0 {
		return time.Time{}
	}
	return r.now().Add(r.ttl)
}

func (r *InMemoryPivotStore) expired(e memEntry) bool {
	return !e.expiresAt.IsZero() && r.now().After(e.expiresAt)
}

func (r *InMemoryPivotStore) Create(_ context.Context, cfg domain.PivotConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.sessions[cfg.SessionID]; ok && !r.expired(e) {
		return domain.ErrSessionExists
	}
	r.sessions[cfg.SessionID] = memEntry{cfg: cfg.Clone(), expiresAt: r.expiry()}
	return nil
}

// Get returns a copy; callers may modify it freely.
func (r *InMemoryPivotStore) Get(_ context.Context, sessionID string) (domain.PivotConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sessions[sessionID]
	if !ok || r.expired(e) {
		return domain.PivotConfig{}, domain.ErrSessionNotFound
	}
	return e.cfg.Clone(), nil
}

// Save replaces the stored configuration and refreshes its expiry.
func (r *InMemoryPivotStore) Save(_ context.Context, cfg domain.PivotConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[cfg.SessionID]
	if !ok || r.expired(e) {
		return domain.ErrSessionNotFound
	}
	r.sessions[cfg.SessionID] = memEntry{cfg: cfg.Clone(), expiresAt: r.expiry()}
	return nil
}

// Update runs fn on a copy under the write lock and stores it if fn succeeds.
func (r *InMemoryPivotStore) Update(_ context.Context, sessionID string, fn func(*domain.PivotConfig) error) (domain.PivotConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[sessionID]
	if !ok || r.expired(e) {
		return domain.PivotConfig{}, domain.ErrSessionNotFound
	}
	cfg := e.cfg.Clone()
	if err := fn(&cfg); err != nil {
		return domain.PivotConfig{}, err
	}
	cfg.SessionID = sessionID
	r.sessions[sessionID] = memEntry{cfg: cfg.Clone(), expiresAt: r.expiry()}
	return cfg, nil
}

func (r *InMemoryPivotStore) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionID]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(r.sessions, sessionID)
	return nil
}

// PurgeExpired drops expired sessions and returns their IDs.
func (r *InMemoryPivotStore) PurgeExpired(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []string
	for id, e := range r.sessions {
		if r.expired(e) {
			delete(r.sessions, id)
			removed = append(removed, id)
		}
	}
	return removed, nil
}

// Len counts live sessions.
func (r *InMemoryPivotStore) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, e := range r.sessions {
		if !r.expired(e) {
			n++
		}
	}
	return n
}
