package domain

import (
	"context"
	"time"
)

// PivotStore keeps each session's pivot configuration.
// Implementations: in-memory (dev), Postgres and Redis.
type PivotStore interface {
	Create(ctx context.Context, cfg PivotConfig) error
	Get(ctx context.Context, sessionID string) (PivotConfig, error)
	Save(ctx context.Context, cfg PivotConfig) error
	// Update applies fn to the stored configuration and writes the result
	// as one atomic step. Nothing is written when fn returns an error.
	Update(ctx context.Context, sessionID string, fn func(*PivotConfig) error) (PivotConfig, error)
	Delete(ctx context.Context, sessionID string) error
}

// ExpiringStore is a PivotStore that drops idle sessions on its own.
// PurgeExpired removes what has expired and returns the removed session IDs.
type ExpiringStore interface {
	PivotStore
	PurgeExpired(ctx context.Context) ([]string, error)
}

// Device is a push notification target registered by a session.
type Device struct {
	Token        string    `json:"token"`
	Platform     string    `json:"platform"` // "android" or "ios"
	RegisteredAt time.Time `json:"registeredAt"`
}

// DeviceRegistry tracks push targets per session.
type DeviceRegistry interface {
	Register(sessionID string, d Device)
	Unregister(sessionID, token string)
	Tokens(sessionID string) []string
	Count() int
}
