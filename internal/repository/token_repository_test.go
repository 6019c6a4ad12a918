package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pillar-backend/internal/domain"
)

func TestDeviceRepository(t *testing.T) {
	repo := NewDeviceRepository()
	now := time.Now()

	repo.Register("s-1", domain.Device{Token: "b", Platform: "ios", RegisteredAt: now})
	repo.Register("s-1", domain.Device{Token: "a", Platform: "android", RegisteredAt: now})
	repo.Register("s-1", domain.Device{Token: "a", Platform: "android", RegisteredAt: now})
	repo.Register("s-2", domain.Device{Token: "c", Platform: "android", RegisteredAt: now})

	assert.Equal(t, []string{"a", "b"}, repo.Tokens("s-1"))
	assert.Equal(t, 3, repo.Count())

	repo.Unregister("s-1", "a")
	assert.Equal(t, []string{"b"}, repo.Tokens("s-1"))

	repo.Unregister("missing", "a")
	repo.Forget("s-2")
	assert.Empty(t, repo.Tokens("s-2"))
	assert.Equal(t, 1, repo.Count())
}
