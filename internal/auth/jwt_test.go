package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	token, expiresAt, err := m.GenerateToken("s-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	sid, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "s-1", sid)
}

func TestManager_Rejects(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	token, _, err := m.GenerateToken("s-1")
	require.NoError(t, err)

	_, err = NewManager("other-secret", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewManager("test-secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, _, err := expired.GenerateToken("s-1")
	require.NoError(t, err)
	_, err = m.ValidateToken(old)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
