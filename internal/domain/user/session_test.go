package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytescookies/cookievault/internal/shared/biztime"
)

func TestNewSession(t *testing.T) {
	expiry := biztime.NowUTC().Add(7 * 24 * time.Hour)

	s, err := NewSession(1, "token-id", "device-id", "hash", expiry)
	require.NoError(t, err)

	assert.NotEmpty(t, s.SessionID)
	assert.True(t, s.IsValid)
	assert.True(t, s.IsLive())
	assert.False(t, s.IsExpired())
}

func TestNewSession_Validation(t *testing.T) {
	expiry := biztime.NowUTC().Add(time.Hour)

	tests := []struct {
		name      string
		userID    uint
		tokenID   string
		tokenHash string
	}{
		{"missing user", 0, "tid", "hash"},
		{"missing token id", 1, "", "hash"},
		{"missing token hash", 1, "tid", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSession(tt.userID, tt.tokenID, "device", tt.tokenHash, expiry)
			assert.Error(t, err)
		})
	}
}

func TestSession_Lifecycle(t *testing.T) {
	t.Run("invalidated session is not live", func(t *testing.T) {
		s, err := NewSession(1, "tid", "did", "hash", biztime.NowUTC().Add(time.Hour))
		require.NoError(t, err)

		s.Invalidate()
		assert.False(t, s.IsLive())
		assert.False(t, s.IsExpired())
	})

	t.Run("expired session is not live", func(t *testing.T) {
		s, err := NewSession(1, "tid", "did", "hash", biztime.NowUTC().Add(-time.Minute))
		require.NoError(t, err)

		assert.True(t, s.IsExpired())
		assert.False(t, s.IsLive())
	})
}

func TestNewUser(t *testing.T) {
	u, err := NewUser("User@Example.COM", "Pat", "bcrypt-hash")
	require.NoError(t, err)

	assert.Equal(t, "user@example.com", u.Email)
	assert.NotEmpty(t, u.UUID)

	_, err = NewUser("not-an-email", "Pat", "hash")
	assert.Error(t, err)

	_, err = NewUser("a@b.co", "", "hash")
	assert.Error(t, err)
}
