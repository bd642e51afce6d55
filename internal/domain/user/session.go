package user

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bytescookies/cookievault/internal/shared/biztime"
)

// Session is one server-side refresh lineage. A refresh invalidates the
// current row and creates a successor with a new TokenID, so a stolen
// refresh token dies the moment the legitimate client rotates.
type Session struct {
	SessionID        string
	UserID           uint
	TokenID          string
	DeviceID         string
	RefreshTokenHash string
	IsValid          bool
	ExpiresAt        time.Time
	LastActivityAt   time.Time
	CreatedAt        time.Time
}

// NewSession creates a live session row. refreshTokenHash is the hex
// SHA-256 of the refresh token, never the token itself.
func NewSession(userID uint, tokenID, deviceID, refreshTokenHash string, expiresAt time.Time) (*Session, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if tokenID == "" {
		return nil, fmt.Errorf("token ID is required")
	}
	if refreshTokenHash == "" {
		return nil, fmt.Errorf("refresh token hash is required")
	}

	now := biztime.NowUTC()
	return &Session{
		SessionID:        uuid.NewString(),
		UserID:           userID,
		TokenID:          tokenID,
		DeviceID:         deviceID,
		RefreshTokenHash: refreshTokenHash,
		IsValid:          true,
		ExpiresAt:        expiresAt,
		LastActivityAt:   now,
		CreatedAt:        now,
	}, nil
}

func (s *Session) IsExpired() bool {
	return biztime.NowUTC().After(s.ExpiresAt)
}

// IsLive reports whether the session can still authenticate requests.
func (s *Session) IsLive() bool {
	return s.IsValid && !s.IsExpired()
}

func (s *Session) Invalidate() {
	s.IsValid = false
}

func (s *Session) UpdateActivity() {
	s.LastActivityAt = biztime.NowUTC()
}
