package user

import (
	"context"
	"time"
)

// Repository defines the interface for user data operations
type Repository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by internal ID
	GetByID(ctx context.Context, id uint) (*User, error)

	// GetByUUID retrieves a user by external UUID
	GetByUUID(ctx context.Context, uuid string) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// ExistsByEmail checks if a user exists by email
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Update updates an existing user
	Update(ctx context.Context, user *User) error
}

// SessionRepository persists server session rows.
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	GetBySessionID(ctx context.Context, sessionID string) (*Session, error)
	GetByTokenID(ctx context.Context, tokenID string) (*Session, error)
	GetByRefreshTokenHash(ctx context.Context, hash string) (*Session, error)
	GetActiveByUserID(ctx context.Context, userID uint) ([]*Session, error)
	Update(ctx context.Context, session *Session) error

	// Invalidate marks one session row dead.
	Invalidate(ctx context.Context, sessionID string) error

	// InvalidateByUserID marks every session of a user dead.
	InvalidateByUserID(ctx context.Context, userID uint) error

	// InvalidateByDeviceID marks every session opened from a device dead.
	InvalidateByDeviceID(ctx context.Context, deviceID string) error

	// DeleteExpired removes rows that expired before the cutoff.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
