// Package usecases implements the auth application operations, one
// usecase per file with Command and Result types.
package usecases

import (
	"github.com/bytescookies/cookievault/internal/domain/device"
	"github.com/bytescookies/cookievault/internal/infrastructure/auth"
)

// JWTService is the slice of the token service the usecases consume.
type JWTService interface {
	Generate(userUUID, sessionID, tokenID, deviceID string) (*auth.TokenPair, error)
	Verify(tokenString string) (*auth.Claims, error)
	VerifyRefresh(tokenString string) (*auth.Claims, error)
	RefreshExpDays() int
}

// PasswordHasher abstracts password hashing for the usecases.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) error
}

// UserInfo is the user shape returned to clients.
type UserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// DeviceInfo is the device shape returned to clients.
type DeviceInfo struct {
	DeviceID   string `json:"deviceId"`
	Name       string `json:"name"`
	Platform   string `json:"platform"`
	IsActive   bool   `json:"isActive"`
	LastUsedAt int64  `json:"lastUsedAt"`
	CreatedAt  int64  `json:"createdAt"`
}

func toDeviceInfo(d *device.Device) DeviceInfo {
	return DeviceInfo{
		DeviceID:   d.DeviceID,
		Name:       d.Name,
		Platform:   d.Fingerprint.Platform,
		IsActive:   d.IsActive,
		LastUsedAt: d.LastUsedAt.UnixMilli(),
		CreatedAt:  d.CreatedAt.UnixMilli(),
	}
}
