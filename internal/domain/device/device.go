// Package device tracks the browsers a user signs in from. Devices are
// identified by a stable fingerprint hash, so the same browser maps to
// the same device row across logins.
package device

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/bytescookies/cookievault/internal/shared/biztime"
)

// Fingerprint is the raw client-reported identity material.
type Fingerprint struct {
	UserAgent string `json:"userAgent"`
	Platform  string `json:"platform"`
	Language  string `json:"language"`
}

// Hash derives the stable device identifier: hex SHA-256 over the
// pipe-joined components. Identical browsers always hash alike.
func (f Fingerprint) Hash() string {
	sum := sha256.Sum256([]byte(f.UserAgent + "|" + f.Platform + "|" + f.Language))
	return hex.EncodeToString(sum[:])
}

// DefaultName builds a readable device name from the fingerprint when
// the client never set one.
func (f Fingerprint) DefaultName() string {
	platform := strings.TrimSpace(f.Platform)
	if platform == "" {
		platform = "Unknown device"
	}
	return platform
}

// Device is one browser a user has authenticated from.
type Device struct {
	ID          uint
	DeviceID    string
	UserID      uint
	Name        string
	Fingerprint Fingerprint
	IsActive    bool
	LastUsedAt  time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewDevice registers a device for a user from its fingerprint.
func NewDevice(userID uint, fp Fingerprint) (*Device, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if fp.UserAgent == "" && fp.Platform == "" && fp.Language == "" {
		return nil, fmt.Errorf("fingerprint is empty")
	}

	now := biztime.NowUTC()
	return &Device{
		DeviceID:    fp.Hash(),
		UserID:      userID,
		Name:        fp.DefaultName(),
		Fingerprint: fp,
		IsActive:    true,
		LastUsedAt:  now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Touch records device activity.
func (d *Device) Touch() {
	d.LastUsedAt = biztime.NowUTC()
}

// Rename sets a user-chosen display name.
func (d *Device) Rename(name string) error {
	if name == "" {
		return fmt.Errorf("device name is required")
	}
	d.Name = name
	return nil
}

// Deactivate retires the device. Sessions opened from it must be
// invalidated by the caller.
func (d *Device) Deactivate() {
	d.IsActive = false
}
