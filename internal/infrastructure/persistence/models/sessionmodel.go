package models

import "time"

// SessionModel represents the database persistence model for sessions.
type SessionModel struct {
	ID               uint      `gorm:"primarykey"`
	SessionID        string    `gorm:"size:36;uniqueIndex;not null"`
	UserID           uint      `gorm:"not null;index"`
	TokenID          string    `gorm:"size:36;uniqueIndex;not null"`
	DeviceID         string    `gorm:"size:64;index"`
	RefreshTokenHash string    `gorm:"size:64;index;not null"`
	IsValid          bool      `gorm:"not null;default:true"`
	ExpiresAt        time.Time `gorm:"not null;index"`
	LastActivityAt   time.Time `gorm:"not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName specifies the table name for GORM
func (SessionModel) TableName() string {
	return "sessions"
}
