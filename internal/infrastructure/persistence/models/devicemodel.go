package models

import (
	"time"

	"gorm.io/datatypes"
)

// DeviceModel represents the database persistence model for devices.
// FingerprintInfo keeps the raw components the hash was derived from.
type DeviceModel struct {
	ID              uint           `gorm:"primarykey"`
	DeviceID        string         `gorm:"size:64;uniqueIndex;not null"`
	UserID          uint           `gorm:"not null;index;uniqueIndex:idx_devices_user_fingerprint"`
	Name            string         `gorm:"size:100;not null"`
	Fingerprint     string         `gorm:"size:64;not null;uniqueIndex:idx_devices_user_fingerprint"`
	FingerprintInfo datatypes.JSON `gorm:"type:json"`
	IsActive        bool           `gorm:"not null;default:true"`
	LastUsedAt      time.Time      `gorm:"not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName specifies the table name for GORM
func (DeviceModel) TableName() string {
	return "devices"
}
