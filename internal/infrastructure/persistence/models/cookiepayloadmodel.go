package models

import "time"

// CookiePayloadModel represents the database persistence model for
// synced encrypted cookie batches.
type CookiePayloadModel struct {
	ID           uint   `gorm:"primarykey"`
	UserID       uint   `gorm:"not null;uniqueIndex:idx_cookie_payloads_user_domain"`
	Domain       string `gorm:"size:255;not null;uniqueIndex:idx_cookie_payloads_user_domain"`
	Ciphertext   string `gorm:"type:mediumtext;not null"`
	IV           string `gorm:"size:64;not null"`
	IntegrityTag string `gorm:"size:128;not null"`
	Salt         string `gorm:"size:64;not null"`
	Version      string `gorm:"size:10;not null"`
	Timestamp    int64  `gorm:"column:payload_timestamp;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time `gorm:"index"`
}

// TableName specifies the table name for GORM
func (CookiePayloadModel) TableName() string {
	return "cookie_payloads"
}
