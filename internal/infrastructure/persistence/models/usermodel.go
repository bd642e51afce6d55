package models

import "time"

// UserModel represents the database persistence model for users.
type UserModel struct {
	ID           uint   `gorm:"primarykey"`
	UUID         string `gorm:"size:36;uniqueIndex;not null"`
	Email        string `gorm:"size:255;uniqueIndex;not null"`
	Name         string `gorm:"size:100;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName specifies the table name for GORM
func (UserModel) TableName() string {
	return "users"
}
