package models

import "time"

// User represents an account that can own tasks.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null"` // bcrypt hash
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RevokedToken records a JWT id that must no longer be accepted.
type RevokedToken struct {
	TokenID   string    `gorm:"primaryKey;type:varchar(36)"`
	ExpiresAt time.Time `gorm:"not null;index"`
}
