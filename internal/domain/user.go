package domain

import (
	"time"
)

type User struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	Username     string `json:"username" gorm:"not null"`
	Email        string `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"not null"`
	IsAdmin      bool   `json:"isAdmin" gorm:"not null;default:false"`

	// TokenVersion is bumped on security-sensitive events (password change,
	// account deletion) to invalidate every token issued before the bump.
	TokenVersion int `json:"-" gorm:"not null;default:0"`

	IsVerified       bool       `json:"isVerified" gorm:"not null;default:false"`
	VerificationCode *string    `json:"-"`
	CodeExpires      *time.Time `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
