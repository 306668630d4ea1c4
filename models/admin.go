package models

import (
	"time"

	"gorm.io/gorm"
)

// Admin is a company-scoped operator with locally-hashed credentials.
// It is the single session model: JWT-in-cookie backed by bcrypt.
type Admin struct {
	gorm.Model
	Email        string `gorm:"not null;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Name         string `json:"name"`
	CompanyID    uint   `gorm:"not null;index" json:"company_id"`

	IsActive    bool       `gorm:"default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at"`

	// TokenVersion invalidates outstanding JWTs when bumped.
	TokenVersion int `gorm:"default:1" json:"-"`

	// Relations
	Company Company `json:"-"`
}
