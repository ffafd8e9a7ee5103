package model

import (
	"time"

	"github.com/google/uuid"
)

// Singleton configuration rows. Each table holds exactly one row, read on
// every operation that needs the value so updates take effect immediately.

// TokenConfig holds the access-token expiration in milliseconds.
type TokenConfig struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ExpirationMillis int64     `gorm:"not null" json:"expiration_millis"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// RefreshTokenConfig holds the refresh-token expiration in days.
type RefreshTokenConfig struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ExpirationDays int       `gorm:"not null" json:"expiration_days"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FailedLoginAttemptsConfig holds the lockout threshold.
type FailedLoginAttemptsConfig struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Threshold int       `gorm:"not null" json:"threshold"`
	UpdatedAt time.Time `json:"updated_at"`
}
