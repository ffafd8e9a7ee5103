package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserSec represents a login account. Accounts are disabled rather than
// deleted, and carry the brute-force lockout state alongside the credential.
type UserSec struct {
	ID                  uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username            string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"` // email-shaped
	Password            string         `gorm:"type:varchar(255);not null" json:"-"`                    // bcrypt hash, never serialized
	Enabled             bool           `gorm:"default:true" json:"enabled"`
	AccountNotLocked    bool           `gorm:"default:true" json:"account_not_locked"`
	LockTime            *time.Time     `json:"lock_time,omitempty"`
	FailedLoginAttempts int            `gorm:"default:0" json:"failed_login_attempts"`
	ResetPasswordToken  *string        `gorm:"type:text" json:"-"` // single-use, cleared on successful reset
	Roles               []Role         `gorm:"many2many:user_roles;" json:"roles"`
	CreatedAt           time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

// RefreshToken stores the single long-lived token a user may hold at a time.
// Issuing a new one always replaces the previous row (delete-then-create),
// so there is deliberately no unique index on user_id.
type RefreshToken struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User           UserSec   `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token          string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	CreatedDate    time.Time `gorm:"autoCreateTime" json:"created_date"`
	ExpirationDate time.Time `gorm:"not null" json:"expiration_date"`
}
