package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionLoginSuccess   = "LOGIN_SUCCESS"
	ActionLoginFailed    = "LOGIN_FAILED"
	ActionAccountLocked  = "ACCOUNT_LOCKED"
	ActionTokenRefresh   = "TOKEN_REFRESH"
	ActionRefreshDenied  = "TOKEN_REFRESH_DENIED"
	ActionLogout         = "LOGOUT"
	ActionResetRequested = "PASSWORD_RESET_REQUESTED"
	ActionResetCompleted = "PASSWORD_RESET_COMPLETED"

	ActionCreateUser = "CREATE_USER"
	ActionUpdateUser = "UPDATE_USER"
	ActionUpdateRole = "UPDATE_ROLE"
)

// AuditLog tracks Who, What, and When for security-relevant events
type AuditLog struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nil when the actor is unknown (failed login for a bad username)
	Username  string     `gorm:"type:varchar(255);index" json:"username"`
	Action    string     `gorm:"type:varchar(50);not null;index" json:"action"`
	Details   string     `gorm:"type:jsonb" json:"details"` // serialized JSON payload of the event
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}
