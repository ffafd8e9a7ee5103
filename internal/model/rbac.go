package model

import (
	"time"

	"github.com/google/uuid"
)

// RoleDev is the reserved developer role. It is hidden from role listings and
// can never be assigned through the normal user-management paths.
const RoleDev = "DEV"

// Action is an atomic operation (READ, WRITE, ...). Immutable reference data.
type Action struct {
	ID    uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name  string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Label string    `gorm:"type:varchar(255)" json:"label"`
}

// Permission is a named capability over a resource area. A permission owns no
// actions on its own; actions attach only through a role binding.
type Permission struct {
	ID    uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name  string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Label string    `gorm:"type:varchar(255)" json:"label"`
}

// Role groups users under a named set of (permission, action) bindings.
type Role struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Label     string    `gorm:"type:varchar(255)" json:"label"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RolePermissionAction binds one role to one (permission, action) pair.
// The effective authority set of a role is the union of its rows here.
type RolePermissionAction struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RoleID       uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_role_perm_action" json:"role_id"`
	PermissionID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_role_perm_action" json:"permission_id"`
	ActionID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_role_perm_action" json:"action_id"`
	Role         Role       `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE" json:"-"`
	Permission   Permission `gorm:"foreignKey:PermissionID" json:"permission"`
	Action       Action     `gorm:"foreignKey:ActionID" json:"action"`
}
