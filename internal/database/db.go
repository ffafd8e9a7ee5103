package database

import (
	"log"

	"dentalcare/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.UserSec{},
		&model.RefreshToken{},
		&model.Action{},
		&model.Permission{},
		&model.Role{},
		&model.RolePermissionAction{},
		&model.TokenConfig{},
		&model.RefreshTokenConfig{},
		&model.FailedLoginAttemptsConfig{},
		&model.AuditLog{},
		&model.Patient{},
		&model.Dentist{},
		&model.Treatment{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
