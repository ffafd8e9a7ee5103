package database

import (
	"dentalcare/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Default tunables used when the singleton config rows are empty.
const (
	defaultAccessTokenMillis = 15 * 60 * 1000 // 15 minutes
	defaultRefreshTokenDays  = 14
	defaultLockoutThreshold  = 5
)

// Seed fills the RBAC catalog and the singleton config rows. Idempotent:
// existing rows are left alone.
func Seed(db *gorm.DB) error {
	actions := []model.Action{
		{Name: "READ", Label: "Read"},
		{Name: "WRITE", Label: "Create and update"},
		{Name: "DELETE", Label: "Delete"},
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&actions).Error; err != nil {
		return err
	}

	permissions := []model.Permission{
		{Name: "USERS", Label: "Account management"},
		{Name: "PATIENTS", Label: "Patient records"},
		{Name: "DENTISTS", Label: "Dentist records"},
		{Name: "TREATMENTS", Label: "Treatment catalog"},
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&permissions).Error; err != nil {
		return err
	}

	roles := []model.Role{
		{Name: "ADMIN", Label: "Administrator"},
		{Name: "SECRETARY", Label: "Secretary"},
		{Name: model.RoleDev, Label: "Developer"},
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&roles).Error; err != nil {
		return err
	}

	var count int64
	if err := db.Model(&model.TokenConfig{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		if err := db.Create(&model.TokenConfig{ExpirationMillis: defaultAccessTokenMillis}).Error; err != nil {
			return err
		}
	}

	if err := db.Model(&model.RefreshTokenConfig{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		if err := db.Create(&model.RefreshTokenConfig{ExpirationDays: defaultRefreshTokenDays}).Error; err != nil {
			return err
		}
	}

	if err := db.Model(&model.FailedLoginAttemptsConfig{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		if err := db.Create(&model.FailedLoginAttemptsConfig{Threshold: defaultLockoutThreshold}).Error; err != nil {
			return err
		}
	}

	return nil
}
