package repository

import (
	"context"

	"dentalcare/internal/model"

	"gorm.io/gorm"
)

// ConfigRepository reads and updates the singleton configuration rows. Values
// are fetched on every relevant operation so updates take effect immediately.
type ConfigRepository interface {
	AccessTokenExpirationMillis(ctx context.Context) (int64, error)
	RefreshTokenExpirationDays(ctx context.Context) (int, error)
	FailedLoginThreshold(ctx context.Context) (int, error)

	SetAccessTokenExpirationMillis(ctx context.Context, millis int64) error
	SetRefreshTokenExpirationDays(ctx context.Context, days int) error
	SetFailedLoginThreshold(ctx context.Context, threshold int) error
}

type configRepository struct {
	db *gorm.DB
}

// NewConfigRepository returns a new instance of ConfigRepository
func NewConfigRepository(db *gorm.DB) ConfigRepository {
	return &configRepository{db: db}
}

func (r *configRepository) AccessTokenExpirationMillis(ctx context.Context) (int64, error) {
	var row model.TokenConfig
	if err := r.db.WithContext(ctx).First(&row).Error; err != nil {
		return 0, err
	}
	return row.ExpirationMillis, nil
}

func (r *configRepository) RefreshTokenExpirationDays(ctx context.Context) (int, error) {
	var row model.RefreshTokenConfig
	if err := r.db.WithContext(ctx).First(&row).Error; err != nil {
		return 0, err
	}
	return row.ExpirationDays, nil
}

func (r *configRepository) FailedLoginThreshold(ctx context.Context) (int, error) {
	var row model.FailedLoginAttemptsConfig
	if err := r.db.WithContext(ctx).First(&row).Error; err != nil {
		return 0, err
	}
	return row.Threshold, nil
}

func (r *configRepository) SetAccessTokenExpirationMillis(ctx context.Context, millis int64) error {
	return r.db.WithContext(ctx).Model(&model.TokenConfig{}).Where("1 = 1").Update("expiration_millis", millis).Error
}

func (r *configRepository) SetRefreshTokenExpirationDays(ctx context.Context, days int) error {
	return r.db.WithContext(ctx).Model(&model.RefreshTokenConfig{}).Where("1 = 1").Update("expiration_days", days).Error
}

func (r *configRepository) SetFailedLoginThreshold(ctx context.Context, threshold int) error {
	return r.db.WithContext(ctx).Model(&model.FailedLoginAttemptsConfig{}).Where("1 = 1").Update("threshold", threshold).Error
}
