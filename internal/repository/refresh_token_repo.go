package repository

import (
	"context"

	"dentalcare/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefreshTokenRepository defines data access for the per-user refresh token row
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.RefreshToken, error)
	GetByToken(ctx context.Context, token string) (*model.RefreshToken, error)
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
	// DeleteByToken reports the number of rows removed so callers can tell a
	// no-op delete apart from a real one.
	DeleteByToken(ctx context.Context, token string) (int64, error)
}

type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository returns a new instance of RefreshTokenRepository
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *refreshTokenRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.RefreshToken, error) {
	var token model.RefreshToken
	if err := r.db.WithContext(ctx).First(&token, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *refreshTokenRepository) GetByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	var row model.RefreshToken
	if err := r.db.WithContext(ctx).First(&row, "token = ?", token).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *refreshTokenRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.RefreshToken{}).Error
}

func (r *refreshTokenRepository) DeleteByToken(ctx context.Context, token string) (int64, error) {
	res := r.db.WithContext(ctx).Where("token = ?", token).Delete(&model.RefreshToken{})
	return res.RowsAffected, res.Error
}
