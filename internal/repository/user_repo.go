package repository

import (
	"context"

	"dentalcare/internal/model"

	"gorm.io/gorm"
)

// UserRepository defines data access for login accounts
type UserRepository interface {
	Create(ctx context.Context, user *model.UserSec) error
	GetByID(ctx context.Context, id string) (*model.UserSec, error)
	GetByUsername(ctx context.Context, username string) (*model.UserSec, error)
	List(ctx context.Context, page, limit int) ([]model.UserSec, int64, error)
	Save(ctx context.Context, user *model.UserSec) error
	ReplaceRoles(ctx context.Context, user *model.UserSec, roles []model.Role) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.UserSec) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.UserSec, error) {
	var user model.UserSec
	if err := r.db.WithContext(ctx).Preload("Roles").First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.UserSec, error) {
	var user model.UserSec
	if err := r.db.WithContext(ctx).Preload("Roles").First(&user, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, page, limit int) ([]model.UserSec, int64, error) {
	var users []model.UserSec
	var total int64

	if err := r.db.WithContext(ctx).Model(&model.UserSec{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).Preload("Roles").Order("username ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) Save(ctx context.Context, user *model.UserSec) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) ReplaceRoles(ctx context.Context, user *model.UserSec, roles []model.Role) error {
	return r.db.WithContext(ctx).Model(user).Association("Roles").Replace(roles)
}
