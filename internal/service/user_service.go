package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"dentalcare/internal/apperr"
	"dentalcare/internal/model"
	"dentalcare/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateUserRequest struct {
	Username string   `json:"username" binding:"required,email"`
	Password string   `json:"password" binding:"required,min=8"`
	Roles    []string `json:"roles" binding:"required,min=1"` // role names
}

type UpdateUserRequest struct {
	Enabled *bool    `json:"enabled"`
	Unlock  bool     `json:"unlock"`
	Roles   []string `json:"roles"`
}

// UserResponse returns an account without exposing credential material
type UserResponse struct {
	ID                  string   `json:"id"`
	Username            string   `json:"username"`
	Enabled             bool     `json:"enabled"`
	AccountNotLocked    bool     `json:"account_not_locked"`
	FailedLoginAttempts int      `json:"failed_login_attempts"`
	Roles               []string `json:"roles"`
	CreatedAt           string   `json:"created_at"`
}

// --- Interface ---

// UserService covers the administrative account paths. Every mutating call
// takes the acting user's id explicitly; there is no ambient current-user
// state anywhere in this package.
type UserService interface {
	CreateUser(ctx context.Context, actingUserID uuid.UUID, req CreateUserRequest) (*UserResponse, error)
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, actingUserID uuid.UUID, id string, req UpdateUserRequest) (*UserResponse, error)
	DisableUser(ctx context.Context, actingUserID uuid.UUID, id string) error
}

type userService struct {
	users   repository.UserRepository
	catalog repository.CatalogRepository
	audit   AuditRecorder
}

// NewUserService returns a new instance of UserService
func NewUserService(users repository.UserRepository, catalog repository.CatalogRepository, audit AuditRecorder) UserService {
	return &userService{users: users, catalog: catalog, audit: audit}
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func mapToUserResponse(user *model.UserSec) *UserResponse {
	roles := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, r.Name)
	}
	return &UserResponse{
		ID:                  user.ID.String(),
		Username:            user.Username,
		Enabled:             user.Enabled,
		AccountNotLocked:    user.AccountNotLocked,
		FailedLoginAttempts: user.FailedLoginAttempts,
		Roles:               roles,
		CreatedAt:           user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// resolveRoles maps role names to catalog rows, rejecting the reserved
// developer role. DEV is never assignable through these paths regardless of
// who is asking.
func (s *userService) resolveRoles(ctx context.Context, names []string) ([]model.Role, error) {
	roles := make([]model.Role, 0, len(names))
	for _, name := range names {
		name = strings.ToUpper(strings.TrimSpace(name))
		if name == model.RoleDev {
			return nil, fmt.Errorf("%w: %s", apperr.ErrForbiddenRole, name)
		}
		role, err := s.catalog.GetRoleByName(ctx, name)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: role %s", apperr.ErrNotFound, name)
			}
			return nil, apperr.Persistence("load role", err)
		}
		roles = append(roles, *role)
	}
	return roles, nil
}

func (s *userService) CreateUser(ctx context.Context, actingUserID uuid.UUID, req CreateUserRequest) (*UserResponse, error) {
	if !emailRegex.MatchString(req.Username) {
		return nil, fmt.Errorf("%w: username must be an email address", apperr.ErrInvalidInput)
	}

	if _, err := s.users.GetByUsername(ctx, req.Username); err == nil {
		return nil, fmt.Errorf("%w: username taken", apperr.ErrAlreadyExists)
	}

	roles, err := s.resolveRoles(ctx, req.Roles)
	if err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.UserSec{
		Username:         req.Username,
		Password:         string(hashed),
		Enabled:          true,
		AccountNotLocked: true,
		Roles:            roles,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperr.Persistence("create account", err)
	}

	s.audit.Record(ctx, &actingUserID, user.Username, model.ActionCreateUser, map[string]interface{}{
		"created_user_id": user.ID.String(),
	})
	return mapToUserResponse(user), nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, id)
		}
		return nil, apperr.Persistence("load account", err)
	}
	return mapToUserResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	users, total, err := s.users.List(ctx, page, limit)
	if err != nil {
		return nil, 0, apperr.Persistence("list accounts", err)
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapToUserResponse(&users[i]))
	}
	return responses, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, actingUserID uuid.UUID, id string, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, id)
		}
		return nil, apperr.Persistence("load account", err)
	}

	self := user.ID == actingUserID
	if self && (req.Enabled != nil || len(req.Roles) > 0) {
		return nil, fmt.Errorf("%w: cannot change own enabled state or roles", apperr.ErrForbiddenRole)
	}

	if req.Enabled != nil {
		user.Enabled = *req.Enabled
	}
	if req.Unlock {
		user.AccountNotLocked = true
		user.LockTime = nil
		user.FailedLoginAttempts = 0
	}

	if len(req.Roles) > 0 {
		roles, err := s.resolveRoles(ctx, req.Roles)
		if err != nil {
			return nil, err
		}
		if err := s.users.ReplaceRoles(ctx, user, roles); err != nil {
			return nil, apperr.Persistence("replace roles", err)
		}
		user.Roles = roles
	}

	if err := s.users.Save(ctx, user); err != nil {
		return nil, apperr.Persistence("update account", err)
	}

	s.audit.Record(ctx, &actingUserID, user.Username, model.ActionUpdateUser, map[string]interface{}{
		"target_user_id": user.ID.String(),
		"unlocked":       req.Unlock,
	})
	return mapToUserResponse(user), nil
}

// DisableUser flips enabled off. Accounts are never physically deleted.
func (s *userService) DisableUser(ctx context.Context, actingUserID uuid.UUID, id string) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user %s", apperr.ErrNotFound, id)
		}
		return apperr.Persistence("load account", err)
	}

	if user.ID == actingUserID {
		return fmt.Errorf("%w: cannot disable own account", apperr.ErrForbiddenRole)
	}

	user.Enabled = false
	if err := s.users.Save(ctx, user); err != nil {
		return apperr.Persistence("disable account", err)
	}

	s.audit.Record(ctx, &actingUserID, user.Username, model.ActionUpdateUser, map[string]interface{}{
		"target_user_id": user.ID.String(),
		"disabled":       true,
	})
	return nil
}
