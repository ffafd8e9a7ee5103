package repository

import (
	"context"

	"dentalcare/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogRepository defines data access for the RBAC reference data: actions,
// permissions, roles and the ternary role bindings.
type CatalogRepository interface {
	ListActions(ctx context.Context) ([]model.Action, error)
	ListPermissions(ctx context.Context) ([]model.Permission, error)
	ListRoles(ctx context.Context) ([]model.Role, error)
	GetRoleByID(ctx context.Context, id uuid.UUID) (*model.Role, error)
	GetRoleByName(ctx context.Context, name string) (*model.Role, error)
	CreateRole(ctx context.Context, role *model.Role) error
	SaveRole(ctx context.Context, role *model.Role) error

	// BindingsForRole returns every RolePermissionAction row for the role with
	// Permission and Action preloaded.
	BindingsForRole(ctx context.Context, roleID uuid.UUID) ([]model.RolePermissionAction, error)
	// ReplaceBindings swaps the role's bindings for the given batch in one
	// transaction.
	ReplaceBindings(ctx context.Context, roleID uuid.UUID, bindings []model.RolePermissionAction) error
}

type catalogRepository struct {
	db *gorm.DB
	tx TransactionManager
}

// NewCatalogRepository returns a new instance of CatalogRepository
func NewCatalogRepository(db *gorm.DB, tx TransactionManager) CatalogRepository {
	return &catalogRepository{db: db, tx: tx}
}

func (r *catalogRepository) ListActions(ctx context.Context) ([]model.Action, error) {
	var actions []model.Action
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&actions).Error; err != nil {
		return nil, err
	}
	return actions, nil
}

func (r *catalogRepository) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	var perms []model.Permission
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *catalogRepository) ListRoles(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *catalogRepository) GetRoleByID(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	var role model.Role
	if err := r.db.WithContext(ctx).First(&role, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *catalogRepository) GetRoleByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := r.db.WithContext(ctx).First(&role, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *catalogRepository) CreateRole(ctx context.Context, role *model.Role) error {
	return r.db.WithContext(ctx).Create(role).Error
}

func (r *catalogRepository) SaveRole(ctx context.Context, role *model.Role) error {
	return r.db.WithContext(ctx).Save(role).Error
}

func (r *catalogRepository) BindingsForRole(ctx context.Context, roleID uuid.UUID) ([]model.RolePermissionAction, error) {
	var rows []model.RolePermissionAction
	err := r.db.WithContext(ctx).
		Preload("Permission").
		Preload("Action").
		Where("role_id = ?", roleID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *catalogRepository) ReplaceBindings(ctx context.Context, roleID uuid.UUID, bindings []model.RolePermissionAction) error {
	return r.tx.RunInTx(ctx, func(txCtx context.Context) error {
		db := GetDB(txCtx, r.db)
		if err := db.Where("role_id = ?", roleID).Delete(&model.RolePermissionAction{}).Error; err != nil {
			return err
		}
		if len(bindings) == 0 {
			return nil
		}
		return db.Create(&bindings).Error
	})
}
