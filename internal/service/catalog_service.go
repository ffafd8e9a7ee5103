package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dentalcare/internal/apperr"
	"dentalcare/internal/model"
	"dentalcare/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name  string `json:"name" binding:"required"`
	Label string `json:"label"`
}

// BindingPair names one (permission, action) pair to bind to a role
type BindingPair struct {
	PermissionID string `json:"permission_id" binding:"required"`
	ActionID     string `json:"action_id" binding:"required"`
}

type ReplaceBindingsRequest struct {
	Bindings []BindingPair `json:"bindings" binding:"required"`
}

type RoleResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Label string `json:"label"`
}

// --- Interface ---

// CatalogService manages the RBAC reference data. Role listing hides the
// reserved developer role; that exclusion is a business rule, not a UI
// nicety, so it lives here rather than in the handler.
type CatalogService interface {
	ListActions(ctx context.Context) ([]model.Action, error)
	ListPermissions(ctx context.Context) ([]model.Permission, error)
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error)
	GetRoleTree(ctx context.Context, roleID string) (*RoleAuthorityTree, error)
	ReplaceRoleBindings(ctx context.Context, roleID string, req ReplaceBindingsRequest) (*RoleAuthorityTree, error)
}

type catalogService struct {
	catalog   repository.CatalogRepository
	authority AuthorityService
}

// NewCatalogService returns a new instance of CatalogService
func NewCatalogService(catalog repository.CatalogRepository, authority AuthorityService) CatalogService {
	return &catalogService{catalog: catalog, authority: authority}
}

// --- Implementation ---

func (s *catalogService) ListActions(ctx context.Context) ([]model.Action, error) {
	actions, err := s.catalog.ListActions(ctx)
	if err != nil {
		return nil, apperr.Persistence("list actions", err)
	}
	return actions, nil
}

func (s *catalogService) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	perms, err := s.catalog.ListPermissions(ctx)
	if err != nil {
		return nil, apperr.Persistence("list permissions", err)
	}
	return perms, nil
}

func (s *catalogService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.catalog.ListRoles(ctx)
	if err != nil {
		return nil, apperr.Persistence("list roles", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		if r.Name == model.RoleDev {
			continue
		}
		res = append(res, RoleResponse{ID: r.ID.String(), Name: r.Name, Label: r.Label})
	}
	return res, nil
}

func (s *catalogService) CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error) {
	name := strings.ToUpper(strings.TrimSpace(req.Name))
	if name == model.RoleDev {
		return nil, fmt.Errorf("%w: %s", apperr.ErrForbiddenRole, name)
	}

	if _, err := s.catalog.GetRoleByName(ctx, name); err == nil {
		return nil, fmt.Errorf("%w: role %s", apperr.ErrAlreadyExists, name)
	}

	role := &model.Role{Name: name, Label: req.Label}
	if err := s.catalog.CreateRole(ctx, role); err != nil {
		return nil, apperr.Persistence("create role", err)
	}
	return &RoleResponse{ID: role.ID.String(), Name: role.Name, Label: role.Label}, nil
}

func (s *catalogService) GetRoleTree(ctx context.Context, roleID string) (*RoleAuthorityTree, error) {
	id, err := uuid.Parse(roleID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad role id", apperr.ErrInvalidInput)
	}
	return s.authority.ResolveRole(ctx, id)
}

// ReplaceRoleBindings builds one immutable row per deduplicated
// (permission, action) pair and swaps the role's bindings in a single batch.
func (s *catalogService) ReplaceRoleBindings(ctx context.Context, roleID string, req ReplaceBindingsRequest) (*RoleAuthorityTree, error) {
	id, err := uuid.Parse(roleID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad role id", apperr.ErrInvalidInput)
	}

	if _, err := s.catalog.GetRoleByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: role %s", apperr.ErrNotFound, roleID)
		}
		return nil, apperr.Persistence("load role", err)
	}

	type pairKey struct{ perm, action uuid.UUID }
	seen := make(map[pairKey]struct{})
	rows := make([]model.RolePermissionAction, 0, len(req.Bindings))
	for _, b := range req.Bindings {
		permID, err := uuid.Parse(b.PermissionID)
		if err != nil {
			return nil, fmt.Errorf("%w: bad permission id", apperr.ErrInvalidInput)
		}
		actionID, err := uuid.Parse(b.ActionID)
		if err != nil {
			return nil, fmt.Errorf("%w: bad action id", apperr.ErrInvalidInput)
		}

		key := pairKey{perm: permID, action: actionID}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		rows = append(rows, model.RolePermissionAction{
			RoleID:       id,
			PermissionID: permID,
			ActionID:     actionID,
		})
	}

	if err := s.catalog.ReplaceBindings(ctx, id, rows); err != nil {
		return nil, apperr.Persistence("replace role bindings", err)
	}

	return s.authority.ResolveRole(ctx, id)
}
