package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"dentalcare/internal/apperr"
	"dentalcare/internal/model"
	"dentalcare/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

// ActionRef is one action bound to a permission inside a role tree
type ActionRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// PermissionActions groups the actions a role holds over one permission
type PermissionActions struct {
	PermissionID uuid.UUID   `json:"permission_id"`
	Name         string      `json:"name"`
	Label        string      `json:"label"`
	Actions      []ActionRef `json:"actions"`
}

// RoleAuthorityTree is the structured permission→actions mapping for one role.
// Clients consume it for UI rendering; the flattened authority strings are
// what the access token carries.
type RoleAuthorityTree struct {
	RoleID      uuid.UUID           `json:"role_id"`
	RoleName    string              `json:"role_name"`
	RoleLabel   string              `json:"role_label"`
	Permissions []PermissionActions `json:"permissions"`
}

// --- Interface ---

// AuthorityService resolves roles into permission/action trees and flattens
// them into the authority strings embedded in access tokens.
type AuthorityService interface {
	ResolveRole(ctx context.Context, roleID uuid.UUID) (*RoleAuthorityTree, error)
	ResolveUser(ctx context.Context, user *model.UserSec) ([]RoleAuthorityTree, error)
}

type authorityService struct {
	catalog repository.CatalogRepository
}

// NewAuthorityService returns a new instance of AuthorityService
func NewAuthorityService(catalog repository.CatalogRepository) AuthorityService {
	return &authorityService{catalog: catalog}
}

// --- Implementation ---

// ResolveRole scans the role's bindings and groups them by permission.
// Permissions and actions are sorted by name so the output is reproducible
// run to run. A stale role id aborts resolution: silently skipping would hide
// a broken catalog reference.
func (s *authorityService) ResolveRole(ctx context.Context, roleID uuid.UUID) (*RoleAuthorityTree, error) {
	role, err := s.catalog.GetRoleByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: role %s", apperr.ErrNotFound, roleID)
		}
		return nil, apperr.Persistence("resolve role", err)
	}

	rows, err := s.catalog.BindingsForRole(ctx, roleID)
	if err != nil {
		return nil, apperr.Persistence("load role bindings", err)
	}

	grouped := make(map[uuid.UUID]*PermissionActions)
	for _, row := range rows {
		entry, ok := grouped[row.PermissionID]
		if !ok {
			entry = &PermissionActions{
				PermissionID: row.PermissionID,
				Name:         row.Permission.Name,
				Label:        row.Permission.Label,
			}
			grouped[row.PermissionID] = entry
		}
		entry.Actions = append(entry.Actions, ActionRef{ID: row.ActionID, Name: row.Action.Name})
	}

	perms := make([]PermissionActions, 0, len(grouped))
	for _, entry := range grouped {
		sort.Slice(entry.Actions, func(i, j int) bool {
			return entry.Actions[i].Name < entry.Actions[j].Name
		})
		perms = append(perms, *entry)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i].Name < perms[j].Name })

	return &RoleAuthorityTree{
		RoleID:      role.ID,
		RoleName:    role.Name,
		RoleLabel:   role.Label,
		Permissions: perms,
	}, nil
}

// ResolveUser resolves every role assigned to the user. Authorities union
// naturally downstream because FlattenAuthorities deduplicates.
func (s *authorityService) ResolveUser(ctx context.Context, user *model.UserSec) ([]RoleAuthorityTree, error) {
	trees := make([]RoleAuthorityTree, 0, len(user.Roles))
	for _, role := range user.Roles {
		tree, err := s.ResolveRole(ctx, role.ID)
		if err != nil {
			return nil, err
		}
		trees = append(trees, *tree)
	}
	return trees, nil
}

// FlattenAuthorities emits one ROLE_<NAME> entry per tree plus one
// PERMISO_<PERMISSION>_<ACTION> entry per (permission, action) pair, names
// upper-cased, deduplicated and sorted.
func FlattenAuthorities(trees ...RoleAuthorityTree) []string {
	set := make(map[string]struct{})
	for _, tree := range trees {
		set["ROLE_"+strings.ToUpper(tree.RoleName)] = struct{}{}
		for _, perm := range tree.Permissions {
			for _, action := range perm.Actions {
				authority := "PERMISO_" + strings.ToUpper(perm.Name) + "_" + strings.ToUpper(action.Name)
				set[authority] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(set))
	for authority := range set {
		out = append(out, authority)
	}
	sort.Strings(out)
	return out
}
