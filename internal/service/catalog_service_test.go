package service

import (
	"context"
	"testing"

	"dentalcare/internal/apperr"
	"dentalcare/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogEnv() (*fakeCatalogRepo, CatalogService) {
	catalog := newFakeCatalogRepo()
	return catalog, NewCatalogService(catalog, NewAuthorityService(catalog))
}

func TestListRolesHidesDevRole(t *testing.T) {
	catalog, svc := newCatalogEnv()
	catalog.addRole("ADMIN", nil)
	catalog.addRole("SECRETARY", nil)
	catalog.addRole(model.RoleDev, nil)

	roles, err := svc.ListRoles(context.Background())
	require.NoError(t, err)
	require.Len(t, roles, 2)
	for _, r := range roles {
		assert.NotEqual(t, model.RoleDev, r.Name)
	}
}

func TestCreateRole(t *testing.T) {
	_, svc := newCatalogEnv()
	ctx := context.Background()

	created, err := svc.CreateRole(ctx, CreateRoleRequest{Name: "  assistant ", Label: "Asistente"})
	require.NoError(t, err)
	assert.Equal(t, "ASSISTANT", created.Name)
	assert.Equal(t, "Asistente", created.Label)

	_, err = svc.CreateRole(ctx, CreateRoleRequest{Name: "assistant"})
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)

	// The reserved name is refused in any casing.
	_, err = svc.CreateRole(ctx, CreateRoleRequest{Name: "dev"})
	assert.ErrorIs(t, err, apperr.ErrForbiddenRole)
}

func TestReplaceRoleBindingsDeduplicates(t *testing.T) {
	catalog, svc := newCatalogEnv()
	ctx := context.Background()
	role := catalog.addRole("ASSISTANT", nil)

	permID := uuid.New()
	readID := uuid.New()
	writeID := uuid.New()

	tree, err := svc.ReplaceRoleBindings(ctx, role.ID.String(), ReplaceBindingsRequest{
		Bindings: []BindingPair{
			{PermissionID: permID.String(), ActionID: readID.String()},
			{PermissionID: permID.String(), ActionID: writeID.String()},
			{PermissionID: permID.String(), ActionID: readID.String()}, // duplicate
		},
	})
	require.NoError(t, err)

	require.Len(t, tree.Permissions, 1)
	assert.Equal(t, permID, tree.Permissions[0].PermissionID)
	assert.Len(t, tree.Permissions[0].Actions, 2)

	stored, err := catalog.BindingsForRole(ctx, role.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestReplaceRoleBindingsValidatesInput(t *testing.T) {
	catalog, svc := newCatalogEnv()
	ctx := context.Background()
	role := catalog.addRole("ASSISTANT", nil)

	_, err := svc.ReplaceRoleBindings(ctx, "not-a-uuid", ReplaceBindingsRequest{})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.ReplaceRoleBindings(ctx, uuid.NewString(), ReplaceBindingsRequest{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.ReplaceRoleBindings(ctx, role.ID.String(), ReplaceBindingsRequest{
		Bindings: []BindingPair{{PermissionID: "bad", ActionID: uuid.NewString()}},
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}
