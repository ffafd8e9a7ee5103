package service

import (
	"context"
	"sync"
	"time"

	"dentalcare/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory stand-ins for the gorm repositories. They return
// gorm.ErrRecordNotFound for missing rows so the services exercise the same
// error paths they hit in production.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]model.UserSec
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]model.UserSec)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.UserSec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.UserSec, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	if user, ok := f.users[parsed]; ok {
		copied := user
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.UserSec, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Username == username {
			copied := user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) List(_ context.Context, page, limit int) ([]model.UserSec, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.UserSec, 0, len(f.users))
	for _, user := range f.users {
		out = append(out, user)
	}
	return out, int64(len(out)), nil
}

func (f *fakeUserRepo) Save(_ context.Context, user *model.UserSec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) ReplaceRoles(_ context.Context, user *model.UserSec, roles []model.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := f.users[user.ID]
	stored.Roles = roles
	f.users[user.ID] = stored
	return nil
}

type fakeTokenRepo struct {
	mu   sync.Mutex
	rows []model.RefreshToken
}

func (f *fakeTokenRepo) Create(_ context.Context, token *model.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	f.rows = append(f.rows, *token)
	return nil
}

func (f *fakeTokenRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.UserID == userID {
			copied := row
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTokenRepo) GetByToken(_ context.Context, token string) (*model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.Token == token {
			copied := row
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTokenRepo) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.rows[:0]
	for _, row := range f.rows {
		if row.UserID != userID {
			kept = append(kept, row)
		}
	}
	f.rows = kept
	return nil
}

func (f *fakeTokenRepo) DeleteByToken(_ context.Context, token string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	kept := f.rows[:0]
	for _, row := range f.rows {
		if row.Token == token {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	f.rows = kept
	return removed, nil
}

func (f *fakeTokenRepo) countForUser(userID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, row := range f.rows {
		if row.UserID == userID {
			n++
		}
	}
	return n
}

// slowDeleteTokenRepo stretches the gap between the delete and the insert of
// a token rotation so concurrency tests can land inside it.
type slowDeleteTokenRepo struct {
	*fakeTokenRepo
	delay time.Duration
}

func (s *slowDeleteTokenRepo) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	err := s.fakeTokenRepo.DeleteByUserID(ctx, userID)
	time.Sleep(s.delay)
	return err
}

type fakeConfigRepo struct {
	accessMillis int64
	refreshDays  int
	threshold    int
}

func (f *fakeConfigRepo) AccessTokenExpirationMillis(context.Context) (int64, error) {
	return f.accessMillis, nil
}
func (f *fakeConfigRepo) RefreshTokenExpirationDays(context.Context) (int, error) {
	return f.refreshDays, nil
}
func (f *fakeConfigRepo) FailedLoginThreshold(context.Context) (int, error) {
	return f.threshold, nil
}
func (f *fakeConfigRepo) SetAccessTokenExpirationMillis(_ context.Context, millis int64) error {
	f.accessMillis = millis
	return nil
}
func (f *fakeConfigRepo) SetRefreshTokenExpirationDays(_ context.Context, days int) error {
	f.refreshDays = days
	return nil
}
func (f *fakeConfigRepo) SetFailedLoginThreshold(_ context.Context, threshold int) error {
	f.threshold = threshold
	return nil
}

type fakeCatalogRepo struct {
	mu       sync.Mutex
	actions  []model.Action
	perms    []model.Permission
	roles    map[uuid.UUID]model.Role
	bindings map[uuid.UUID][]model.RolePermissionAction
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		roles:    make(map[uuid.UUID]model.Role),
		bindings: make(map[uuid.UUID][]model.RolePermissionAction),
	}
}

func (f *fakeCatalogRepo) ListActions(context.Context) ([]model.Action, error) {
	return f.actions, nil
}

func (f *fakeCatalogRepo) ListPermissions(context.Context) ([]model.Permission, error) {
	return f.perms, nil
}

func (f *fakeCatalogRepo) ListRoles(context.Context) ([]model.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Role, 0, len(f.roles))
	for _, role := range f.roles {
		out = append(out, role)
	}
	return out, nil
}

func (f *fakeCatalogRepo) GetRoleByID(_ context.Context, id uuid.UUID) (*model.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if role, ok := f.roles[id]; ok {
		copied := role
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCatalogRepo) GetRoleByName(_ context.Context, name string) (*model.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, role := range f.roles {
		if role.Name == name {
			copied := role
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCatalogRepo) CreateRole(_ context.Context, role *model.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if role.ID == uuid.Nil {
		role.ID = uuid.New()
	}
	f.roles[role.ID] = *role
	return nil
}

func (f *fakeCatalogRepo) SaveRole(_ context.Context, role *model.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles[role.ID] = *role
	return nil
}

func (f *fakeCatalogRepo) BindingsForRole(_ context.Context, roleID uuid.UUID) ([]model.RolePermissionAction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.RolePermissionAction(nil), f.bindings[roleID]...), nil
}

func (f *fakeCatalogRepo) ReplaceBindings(_ context.Context, roleID uuid.UUID, rows []model.RolePermissionAction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bindings[roleID] = append([]model.RolePermissionAction(nil), rows...)
	return nil
}

// addRole registers a role with bindings built from (permission, actions) pairs.
func (f *fakeCatalogRepo) addRole(name string, perms map[string][]string) model.Role {
	role := model.Role{ID: uuid.New(), Name: name, Label: name}
	f.roles[role.ID] = role
	for permName, actionNames := range perms {
		perm := model.Permission{ID: uuid.New(), Name: permName, Label: permName}
		f.perms = append(f.perms, perm)
		for _, actionName := range actionNames {
			action := model.Action{ID: uuid.New(), Name: actionName, Label: actionName}
			f.actions = append(f.actions, action)
			f.bindings[role.ID] = append(f.bindings[role.ID], model.RolePermissionAction{
				ID:           uuid.New(),
				RoleID:       role.ID,
				PermissionID: perm.ID,
				ActionID:     action.ID,
				Permission:   perm,
				Action:       action,
			})
		}
	}
	return role
}

type fakeAudit struct {
	mu      sync.Mutex
	actions []string
}

func (f *fakeAudit) Record(_ context.Context, _ *uuid.UUID, _ string, action string, _ map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
}

func (f *fakeAudit) has(action string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.actions {
		if a == action {
			return true
		}
	}
	return false
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
	fail error
}

func (f *fakeMailer) Send(to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, subject)
	return nil
}
