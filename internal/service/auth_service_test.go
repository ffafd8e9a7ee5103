package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"dentalcare/internal/apperr"
	"dentalcare/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	testUsername = "ana@clinic.test"
	testPassword = "s3cret-password"
)

type authEnv struct {
	users    *fakeUserRepo
	tokens   *fakeTokenRepo
	config   *fakeConfigRepo
	catalog  *fakeCatalogRepo
	audit    *fakeAudit
	mail     *fakeMailer
	tokenSvc *tokenService
	svc      AuthService
	user     *model.UserSec
}

func newAuthEnv(t *testing.T, threshold int) *authEnv {
	t.Helper()

	users := newFakeUserRepo()
	tokens := &fakeTokenRepo{}
	config := &fakeConfigRepo{accessMillis: 15 * 60 * 1000, refreshDays: 14, threshold: threshold}
	catalog := newFakeCatalogRepo()
	audit := &fakeAudit{}
	mail := &fakeMailer{}

	role := catalog.addRole("SECRETARY", map[string][]string{
		"PATIENTS": {"READ", "WRITE"},
	})

	hashed, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &model.UserSec{
		Username:         testUsername,
		Password:         string(hashed),
		Enabled:          true,
		AccountNotLocked: true,
		Roles:            []model.Role{role},
	}
	require.NoError(t, users.Create(context.Background(), user))

	tokenSvc := &tokenService{tokens: tokens, config: config, secret: []byte("test-secret"), now: time.Now}
	authority := NewAuthorityService(catalog)
	svc := NewAuthService(users, config, tokenSvc, authority, audit, mail, zap.NewNop(), "http://localhost/reset")

	return &authEnv{
		users: users, tokens: tokens, config: config, catalog: catalog,
		audit: audit, mail: mail, tokenSvc: tokenSvc, svc: svc, user: user,
	}
}

func (e *authEnv) storedUser(t *testing.T) *model.UserSec {
	t.Helper()
	user, err := e.users.GetByUsername(context.Background(), testUsername)
	require.NoError(t, err)
	return user
}

func TestLoginSuccess(t *testing.T) {
	env := newAuthEnv(t, 5)

	result, err := env.svc.Login(context.Background(), LoginRequest{Username: testUsername, Password: testPassword})
	require.NoError(t, err)

	assert.Equal(t, env.user.ID, result.UserID)
	assert.Equal(t, testUsername, result.Username)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	require.Len(t, result.Roles, 1)
	assert.Equal(t, "SECRETARY", result.Roles[0].RoleName)

	principal, err := env.tokenSvc.ParseAccessToken(result.AccessToken)
	require.NoError(t, err)
	assert.Contains(t, principal.Authorities, "ROLE_SECRETARY")
	assert.Contains(t, principal.Authorities, "PERMISO_PATIENTS_READ")
	assert.Contains(t, principal.Authorities, "PERMISO_PATIENTS_WRITE")

	assert.Equal(t, 1, env.tokens.countForUser(env.user.ID))
	assert.True(t, env.audit.has(model.ActionLoginSuccess))
}

func TestLockoutThreshold(t *testing.T) {
	env := newAuthEnv(t, 5)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		_, err := env.svc.Login(ctx, LoginRequest{Username: testUsername, Password: "wrong"})
		assert.ErrorIs(t, err, apperr.ErrCredentialsInvalid, "attempt %d", i)
		assert.Equal(t, i, env.storedUser(t).FailedLoginAttempts)
		assert.True(t, env.storedUser(t).AccountNotLocked)
	}

	_, err := env.svc.Login(ctx, LoginRequest{Username: testUsername, Password: "wrong"})
	assert.ErrorIs(t, err, apperr.ErrAccountLocked)

	stored := env.storedUser(t)
	assert.False(t, stored.AccountNotLocked)
	assert.NotNil(t, stored.LockTime)
	assert.Equal(t, 5, stored.FailedLoginAttempts)
	assert.True(t, env.audit.has(model.ActionAccountLocked))

	// The correct password no longer helps; elapsed time never unlocks.
	_, err = env.svc.Login(ctx, LoginRequest{Username: testUsername, Password: testPassword})
	assert.ErrorIs(t, err, apperr.ErrAccountLocked)
}

func TestSuccessfulLoginResetsCounter(t *testing.T) {
	env := newAuthEnv(t, 5)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := env.svc.Login(ctx, LoginRequest{Username: testUsername, Password: "wrong"})
		assert.ErrorIs(t, err, apperr.ErrCredentialsInvalid)
	}
	require.Equal(t, 3, env.storedUser(t).FailedLoginAttempts)

	_, err := env.svc.Login(ctx, LoginRequest{Username: testUsername, Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, 0, env.storedUser(t).FailedLoginAttempts)
}

func TestDisabledAccount(t *testing.T) {
	env := newAuthEnv(t, 5)
	ctx := context.Background()

	stored := env.storedUser(t)
	stored.Enabled = false
	require.NoError(t, env.users.Save(ctx, stored))

	// Enabled is only checked after a password match.
	_, err := env.svc.Login(ctx, LoginRequest{Username: testUsername, Password: testPassword})
	assert.ErrorIs(t, err, apperr.ErrAccountDisabled)

	_, err = env.svc.Login(ctx, LoginRequest{Username: testUsername, Password: "wrong"})
	assert.ErrorIs(t, err, apperr.ErrCredentialsInvalid)
}

func TestUnknownUsername(t *testing.T) {
	env := newAuthEnv(t, 5)

	_, err := env.svc.Login(context.Background(), LoginRequest{Username: "ghost@clinic.test", Password: "whatever"})
	assert.ErrorIs(t, err, apperr.ErrCredentialsInvalid)
}

func TestRefreshRotatesToken(t *testing.T) {
	env := newAuthEnv(t, 5)
	ctx := context.Background()

	result, err := env.svc.Login(ctx, LoginRequest{Username: testUsername, Password: testPassword})
	require.NoError(t, err)
	oldToken := result.RefreshToken

	principal, err := env.tokenSvc.ParseAccessToken(result.AccessToken)
	require.NoError(t, err)

	pair, err := env.svc.Refresh(ctx, result.UserID, result.Username, principal.Authorities, oldToken)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEqual(t, oldToken, pair.RefreshToken)
	assert.Equal(t, 1, env.tokens.countForUser(result.UserID))

	// The rotated-out token must be rejected.
	_, err = env.svc.Refresh(ctx, result.UserID, result.Username, principal.Authorities, oldToken)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.True(t, env.audit.has(model.ActionRefreshDenied))
}

func TestRefreshWithoutStoredToken(t *testing.T) {
	env := newAuthEnv(t, 5)

	_, err := env.svc.Refresh(context.Background(), env.user.ID, testUsername, nil, "anything")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestRefreshExpiredToken(t *testing.T) {
	env := newAuthEnv(t, 5)
	ctx := context.Background()

	result, err := env.svc.Login(ctx, LoginRequest{Username: testUsername, Password: testPassword})
	require.NoError(t, err)

	env.tokenSvc.now = func() time.Time { return time.Now().AddDate(0, 0, 15) }

	_, err = env.svc.Refresh(ctx, result.UserID, result.Username, nil, result.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	// Failed validation must not rotate the stored token.
	stored, err := env.tokens.GetByUserID(ctx, result.UserID)
	require.NoError(t, err)
	assert.Equal(t, result.RefreshToken, stored.Token)
}

// newRaceAuthEnv builds an env whose token repo sleeps between the delete and
// the insert of a rotation, widening the window a concurrent issuance would
// need to interleave into.
func newRaceAuthEnv(t *testing.T) *authEnv {
	t.Helper()

	env := newAuthEnv(t, 5)
	slow := &slowDeleteTokenRepo{fakeTokenRepo: env.tokens, delay: 10 * time.Millisecond}
	env.tokenSvc.tokens = slow
	return env
}

func TestConcurrentLoginsKeepOneRefreshToken(t *testing.T) {
	env := newRaceAuthEnv(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Login(ctx, LoginRequest{Username: testUsername, Password: testPassword})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, env.tokens.countForUser(env.user.ID))
}

func TestConcurrentRefreshKeepsOneToken(t *testing.T) {
	env := newRaceAuthEnv(t)
	ctx := context.Background()

	result, err := env.svc.Login(ctx, LoginRequest{Username: testUsername, Password: testPassword})
	require.NoError(t, err)

	// Both callers present the same stored token. Exactly one may rotate; the
	// other must see a token that no longer matches.
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Refresh(ctx, result.UserID, result.Username, nil, result.RefreshToken)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, apperr.ErrUnauthorized)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, env.tokens.countForUser(result.UserID))
}

func countUserLocks(svc AuthService) int {
	n := 0
	svc.(*authService).userLocks.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

func TestUnknownUsernamesDoNotGrowLockMap(t *testing.T) {
	env := newAuthEnv(t, 5)
	ctx := context.Background()

	// A credential-spraying client cycling usernames must not allocate state.
	for i := 0; i < 25; i++ {
		_, err := env.svc.Login(ctx, LoginRequest{Username: fmt.Sprintf("guess-%d@clinic.test", i), Password: "spray"})
		assert.ErrorIs(t, err, apperr.ErrCredentialsInvalid)
	}
	assert.Equal(t, 0, countUserLocks(env.svc))

	_, err := env.svc.Login(ctx, LoginRequest{Username: testUsername, Password: "wrong"})
	assert.ErrorIs(t, err, apperr.ErrCredentialsInvalid)
	assert.Equal(t, 1, countUserLocks(env.svc))
}

func TestLogout(t *testing.T) {
	env := newAuthEnv(t, 5)
	ctx := context.Background()

	result, err := env.svc.Login(ctx, LoginRequest{Username: testUsername, Password: testPassword})
	require.NoError(t, err)

	require.NoError(t, env.svc.Logout(ctx, result.RefreshToken))
	assert.Equal(t, 0, env.tokens.countForUser(result.UserID))

	// Nothing left to delete: the logout path reports it.
	err = env.svc.Logout(ctx, result.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestPasswordResetUnlocksAccount(t *testing.T) {
	env := newAuthEnv(t, 5)
	ctx := context.Background()

	now := time.Now()
	stored := env.storedUser(t)
	stored.AccountNotLocked = false
	stored.LockTime = &now
	stored.FailedLoginAttempts = 5
	require.NoError(t, env.users.Save(ctx, stored))

	require.NoError(t, env.svc.RequestPasswordReset(ctx, testUsername))
	stored = env.storedUser(t)
	require.NotNil(t, stored.ResetPasswordToken)
	resetToken := *stored.ResetPasswordToken
	assert.Contains(t, env.mail.sent, "Password reset")

	err := env.svc.ResetPassword(ctx, ResetPasswordRequest{
		Token:        resetToken,
		NewPassword1: "brand-new-pass",
		NewPassword2: "brand-new-pass",
	})
	require.NoError(t, err)

	stored = env.storedUser(t)
	assert.True(t, stored.AccountNotLocked)
	assert.Nil(t, stored.LockTime)
	assert.Equal(t, 0, stored.FailedLoginAttempts)
	assert.Nil(t, stored.ResetPasswordToken)

	_, err = env.svc.Login(ctx, LoginRequest{Username: testUsername, Password: "brand-new-pass"})
	require.NoError(t, err)

	// The token is single-use.
	err = env.svc.ResetPassword(ctx, ResetPasswordRequest{
		Token:        resetToken,
		NewPassword1: "another-pass",
		NewPassword2: "another-pass",
	})
	assert.ErrorIs(t, err, apperr.ErrTokenInvalid)
}

func TestPasswordMismatchIsNonDestructive(t *testing.T) {
	env := newAuthEnv(t, 5)
	ctx := context.Background()

	require.NoError(t, env.svc.RequestPasswordReset(ctx, testUsername))
	before := env.storedUser(t)
	require.NotNil(t, before.ResetPasswordToken)

	err := env.svc.ResetPassword(ctx, ResetPasswordRequest{
		Token:        *before.ResetPasswordToken,
		NewPassword1: "first-choice",
		NewPassword2: "second-choice",
	})
	assert.ErrorIs(t, err, apperr.ErrPasswordMismatch)

	after := env.storedUser(t)
	assert.Equal(t, before.Password, after.Password)
	require.NotNil(t, after.ResetPasswordToken)
	assert.Equal(t, *before.ResetPasswordToken, *after.ResetPasswordToken)
}

func TestResetRequestForUnknownUser(t *testing.T) {
	env := newAuthEnv(t, 5)

	err := env.svc.RequestPasswordReset(context.Background(), "ghost@clinic.test")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestResetMailFailureDoesNotFailOperation(t *testing.T) {
	env := newAuthEnv(t, 5)
	env.mail.fail = errors.New("relay down")

	err := env.svc.RequestPasswordReset(context.Background(), testUsername)
	require.NoError(t, err)
	assert.NotNil(t, env.storedUser(t).ResetPasswordToken)
}

func TestResetWithForgedTokenForOtherCycle(t *testing.T) {
	env := newAuthEnv(t, 5)
	ctx := context.Background()

	require.NoError(t, env.svc.RequestPasswordReset(ctx, testUsername))

	// A validly signed token that is not the stored one must be rejected.
	forged, err := env.tokenSvc.IssueAccessToken(ctx, Principal{
		UserID:   env.user.ID,
		Username: testUsername,
	})
	require.NoError(t, err)

	err = env.svc.ResetPassword(ctx, ResetPasswordRequest{
		Token:        forged,
		NewPassword1: "new-pass-123",
		NewPassword2: "new-pass-123",
	})
	assert.ErrorIs(t, err, apperr.ErrTokenInvalid)
}
