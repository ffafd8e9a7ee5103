package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"dentalcare/internal/apperr"
	"dentalcare/internal/mailer"
	"dentalcare/internal/model"
	"dentalcare/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- DTOs ---

type LoginRequest struct {
	Username string `json:"username" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResult carries the structured role trees alongside the flattened
// token: clients render the permission/action tree in the UI while endpoint
// checks work off the authority strings inside the access token.
type LoginResult struct {
	UserID       uuid.UUID           `json:"user_id"`
	Username     string              `json:"username"`
	Roles        []RoleAuthorityTree `json:"roles"`
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type ResetPasswordRequest struct {
	Token        string `json:"token" binding:"required"`
	NewPassword1 string `json:"new_password_1" binding:"required,min=8"`
	NewPassword2 string `json:"new_password_2" binding:"required"`
}

// --- Interface ---

// AuthService composes the credential guard, the authority resolver and the
// token service into the user-facing session operations, plus the
// password-reset flow built on the access-token mechanism.
//
// Refresh reissues the access token from the previously validated
// authentication context; authorities are not re-resolved from the database,
// so a role change between login and refresh only takes effect at the next
// login.
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Refresh(ctx context.Context, userID uuid.UUID, username string, authorities []string, presentedToken string) (*TokenPair, error)
	Logout(ctx context.Context, presentedToken string) error
	RequestPasswordReset(ctx context.Context, username string) error
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
}

type authService struct {
	users     repository.UserRepository
	config    repository.ConfigRepository
	tokens    TokenService
	authority AuthorityService
	audit     AuditRecorder
	mail      mailer.Mailer
	logger    *zap.Logger
	resetURL  string

	// Auth state for a given account is serialized: concurrent wrong-password
	// attempts cannot lose counter increments, and concurrent token issuance
	// cannot interleave the delete-then-create refresh rotation.
	userLocks sync.Map // username -> *sync.Mutex
}

// NewAuthService returns a new instance of AuthService. resetURL is the
// frontend base the emailed reset token is appended to.
func NewAuthService(
	users repository.UserRepository,
	config repository.ConfigRepository,
	tokens TokenService,
	authority AuthorityService,
	audit AuditRecorder,
	mail mailer.Mailer,
	logger *zap.Logger,
	resetURL string,
) AuthService {
	return &authService{
		users:     users,
		config:    config,
		tokens:    tokens,
		authority: authority,
		audit:     audit,
		mail:      mail,
		logger:    logger,
		resetURL:  resetURL,
	}
}

// --- Credential & lockout guard ---

// lockFor returns the mutex guarding one account's auth state. Callers probe
// for the account first (or hold a validly signed token naming it), so the
// map only ever grows one entry per real account, not per attempted username.
func (s *authService) lockFor(username string) *sync.Mutex {
	actual, _ := s.userLocks.LoadOrStore(username, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

// authenticate runs the per-account state machine. The response never
// distinguishes an unknown username from a wrong password; only the log does.
// Lockout is permanent until a password reset or an administrative unlock —
// elapsed time alone never clears it.
func (s *authService) authenticate(ctx context.Context, username, password string) (*model.UserSec, error) {
	// Unlocked existence probe; unknown usernames never allocate a mutex.
	if _, err := s.users.GetByUsername(ctx, username); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Info("login failed: unknown username", zap.String("username", username))
			s.audit.Record(ctx, nil, username, model.ActionLoginFailed, map[string]interface{}{"reason": "unknown_user"})
			return nil, apperr.ErrCredentialsInvalid
		}
		return nil, apperr.Persistence("load account", err)
	}

	mu := s.lockFor(username)
	mu.Lock()
	defer mu.Unlock()

	// Re-read under the lock; a concurrent attempt may have advanced the
	// counter or locked the account since the probe.
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrCredentialsInvalid
		}
		return nil, apperr.Persistence("load account", err)
	}

	if !user.AccountNotLocked {
		s.audit.Record(ctx, &user.ID, username, model.ActionLoginFailed, map[string]interface{}{"reason": "locked"})
		return nil, apperr.ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, s.registerFailedAttempt(ctx, user)
	}

	// Enabled is checked only after a password match so a disabled account
	// does not leak whether the password was correct.
	if !user.Enabled {
		s.audit.Record(ctx, &user.ID, username, model.ActionLoginFailed, map[string]interface{}{"reason": "disabled"})
		return nil, apperr.ErrAccountDisabled
	}

	if user.FailedLoginAttempts != 0 {
		user.FailedLoginAttempts = 0
		if err := s.users.Save(ctx, user); err != nil {
			return nil, apperr.Persistence("reset attempt counter", err)
		}
	}

	return user, nil
}

// registerFailedAttempt increments the counter and locks the account when the
// post-increment count reaches the configured threshold.
func (s *authService) registerFailedAttempt(ctx context.Context, user *model.UserSec) error {
	threshold, err := s.config.FailedLoginThreshold(ctx)
	if err != nil {
		return apperr.Persistence("read lockout threshold", err)
	}

	user.FailedLoginAttempts++
	if user.FailedLoginAttempts >= threshold {
		now := time.Now()
		user.AccountNotLocked = false
		user.LockTime = &now
		if err := s.users.Save(ctx, user); err != nil {
			return apperr.Persistence("lock account", err)
		}
		s.audit.Record(ctx, &user.ID, user.Username, model.ActionAccountLocked, map[string]interface{}{
			"failed_attempts": user.FailedLoginAttempts,
			"threshold":       threshold,
		})
		return apperr.ErrAccountLocked
	}

	if err := s.users.Save(ctx, user); err != nil {
		return apperr.Persistence("record failed attempt", err)
	}
	s.audit.Record(ctx, &user.ID, user.Username, model.ActionLoginFailed, map[string]interface{}{
		"reason":          "wrong_password",
		"failed_attempts": user.FailedLoginAttempts,
	})
	return apperr.ErrCredentialsInvalid
}

// --- Session orchestration ---

func (s *authService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	trees, err := s.authority.ResolveUser(ctx, user)
	if err != nil {
		return nil, err
	}
	authorities := FlattenAuthorities(trees...)

	principal := Principal{UserID: user.ID, Username: user.Username, Authorities: authorities}
	accessToken, refreshToken, err := s.issueSession(ctx, principal)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &user.ID, user.Username, model.ActionLoginSuccess, map[string]interface{}{
		"roles": len(trees),
	})

	return &LoginResult{
		UserID:       user.ID,
		Username:     user.Username,
		Roles:        trees,
		AccessToken:  accessToken,
		RefreshToken: refreshToken.Token,
	}, nil
}

// issueSession mints the token pair for an authenticated principal. The
// per-account mutex is held across the whole issuance: the delete inside
// IssueRefreshToken and the insert that follows are two statements, and
// interleaving two issuances would leave two live rows for the user.
func (s *authService) issueSession(ctx context.Context, principal Principal) (string, *model.RefreshToken, error) {
	mu := s.lockFor(principal.Username)
	mu.Lock()
	defer mu.Unlock()

	// Redundant with the replace-on-issue inside IssueRefreshToken, kept as
	// defense in depth.
	if err := s.tokens.DeleteRefreshTokenForUser(ctx, principal.UserID); err != nil {
		return "", nil, err
	}

	accessToken, err := s.tokens.IssueAccessToken(ctx, principal)
	if err != nil {
		return "", nil, err
	}
	refreshToken, err := s.tokens.IssueRefreshToken(ctx, principal.UserID)
	if err != nil {
		return "", nil, err
	}
	return accessToken, refreshToken, nil
}

// rotate validates the presented refresh token and replaces it, all under the
// account's mutex so two concurrent refreshes cannot both pass validation and
// interleave their replacements.
func (s *authService) rotate(ctx context.Context, userID uuid.UUID, username, presentedToken string) (*model.RefreshToken, error) {
	mu := s.lockFor(username)
	mu.Lock()
	defer mu.Unlock()

	stored, err := s.tokens.GetRefreshTokenForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.ValidateRefreshToken(stored, presentedToken); err != nil {
		return nil, err
	}
	return s.tokens.IssueRefreshToken(ctx, userID)
}

// Refresh rotates the refresh token and reissues the access token. Validation
// failure never partially rotates: the stored token is only replaced after
// the presented one checks out.
func (s *authService) Refresh(ctx context.Context, userID uuid.UUID, username string, authorities []string, presentedToken string) (*TokenPair, error) {
	refreshToken, err := s.rotate(ctx, userID, username, presentedToken)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrTokenMismatch):
			// A mismatch can mean replay of a rotated-out token; worth the
			// louder log line.
			s.logger.Warn("refresh token mismatch", zap.String("username", username))
			s.audit.Record(ctx, &userID, username, model.ActionRefreshDenied, map[string]interface{}{"reason": "mismatch"})
			return nil, fmt.Errorf("%w: refresh mismatch", apperr.ErrUnauthorized)
		case errors.Is(err, apperr.ErrTokenExpired):
			s.audit.Record(ctx, &userID, username, model.ActionRefreshDenied, map[string]interface{}{"reason": "expired"})
			return nil, fmt.Errorf("%w: refresh expired", apperr.ErrUnauthorized)
		default:
			return nil, err
		}
	}

	principal := Principal{UserID: userID, Username: username, Authorities: authorities}
	accessToken, err := s.tokens.IssueAccessToken(ctx, principal)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &userID, username, model.ActionTokenRefresh, nil)

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken.Token}, nil
}

// Logout deletes the refresh token; it is the sole server-side session
// termination. Access tokens already issued stay valid until they expire.
func (s *authService) Logout(ctx context.Context, presentedToken string) error {
	if err := s.tokens.DeleteRefreshToken(ctx, presentedToken); err != nil {
		return err
	}
	s.audit.Record(ctx, nil, "", model.ActionLogout, nil)
	return nil
}

// --- Password reset ---

func (s *authService) RequestPasswordReset(ctx context.Context, username string) error {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrUnauthorized
		}
		return apperr.Persistence("load account", err)
	}

	trees, err := s.authority.ResolveUser(ctx, user)
	if err != nil {
		return err
	}

	// The reset token reuses the access-token mechanism, scoped to the user's
	// current authorities.
	principal := Principal{UserID: user.ID, Username: user.Username, Authorities: FlattenAuthorities(trees...)}
	token, err := s.tokens.IssueAccessToken(ctx, principal)
	if err != nil {
		return err
	}

	// Single active reset token per account: overwrite any prior one.
	user.ResetPasswordToken = &token
	if err := s.users.Save(ctx, user); err != nil {
		return apperr.Persistence("store reset token", err)
	}

	s.sendMail(user.Username, "Password reset",
		"A password reset was requested for your account.\n\nFollow this link to choose a new password:\n"+s.resetURL+"?token="+token)

	s.audit.Record(ctx, &user.ID, user.Username, model.ActionResetRequested, nil)
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	principal, err := s.tokens.ParseAccessToken(req.Token)
	if err != nil {
		return err
	}

	mu := s.lockFor(principal.Username)
	mu.Lock()
	defer mu.Unlock()

	user, err := s.users.GetByUsername(ctx, principal.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrTokenInvalid
		}
		return apperr.Persistence("load account", err)
	}

	// A validly signed token from a stale reset cycle must not pass: the
	// account has to hold this exact token string.
	if user.ResetPasswordToken == nil || *user.ResetPasswordToken != req.Token {
		return apperr.ErrTokenInvalid
	}

	if req.NewPassword1 != req.NewPassword2 {
		return apperr.ErrPasswordMismatch
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword1), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	// Reset doubles as the unlock mechanism.
	user.Password = string(hashed)
	user.AccountNotLocked = true
	user.LockTime = nil
	user.FailedLoginAttempts = 0
	user.ResetPasswordToken = nil
	if err := s.users.Save(ctx, user); err != nil {
		return apperr.Persistence("store new password", err)
	}

	s.sendMail(user.Username, "Password changed",
		"Your password was changed. If this was not you, contact the practice immediately.")

	s.audit.Record(ctx, &user.ID, user.Username, model.ActionResetCompleted, nil)
	return nil
}

// sendMail delivers best-effort: a failed send is logged, never propagated.
func (s *authService) sendMail(to, subject, body string) {
	if err := s.mail.Send(to, subject, body); err != nil {
		s.logger.Warn("mail delivery failed", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
	}
}
