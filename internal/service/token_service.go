package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"dentalcare/internal/apperr"
	"dentalcare/internal/model"
	"dentalcare/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Principal is the authenticated identity carried by an access token
type Principal struct {
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	Authorities []string  `json:"authorities"`
}

// HasAuthority reports whether the principal carries the given authority
func (p Principal) HasAuthority(authority string) bool {
	for _, a := range p.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}

// TokenService issues and validates the two token kinds. Access tokens are
// stateless signed JWTs checked purely cryptographically; refresh tokens are
// opaque random strings persisted one-per-user and rotated on use. The two
// are deliberately separate consistency domains: revoking a refresh token
// stops new access tokens from being minted, but an issued access token stays
// valid until its TTL runs out.
type TokenService interface {
	IssueAccessToken(ctx context.Context, principal Principal) (string, error)
	ParseAccessToken(token string) (*Principal, error)
	// ParseAccessTokenClaims parses without expiry validation; used on the
	// refresh path to recover the previously validated authentication context.
	ParseAccessTokenClaims(token string) (*Principal, error)

	IssueRefreshToken(ctx context.Context, userID uuid.UUID) (*model.RefreshToken, error)
	ValidateRefreshToken(stored *model.RefreshToken, presented string) error
	GetRefreshTokenForUser(ctx context.Context, userID uuid.UUID) (*model.RefreshToken, error)
	DeleteRefreshTokenForUser(ctx context.Context, userID uuid.UUID) error
	DeleteRefreshToken(ctx context.Context, token string) error
}

type tokenService struct {
	tokens repository.RefreshTokenRepository
	config repository.ConfigRepository
	secret []byte
	now    func() time.Time
}

// NewTokenService returns a new instance of TokenService
func NewTokenService(tokens repository.RefreshTokenRepository, config repository.ConfigRepository, secret []byte) TokenService {
	return &tokenService{tokens: tokens, config: config, secret: secret, now: time.Now}
}

// --- Access tokens ---

func (s *tokenService) IssueAccessToken(ctx context.Context, principal Principal) (string, error) {
	ttlMillis, err := s.config.AccessTokenExpirationMillis(ctx)
	if err != nil {
		return "", apperr.Persistence("read token config", err)
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":         principal.UserID.String(),
		"username":    principal.Username,
		"authorities": principal.Authorities,
		"iat":         now.Unix(),
		"exp":         now.Add(time.Duration(ttlMillis) * time.Millisecond).Unix(),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		// A signing failure is a server fault, not a bad token from the
		// client; left unwrapped it maps to the internal bucket.
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

func (s *tokenService) ParseAccessToken(token string) (*Principal, error) {
	return s.parseAccessToken(token, true)
}

func (s *tokenService) ParseAccessTokenClaims(token string) (*Principal, error) {
	return s.parseAccessToken(token, false)
}

func (s *tokenService) parseAccessToken(tokenString string, validateExpiry bool) (*Principal, error) {
	opts := []jwt.ParserOption{jwt.WithTimeFunc(s.now)}
	if !validateExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", apperr.ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type", apperr.ErrTokenInvalid)
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", apperr.ErrTokenInvalid)
	}
	username, _ := claims["username"].(string)
	if username == "" {
		return nil, fmt.Errorf("%w: missing username", apperr.ErrTokenInvalid)
	}

	var authorities []string
	if raw, ok := claims["authorities"].([]interface{}); ok {
		for _, entry := range raw {
			if s, ok := entry.(string); ok {
				authorities = append(authorities, s)
			}
		}
	}

	return &Principal{UserID: userID, Username: username, Authorities: authorities}, nil
}

// --- Refresh tokens ---

// IssueRefreshToken enforces the at-most-one-per-user invariant by deleting
// any existing row before persisting the replacement.
func (s *tokenService) IssueRefreshToken(ctx context.Context, userID uuid.UUID) (*model.RefreshToken, error) {
	days, err := s.config.RefreshTokenExpirationDays(ctx)
	if err != nil {
		return nil, apperr.Persistence("read refresh token config", err)
	}

	if err := s.tokens.DeleteByUserID(ctx, userID); err != nil {
		return nil, apperr.Persistence("replace refresh token", err)
	}

	opaque, err := randomToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	row := &model.RefreshToken{
		UserID:         userID,
		Token:          opaque,
		ExpirationDate: s.now().AddDate(0, 0, days),
	}
	if err := s.tokens.Create(ctx, row); err != nil {
		return nil, apperr.Persistence("store refresh token", err)
	}
	return row, nil
}

// ValidateRefreshToken requires an exact string match and an unexpired row.
// The two failures are distinct kinds: a mismatch can indicate theft or reuse
// after rotation, expiry is benign.
func (s *tokenService) ValidateRefreshToken(stored *model.RefreshToken, presented string) error {
	if subtle.ConstantTimeCompare([]byte(stored.Token), []byte(presented)) != 1 {
		return apperr.ErrTokenMismatch
	}
	if !stored.ExpirationDate.After(s.now()) {
		return apperr.ErrTokenExpired
	}
	return nil
}

func (s *tokenService) GetRefreshTokenForUser(ctx context.Context, userID uuid.UUID) (*model.RefreshToken, error) {
	row, err := s.tokens.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrUnauthorized
		}
		return nil, apperr.Persistence("load refresh token", err)
	}
	return row, nil
}

func (s *tokenService) DeleteRefreshTokenForUser(ctx context.Context, userID uuid.UUID) error {
	if err := s.tokens.DeleteByUserID(ctx, userID); err != nil {
		return apperr.Persistence("delete refresh token", err)
	}
	return nil
}

// DeleteRefreshToken removes the presented token. Deleting a token that does
// not exist returns ErrUnauthorized rather than succeeding quietly; see
// DESIGN.md for the open question around making the logout path idempotent.
func (s *tokenService) DeleteRefreshToken(ctx context.Context, token string) error {
	affected, err := s.tokens.DeleteByToken(ctx, token)
	if err != nil {
		return apperr.Persistence("delete refresh token", err)
	}
	if affected == 0 {
		return apperr.ErrUnauthorized
	}
	return nil
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
