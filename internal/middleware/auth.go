package middleware

import (
	"net/http"
	"os"
	"strings"

	"dentalcare/internal/apperr"
	"dentalcare/internal/service"
	"dentalcare/pkg/response"

	"github.com/gin-gonic/gin"
)

// Context keys set by Authorize
const (
	ContextPrincipal = "principal"
)

func GetJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // Development fallback only — DO NOT use in production
	}
	return []byte(secret)
}

// SetTokenCookies sets access_token and refresh_token as HttpOnly cookies
func SetTokenCookies(c *gin.Context, accessToken, refreshToken string) {
	// Production (cross-origin): SameSiteNoneMode + Secure=true
	// Development (same-site):   SameSiteLaxMode  + Secure=false
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", accessToken, 3600*24, "/", "", secure, true)
	c.SetCookie("refresh_token", refreshToken, 3600*24*7, "/", "", secure, true)
}

// ClearTokenCookies removes access_token and refresh_token cookies
func ClearTokenCookies(c *gin.Context) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
	c.SetCookie("refresh_token", "", -1, "/", "", secure, true)
}

// TokenFromRequest extracts the access token from the cookie or the
// Authorization header. Empty string when neither is present.
func TokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie("access_token"); err == nil && token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// Authorize validates the access token and stores the principal in the gin
// context. The check is purely cryptographic: no database access, so a
// disabled or locked account keeps its access until the token expires.
//
// Deliberately no c.Next() on success: gin advances the chain on its own, and
// RequireAuthority calls this as a plain function before its own check runs.
func Authorize(tokens service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := TokenFromRequest(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "error.unauthorized", "Authorization is missing"))
			return
		}

		principal, err := tokens.ParseAccessToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, apperr.MessageKey(err), "Invalid token"))
			return
		}

		c.Set(ContextPrincipal, *principal)
	}
}

// RequireAuthority composes Authorize with an authority membership check.
// The caller passes alternatives: any one matching authority admits the
// request.
func RequireAuthority(tokens service.TokenService, authorities ...string) gin.HandlerFunc {
	authorize := Authorize(tokens)
	return func(c *gin.Context) {
		authorize(c)
		if c.IsAborted() {
			return
		}

		principal := MustPrincipal(c)
		for _, a := range authorities {
			if principal.HasAuthority(a) {
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "error.forbidden", "Access denied: insufficient authority"))
	}
}

// MustPrincipal returns the principal Authorize stored in the context.
// Only valid on routes behind Authorize or RequireAuthority.
func MustPrincipal(c *gin.Context) service.Principal {
	principal, _ := c.Get(ContextPrincipal)
	p, _ := principal.(service.Principal)
	return p
}
