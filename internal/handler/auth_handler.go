package handler

import (
	"net/http"

	"dentalcare/internal/middleware"
	"dentalcare/internal/service"
	"dentalcare/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService  service.AuthService
	tokenService service.TokenService
}

// NewAuthHandler sets up the routing dependencies for the session endpoints
func NewAuthHandler(authService service.AuthService, tokenService service.TokenService) *AuthHandler {
	return &AuthHandler{authService: authService, tokenService: tokenService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.POST("/reset-password", h.ResetPassword)
	}
}

// Login handles POST /auth/login
// @Summary      Login
// @Description  Authenticates by username and password, returning the role tree plus an access/refresh token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Login Credentials"
// @Success      200      {object}  response.Response{data=service.LoginResult}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "error.invalid_input", "Invalid request payload"))
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	middleware.SetTokenCookies(c, result.AccessToken, result.RefreshToken)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh handles POST /auth/refresh
// @Summary      Refresh tokens
// @Description  Rotates the refresh token and issues a new access token using the previously validated authentication context
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      refreshRequest  false  "Refresh Token (optional when the cookie is present)"
// @Success      200      {object}  response.Response{data=service.TokenPair}
// @Failure      401      {object}  response.Response
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	// The access token may already be expired here; its signature is still
	// required to recover the validated identity and authorities.
	accessToken := middleware.TokenFromRequest(c)
	if accessToken == "" {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "error.unauthorized", "Authorization is missing"))
		return
	}
	principal, err := h.tokenService.ParseAccessTokenClaims(accessToken)
	if err != nil {
		fail(c, err)
		return
	}

	refreshToken, cookieErr := c.Cookie("refresh_token")
	if cookieErr != nil || refreshToken == "" {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "error.invalid_input", "Missing refresh token"))
			return
		}
		refreshToken = req.RefreshToken
	}

	pair, err := h.authService.Refresh(c.Request.Context(), principal.UserID, principal.Username, principal.Authorities, refreshToken)
	if err != nil {
		fail(c, err)
		return
	}

	middleware.SetTokenCookies(c, pair.AccessToken, pair.RefreshToken)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, pair))
}

// Logout handles POST /auth/logout
// @Summary      Logout
// @Description  Deletes the refresh token; access tokens stay valid until natural expiration
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      refreshRequest  false  "Refresh Token (optional when the cookie is present)"
// @Success      200      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken, cookieErr := c.Cookie("refresh_token")
	if cookieErr != nil || refreshToken == "" {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "error.invalid_input", "Missing refresh token"))
			return
		}
		refreshToken = req.RefreshToken
	}

	if err := h.authService.Logout(c.Request.Context(), refreshToken); err != nil {
		fail(c, err)
		return
	}

	middleware.ClearTokenCookies(c)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Logged out"))
}

type forgotPasswordRequest struct {
	Username string `json:"username" binding:"required,email"`
}

// ForgotPassword handles POST /auth/forgot-password
// @Summary      Request password reset
// @Description  Emails a single-use reset link to the account's address
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      forgotPasswordRequest  true  "Account username"
// @Success      200      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "error.invalid_input", "Invalid request payload"))
		return
	}

	if err := h.authService.RequestPasswordReset(c.Request.Context(), req.Username); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Reset link sent"))
}

// ResetPassword handles POST /auth/reset-password
// @Summary      Reset password
// @Description  Sets a new password using a valid reset token; also unlocks a locked account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ResetPasswordRequest  true  "Reset payload"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req service.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "error.invalid_input", "Invalid request payload"))
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Password updated"))
}
