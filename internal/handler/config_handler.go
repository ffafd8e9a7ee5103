package handler

import (
	"net/http"

	"dentalcare/internal/middleware"
	"dentalcare/internal/repository"
	"dentalcare/internal/service"
	"dentalcare/pkg/response"

	"github.com/gin-gonic/gin"
)

type ConfigHandler struct {
	config       repository.ConfigRepository
	tokenService service.TokenService
}

// NewConfigHandler sets up the routing dependencies for the tunable
// security parameters
func NewConfigHandler(config repository.ConfigRepository, tokenService service.TokenService) *ConfigHandler {
	return &ConfigHandler{config: config, tokenService: tokenService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *ConfigHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := middleware.RequireAuthority(h.tokenService, "ROLE_ADMIN", "ROLE_DEV")

	config := router.Group("/config")
	{
		config.GET("", admin, h.GetConfig)
		config.PUT("/token-expiration", admin, h.SetTokenExpiration)
		config.PUT("/refresh-expiration", admin, h.SetRefreshExpiration)
		config.PUT("/lockout-threshold", admin, h.SetLockoutThreshold)
	}
}

// GetConfig handles GET /config
// @Summary      Read security parameters
// @Tags         config
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=object}
// @Router       /config [get]
func (h *ConfigHandler) GetConfig(c *gin.Context) {
	ctx := c.Request.Context()

	millis, err := h.config.AccessTokenExpirationMillis(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	days, err := h.config.RefreshTokenExpirationDays(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	threshold, err := h.config.FailedLoginThreshold(ctx)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"access_token_expiration_millis": millis,
		"refresh_token_expiration_days":  days,
		"failed_login_threshold":         threshold,
	}))
}

type tokenExpirationRequest struct {
	Millis int64 `json:"millis" binding:"required,min=1000"`
}

// SetTokenExpiration handles PUT /config/token-expiration
// @Summary      Update access-token TTL
// @Tags         config
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      tokenExpirationRequest  true  "TTL in milliseconds"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /config/token-expiration [put]
func (h *ConfigHandler) SetTokenExpiration(c *gin.Context) {
	var req tokenExpirationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "error.invalid_input", "Invalid request payload"))
		return
	}
	if err := h.config.SetAccessTokenExpirationMillis(c.Request.Context(), req.Millis); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Updated"))
}

type refreshExpirationRequest struct {
	Days int `json:"days" binding:"required,min=1"`
}

// SetRefreshExpiration handles PUT /config/refresh-expiration
// @Summary      Update refresh-token TTL
// @Tags         config
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      refreshExpirationRequest  true  "TTL in days"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /config/refresh-expiration [put]
func (h *ConfigHandler) SetRefreshExpiration(c *gin.Context) {
	var req refreshExpirationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "error.invalid_input", "Invalid request payload"))
		return
	}
	if err := h.config.SetRefreshTokenExpirationDays(c.Request.Context(), req.Days); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Updated"))
}

type lockoutThresholdRequest struct {
	Threshold int `json:"threshold" binding:"required,min=1"`
}

// SetLockoutThreshold handles PUT /config/lockout-threshold
// @Summary      Update failed-login threshold
// @Tags         config
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      lockoutThresholdRequest  true  "Attempt threshold"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /config/lockout-threshold [put]
func (h *ConfigHandler) SetLockoutThreshold(c *gin.Context) {
	var req lockoutThresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "error.invalid_input", "Invalid request payload"))
		return
	}
	if err := h.config.SetFailedLoginThreshold(c.Request.Context(), req.Threshold); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Updated"))
}
