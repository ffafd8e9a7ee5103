package handler

import (
	"net/http"

	"dentalcare/internal/middleware"
	"dentalcare/internal/service"
	"dentalcare/pkg/pagination"
	"dentalcare/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService  service.UserService
	tokenService service.TokenService
}

// NewUserHandler sets up the routing dependencies for account endpoints
func NewUserHandler(userService service.UserService, tokenService service.TokenService) *UserHandler {
	return &UserHandler{userService: userService, tokenService: tokenService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	// Me route (authenticated — any valid token)
	router.GET("/me", middleware.Authorize(h.tokenService), h.GetMe)

	users := router.Group("/users")
	{
		users.GET("", middleware.RequireAuthority(h.tokenService, "PERMISO_USERS_READ", "ROLE_ADMIN"), h.ListUsers)
		users.GET("/:id", middleware.RequireAuthority(h.tokenService, "PERMISO_USERS_READ", "ROLE_ADMIN"), h.GetUserByID)
		users.POST("", middleware.RequireAuthority(h.tokenService, "PERMISO_USERS_WRITE", "ROLE_ADMIN"), h.CreateUser)
		users.PUT("/:id", middleware.RequireAuthority(h.tokenService, "PERMISO_USERS_WRITE", "ROLE_ADMIN"), h.UpdateUser)
		users.DELETE("/:id", middleware.RequireAuthority(h.tokenService, "PERMISO_USERS_DELETE", "ROLE_ADMIN"), h.DisableUser)
	}
}

// GetMe handles GET /me to return the authenticated principal
// @Summary      Get current user
// @Description  Returns the identity and authority set carried by the access token
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.Principal}
// @Failure      401  {object}  response.Response
// @Router       /me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, principal))
}

// CreateUser handles POST /users
// @Summary      Create account
// @Description  Provisions a login account with hashed password and assigned roles
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateUserRequest  true  "Create User Payload"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "error.invalid_input", "Invalid request payload: "+err.Error()))
		return
	}

	acting := middleware.MustPrincipal(c)
	user, err := h.userService.CreateUser(c.Request.Context(), acting.UserID, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, user))
}

// ListUsers handles GET /users
// @Summary      List accounts
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 25)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	params := pagination.Parse(c)

	users, total, err := h.userService.ListUsers(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"users": users,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// GetUserByID handles GET /users/:id
// @Summary      Get account by ID
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      404  {object}  response.Response
// @Router       /users/{id} [get]
func (h *UserHandler) GetUserByID(c *gin.Context) {
	user, err := h.userService.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// UpdateUser handles PUT /users/:id
// @Summary      Update account
// @Description  Updates enabled state, lock state, or assigned roles. Self-targeted role/enabled changes are rejected.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "User ID"
// @Param        payload  body      service.UpdateUserRequest  true  "Update User Payload"
// @Success      200      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "error.invalid_input", "Invalid request payload"))
		return
	}

	acting := middleware.MustPrincipal(c)
	user, err := h.userService.UpdateUser(c.Request.Context(), acting.UserID, c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// DisableUser handles DELETE /users/:id
// @Summary      Disable account
// @Description  Disables the account; accounts are never physically deleted
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /users/{id} [delete]
func (h *UserHandler) DisableUser(c *gin.Context) {
	acting := middleware.MustPrincipal(c)
	if err := h.userService.DisableUser(c.Request.Context(), acting.UserID, c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "User disabled"))
}
