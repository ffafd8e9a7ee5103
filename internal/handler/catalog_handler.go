package handler

import (
	"net/http"

	"dentalcare/internal/middleware"
	"dentalcare/internal/service"
	"dentalcare/pkg/response"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalogService service.CatalogService
	tokenService   service.TokenService
}

// NewCatalogHandler sets up the routing dependencies for the RBAC catalog
func NewCatalogHandler(catalogService service.CatalogService, tokenService service.TokenService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService, tokenService: tokenService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := middleware.RequireAuthority(h.tokenService, "ROLE_ADMIN", "ROLE_DEV")

	router.GET("/actions", admin, h.ListActions)
	router.GET("/permissions", admin, h.ListPermissions)

	roles := router.Group("/roles")
	{
		roles.GET("", admin, h.ListRoles)
		roles.POST("", admin, h.CreateRole)
		roles.GET("/:id", admin, h.GetRoleTree)
		roles.PUT("/:id/bindings", admin, h.ReplaceBindings)
	}
}

// ListActions handles GET /actions
// @Summary      List actions
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Action}
// @Router       /actions [get]
func (h *CatalogHandler) ListActions(c *gin.Context) {
	actions, err := h.catalogService.ListActions(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, actions))
}

// ListPermissions handles GET /permissions
// @Summary      List permissions
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Permission}
// @Router       /permissions [get]
func (h *CatalogHandler) ListPermissions(c *gin.Context) {
	perms, err := h.catalogService.ListPermissions(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, perms))
}

// ListRoles handles GET /roles
// @Summary      List roles
// @Description  Lists assignable roles; the reserved developer role is excluded
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.RoleResponse}
// @Router       /roles [get]
func (h *CatalogHandler) ListRoles(c *gin.Context) {
	roles, err := h.catalogService.ListRoles(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, roles))
}

// CreateRole handles POST /roles
// @Summary      Create role
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRoleRequest  true  "Create Role Payload"
// @Success      201      {object}  response.Response{data=service.RoleResponse}
// @Failure      400      {object}  response.Response
// @Router       /roles [post]
func (h *CatalogHandler) CreateRole(c *gin.Context) {
	var req service.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "error.invalid_input", "Invalid request payload"))
		return
	}

	role, err := h.catalogService.CreateRole(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, role))
}

// GetRoleTree handles GET /roles/:id
// @Summary      Get role authority tree
// @Description  Returns the structured permission→actions mapping for one role
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Role ID"
// @Success      200  {object}  response.Response{data=service.RoleAuthorityTree}
// @Failure      404  {object}  response.Response
// @Router       /roles/{id} [get]
func (h *CatalogHandler) GetRoleTree(c *gin.Context) {
	tree, err := h.catalogService.GetRoleTree(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tree))
}

// ReplaceBindings handles PUT /roles/:id/bindings
// @Summary      Replace role bindings
// @Description  Swaps the role's (permission, action) bindings in one batch
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                          true  "Role ID"
// @Param        payload  body      service.ReplaceBindingsRequest  true  "Bindings"
// @Success      200      {object}  response.Response{data=service.RoleAuthorityTree}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /roles/{id}/bindings [put]
func (h *CatalogHandler) ReplaceBindings(c *gin.Context) {
	var req service.ReplaceBindingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "error.invalid_input", "Invalid request payload"))
		return
	}

	tree, err := h.catalogService.ReplaceRoleBindings(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tree))
}
