package handler

import (
	"net/http"

	"dentalcare/internal/middleware"
	"dentalcare/internal/service"
	"dentalcare/pkg/pagination"
	"dentalcare/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
	tokenService service.TokenService
}

// NewAuditHandler sets up the routing dependencies for audit queries
func NewAuditHandler(auditService service.AuditService, tokenService service.TokenService) *AuditHandler {
	return &AuditHandler{auditService: auditService, tokenService: tokenService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/audit-logs", middleware.RequireAuthority(h.tokenService, "ROLE_ADMIN", "ROLE_DEV"), h.GetAuditLogs)
}

// GetAuditLogs handles GET /audit-logs
// @Summary      List security events
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Items per page"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	params := pagination.Parse(c)

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}
