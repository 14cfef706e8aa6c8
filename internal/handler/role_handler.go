package handler

import (
	"net/http"

	"fundraising/internal/middleware"
	"fundraising/internal/service"
	"fundraising/pkg/response"

	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	roleService service.RoleService
}

func NewRoleHandler(roleService service.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

func (h *RoleHandler) RegisterRoutes(router *gin.RouterGroup) {
	roles := router.Group("/roles")
	{
		roles.GET("", middleware.RequirePermission("roles.manage"), h.ListRoles)
		roles.GET("/:id", middleware.RequirePermission("roles.manage"), h.GetRole)
		roles.POST("", middleware.RequirePermission("roles.manage"), h.CreateRole)
		roles.PUT("/:id", middleware.RequirePermission("roles.manage"), h.UpdateRole)
		roles.DELETE("/:id", middleware.RequirePermission("roles.manage"), h.DeleteRole)
		// Service-level checks gate permission-module entries to super admins
		roles.GET("/:id/permissions", middleware.RequirePermission("roles.manage"), h.GetRolePermissions)
		roles.PUT("/:id/permissions", middleware.RequirePermission("roles.manage"), h.UpdateRolePermissions)
	}
	router.GET("/permissions", middleware.RequirePermission("roles.manage"), h.ListPermissions)
}

// ListRoles returns all roles annotated with what the caller may do to each
// @Summary      List roles
// @Description  Returns roles with can_modify/can_delete flags computed from the caller's role level
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.RoleAccessResponse}
// @Failure      403  {object}  response.Response
// @Router       /roles [get]
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.roleService.ListRoles(c.Request.Context(), c.GetString("userRole"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, roles))
}

// GetRole returns a single role with its permissions filtered for the caller
func (h *RoleHandler) GetRole(c *gin.Context) {
	role, err := h.roleService.GetRole(c.Request.Context(), c.GetString("userRole"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// GetRolePermissions returns the permissions granted to a single role
func (h *RoleHandler) GetRolePermissions(c *gin.Context) {
	role, err := h.roleService.GetRole(c.Request.Context(), c.GetString("userRole"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, role.Permissions))
}

// CreateRole creates a new role, optionally with an initial permission set
func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req service.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	role, err := h.roleService.CreateRole(c.Request.Context(), c.GetString("userRole"), actorUUID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, role))
}

// UpdateRole updates a role's name, description or status
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	var req service.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	role, err := h.roleService.UpdateRole(c.Request.Context(), c.GetString("userRole"), actorUUID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	// Role level or name may have changed; cached permissions are stale
	middleware.ClearPermissionCache(role.Name)

	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// DeleteRole removes a non-system role that has no users assigned
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	if err := h.roleService.DeleteRole(c.Request.Context(), c.GetString("userRole"), actorUUID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	middleware.ClearPermissionCache("")

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// ListPermissions returns the permission catalogue visible to the caller
func (h *RoleHandler) ListPermissions(c *gin.Context) {
	perms, err := h.roleService.ListPermissions(c.Request.Context(), c.GetString("userRole"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, perms))
}

// UpdateRolePermissions replaces a role's permission set
// @Summary      Update role permissions
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                                true  "Role ID"
// @Param        payload  body      service.UpdateRolePermissionsRequest  true  "Permission codes"
// @Success      200      {object}  response.Response{data=service.RoleResponse}
// @Failure      403      {object}  response.Response
// @Router       /roles/{id}/permissions [put]
func (h *RoleHandler) UpdateRolePermissions(c *gin.Context) {
	var req service.UpdateRolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	role, err := h.roleService.UpdateRolePermissions(c.Request.Context(), c.GetString("userRole"), actorUUID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.ClearPermissionCache(role.Name)

	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}
