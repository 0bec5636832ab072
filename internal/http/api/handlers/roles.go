package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zenhq/helpdesk/internal/authz"
	"gorm.io/gorm"
)

// RoleHandler exposes role assignment and per-user permission management.
type RoleHandler struct {
	db      *gorm.DB
	service *authz.Service
}

// NewRoleHandler constructs a RoleHandler.
func NewRoleHandler(db *gorm.DB) *RoleHandler {
	return &RoleHandler{db: db, service: authz.NewService(db)}
}

type assignRoleRequest struct {
	User  uint64 `json:"user" binding:"required"`
	Group uint64 `json:"group" binding:"required"`
}

// AssignRole binds an existing user to an existing group.
func (h *RoleHandler) AssignRole(c *gin.Context) {
	var req assignRoleRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	user, group, errAssign := h.service.AssignRole(c.Request.Context(), req.User, req.Group)
	if errAssign != nil {
		if errors.Is(errAssign, authz.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errAssign.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "assign role failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("%s role has been assigned to %s.", group.Name, user.Username),
	})
}

// ListUserPermissions returns the caller's effective permission set in
// abbreviated form, creating the personal group on first access.
func (h *RoleHandler) ListUserPermissions(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	group, errEnsure := h.service.EnsureGroupForUser(c.Request.Context(), user)
	if errEnsure != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load permissions failed"})
		return
	}

	out := make([]gin.H, 0, len(group.Permissions))
	for _, perm := range group.Permissions {
		out = append(out, permissionBrief(perm))
	}
	c.JSON(http.StatusOK, out)
}

// GetUserPermissions returns the named user's group with its full
// permission list, creating the group when the user has none yet.
func (h *RoleHandler) GetUserPermissions(c *gin.Context) {
	username := c.Param("username")

	group, errEnsure := h.service.EnsureGroup(c.Request.Context(), username)
	if errEnsure != nil {
		if errors.Is(errEnsure, authz.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load permissions failed"})
		return
	}

	c.JSON(http.StatusOK, groupFull(*group))
}

type assignPermissionsRequest struct {
	Permissions []uint64 `json:"permissions" binding:"required"`
}

// AssignPermissions merges the given permissions into the named user's group.
func (h *RoleHandler) AssignPermissions(c *gin.Context) {
	username := c.Param("username")

	var req assignPermissionsRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	group, errAssign := h.service.AssignPermissions(c.Request.Context(), username, dedupe(req.Permissions))
	if errAssign != nil {
		switch {
		case errors.Is(errAssign, authz.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(errAssign, authz.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": errAssign.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "assign permissions failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Permissions has been assigned to %s.", username),
		"group":   groupFull(*group),
	})
}
