package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zenhq/helpdesk/internal/models"
	"gorm.io/gorm"
)

// ContentTypeHandler lists resource-type descriptors.
type ContentTypeHandler struct {
	db *gorm.DB
}

// NewContentTypeHandler constructs a ContentTypeHandler.
func NewContentTypeHandler(db *gorm.DB) *ContentTypeHandler {
	return &ContentTypeHandler{db: db}
}

// List returns every content type with its abbreviated permission list.
func (h *ContentTypeHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var types []models.ContentType
	if errFind := h.db.WithContext(ctx).Order("id").Find(&types).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list content types failed"})
		return
	}

	var perms []models.Permission
	if errFind := h.db.WithContext(ctx).Order("id").Find(&perms).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list permissions failed"})
		return
	}
	byType := make(map[uint64][]gin.H, len(types))
	for _, perm := range perms {
		byType[perm.ContentTypeID] = append(byType[perm.ContentTypeID], permissionBrief(perm))
	}

	out := make([]gin.H, 0, len(types))
	for _, ct := range types {
		nested := byType[ct.ID]
		if nested == nil {
			nested = []gin.H{}
		}
		out = append(out, gin.H{
			"id":          ct.ID,
			"app_label":   ct.AppLabel,
			"model":       ct.Model,
			"permissions": nested,
		})
	}
	c.JSON(http.StatusOK, out)
}
