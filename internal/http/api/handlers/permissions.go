package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zenhq/helpdesk/internal/models"
	"gorm.io/gorm"
)

// PermissionHandler serves the raw permission catalog.
type PermissionHandler struct {
	db *gorm.DB
}

// NewPermissionHandler constructs a PermissionHandler.
func NewPermissionHandler(db *gorm.DB) *PermissionHandler {
	return &PermissionHandler{db: db}
}

// List returns the complete permission catalog. Never paginated: ACL
// clients need the full set.
func (h *PermissionHandler) List(c *gin.Context) {
	var rows []models.Permission
	if errFind := h.db.WithContext(c.Request.Context()).Order("id").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list permissions failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, permissionFull(row))
	}
	c.JSON(http.StatusOK, out)
}

// createPermissionRequest defines the request body for permission creation.
type createPermissionRequest struct {
	Codename    string `json:"codename"`
	Name        string `json:"name"`
	ContentType uint64 `json:"content_type"`
}

// Create creates a raw permission row. Normal catalog entries come from the
// migrate-time sync; this endpoint exists for ad-hoc grants.
func (h *PermissionHandler) Create(c *gin.Context) {
	var body createPermissionRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	codename := strings.TrimSpace(body.Codename)
	if codename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing codename"})
		return
	}

	ctx := c.Request.Context()

	var contentType models.ContentType
	if errFind := h.db.WithContext(ctx).First(&contentType, body.ContentType).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown content type"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	perm := models.Permission{
		Codename:      codename,
		Name:          strings.TrimSpace(body.Name),
		ContentTypeID: contentType.ID,
		CreatedAt:     time.Now().UTC(),
	}
	if errCreate := h.db.WithContext(ctx).Create(&perm).Error; errCreate != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "codename already in use"})
		return
	}
	c.JSON(http.StatusCreated, permissionFull(perm))
}
