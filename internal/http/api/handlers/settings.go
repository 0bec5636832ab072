package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zenhq/helpdesk/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SettingHandler manages site configuration endpoints.
type SettingHandler struct {
	db *gorm.DB
}

// NewSettingHandler constructs a SettingHandler.
func NewSettingHandler(db *gorm.DB) *SettingHandler {
	return &SettingHandler{db: db}
}

func settingView(setting models.Setting) gin.H {
	var value any
	if errDecode := json.Unmarshal(setting.Value, &value); errDecode != nil {
		value = nil
	}
	return gin.H{
		"key":        setting.Key,
		"value":      value,
		"updated_at": setting.UpdatedAt,
	}
}

// List returns every setting.
func (h *SettingHandler) List(c *gin.Context) {
	var all []models.Setting
	errFind := h.db.WithContext(c.Request.Context()).Order("key").Find(&all).Error
	if errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list settings failed"})
		return
	}

	out := make([]gin.H, 0, len(all))
	for _, setting := range all {
		out = append(out, settingView(setting))
	}
	c.JSON(http.StatusOK, out)
}

// Get returns one setting by key.
func (h *SettingHandler) Get(c *gin.Context) {
	key := strings.ToUpper(strings.TrimSpace(c.Param("key")))

	var setting models.Setting
	errFind := h.db.WithContext(c.Request.Context()).Where("key = ?", key).First(&setting).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "setting not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load setting failed"})
		return
	}
	c.JSON(http.StatusOK, settingView(setting))
}

// updateSettingRequest defines the request body for setting updates.
type updateSettingRequest struct {
	Value json.RawMessage `json:"value" binding:"required"`
}

// Update replaces one setting's value.
func (h *SettingHandler) Update(c *gin.Context) {
	key := strings.ToUpper(strings.TrimSpace(c.Param("key")))

	var body updateSettingRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	ctx := c.Request.Context()
	var setting models.Setting
	errFind := h.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "setting not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load setting failed"})
		return
	}

	errUpdate := h.db.WithContext(ctx).
		Model(&setting).
		Update("value", datatypes.JSON(body.Value)).Error
	if errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update setting failed"})
		return
	}
	c.JSON(http.StatusOK, settingView(setting))
}
