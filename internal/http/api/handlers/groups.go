package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	dbutil "github.com/zenhq/helpdesk/internal/db"
	"github.com/zenhq/helpdesk/internal/models"
	"gorm.io/gorm"
)

// GroupHandler manages permission group endpoints.
type GroupHandler struct {
	db *gorm.DB
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(db *gorm.DB) *GroupHandler {
	return &GroupHandler{db: db}
}

// createGroupRequest defines the request body for group creation.
type createGroupRequest struct {
	Name        string   `json:"name"`
	Permissions []uint64 `json:"permissions"`
}

// Create creates a new group.
func (h *GroupHandler) Create(c *gin.Context) {
	var body createGroupRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing name"})
		return
	}

	ctx := c.Request.Context()
	now := time.Now().UTC()
	group := models.Group{Name: name, CreatedAt: now, UpdatedAt: now}

	errTx := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errCreate := tx.Create(&group).Error; errCreate != nil {
			return errCreate
		}
		if len(body.Permissions) == 0 {
			return nil
		}
		var perms []models.Permission
		if errFind := tx.Where("id IN ?", body.Permissions).Find(&perms).Error; errFind != nil {
			return errFind
		}
		if len(perms) != len(dedupe(body.Permissions)) {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&group).Association("Permissions").Append(perms)
	})
	if errTx != nil {
		if errors.Is(errTx, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "group name already in use"})
			return
		}
		if errors.Is(errTx, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown permission id"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create group failed"})
		return
	}
	c.JSON(http.StatusCreated, groupFull(group))
}

// List returns all groups in the abbreviated {id, name} projection.
func (h *GroupHandler) List(c *gin.Context) {
	nameQ := strings.TrimSpace(c.Query("name"))

	q := h.db.WithContext(c.Request.Context()).Model(&models.Group{})
	if nameQ != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+nameQ+"%")
		q = q.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "name"), pattern)
	}

	var rows []models.Group
	if errFind := q.Order("id").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list groups failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, groupBrief(row))
	}
	c.JSON(http.StatusOK, out)
}

// Get returns a group by ID with its full permission set.
func (h *GroupHandler) Get(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var group models.Group
	if errFind := h.db.WithContext(c.Request.Context()).
		Preload("Permissions").First(&group, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, groupFull(group))
}

// updateGroupRequest defines the request body for group updates. A supplied
// permission list fully replaces the group's set; contrast with the
// dedicated assignment endpoint, which merges.
type updateGroupRequest struct {
	Name        *string   `json:"name"`
	Permissions *[]uint64 `json:"permissions"`
}

// Update partially modifies a group.
func (h *GroupHandler) Update(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var body updateGroupRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	var group models.Group
	errTx := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if errFind := tx.First(&group, id).Error; errFind != nil {
			return errFind
		}

		updates := map[string]any{"updated_at": time.Now().UTC()}
		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return errEmptyName
			}
			updates["name"] = name
		}
		if errUpdate := tx.Model(&group).Updates(updates).Error; errUpdate != nil {
			return errUpdate
		}

		if body.Permissions != nil {
			var perms []models.Permission
			if len(*body.Permissions) > 0 {
				if errFind := tx.Where("id IN ?", *body.Permissions).Find(&perms).Error; errFind != nil {
					return errFind
				}
				if len(perms) != len(dedupe(*body.Permissions)) {
					return gorm.ErrRecordNotFound
				}
			}
			if errReplace := tx.Model(&group).Association("Permissions").Replace(perms); errReplace != nil {
				return errReplace
			}
		}
		return tx.Preload("Permissions").First(&group, id).Error
	})
	if errTx != nil {
		switch {
		case errors.Is(errTx, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		case errors.Is(errTx, errEmptyName):
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing name"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		}
		return
	}
	c.JSON(http.StatusOK, groupFull(group))
}

// Delete removes a group.
func (h *GroupHandler) Delete(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	res := h.db.WithContext(c.Request.Context()).Delete(&models.Group{}, id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// errEmptyName flags a blank group name inside an update transaction.
var errEmptyName = errors.New("empty group name")

// dedupe returns the unique ids preserving order.
func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
