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

// ProfileHandler manages profile endpoints.
type ProfileHandler struct {
	db *gorm.DB
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

// List returns profiles, optionally filtered by a search term matched
// against the full name or secondary email.
func (h *ProfileHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.Profile{})
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+search+"%")
		q = q.Where(h.db.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "full_name"), pattern).
			Or(dbutil.CaseInsensitiveLikeExpr(h.db, "secondary_email"), pattern))
	}

	var profiles []models.Profile
	errFind := q.Order("id").Find(&profiles).Error
	if errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list profiles failed"})
		return
	}

	out := make([]any, 0, len(profiles))
	for i := range profiles {
		out = append(out, profileView(&profiles[i]))
	}
	c.JSON(http.StatusOK, out)
}

// Get returns one profile by id.
func (h *ProfileHandler) Get(c *gin.Context) {
	id, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile id"})
		return
	}

	var profile models.Profile
	errFind := h.db.WithContext(c.Request.Context()).First(&profile, id).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load profile failed"})
		return
	}
	c.JSON(http.StatusOK, profileView(&profile))
}

// Create creates a standalone profile.
func (h *ProfileHandler) Create(c *gin.Context) {
	var body updateProfileRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updates, errApply := profileUpdates(&body)
	if errApply != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errApply.Error()})
		return
	}

	ctx := c.Request.Context()
	var profile models.Profile
	errTx := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errCreate := tx.Create(&profile).Error; errCreate != nil {
			return errCreate
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&profile).Updates(updates).Error
	})
	if errTx != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create profile failed"})
		return
	}
	c.JSON(http.StatusCreated, profileView(&profile))
}

// Update applies a partial update to a profile by id.
func (h *ProfileHandler) Update(c *gin.Context) {
	id, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile id"})
		return
	}

	var body updateProfileRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	updates, errApply := profileUpdates(&body)
	if errApply != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errApply.Error()})
		return
	}

	ctx := c.Request.Context()
	var profile models.Profile
	if errFind := h.db.WithContext(ctx).First(&profile, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load profile failed"})
		return
	}

	if len(updates) > 0 {
		if errUpdate := h.db.WithContext(ctx).Model(&profile).Updates(updates).Error; errUpdate != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update profile failed"})
			return
		}
	}
	c.JSON(http.StatusOK, profileView(&profile))
}

// Delete removes a profile.
func (h *ProfileHandler) Delete(c *gin.Context) {
	id, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile id"})
		return
	}

	ctx := c.Request.Context()
	var profile models.Profile
	if errFind := h.db.WithContext(ctx).First(&profile, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load profile failed"})
		return
	}

	errTx := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		errUnbind := tx.Model(&models.User{}).
			Where("profile_id = ?", profile.ID).
			Update("profile_id", nil).Error
		if errUnbind != nil {
			return errUnbind
		}
		return tx.Delete(&profile).Error
	})
	if errTx != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete profile failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Me returns the caller's profile.
func (h *ProfileHandler) Me(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	if user.ProfileID == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}

	var profile models.Profile
	errFind := h.db.WithContext(c.Request.Context()).First(&profile, *user.ProfileID).Error
	if errFind != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	c.JSON(http.StatusOK, profileView(&profile))
}

// updateProfileRequest defines the partial-update body for profiles.
type updateProfileRequest struct {
	FullName       *string `json:"full_name"`
	Phone          *string `json:"phone"`
	Mobile         *string `json:"mobile"`
	SecondaryEmail *string `json:"secondary_email"`
	Address        *string `json:"address"`
	Gender         *string `json:"gender"`
	BirthDate      *string `json:"birth_date"`
	Avatar         *string `json:"avatar"`
}

// UpdateMe updates the caller's profile, creating it on first use.
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var body updateProfileRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	ctx := c.Request.Context()
	var profile models.Profile
	errTx := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if user.ProfileID != nil {
			if errFind := tx.First(&profile, *user.ProfileID).Error; errFind != nil {
				return errFind
			}
		} else {
			profile = models.Profile{IsStaff: user.IsStaff}
			if errCreate := tx.Create(&profile).Error; errCreate != nil {
				return errCreate
			}
			errBindProfile := tx.Model(&models.User{}).
				Where("id = ?", user.ID).
				Update("profile_id", profile.ID).Error
			if errBindProfile != nil {
				return errBindProfile
			}
			user.ProfileID = &profile.ID
		}

		updates, errApply := profileUpdates(&body)
		if errApply != nil {
			return errApply
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&profile).Updates(updates).Error
	})
	if errTx != nil {
		if errors.Is(errTx, errBadGender) || errors.Is(errTx, errBadBirthDate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errTx.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update profile failed"})
		return
	}

	c.JSON(http.StatusOK, profileView(&profile))
}

var (
	errBadGender    = errors.New("invalid gender value")
	errBadBirthDate = errors.New("invalid birth date, expected YYYY-MM-DD")
)

func profileUpdates(body *updateProfileRequest) (map[string]any, error) {
	updates := map[string]any{}
	if body.FullName != nil {
		updates["full_name"] = *body.FullName
	}
	if body.Phone != nil {
		updates["phone"] = *body.Phone
	}
	if body.Mobile != nil {
		updates["mobile"] = *body.Mobile
	}
	if body.SecondaryEmail != nil {
		updates["secondary_email"] = *body.SecondaryEmail
	}
	if body.Address != nil {
		updates["address"] = *body.Address
	}
	if body.Gender != nil {
		switch *body.Gender {
		case models.GenderMale, models.GenderFemale, models.GenderOther, models.GenderUnknown:
			updates["gender"] = *body.Gender
		default:
			return nil, errBadGender
		}
	}
	if body.BirthDate != nil {
		parsed, errParse := time.Parse("2006-01-02", *body.BirthDate)
		if errParse != nil {
			return nil, errBadBirthDate
		}
		updates["birth_date"] = parsed
	}
	if body.Avatar != nil {
		updates["avatar"] = *body.Avatar
	}
	return updates, nil
}
