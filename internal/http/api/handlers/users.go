package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	dbutil "github.com/zenhq/helpdesk/internal/db"
	"github.com/zenhq/helpdesk/internal/models"
	"github.com/zenhq/helpdesk/internal/security"
	"gorm.io/gorm"
)

// generatedPasswordLength sizes passwords for accounts created without one.
const generatedPasswordLength = 24

// UserHandler manages account endpoints.
type UserHandler struct {
	db *gorm.DB
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// List returns active accounts, optionally filtered by a search term
// matched against the username or profile full name.
func (h *UserHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).
		Model(&models.User{}).
		Preload("Profile").
		Where("is_active = ?", true)
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+search+"%")
		q = q.Joins("LEFT JOIN profiles ON profiles.id = users.profile_id").
			Where(h.db.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "users.username"), pattern).
				Or(dbutil.CaseInsensitiveLikeExpr(h.db, "profiles.full_name"), pattern))
	}

	var users []models.User
	if errFind := q.Order("users.id").Find(&users).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list users failed"})
		return
	}

	out := make([]gin.H, 0, len(users))
	for _, user := range users {
		out = append(out, userView(user))
	}
	c.JSON(http.StatusOK, out)
}

// ListAll returns every account including deactivated ones.
func (h *UserHandler) ListAll(c *gin.Context) {
	var users []models.User
	errFind := h.db.WithContext(c.Request.Context()).
		Preload("Profile").
		Order("id").
		Find(&users).Error
	if errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list users failed"})
		return
	}

	out := make([]gin.H, 0, len(users))
	for _, user := range users {
		out = append(out, userView(user))
	}
	c.JSON(http.StatusOK, out)
}

// createUserRequest defines the admin account-creation body. Password is
// optional; an omitted password is generated, and the account holder gains
// access through the password reset flow.
type createUserRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Username string  `json:"username" binding:"required"`
	Password *string `json:"password"`
	IsStaff  bool    `json:"is_staff"`
	FullName *string `json:"full_name"`
}

// Create creates an account.
func (h *UserHandler) Create(c *gin.Context) {
	var body createUserRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	password := ""
	if body.Password != nil {
		password = *body.Password
		if len(password) < 8 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "password too short"})
			return
		}
	} else {
		generated, errGen := security.RandomPassword(generatedPasswordLength)
		if errGen != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create user failed"})
			return
		}
		password = generated
	}

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create user failed"})
		return
	}

	user := models.User{
		Email:    body.Email,
		Username: body.Username,
		Password: hash,
		IsStaff:  body.IsStaff,
		IsActive: true,
	}
	var profile *models.Profile
	errTx := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if body.FullName != nil {
			profile = &models.Profile{FullName: *body.FullName, IsStaff: body.IsStaff}
			if errCreate := tx.Create(profile).Error; errCreate != nil {
				return errCreate
			}
			user.ProfileID = &profile.ID
		}
		return tx.Omit("Profile").Create(&user).Error
	})
	if errTx != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email or username already in use"})
		return
	}

	user.Profile = profile
	c.JSON(http.StatusCreated, userView(user))
}

// Get returns one account by username. The literal "me" resolves to the caller.
func (h *UserHandler) Get(c *gin.Context) {
	user, errFind := h.lookup(c)
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load user failed"})
		return
	}
	c.JSON(http.StatusOK, userView(*user))
}

// updateUserRequest defines the partial-update body for accounts.
type updateUserRequest struct {
	Email    *string `json:"email"`
	Username *string `json:"username"`
	IsActive *bool   `json:"is_active"`
}

// Update applies a partial update to an account.
func (h *UserHandler) Update(c *gin.Context) {
	user, errFind := h.lookup(c)
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load user failed"})
		return
	}

	var body updateUserRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updates := map[string]any{}
	if body.Email != nil {
		email := strings.TrimSpace(*body.Email)
		if email == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email cannot be empty"})
			return
		}
		updates["email"] = email
	}
	if body.Username != nil {
		username := strings.TrimSpace(*body.Username)
		if username == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username cannot be empty"})
			return
		}
		updates["username"] = username
	}
	if body.IsActive != nil {
		updates["is_active"] = *body.IsActive
	}
	if len(updates) > 0 {
		errUpdate := h.db.WithContext(c.Request.Context()).
			Model(user).
			Updates(updates).Error
		if errUpdate != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email or username already in use"})
			return
		}
	}

	c.JSON(http.StatusOK, userView(*user))
}

// Delete deactivates an account instead of removing the row.
func (h *UserHandler) Delete(c *gin.Context) {
	user, errFind := h.lookup(c)
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load user failed"})
		return
	}

	errUpdate := h.db.WithContext(c.Request.Context()).
		Model(user).
		Update("is_active", false).Error
	if errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "deactivate user failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) lookup(c *gin.Context) (*models.User, error) {
	username := c.Param("username")
	if username == "me" {
		if current, ok := CurrentUser(c); ok {
			username = current.Username
		}
	}

	var user models.User
	errFind := h.db.WithContext(c.Request.Context()).
		Preload("Profile").
		Where("username = ?", username).
		First(&user).Error
	if errFind != nil {
		return nil, errFind
	}
	return &user, nil
}
