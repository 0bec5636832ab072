package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zenhq/helpdesk/internal/config"
	"github.com/zenhq/helpdesk/internal/models"
	"github.com/zenhq/helpdesk/internal/security"
	"github.com/zenhq/helpdesk/internal/settings"
	"gorm.io/gorm"
)

// AuthHandler serves registration, login and token refresh.
type AuthHandler struct {
	db  *gorm.DB
	jwt config.JWTConfig
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, jwt config.JWTConfig) *AuthHandler {
	return &AuthHandler{db: db, jwt: jwt}
}

type registerRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Username string  `json:"username" binding:"required"`
	Password string  `json:"password" binding:"required,min=8"`
	FullName *string `json:"full_name"`
}

// Register creates a regular account. Staff status is never granted here.
func (h *AuthHandler) Register(c *gin.Context) {
	if !settings.BoolValue(h.db, settings.RegistrationOpenKey, settings.DefaultRegistrationOpen) {
		c.JSON(http.StatusForbidden, gin.H{"error": "registration is closed"})
		return
	}

	var req registerRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	hash, errHash := security.HashPassword(req.Password)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "register failed"})
		return
	}

	user := models.User{
		Email:    req.Email,
		Username: req.Username,
		Password: hash,
		IsActive: true,
	}
	var profile *models.Profile
	errTx := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if req.FullName != nil {
			profile = &models.Profile{FullName: *req.FullName}
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

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and issues an access/refresh token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	var user models.User
	errFind := h.db.WithContext(c.Request.Context()).Where("email = ?", req.Email).First(&user).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	if !user.IsActive || !security.CheckPassword(user.Password, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	pair, errIssue := security.IssueTokenPair(h.jwt.Secret, h.jwt.Expiry, user.ID)
	if errIssue != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": pair.Access, "refresh": pair.Refresh})
}

type refreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// Refresh exchanges a valid refresh token for a fresh token pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	claims, errParse := security.ParseToken(h.jwt.Secret, req.Refresh, security.TokenTypeRefresh)
	if errParse != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	var user models.User
	errFind := h.db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error
	if errFind != nil || !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	pair, errIssue := security.IssueTokenPair(h.jwt.Secret, h.jwt.Expiry, user.ID)
	if errIssue != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": pair.Access, "refresh": pair.Refresh})
}
