package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/zenhq/helpdesk/internal/config"
	"github.com/zenhq/helpdesk/internal/mail"
	"github.com/zenhq/helpdesk/internal/models"
	"github.com/zenhq/helpdesk/internal/security"
	"github.com/zenhq/helpdesk/internal/settings"
	"gorm.io/gorm"
)

// PasswordResetHandler drives the email-based password reset flow.
type PasswordResetHandler struct {
	db     *gorm.DB
	jwt    config.JWTConfig
	mailer mail.Mailer
}

// NewPasswordResetHandler constructs a PasswordResetHandler.
func NewPasswordResetHandler(db *gorm.DB, jwt config.JWTConfig, mailer mail.Mailer) *PasswordResetHandler {
	return &PasswordResetHandler{db: db, jwt: jwt, mailer: mailer}
}

type passwordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Request mails a reset link to the account behind the given email.
func (h *PasswordResetHandler) Request(c *gin.Context) {
	var req passwordResetRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	ctx := c.Request.Context()

	var user models.User
	errFind := h.db.WithContext(ctx).Where("email = ?", req.Email).First(&user).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "email not registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "password reset failed"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "email not registered"})
		return
	}

	token := security.MakeResetToken(h.jwt.Secret, &user, time.Now().UTC())
	uid := security.EncodeUserID(user.ID)
	siteName := settings.StringValue(h.db, settings.SiteNameKey, settings.DefaultSiteName)
	resetBase := settings.StringValue(h.db, settings.ResetURLBaseKey, settings.DefaultResetURLBase)
	link := fmt.Sprintf("%s/%s/%s/", resetBase, uid, token)

	subject := fmt.Sprintf("%s password reset", siteName)
	body := fmt.Sprintf("Hello %s,\n\nUse the link below to reset your %s password:\n\n%s\n\nThe link expires in %d hours.\n",
		user.Username, siteName, link, int(security.DefaultResetTokenMaxAge.Hours()))
	if errSend := h.mailer.Send(ctx, user.Email, subject, body); errSend != nil {
		log.WithError(errSend).WithField("email", user.Email).Error("send reset mail failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "send reset mail failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "A reset link has been sent."})
}

// Validate checks a uid/token pair without consuming it.
func (h *PasswordResetHandler) Validate(c *gin.Context) {
	if _, ok := h.verify(c); !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Token is valid. Submit a new password to complete the reset."})
}

type confirmResetRequest struct {
	NewPassword1 string `json:"new_password1" binding:"required,min=8"`
	NewPassword2 string `json:"new_password2" binding:"required"`
}

// Confirm sets a new password when the uid/token pair is valid. Changing
// the password invalidates the token since the signature covers the hash.
func (h *PasswordResetHandler) Confirm(c *gin.Context) {
	user, ok := h.verify(c)
	if !ok {
		return
	}

	var req confirmResetRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.NewPassword1 != req.NewPassword2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "passwords do not match"})
		return
	}

	hash, errHash := security.HashPassword(req.NewPassword1)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reset password failed"})
		return
	}

	errUpdate := h.db.WithContext(c.Request.Context()).
		Model(user).
		Update("password", hash).Error
	if errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reset password failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset."})
}

func (h *PasswordResetHandler) verify(c *gin.Context) (*models.User, bool) {
	userID, errDecode := security.DecodeUserID(c.Param("uid"))
	if errDecode != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reset link"})
		return nil, false
	}

	var user models.User
	errFind := h.db.WithContext(c.Request.Context()).First(&user, userID).Error
	if errFind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reset link"})
		return nil, false
	}

	token := c.Param("token")
	if !user.IsActive || !security.CheckResetToken(h.jwt.Secret, &user, token, security.DefaultResetTokenMaxAge, time.Now().UTC()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reset link"})
		return nil, false
	}
	return &user, true
}
