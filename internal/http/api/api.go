// Package api registers the HTTP surface of the helpdesk service.
package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zenhq/helpdesk/internal/config"
	"github.com/zenhq/helpdesk/internal/http/api/handlers"
	"github.com/zenhq/helpdesk/internal/mail"
	"github.com/zenhq/helpdesk/internal/models"
	"github.com/zenhq/helpdesk/internal/security"
	"gorm.io/gorm"
)

// RegisterRoutes registers routes, middleware, and handlers.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, mailer mail.Mailer) {
	if r == nil || db == nil {
		return
	}

	r.GET("/healthz", handlers.Healthz)

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	r.POST("/auth/register/", authHandler.Register)
	r.POST("/auth/login/", authHandler.Login)
	r.POST("/auth/refresh/", authHandler.Refresh)

	resetHandler := handlers.NewPasswordResetHandler(db, jwtCfg, mailer)
	r.POST("/password_reset/", resetHandler.Request)
	r.GET("/reset/:uid/:token/", resetHandler.Validate)
	r.POST("/reset/:uid/:token/", resetHandler.Confirm)

	authed := r.Group("")
	authed.Use(authMiddleware(db, jwtCfg))

	roleHandler := handlers.NewRoleHandler(db)
	authed.GET("/user-permissions/", roleHandler.ListUserPermissions)

	userHandler := handlers.NewUserHandler(db)
	authed.GET("/accounts/", userHandler.List)
	authed.GET("/accounts/:username/", userHandler.Get)

	profileHandler := handlers.NewProfileHandler(db)
	authed.GET("/profiles/", profileHandler.List)
	authed.POST("/profiles/", profileHandler.Create)
	authed.GET("/profiles/me/", profileHandler.Me)
	authed.PATCH("/profiles/me_update/", profileHandler.UpdateMe)
	authed.GET("/profiles/:id/", profileHandler.Get)
	authed.PATCH("/profiles/:id/", profileHandler.Update)
	authed.DELETE("/profiles/:id/", profileHandler.Delete)

	postHandler := handlers.NewPostHandler(db)
	authed.GET("/posts/", postHandler.List)
	authed.POST("/posts/", postHandler.Create)
	authed.GET("/posts/:id/", postHandler.Get)
	authed.PATCH("/posts/:id/", postHandler.Update)
	authed.DELETE("/posts/:id/", postHandler.Delete)

	commentHandler := handlers.NewCommentHandler(db)
	authed.GET("/comments/", commentHandler.List)
	authed.POST("/comments/", commentHandler.Create)
	authed.GET("/comments/:id/", commentHandler.Get)
	authed.PATCH("/comments/:id/", commentHandler.Update)
	authed.DELETE("/comments/:id/", commentHandler.Delete)

	packageHandler := handlers.NewPackageHandler(db)
	authed.GET("/registries/", packageHandler.ListRegistries)
	authed.POST("/registries/", packageHandler.CreateRegistry)
	authed.GET("/packages/", packageHandler.List)
	authed.POST("/packages/", packageHandler.Create)
	authed.GET("/packages/:id/", packageHandler.Get)
	authed.PATCH("/packages/:id/", packageHandler.Update)
	authed.DELETE("/packages/:id/", packageHandler.Delete)

	staff := r.Group("")
	staff.Use(authMiddleware(db, jwtCfg))
	staff.Use(staffMiddleware())

	groupHandler := handlers.NewGroupHandler(db)
	staff.POST("/groups/", groupHandler.Create)
	staff.GET("/groups/", groupHandler.List)
	staff.GET("/groups/:id/", groupHandler.Get)
	staff.PATCH("/groups/:id/", groupHandler.Update)
	staff.DELETE("/groups/:id/", groupHandler.Delete)

	permissionHandler := handlers.NewPermissionHandler(db)
	staff.GET("/permissions/", permissionHandler.List)
	staff.POST("/permissions/", permissionHandler.Create)

	contentTypeHandler := handlers.NewContentTypeHandler(db)
	staff.GET("/content-types/", contentTypeHandler.List)

	staff.POST("/assign-roles/", roleHandler.AssignRole)
	staff.GET("/user-permissions/:username/", roleHandler.GetUserPermissions)
	staff.POST("/user-permissions/:username/", roleHandler.AssignPermissions)

	staff.POST("/accounts/", userHandler.Create)
	staff.GET("/accounts/all/", userHandler.ListAll)
	staff.PATCH("/accounts/:username/", userHandler.Update)
	staff.DELETE("/accounts/:username/", userHandler.Delete)

	settingHandler := handlers.NewSettingHandler(db)
	staff.GET("/settings/", settingHandler.List)
	staff.GET("/settings/:key/", settingHandler.Get)
	staff.PUT("/settings/:key/", settingHandler.Update)
}

// authMiddleware validates access tokens and loads the user context.
func authMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseToken(jwtCfg.Secret, token, security.TokenTypeAccess)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var user models.User
		if errFind := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user disabled"})
			return
		}

		c.Set(handlers.ContextUserKey, &user)
		c.Next()
	}
}

// staffMiddleware restricts a route group to staff users.
func staffMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := handlers.CurrentUser(c)
		if !ok || !user.IsStaff {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "staff access required"})
			return
		}
		c.Next()
	}
}
