package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/zenhq/helpdesk/internal/models"
)

// Context keys set by the auth middleware.
const (
	// ContextUserKey holds the authenticated *models.User.
	ContextUserKey = "user"
)

// CurrentUser returns the authenticated user from the request context.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}

// permissionBrief is the abbreviated {id, codename} projection.
func permissionBrief(perm models.Permission) gin.H {
	return gin.H{"id": perm.ID, "codename": perm.Codename}
}

// permissionFull is the full permission projection.
func permissionFull(perm models.Permission) gin.H {
	return gin.H{
		"id":           perm.ID,
		"codename":     perm.Codename,
		"name":         perm.Name,
		"content_type": perm.ContentTypeID,
	}
}

// groupBrief is the abbreviated {id, name} projection used by list views.
func groupBrief(group models.Group) gin.H {
	return gin.H{"id": group.ID, "name": group.Name}
}

// groupFull is the full group projection including its permission set.
func groupFull(group models.Group) gin.H {
	perms := make([]gin.H, 0, len(group.Permissions))
	for _, perm := range group.Permissions {
		perms = append(perms, permissionFull(perm))
	}
	return gin.H{"id": group.ID, "name": group.Name, "permissions": perms}
}

// profileView is the profile projection.
func profileView(profile *models.Profile) any {
	if profile == nil {
		return nil
	}
	return gin.H{
		"id":              profile.ID,
		"full_name":       profile.FullName,
		"phone":           profile.Phone,
		"mobile":          profile.Mobile,
		"secondary_email": profile.SecondaryEmail,
		"address":         profile.Address,
		"gender":          profile.Gender,
		"birth_date":      profile.BirthDate,
		"avatar":          profile.Avatar,
		"is_staff":        profile.IsStaff,
	}
}

// userView is the account projection.
func userView(user models.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"username":   user.Username,
		"is_staff":   user.IsStaff,
		"is_active":  user.IsActive,
		"profile":    profileView(user.Profile),
		"created_at": user.CreatedAt,
	}
}
