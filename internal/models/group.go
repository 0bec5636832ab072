package models

import "time"

// Group is a named set of permissions. By convention a group named after a
// username acts as that user's personal role, but any group may be assigned
// to any number of users.
type Group struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name string `gorm:"type:text;not null;uniqueIndex"` // Unique display name.

	Permissions []Permission `gorm:"many2many:group_permissions"` // Granted permissions.

	Users []User `gorm:"foreignKey:GroupID"` // Users bound to this group.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
