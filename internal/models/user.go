package models

import "time"

// User represents an account stored in the database. Email is the login
// identifier; Username names the user's personal permission group.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Email    string `gorm:"type:text;not null;uniqueIndex"` // Unique login email.
	Username string `gorm:"type:text;not null;uniqueIndex"` // Unique username.
	Password string `gorm:"type:text;not null"`             // Hashed password.

	IsStaff     bool `gorm:"not null;default:false"` // Grants access to admin endpoints.
	IsSuperuser bool `gorm:"not null;default:false"` // Bypasses all permission checks.
	IsActive    bool `gorm:"not null;default:true"`  // Whether the user can sign in.

	// GroupID is the user's single permission group. A user without a group
	// gets one lazily, named after the username, on first permission access.
	GroupID *uint64 `gorm:"index"`
	Group   *Group  `gorm:"foreignKey:GroupID"`

	ProfileID *uint64  `gorm:"index"`                  // Optional profile ID.
	Profile   *Profile `gorm:"foreignKey:ProfileID"`   // Optional profile.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
