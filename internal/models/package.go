package models

import (
	"time"

	"gorm.io/gorm"
)

// Social link kinds accepted on a package.
const (
	SocialGithub  = "github"
	SocialWebsite = "website"
	SocialGitlab  = "gitlab"
)

// Registry is a package source, e.g. an upstream index.
type Registry struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Title string `gorm:"type:text"` // Display title.
	Link  string `gorm:"type:text"` // Upstream URL.
	Logo  string `gorm:"type:text"` // Logo image path.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// PackageSocial is an external link attached to a package.
type PackageSocial struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Link   string `gorm:"type:text"`                              // Target URL.
	Social string `gorm:"type:text;not null;default:'website'"`   // One of the Social* values.
}

// Package is a tracked software package.
type Package struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Title       string `gorm:"type:text"`          // Display title.
	Description string `gorm:"type:text"`          // Long description.
	Version     string `gorm:"type:text;not null"` // Current version string.

	RegistryID *uint64   `gorm:"index"`                 // Source registry ID.
	Registry   *Registry `gorm:"foreignKey:RegistryID"` // Source registry.

	Socials []PackageSocial `gorm:"many2many:package_social_links"` // External links.

	Image      string `gorm:"type:text"` // Package image path.
	CoverImage string `gorm:"type:text"` // Cover image path.

	CreatedAt time.Time      `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime"` // Last update timestamp.
	DeletedAt gorm.DeletedAt `gorm:"index"`                   // Soft delete marker.
}
