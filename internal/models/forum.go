package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is a forum thread starter.
type Post struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Title   string `gorm:"type:text"` // Thread title.
	Content string `gorm:"type:text"` // Post body.

	AuthorID *uint64 `gorm:"index"`                // Authoring user ID.
	Author   *User   `gorm:"foreignKey:AuthorID"`  // Authoring user.

	Comments []Comment `gorm:"foreignKey:PostID"` // Related comments.

	CreatedAt time.Time      `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime"` // Last update timestamp.
	DeletedAt gorm.DeletedAt `gorm:"index"`                   // Soft delete marker.
}

// Comment is a reply on a post.
type Comment struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Content string `gorm:"type:text"` // Comment body.

	PostID *uint64 `gorm:"index"`               // Parent post ID.
	Post   *Post   `gorm:"foreignKey:PostID"`   // Parent post.

	AuthorID *uint64 `gorm:"index"`               // Authoring user ID.
	Author   *User   `gorm:"foreignKey:AuthorID"` // Authoring user.

	CreatedAt time.Time      `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime"` // Last update timestamp.
	DeletedAt gorm.DeletedAt `gorm:"index"`                   // Soft delete marker.
}
