package models

import "time"

// ContentType describes one resource type known to the permission catalog.
type ContentType struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	AppLabel string `gorm:"type:text;not null;index:idx_content_type,unique"` // Owning module label.
	Model    string `gorm:"type:text;not null;index:idx_content_type,unique"` // Resource type name.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}

// Permission identifies one grantable capability. Rows are created by the
// migrate-time catalog sync, never by request handlers.
type Permission struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Codename string `gorm:"type:text;not null;uniqueIndex"` // Unique codename, e.g. can_change_package_title.
	Name     string `gorm:"type:text;not null"`             // Display label.

	ContentTypeID uint64       `gorm:"not null;index"`              // Owning content type ID.
	ContentType   *ContentType `gorm:"foreignKey:ContentTypeID"`    // Owning content type.

	Groups []Group `gorm:"many2many:group_permissions"` // Groups holding this permission.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
