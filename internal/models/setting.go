package models

import (
	"time"

	"gorm.io/datatypes"
)

// Setting stores one site configuration value as JSON.
type Setting struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Key   string         `gorm:"type:text;not null;uniqueIndex"` // Unique setting key.
	Value datatypes.JSON `gorm:"type:jsonb;not null"`            // JSON-encoded value.

	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
