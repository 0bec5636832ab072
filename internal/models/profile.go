package models

import "time"

// Gender values accepted on a profile.
const (
	GenderMale    = "MALE"
	GenderFemale  = "FEMALE"
	GenderOther   = "OTHER"
	GenderUnknown = "UNKNOWN"
)

// Profile holds the personal details attached to a user account.
type Profile struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	FullName       string     `gorm:"type:text"` // Display name.
	Phone          string     `gorm:"type:text"` // Landline number.
	Mobile         string     `gorm:"type:text"` // Mobile number.
	SecondaryEmail string     `gorm:"type:text"` // Alternate email address.
	Address        string     `gorm:"type:text"` // Postal address.
	Gender         string     `gorm:"type:text"` // One of the Gender* values.
	BirthDate      *time.Time `gorm:"type:date"` // Date of birth.
	Avatar         string     `gorm:"type:text"` // Avatar image path.

	IsStaff bool `gorm:"not null;default:false"` // Mirrors the staff flag for display.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
