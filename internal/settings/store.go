package settings

import (
	"encoding/json"

	"github.com/zenhq/helpdesk/internal/models"
	"gorm.io/gorm"
)

// StringValue reads a string setting, falling back when the key is
// missing or holds a non-string value.
func StringValue(db *gorm.DB, key, fallback string) string {
	raw, ok := rawValue(db, key)
	if !ok {
		return fallback
	}
	var value string
	if errDecode := json.Unmarshal(raw, &value); errDecode != nil {
		return fallback
	}
	return value
}

// BoolValue reads a boolean setting, falling back when the key is
// missing or holds a non-boolean value.
func BoolValue(db *gorm.DB, key string, fallback bool) bool {
	raw, ok := rawValue(db, key)
	if !ok {
		return fallback
	}
	var value bool
	if errDecode := json.Unmarshal(raw, &value); errDecode != nil {
		return fallback
	}
	return value
}

func rawValue(db *gorm.DB, key string) ([]byte, bool) {
	var setting models.Setting
	if errFind := db.Where("key = ?", key).First(&setting).Error; errFind != nil {
		return nil, false
	}
	return []byte(setting.Value), true
}
