package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zenhq/helpdesk/internal/authz"
	"github.com/zenhq/helpdesk/internal/models"
	internalsettings "github.com/zenhq/helpdesk/internal/settings"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Migrate applies the schema and syncs the permission catalog and default
// settings. Safe to run repeatedly.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}

	if errAutoMigrate := conn.AutoMigrate(
		&models.ContentType{},
		&models.Permission{},
		&models.Group{},
		&models.Profile{},
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Registry{},
		&models.PackageSocial{},
		&models.Package{},
		&models.Setting{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	if errSync := syncPermissionCatalog(conn); errSync != nil {
		return errSync
	}
	if errSeed := ensureStringSetting(conn, internalsettings.SiteNameKey, internalsettings.DefaultSiteName); errSeed != nil {
		return errSeed
	}
	if errSeed := ensureStringSetting(conn, internalsettings.ResetURLBaseKey, internalsettings.DefaultResetURLBase); errSeed != nil {
		return errSeed
	}
	if errSeed := ensureBoolSetting(conn, internalsettings.RegistrationOpenKey, internalsettings.DefaultRegistrationOpen); errSeed != nil {
		return errSeed
	}
	return nil
}

// syncPermissionCatalog materializes the declarative resource-type registry
// as content type and permission rows. Existing rows are kept; only missing
// entries are created.
func syncPermissionCatalog(conn *gorm.DB) error {
	for _, rt := range authz.DefaultCatalog.Types() {
		contentType, errEnsure := ensureContentType(conn, rt.Label, rt.Name)
		if errEnsure != nil {
			return errEnsure
		}
		for _, def := range rt.Permissions() {
			if errPerm := ensurePermission(conn, contentType.ID, def.Codename, def.Name); errPerm != nil {
				return errPerm
			}
		}
	}
	return nil
}

func ensureContentType(conn *gorm.DB, appLabel, model string) (*models.ContentType, error) {
	var existing models.ContentType
	errFind := conn.Where("app_label = ? AND model = ?", appLabel, model).First(&existing).Error
	if errFind == nil {
		return &existing, nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("db: query content type %s.%s: %w", appLabel, model, errFind)
	}

	contentType := models.ContentType{AppLabel: appLabel, Model: model, CreatedAt: time.Now().UTC()}
	if errCreate := conn.Create(&contentType).Error; errCreate != nil {
		return nil, fmt.Errorf("db: create content type %s.%s: %w", appLabel, model, errCreate)
	}
	return &contentType, nil
}

func ensurePermission(conn *gorm.DB, contentTypeID uint64, codename, name string) error {
	var existing models.Permission
	errFind := conn.Where("codename = ?", codename).First(&existing).Error
	if errFind == nil {
		return nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return fmt.Errorf("db: query permission %s: %w", codename, errFind)
	}

	perm := models.Permission{
		Codename:      codename,
		Name:          name,
		ContentTypeID: contentTypeID,
		CreatedAt:     time.Now().UTC(),
	}
	if errCreate := conn.Create(&perm).Error; errCreate != nil {
		return fmt.Errorf("db: create permission %s: %w", codename, errCreate)
	}
	return nil
}

func ensureStringSetting(conn *gorm.DB, key, value string) error {
	encoded, errMarshal := json.Marshal(value)
	if errMarshal != nil {
		return fmt.Errorf("db: encode setting %s: %w", key, errMarshal)
	}
	return ensureSetting(conn, key, encoded)
}

func ensureBoolSetting(conn *gorm.DB, key string, value bool) error {
	encoded, errMarshal := json.Marshal(value)
	if errMarshal != nil {
		return fmt.Errorf("db: encode setting %s: %w", key, errMarshal)
	}
	return ensureSetting(conn, key, encoded)
}

func ensureSetting(conn *gorm.DB, key string, value []byte) error {
	var existing models.Setting
	errFind := conn.Where("key = ?", key).First(&existing).Error
	if errFind == nil {
		return nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return fmt.Errorf("db: query setting %s: %w", key, errFind)
	}

	setting := models.Setting{Key: key, Value: datatypes.JSON(value), UpdatedAt: time.Now().UTC()}
	if errCreate := conn.Create(&setting).Error; errCreate != nil {
		return fmt.Errorf("db: create setting %s: %w", key, errCreate)
	}
	return nil
}
