package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zenhq/helpdesk/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service errors surfaced to callers. Handlers map these to HTTP statuses.
var (
	// ErrNotFound means a referenced user does not exist.
	ErrNotFound = errors.New("authz: not found")
	// ErrValidation means a referenced user, group, or permission id does
	// not resolve.
	ErrValidation = errors.New("authz: validation failed")
)

// Service implements group lookup, role assignment, and permission grants.
// Every mutating operation runs in a single transaction; a user's personal
// group is created lazily, guarded by the unique index on group name so that
// concurrent first-time callers converge on one row.
type Service struct {
	db *gorm.DB
}

// NewService constructs a Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// HasPerm reports whether the user holds the permission given in
// "{resource}.{codename}" form. Superusers hold every permission. The check
// is never object-scoped.
func (s *Service) HasPerm(user *models.User, perm string) bool {
	if s == nil || s.db == nil || user == nil {
		return false
	}
	if user.IsSuperuser {
		return true
	}
	if user.GroupID == nil {
		return false
	}
	codename := perm
	if idx := strings.IndexByte(perm, '.'); idx >= 0 {
		codename = perm[idx+1:]
	}
	if codename == "" {
		return false
	}
	var count int64
	errCount := s.db.Model(&models.Permission{}).
		Joins("JOIN group_permissions ON group_permissions.permission_id = permissions.id").
		Where("group_permissions.group_id = ? AND permissions.codename = ?", *user.GroupID, codename).
		Count(&count).Error
	return errCount == nil && count > 0
}

// EnsureGroup returns the user's group, creating and binding an empty group
// named after the username when none exists. Reads that reach this path
// materialize a group row; that side effect is part of the API contract.
func (s *Service) EnsureGroup(ctx context.Context, username string) (*models.Group, error) {
	var group *models.Group
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, errUser := userByUsername(tx, username)
		if errUser != nil {
			return errUser
		}
		var errEnsure error
		group, errEnsure = ensureGroupTx(tx, user)
		return errEnsure
	})
	if errTx != nil {
		return nil, errTx
	}
	return group, nil
}

// EnsureGroupForUser is EnsureGroup for an already loaded user row, used by
// the current-caller permission listing.
func (s *Service) EnsureGroupForUser(ctx context.Context, user *models.User) (*models.Group, error) {
	var group *models.Group
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var errEnsure error
		group, errEnsure = ensureGroupTx(tx, user)
		return errEnsure
	})
	if errTx != nil {
		return nil, errTx
	}
	return group, nil
}

// AssignRole binds the group to the user. The user's group reference is set
// only when empty, so repeated calls and calls against an already grouped
// user are confirmed no-ops. Returns the resolved user and group.
func (s *Service) AssignRole(ctx context.Context, userID, groupID uint64) (*models.User, *models.Group, error) {
	var (
		user  models.User
		group models.Group
	)
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errUser := tx.First(&user, userID).Error; errUser != nil {
			if errors.Is(errUser, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: user %d", ErrValidation, userID)
			}
			return errUser
		}
		if errGroup := tx.First(&group, groupID).Error; errGroup != nil {
			if errors.Is(errGroup, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: group %d", ErrValidation, groupID)
			}
			return errGroup
		}
		if user.GroupID != nil {
			return nil
		}
		return tx.Model(&models.User{}).
			Where("id = ? AND group_id IS NULL", user.ID).
			Update("group_id", group.ID).Error
	})
	if errTx != nil {
		return nil, nil, errTx
	}
	return &user, &group, nil
}

// AssignPermissions merges the permission set into the group of the user
// named by username, creating the group first when the user has none. The
// merge is additive: existing grants are kept. Returns the resulting group
// with its full permission set.
func (s *Service) AssignPermissions(ctx context.Context, username string, permissionIDs []uint64) (*models.Group, error) {
	var group *models.Group
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, errUser := userByUsername(tx, username)
		if errUser != nil {
			return errUser
		}

		perms, errPerms := permissionsByID(tx, permissionIDs)
		if errPerms != nil {
			return errPerms
		}

		var errEnsure error
		group, errEnsure = ensureGroupTx(tx, user)
		if errEnsure != nil {
			return errEnsure
		}

		if len(perms) > 0 {
			if errAppend := tx.Model(group).Association("Permissions").Append(perms); errAppend != nil {
				return errAppend
			}
		}
		return tx.Preload("Permissions").First(group, group.ID).Error
	})
	if errTx != nil {
		return nil, errTx
	}
	return group, nil
}

// userByUsername resolves a user or reports ErrNotFound.
func userByUsername(tx *gorm.DB, username string) (*models.User, error) {
	var user models.User
	if errFind := tx.Where("username = ?", strings.TrimSpace(username)).First(&user).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %q", ErrNotFound, username)
		}
		return nil, errFind
	}
	return &user, nil
}

// permissionsByID loads the referenced permissions, reporting ErrValidation
// when any id does not resolve.
func permissionsByID(tx *gorm.DB, ids []uint64) ([]models.Permission, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var perms []models.Permission
	if errFind := tx.Where("id IN ?", ids).Find(&perms).Error; errFind != nil {
		return nil, errFind
	}
	seen := make(map[uint64]struct{}, len(perms))
	for _, perm := range perms {
		seen[perm.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			return nil, fmt.Errorf("%w: permission %d", ErrValidation, id)
		}
	}
	return perms, nil
}

// ensureGroupTx loads or creates the user's group inside the caller's
// transaction. The insert absorbs name collisions with ON CONFLICT DO
// NOTHING, so a losing concurrent caller reads the winner's row instead of
// aborting the transaction. The user binding update is guarded by
// "group_id IS NULL" so a concurrent binder is never overwritten.
func ensureGroupTx(tx *gorm.DB, user *models.User) (*models.Group, error) {
	if user.GroupID != nil {
		var group models.Group
		if errFind := tx.Preload("Permissions").First(&group, *user.GroupID).Error; errFind != nil {
			return nil, errFind
		}
		return &group, nil
	}

	group := models.Group{Name: user.Username}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&group)
	if res.Error != nil {
		return nil, fmt.Errorf("authz: create group %q: %w", user.Username, res.Error)
	}
	if res.RowsAffected == 0 {
		if errFind := tx.Where("name = ?", user.Username).First(&group).Error; errFind != nil {
			return nil, errFind
		}
	}

	if errBind := tx.Model(&models.User{}).
		Where("id = ? AND group_id IS NULL", user.ID).
		Update("group_id", group.ID).Error; errBind != nil {
		return nil, errBind
	}

	// Re-read the binding: a concurrent caller may have bound first.
	var bound models.User
	if errRead := tx.Select("group_id").First(&bound, user.ID).Error; errRead != nil {
		return nil, errRead
	}
	user.GroupID = bound.GroupID
	if user.GroupID != nil && *user.GroupID != group.ID {
		var winner models.Group
		if errFind := tx.Preload("Permissions").First(&winner, *user.GroupID).Error; errFind != nil {
			return nil, errFind
		}
		return &winner, nil
	}
	return &group, nil
}
