package authz_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/zenhq/helpdesk/internal/authz"
	"github.com/zenhq/helpdesk/internal/db"
	"github.com/zenhq/helpdesk/internal/models"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, errOpen := db.Open("file:" + filepath.Join(t.TempDir(), "authz_test.db"))
	if errOpen != nil {
		t.Fatalf("open database: %v", errOpen)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate database: %v", errMigrate)
	}
	return conn
}

func createUser(t *testing.T, conn *gorm.DB, username string) *models.User {
	t.Helper()
	user := models.User{
		Email:    username + "@example.com",
		Username: username,
		Password: "x",
		IsActive: true,
	}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user %s: %v", username, errCreate)
	}
	return &user
}

func permissionIDs(t *testing.T, conn *gorm.DB, codenames ...string) []uint64 {
	t.Helper()
	ids := make([]uint64, 0, len(codenames))
	for _, codename := range codenames {
		var perm models.Permission
		if errFind := conn.Where("codename = ?", codename).First(&perm).Error; errFind != nil {
			t.Fatalf("find permission %s: %v", codename, errFind)
		}
		ids = append(ids, perm.ID)
	}
	return ids
}

func TestAssignPermissionsCreatesPersonalGroup(t *testing.T) {
	conn := openTestDB(t)
	service := authz.NewService(conn)
	createUser(t, conn, "alice")

	ids := permissionIDs(t, conn, "add_post", "change_post")
	group, errAssign := service.AssignPermissions(context.Background(), "alice", ids)
	if errAssign != nil {
		t.Fatalf("assign permissions: %v", errAssign)
	}
	if group.Name != "alice" {
		t.Fatalf("expected group named after the user, got %q", group.Name)
	}
	if len(group.Permissions) != 2 {
		t.Fatalf("expected 2 permissions, got %d", len(group.Permissions))
	}

	var bound models.User
	if errFind := conn.Where("username = ?", "alice").First(&bound).Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	if bound.GroupID == nil || *bound.GroupID != group.ID {
		t.Fatal("expected the user to be bound to the new group")
	}
}

func TestAssignPermissionsMergesAdditively(t *testing.T) {
	conn := openTestDB(t)
	service := authz.NewService(conn)
	createUser(t, conn, "bob")
	ctx := context.Background()

	first := permissionIDs(t, conn, "add_post")
	if _, errAssign := service.AssignPermissions(ctx, "bob", first); errAssign != nil {
		t.Fatalf("first assign: %v", errAssign)
	}

	second := permissionIDs(t, conn, "add_post", "view_post")
	group, errAssign := service.AssignPermissions(ctx, "bob", second)
	if errAssign != nil {
		t.Fatalf("second assign: %v", errAssign)
	}
	if len(group.Permissions) != 2 {
		t.Fatalf("expected the sets to merge into 2 grants, got %d", len(group.Permissions))
	}

	// Repeating the call must not duplicate grants.
	group, errAssign = service.AssignPermissions(ctx, "bob", second)
	if errAssign != nil {
		t.Fatalf("repeat assign: %v", errAssign)
	}
	if len(group.Permissions) != 2 {
		t.Fatalf("expected an idempotent merge, got %d grants", len(group.Permissions))
	}
}

func TestAssignPermissionsUnknownTargets(t *testing.T) {
	conn := openTestDB(t)
	service := authz.NewService(conn)
	createUser(t, conn, "carol")
	ctx := context.Background()

	if _, errAssign := service.AssignPermissions(ctx, "nobody", nil); !errors.Is(errAssign, authz.ErrNotFound) {
		t.Fatalf("expected authz.ErrNotFound for unknown user, got %v", errAssign)
	}
	if _, errAssign := service.AssignPermissions(ctx, "carol", []uint64{999999}); !errors.Is(errAssign, authz.ErrValidation) {
		t.Fatalf("expected authz.ErrValidation for unknown permission, got %v", errAssign)
	}
}

func TestEnsureGroupIsStable(t *testing.T) {
	conn := openTestDB(t)
	service := authz.NewService(conn)
	createUser(t, conn, "dave")
	ctx := context.Background()

	first, errEnsure := service.EnsureGroup(ctx, "dave")
	if errEnsure != nil {
		t.Fatalf("first ensure: %v", errEnsure)
	}
	second, errEnsure := service.EnsureGroup(ctx, "dave")
	if errEnsure != nil {
		t.Fatalf("second ensure: %v", errEnsure)
	}
	if first.ID != second.ID {
		t.Fatalf("expected one group, got %d and %d", first.ID, second.ID)
	}

	var count int64
	if errCount := conn.Model(&models.Group{}).Where("name = ?", "dave").Count(&count).Error; errCount != nil {
		t.Fatalf("count groups: %v", errCount)
	}
	if count != 1 {
		t.Fatalf("expected a single group row, got %d", count)
	}
}

func TestEnsureGroupAdoptsExistingName(t *testing.T) {
	conn := openTestDB(t)
	service := authz.NewService(conn)
	createUser(t, conn, "team")

	existing := models.Group{Name: "team"}
	if errCreate := conn.Create(&existing).Error; errCreate != nil {
		t.Fatalf("create group: %v", errCreate)
	}

	group, errEnsure := service.EnsureGroup(context.Background(), "team")
	if errEnsure != nil {
		t.Fatalf("ensure group: %v", errEnsure)
	}
	if group.ID != existing.ID {
		t.Fatalf("expected the existing group %d, got %d", existing.ID, group.ID)
	}

	var count int64
	if errCount := conn.Model(&models.Group{}).Where("name = ?", "team").Count(&count).Error; errCount != nil {
		t.Fatalf("count groups: %v", errCount)
	}
	if count != 1 {
		t.Fatalf("expected a single group row, got %d", count)
	}
}

func TestEnsureGroupUnknownUser(t *testing.T) {
	conn := openTestDB(t)
	service := authz.NewService(conn)

	if _, errEnsure := service.EnsureGroup(context.Background(), "ghost"); !errors.Is(errEnsure, authz.ErrNotFound) {
		t.Fatalf("expected authz.ErrNotFound, got %v", errEnsure)
	}
}

func TestAssignRoleBindsOnceOnly(t *testing.T) {
	conn := openTestDB(t)
	service := authz.NewService(conn)
	user := createUser(t, conn, "erin")
	ctx := context.Background()

	editors := models.Group{Name: "editors"}
	if errCreate := conn.Create(&editors).Error; errCreate != nil {
		t.Fatalf("create group: %v", errCreate)
	}
	reviewers := models.Group{Name: "reviewers"}
	if errCreate := conn.Create(&reviewers).Error; errCreate != nil {
		t.Fatalf("create group: %v", errCreate)
	}

	boundUser, boundGroup, errAssign := service.AssignRole(ctx, user.ID, editors.ID)
	if errAssign != nil {
		t.Fatalf("assign role: %v", errAssign)
	}
	if boundUser.Username != "erin" || boundGroup.Name != "editors" {
		t.Fatalf("unexpected assignment: %s -> %s", boundUser.Username, boundGroup.Name)
	}

	// A second assignment confirms without rebinding.
	if _, _, errAssign = service.AssignRole(ctx, user.ID, reviewers.ID); errAssign != nil {
		t.Fatalf("repeat assign: %v", errAssign)
	}
	var reloaded models.User
	if errFind := conn.First(&reloaded, user.ID).Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	if reloaded.GroupID == nil || *reloaded.GroupID != editors.ID {
		t.Fatal("expected the original binding to survive")
	}
}

func TestAssignRoleUnknownReferences(t *testing.T) {
	conn := openTestDB(t)
	service := authz.NewService(conn)
	user := createUser(t, conn, "frank")
	ctx := context.Background()

	if _, _, errAssign := service.AssignRole(ctx, 999999, 1); !errors.Is(errAssign, authz.ErrValidation) {
		t.Fatalf("expected authz.ErrValidation for unknown user, got %v", errAssign)
	}
	if _, _, errAssign := service.AssignRole(ctx, user.ID, 999999); !errors.Is(errAssign, authz.ErrValidation) {
		t.Fatalf("expected authz.ErrValidation for unknown group, got %v", errAssign)
	}
}

func TestConcurrentAssignPermissionsConverge(t *testing.T) {
	conn := openTestDB(t)
	service := authz.NewService(conn)
	createUser(t, conn, "grace")
	ids := permissionIDs(t, conn, "view_post")
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errAssign := service.AssignPermissions(ctx, "grace", ids)
			errs <- errAssign
		}()
	}
	wg.Wait()
	close(errs)
	for errAssign := range errs {
		if errAssign != nil {
			t.Fatalf("concurrent assign: %v", errAssign)
		}
	}

	var count int64
	if errCount := conn.Model(&models.Group{}).Where("name = ?", "grace").Count(&count).Error; errCount != nil {
		t.Fatalf("count groups: %v", errCount)
	}
	if count != 1 {
		t.Fatalf("expected the callers to converge on one group, got %d", count)
	}
}

func TestHasPermMatchesGroupGrants(t *testing.T) {
	conn := openTestDB(t)
	service := authz.NewService(conn)
	createUser(t, conn, "henry")
	ctx := context.Background()

	ids := permissionIDs(t, conn, "can_change_package_title")
	if _, errAssign := service.AssignPermissions(ctx, "henry", ids); errAssign != nil {
		t.Fatalf("assign permissions: %v", errAssign)
	}

	var user models.User
	if errFind := conn.Where("username = ?", "henry").First(&user).Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}

	if !service.HasPerm(&user, "package.can_change_package_title") {
		t.Fatal("expected the granted permission to match")
	}
	if service.HasPerm(&user, "post.can_change_post_content") {
		t.Fatal("expected an ungranted permission to miss")
	}

	super := models.User{ID: user.ID, IsSuperuser: true}
	if !service.HasPerm(&super, "post.can_change_post_content") {
		t.Fatal("expected superusers to hold every permission")
	}

	loner := createUser(t, conn, "ivy")
	if service.HasPerm(loner, "package.can_change_package_title") {
		t.Fatal("expected a user without a group to hold nothing")
	}
}
