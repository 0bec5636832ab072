package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zenhq/helpdesk/internal/config"
	"github.com/zenhq/helpdesk/internal/db"
	"github.com/zenhq/helpdesk/internal/mail"
	"github.com/zenhq/helpdesk/internal/models"
	"github.com/zenhq/helpdesk/internal/security"
	"gorm.io/gorm"
)

var testJWT = config.JWTConfig{Secret: "api-test-secret", Expiry: time.Hour}

type testServer struct {
	engine *gin.Engine
	conn   *gorm.DB
	mailer *mail.LogMailer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, errOpen := db.Open("file:" + filepath.Join(t.TempDir(), "api_test.db"))
	if errOpen != nil {
		t.Fatalf("open database: %v", errOpen)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate database: %v", errMigrate)
	}

	mailer := &mail.LogMailer{}
	engine := gin.New()
	RegisterRoutes(engine, conn, testJWT, mailer)
	return &testServer{engine: engine, conn: conn, mailer: mailer}
}

func (s *testServer) createUser(t *testing.T, username string, staff bool) *models.User {
	t.Helper()
	hash, errHash := security.HashPassword("s3cret-password")
	if errHash != nil {
		t.Fatalf("hash password: %v", errHash)
	}
	user := models.User{
		Email:    username + "@example.com",
		Username: username,
		Password: hash,
		IsStaff:  staff,
		IsActive: true,
	}
	if errCreate := s.conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user %s: %v", username, errCreate)
	}
	return &user
}

func (s *testServer) token(t *testing.T, user *models.User) string {
	t.Helper()
	pair, errIssue := security.IssueTokenPair(testJWT.Secret, testJWT.Expiry, user.ID)
	if errIssue != nil {
		t.Fatalf("issue token: %v", errIssue)
	}
	return pair.Access
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, errMarshal := json.Marshal(body)
		if errMarshal != nil {
			t.Fatalf("encode body: %v", errMarshal)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &out); errDecode != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), errDecode)
	}
	return out
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var out []map[string]any
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &out); errDecode != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), errDecode)
	}
	return out
}

func (s *testServer) permissionID(t *testing.T, codename string) uint64 {
	t.Helper()
	var perm models.Permission
	if errFind := s.conn.Where("codename = ?", codename).First(&perm).Error; errFind != nil {
		t.Fatalf("find permission %s: %v", codename, errFind)
	}
	return perm.ID
}

func TestAuthRegisterLoginRefresh(t *testing.T) {
	server := newTestServer(t)

	rec := server.do(t, http.MethodPost, "/auth/register/", "", gin.H{
		"email":    "jane@example.com",
		"username": "jane",
		"password": "s3cret-password",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeMap(t, rec)
	if created["is_staff"] != false {
		t.Fatal("expected self-registered accounts to never be staff")
	}

	rec = server.do(t, http.MethodPost, "/auth/login/", "", gin.H{
		"email":    "jane@example.com",
		"password": "s3cret-password",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	tokens := decodeMap(t, rec)
	refresh, _ := tokens["refresh"].(string)
	if refresh == "" {
		t.Fatal("expected a refresh token")
	}

	rec = server.do(t, http.MethodPost, "/auth/refresh/", "", gin.H{"refresh": refresh})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = server.do(t, http.MethodPost, "/auth/login/", "", gin.H{
		"email":    "jane@example.com",
		"password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", rec.Code)
	}
}

func TestStaffOnlyRoutes(t *testing.T) {
	server := newTestServer(t)
	regular := server.createUser(t, "norma", false)

	rec := server.do(t, http.MethodGet, "/groups/", server.token(t, regular), nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-staff, got %d", rec.Code)
	}

	rec = server.do(t, http.MethodGet, "/groups/", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rec.Code)
	}
}

func TestGroupPatchReplacesButAssignmentMerges(t *testing.T) {
	server := newTestServer(t)
	staff := server.createUser(t, "root", true)
	server.createUser(t, "alice", false)
	token := server.token(t, staff)

	addPost := server.permissionID(t, "add_post")
	viewPost := server.permissionID(t, "view_post")
	changePost := server.permissionID(t, "change_post")

	rec := server.do(t, http.MethodPost, "/groups/", token, gin.H{
		"name":        "editors",
		"permissions": []uint64{addPost, viewPost},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create group: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	group := decodeMap(t, rec)
	groupID := int(group["id"].(float64))

	// A PATCH with a permission list replaces the whole set.
	rec = server.do(t, http.MethodPatch, "/groups/"+itoa(groupID)+"/", token, gin.H{
		"permissions": []uint64{changePost},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch group: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	patched := decodeMap(t, rec)
	perms := patched["permissions"].([]any)
	if len(perms) != 1 {
		t.Fatalf("expected the permission set to be replaced, got %d entries", len(perms))
	}

	// The per-user assignment endpoint merges instead.
	rec = server.do(t, http.MethodPost, "/user-permissions/alice/", token, gin.H{
		"permissions": []uint64{addPost},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("first assignment: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = server.do(t, http.MethodPost, "/user-permissions/alice/", token, gin.H{
		"permissions": []uint64{viewPost},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("second assignment: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := decodeMap(t, rec)
	if msg := result["message"]; msg != "Permissions has been assigned to alice." {
		t.Fatalf("unexpected message %v", msg)
	}
	merged := result["group"].(map[string]any)
	if got := len(merged["permissions"].([]any)); got != 2 {
		t.Fatalf("expected the grants to merge into 2, got %d", got)
	}
}

func TestUserPermissionsAutoVivify(t *testing.T) {
	server := newTestServer(t)
	staff := server.createUser(t, "root", true)
	fresh := server.createUser(t, "newbie", false)

	rec := server.do(t, http.MethodGet, "/user-permissions/newbie/", server.token(t, staff), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	group := decodeMap(t, rec)
	if group["name"] != "newbie" {
		t.Fatalf("expected a group named after the user, got %v", group["name"])
	}

	var count int64
	if errCount := server.conn.Model(&models.Group{}).Where("name = ?", "newbie").Count(&count).Error; errCount != nil {
		t.Fatalf("count groups: %v", errCount)
	}
	if count != 1 {
		t.Fatalf("expected the read to materialize one group, got %d", count)
	}

	// The self listing vivifies too and returns the abbreviated projection.
	rec = server.do(t, http.MethodGet, "/user-permissions/", server.token(t, fresh), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if perms := decodeList(t, rec); len(perms) != 0 {
		t.Fatalf("expected an empty permission list, got %v", perms)
	}

	rec = server.do(t, http.MethodGet, "/user-permissions/ghost/", server.token(t, staff), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown username, got %d", rec.Code)
	}
}

func TestAssignRoleEndpoint(t *testing.T) {
	server := newTestServer(t)
	staff := server.createUser(t, "root", true)
	target := server.createUser(t, "sam", false)
	token := server.token(t, staff)

	editors := models.Group{Name: "editors"}
	if errCreate := server.conn.Create(&editors).Error; errCreate != nil {
		t.Fatalf("create group: %v", errCreate)
	}

	rec := server.do(t, http.MethodPost, "/assign-roles/", token, gin.H{
		"user":  target.ID,
		"group": editors.ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := decodeMap(t, rec)
	if result["message"] != "editors role has been assigned to sam." {
		t.Fatalf("unexpected message %v", result["message"])
	}

	rec = server.do(t, http.MethodPost, "/assign-roles/", token, gin.H{
		"user":  uint64(999999),
		"group": editors.ID,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown user, got %d", rec.Code)
	}
}

func TestPostContentFieldGuard(t *testing.T) {
	server := newTestServer(t)
	author := server.createUser(t, "ann", false)
	stranger := server.createUser(t, "sue", false)

	rec := server.do(t, http.MethodPost, "/posts/", server.token(t, author), gin.H{
		"title":   "printer down",
		"content": "the lobby printer is jammed",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create post: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	post := decodeMap(t, rec)
	postID := int(post["id"].(float64))
	path := "/posts/" + itoa(postID) + "/"

	// The author may edit content.
	rec = server.do(t, http.MethodPatch, path, server.token(t, author), gin.H{
		"content": "the lobby printer is jammed again",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("author patch: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if updated := decodeMap(t, rec); updated["content"] != "the lobby printer is jammed again" {
		t.Fatalf("expected the author edit to apply, got %v", updated["content"])
	}

	// A stranger's content edit is dropped silently while other fields apply.
	rec = server.do(t, http.MethodPatch, path, server.token(t, stranger), gin.H{
		"title":   "printer fixed",
		"content": "vandalized",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("stranger patch: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := decodeMap(t, rec)
	if result["title"] != "printer fixed" {
		t.Fatalf("expected the title edit to apply, got %v", result["title"])
	}
	if result["content"] != "the lobby printer is jammed again" {
		t.Fatalf("expected the content edit to be dropped, got %v", result["content"])
	}

	// With the static permission granted the stranger may edit content.
	grant := server.permissionID(t, "can_change_post_content")
	staff := server.createUser(t, "root", true)
	rec = server.do(t, http.MethodPost, "/user-permissions/sue/", server.token(t, staff), gin.H{
		"permissions": []uint64{grant},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("grant permission: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = server.do(t, http.MethodPatch, path, server.token(t, stranger), gin.H{
		"content": "resolved by facilities",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("granted patch: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if result := decodeMap(t, rec); result["content"] != "resolved by facilities" {
		t.Fatalf("expected the granted edit to apply, got %v", result["content"])
	}
}

func TestPackageTitleFieldGuard(t *testing.T) {
	server := newTestServer(t)
	user := server.createUser(t, "pat", false)
	token := server.token(t, user)

	rec := server.do(t, http.MethodPost, "/packages/", token, gin.H{
		"title":   "ticket-widget",
		"version": "1.0.0",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create package: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	pkg := decodeMap(t, rec)
	path := "/packages/" + itoa(int(pkg["id"].(float64))) + "/"

	rec = server.do(t, http.MethodPatch, path, token, gin.H{
		"title":   "renamed-widget",
		"version": "1.1.0",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch package: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := decodeMap(t, rec)
	if result["title"] != "ticket-widget" {
		t.Fatalf("expected the title edit to be dropped, got %v", result["title"])
	}
	if result["version"] != "1.1.0" {
		t.Fatalf("expected the version edit to apply, got %v", result["version"])
	}

	grant := server.permissionID(t, "can_change_package_title")
	staff := server.createUser(t, "root", true)
	rec = server.do(t, http.MethodPost, "/user-permissions/pat/", server.token(t, staff), gin.H{
		"permissions": []uint64{grant},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("grant permission: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = server.do(t, http.MethodPatch, path, token, gin.H{"title": "renamed-widget"})
	if rec.Code != http.StatusOK {
		t.Fatalf("granted patch: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if result := decodeMap(t, rec); result["title"] != "renamed-widget" {
		t.Fatalf("expected the granted title edit to apply, got %v", result["title"])
	}
}

func TestPasswordResetFlow(t *testing.T) {
	server := newTestServer(t)
	user := server.createUser(t, "kim", false)

	rec := server.do(t, http.MethodPost, "/password_reset/", "", gin.H{"email": "kim@example.com"})
	if rec.Code != http.StatusOK {
		t.Fatalf("request reset: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(server.mailer.Sent) != 1 {
		t.Fatalf("expected one captured mail, got %d", len(server.mailer.Sent))
	}
	if !strings.Contains(server.mailer.Sent[0].Body, "/reset/") {
		t.Fatalf("expected a reset link in the mail body: %s", server.mailer.Sent[0].Body)
	}

	// Unknown addresses are reported and send no mail.
	rec = server.do(t, http.MethodPost, "/password_reset/", "", gin.H{"email": "nobody@example.com"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown email: expected 404, got %d", rec.Code)
	}
	if len(server.mailer.Sent) != 1 {
		t.Fatal("expected no mail for an unknown address")
	}

	uid := security.EncodeUserID(user.ID)
	resetToken := security.MakeResetToken(testJWT.Secret, user, time.Now().UTC())
	path := "/reset/" + uid + "/" + resetToken + "/"

	rec = server.do(t, http.MethodGet, path, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("validate token: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = server.do(t, http.MethodPost, path, "", gin.H{
		"new_password1": "new-password-123",
		"new_password2": "mismatch",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("mismatch: expected 400, got %d", rec.Code)
	}

	rec = server.do(t, http.MethodPost, path, "", gin.H{
		"new_password1": "new-password-123",
		"new_password2": "new-password-123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm reset: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var reloaded models.User
	if errFind := server.conn.First(&reloaded, user.ID).Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	if !security.CheckPassword(reloaded.Password, "new-password-123") {
		t.Fatal("expected the new password to verify")
	}

	// The consumed token no longer validates.
	rec = server.do(t, http.MethodPost, path, "", gin.H{
		"new_password1": "another-password-1",
		"new_password2": "another-password-1",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("reused token: expected 400, got %d", rec.Code)
	}
}

func TestAccountsSearchAndDeactivate(t *testing.T) {
	server := newTestServer(t)
	staff := server.createUser(t, "root", true)
	server.createUser(t, "maria", false)
	server.createUser(t, "marcus", false)
	server.createUser(t, "olive", false)
	token := server.token(t, staff)

	rec := server.do(t, http.MethodGet, "/accounts/?search=mar", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := len(decodeList(t, rec)); got != 2 {
		t.Fatalf("expected 2 matches for 'mar', got %d", got)
	}

	rec = server.do(t, http.MethodGet, "/accounts/me/", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me alias: expected 200, got %d", rec.Code)
	}
	if me := decodeMap(t, rec); me["username"] != "root" {
		t.Fatalf("expected the caller's account, got %v", me["username"])
	}

	rec = server.do(t, http.MethodDelete, "/accounts/olive/", token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("deactivate: expected 204, got %d", rec.Code)
	}
	var olive models.User
	if errFind := server.conn.Where("username = ?", "olive").First(&olive).Error; errFind != nil {
		t.Fatalf("expected the row to survive deactivation: %v", errFind)
	}
	if olive.IsActive {
		t.Fatal("expected the account to be deactivated")
	}

	// Deactivated accounts drop out of the default listing but not /accounts/all/.
	rec = server.do(t, http.MethodGet, "/accounts/", token, nil)
	for _, entry := range decodeList(t, rec) {
		if entry["username"] == "olive" {
			t.Fatal("expected deactivated accounts to be hidden")
		}
	}
	rec = server.do(t, http.MethodGet, "/accounts/all/", token, nil)
	found := false
	for _, entry := range decodeList(t, rec) {
		if entry["username"] == "olive" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected deactivated accounts in the full listing")
	}
}

func TestCommentCreateOnPost(t *testing.T) {
	server := newTestServer(t)
	user := server.createUser(t, "nina", false)
	token := server.token(t, user)

	rec := server.do(t, http.MethodPost, "/posts/", token, gin.H{"title": "welcome", "content": "hi"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create post: expected 201, got %d", rec.Code)
	}
	postID := int(decodeMap(t, rec)["id"].(float64))

	rec = server.do(t, http.MethodPost, "/comments/", token, gin.H{"post": postID, "content": "first"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create comment: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	comment := decodeMap(t, rec)
	if int(comment["post"].(float64)) != postID {
		t.Fatalf("expected the comment bound to post %d, got %v", postID, comment["post"])
	}
	if int(comment["author"].(float64)) != int(user.ID) {
		t.Fatalf("expected the caller as author, got %v", comment["author"])
	}

	rec = server.do(t, http.MethodPost, "/comments/", token, gin.H{"post": 9999, "content": "lost"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown post: expected 400, got %d", rec.Code)
	}
}

func TestProfilesCrudAndSearch(t *testing.T) {
	server := newTestServer(t)
	user := server.createUser(t, "pat", false)
	token := server.token(t, user)

	rec := server.do(t, http.MethodPost, "/profiles/", token, gin.H{
		"full_name":       "Grace Hopper",
		"secondary_email": "grace@navy.example.com",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create profile: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	profileID := int(decodeMap(t, rec)["id"].(float64))

	rec = server.do(t, http.MethodPost, "/profiles/", token, gin.H{"full_name": "Alan"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create second profile: expected 201, got %d", rec.Code)
	}

	rec = server.do(t, http.MethodGet, "/profiles/?search=hopper", token, nil)
	if got := decodeList(t, rec); len(got) != 1 || got[0]["full_name"] != "Grace Hopper" {
		t.Fatalf("full name search: expected one match, got %v", got)
	}
	rec = server.do(t, http.MethodGet, "/profiles/?search=navy", token, nil)
	if got := decodeList(t, rec); len(got) != 1 {
		t.Fatalf("secondary email search: expected one match, got %v", got)
	}

	path := "/profiles/" + itoa(profileID) + "/"
	rec = server.do(t, http.MethodPatch, path, token, gin.H{"gender": "FEMALE"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update profile: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if updated := decodeMap(t, rec); updated["gender"] != "FEMALE" {
		t.Fatalf("expected updated gender, got %v", updated["gender"])
	}

	rec = server.do(t, http.MethodPatch, path, token, gin.H{"gender": "NOPE"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid gender: expected 400, got %d", rec.Code)
	}

	rec = server.do(t, http.MethodDelete, path, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete profile: expected 204, got %d", rec.Code)
	}
	rec = server.do(t, http.MethodGet, path, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("deleted profile: expected 404, got %d", rec.Code)
	}
}

func TestAdminCreatesAccountWithGeneratedPassword(t *testing.T) {
	server := newTestServer(t)
	admin := server.createUser(t, "root", true)
	token := server.token(t, admin)

	rec := server.do(t, http.MethodPost, "/accounts/", token, gin.H{
		"email":    "newhire@example.com",
		"username": "newhire",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create account: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created models.User
	if errFind := server.conn.Where("username = ?", "newhire").First(&created).Error; errFind != nil {
		t.Fatalf("reload account: %v", errFind)
	}
	if created.Password == "" {
		t.Fatal("expected a generated password hash")
	}
	if security.CheckPassword(created.Password, "") {
		t.Fatal("expected the generated password to be unguessable")
	}

	rec = server.do(t, http.MethodPost, "/accounts/", token, gin.H{
		"email":    "short@example.com",
		"username": "short",
		"password": "tiny",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short password: expected 400, got %d", rec.Code)
	}

	outsider := server.createUser(t, "outsider", false)
	rec = server.do(t, http.MethodPost, "/accounts/", server.token(t, outsider), gin.H{
		"email":    "sneak@example.com",
		"username": "sneak",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-staff create: expected 403, got %d", rec.Code)
	}
}

func TestGroupCreateDuplicateName(t *testing.T) {
	server := newTestServer(t)
	admin := server.createUser(t, "root", true)
	token := server.token(t, admin)

	rec := server.do(t, http.MethodPost, "/groups/", token, gin.H{"name": "ops"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create group: expected 201, got %d", rec.Code)
	}
	rec = server.do(t, http.MethodPost, "/groups/", token, gin.H{"name": "ops"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate name: expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if body := decodeMap(t, rec); body["error"] != "group name already in use" {
		t.Fatalf("expected the duplicate name error, got %v", body["error"])
	}
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
