package authz

import (
	"fmt"
	"strings"

	"github.com/zenhq/helpdesk/internal/models"
)

// PermissionDef declares one grantable permission of a resource type.
type PermissionDef struct {
	Codename string
	Name     string
}

// ResourceType declares one resource type: its permission set and its
// field-level write rules. Declared once at package init, immutable at
// runtime.
type ResourceType struct {
	Name  string // model name, e.g. "package"
	Label string // owning module label, e.g. "packages"

	// Extra permissions beyond the add/change/delete/view defaults.
	Extra []PermissionDef

	// FieldRules maps a field name to its ordered permission checks.
	FieldRules map[string][]Check

	// FieldHooks maps a field name to a single dynamic check, consulted only
	// when FieldRules has no entry for the field.
	FieldHooks map[string]Predicate

	codenames map[string]struct{}
}

// Permissions returns the full permission set: the four defaults plus any
// declared extras.
func (rt *ResourceType) Permissions() []PermissionDef {
	defs := []PermissionDef{
		{Codename: "add_" + rt.Name, Name: "Can add " + rt.Name},
		{Codename: "change_" + rt.Name, Name: "Can change " + rt.Name},
		{Codename: "delete_" + rt.Name, Name: "Can delete " + rt.Name},
		{Codename: "view_" + rt.Name, Name: "Can view " + rt.Name},
	}
	return append(defs, rt.Extra...)
}

// HasCodename reports whether codename belongs to this resource type. The
// codename index is built by NewCatalog; a ResourceType used outside a
// catalog falls back to scanning its permission set.
func (rt *ResourceType) HasCodename(codename string) bool {
	if rt.codenames != nil {
		_, ok := rt.codenames[codename]
		return ok
	}
	for _, def := range rt.Permissions() {
		if def.Codename == codename {
			return true
		}
	}
	return false
}

// Catalog holds the ordered resource-type registry.
type Catalog struct {
	types  []*ResourceType
	byName map[string]*ResourceType
}

// NewCatalog builds a catalog from resource-type declarations.
func NewCatalog(types ...*ResourceType) *Catalog {
	c := &Catalog{byName: make(map[string]*ResourceType, len(types))}
	for _, rt := range types {
		rt.codenames = make(map[string]struct{})
		for _, def := range rt.Permissions() {
			rt.codenames[def.Codename] = struct{}{}
		}
		c.types = append(c.types, rt)
		c.byName[rt.Name] = rt
	}
	return c
}

// Types returns the registered resource types in declaration order.
func (c *Catalog) Types() []*ResourceType {
	out := make([]*ResourceType, len(c.types))
	copy(out, c.types)
	return out
}

// Lookup returns the resource type with the given model name.
func (c *Catalog) Lookup(name string) (*ResourceType, error) {
	rt, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("authz: unknown resource type: %s", name)
	}
	return rt, nil
}

// postContentAuthorOnly lets the author edit a post's content and abstains
// for everyone else, deferring to later checks.
func postContentAuthorOnly(instance any, user *models.User, _ string) *bool {
	post, ok := instance.(*models.Post)
	if !ok || user == nil {
		return nil
	}
	if post.AuthorID != nil && *post.AuthorID == user.ID {
		return Allow()
	}
	return nil
}

// DefaultCatalog registers every resource type served by the API.
var DefaultCatalog = NewCatalog(
	&ResourceType{Name: "user", Label: "user"},
	&ResourceType{Name: "profile", Label: "user"},
	&ResourceType{Name: "group", Label: "core"},
	&ResourceType{Name: "post", Label: "forum", Extra: []PermissionDef{
		{Codename: "can_change_post_content", Name: "Can change post content"},
	}, FieldRules: map[string][]Check{
		"content": {
			Predicate(postContentAuthorOnly),
			StaticPermission("post.can_change_post_content"),
		},
	}},
	&ResourceType{Name: "comment", Label: "forum"},
	&ResourceType{Name: "registry", Label: "packages"},
	&ResourceType{Name: "package", Label: "packages", Extra: []PermissionDef{
		{Codename: "can_change_package_title", Name: "Can change package title"},
	}},
	&ResourceType{Name: "setting", Label: "core"},
)
