package authz

import (
	"fmt"

	"github.com/zenhq/helpdesk/internal/models"
)

// FieldPermissionMissingDefault is the outcome when a field has no declared
// rule, no hook, and no matching static codename: writes are allowed.
const FieldPermissionMissingDefault = true

// fieldPermCodename is the pattern for static per-field permission codenames.
const fieldPermCodename = "can_change_%s_%s"

// PermissionChecker answers "does this user hold this permission". The perm
// string uses the "{resource}.{codename}" label format. Implementations must
// never consult a specific object; permissions are not object-scoped.
type PermissionChecker interface {
	HasPerm(user *models.User, perm string) bool
}

// Check is one field-permission requirement: either a StaticPermission
// codename or a Predicate.
type Check interface {
	isCheck()
}

// StaticPermission requires the user to hold the named permission, given in
// "{resource}.{codename}" form.
type StaticPermission string

func (StaticPermission) isCheck() {}

// Predicate decides a field write dynamically. Returning nil abstains and
// defers to the next check in the list.
type Predicate func(instance any, user *models.User, field string) *bool

func (Predicate) isCheck() {}

// Allow and Deny build the terminal results a Predicate can return.
func Allow() *bool { v := true; return &v }
func Deny() *bool  { v := false; return &v }

// CanChangeField reports whether user may write field on an instance of rt.
//
// Checks are located in order: the resource type's declared field rules,
// then its per-field hook, then the static codename
// "can_change_{resource}_{field}" if the catalog declares it. With no checks
// at all the write is allowed. Located checks are evaluated in order:
// predicates short-circuit on a non-nil result, static permissions
// short-circuit on a hit, and a fully consulted list with no hit denies.
func CanChangeField(checker PermissionChecker, rt *ResourceType, instance any, user *models.User, field string) bool {
	if rt == nil {
		return FieldPermissionMissingDefault
	}

	checks := rt.FieldRules[field]
	if len(checks) == 0 {
		if hook, ok := rt.FieldHooks[field]; ok {
			checks = []Check{hook}
		} else {
			codename := fmt.Sprintf(fieldPermCodename, rt.Name, field)
			if rt.HasCodename(codename) {
				checks = []Check{StaticPermission(rt.Name + "." + codename)}
			}
		}
	}

	// No requirements means no restrictions.
	if len(checks) == 0 {
		return FieldPermissionMissingDefault
	}

	for _, check := range checks {
		switch c := check.(type) {
		case Predicate:
			if result := c(instance, user, field); result != nil {
				return *result
			}
		case StaticPermission:
			if checker != nil && checker.HasPerm(user, string(c)) {
				return true
			}
		}
	}

	// No requirement could be met.
	return false
}

// FilterWritable returns updates stripped of every field the user may not
// change. Disallowed writes are dropped silently, not rejected.
func FilterWritable(checker PermissionChecker, rt *ResourceType, instance any, user *models.User, updates map[string]any) map[string]any {
	out := make(map[string]any, len(updates))
	for field, value := range updates {
		if CanChangeField(checker, rt, instance, user, field) {
			out[field] = value
		}
	}
	return out
}
