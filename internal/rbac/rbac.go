package rbac

import (
	"strings"

	"github.com/samber/lo"
)

// RoleBilling grants visibility of every user's usage on a project.
const RoleBilling = "billing"

// RoleMap maps a project id to the roles a user holds on it.
type RoleMap map[string][]string

// NormalizeRole lowercases and trims a role name.
func NormalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

// Roles returns the roles held on project, never nil.
func (m RoleMap) Roles(project string) []string {
	if roles, ok := m[project]; ok && roles != nil {
		return roles
	}
	return []string{}
}

// Has reports whether role is held on project.
func (m RoleMap) Has(project, role string) bool {
	return lo.Contains(m[project], role)
}

// Add grants role on project, ignoring blanks and duplicates. The project
// is recorded even when role is blank.
func (m RoleMap) Add(project, role string) {
	if _, ok := m[project]; !ok {
		m[project] = []string{}
	}
	role = NormalizeRole(role)
	if role == "" || m.Has(project, role) {
		return
	}
	m[project] = append(m[project], role)
}

// Scope tags which branch of the visibility table produced a Visibility.
type Scope string

const (
	// ScopeDefault: no user requested; billing projects aggregate all users,
	// the rest are restricted to the caller.
	ScopeDefault Scope = "default"
	// ScopeSelf: the caller asked for their own usage; every visible project
	// moves into the billing set.
	ScopeSelf Scope = "self"
	// ScopeOtherUser: the caller asked for another user's usage, limited to
	// projects the caller bills for.
	ScopeOtherUser Scope = "other_user"
)

// Visibility is the per-request split of projects into aggregate and
// user-restricted sets. The two sets are disjoint.
type Visibility struct {
	Scope           Scope
	BillingProjects []string
	UserProjects    []string
	TargetUser      int64
}

// HasBillingProjects reports whether any project is visible for all users.
func (v Visibility) HasBillingProjects() bool {
	return len(v.BillingProjects) > 0
}

// Empty reports whether the visibility matches no project at all.
func (v Visibility) Empty() bool {
	return len(v.BillingProjects) == 0 && len(v.UserProjects) == 0
}

// Resolve classifies requested projects against the caller's roles.
// Projects the caller holds no role on are dropped.
func Resolve(requested []string, roles RoleMap, requestedUser *int64, caller int64) Visibility {
	var billing, user []string
	for _, project := range lo.Uniq(requested) {
		if _, ok := roles[project]; !ok {
			continue
		}
		if roles.Has(project, RoleBilling) {
			billing = append(billing, project)
		} else {
			user = append(user, project)
		}
	}

	switch {
	case requestedUser != nil && *requestedUser == caller:
		return Visibility{
			Scope:           ScopeSelf,
			BillingProjects: append(billing, user...),
			TargetUser:      caller,
		}
	case requestedUser != nil:
		return Visibility{
			Scope:        ScopeOtherUser,
			UserProjects: billing,
			TargetUser:   *requestedUser,
		}
	default:
		return Visibility{
			Scope:           ScopeDefault,
			BillingProjects: billing,
			UserProjects:    user,
			TargetUser:      caller,
		}
	}
}
