package rbac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	caller    int64 = 7
	otherUser int64 = 42
)

func sampleRoles() RoleMap {
	return RoleMap{
		"p1": {"billing"},
		"p2": {"member"},
	}
}

func TestResolveWithoutRequestedUser(t *testing.T) {
	v := Resolve([]string{"p1", "p2"}, sampleRoles(), nil, caller)
	require.Equal(t, ScopeDefault, v.Scope)
	require.Equal(t, []string{"p1"}, v.BillingProjects)
	require.Equal(t, []string{"p2"}, v.UserProjects)
	require.Equal(t, caller, v.TargetUser)
	require.True(t, v.HasBillingProjects())
}

func TestResolveRequestingSelf(t *testing.T) {
	self := caller
	v := Resolve([]string{"p1", "p2"}, sampleRoles(), &self, caller)
	require.Equal(t, ScopeSelf, v.Scope)
	require.ElementsMatch(t, []string{"p1", "p2"}, v.BillingProjects)
	require.Empty(t, v.UserProjects)
	require.Equal(t, caller, v.TargetUser)
}

func TestResolveRequestingOtherUser(t *testing.T) {
	other := otherUser
	v := Resolve([]string{"p1", "p2"}, sampleRoles(), &other, caller)
	require.Equal(t, ScopeOtherUser, v.Scope)
	require.Empty(t, v.BillingProjects)
	require.Equal(t, []string{"p1"}, v.UserProjects)
	require.Equal(t, otherUser, v.TargetUser)
	require.False(t, v.HasBillingProjects())
}

func TestResolveOtherUserWithoutBillingRoleSeesNothing(t *testing.T) {
	other := otherUser
	v := Resolve([]string{"p2"}, sampleRoles(), &other, caller)
	require.True(t, v.Empty())
}

func TestResolveDropsUnauthorizedAndDuplicateProjects(t *testing.T) {
	v := Resolve([]string{"p3", "p1", "p2", "p1", ""}, sampleRoles(), nil, caller)
	require.Equal(t, []string{"p1"}, v.BillingProjects)
	require.Equal(t, []string{"p2"}, v.UserProjects)
}

func TestResolveSetsAreDisjoint(t *testing.T) {
	roles := RoleMap{
		"a": {"billing", "member"},
		"b": {},
		"c": {"admin"},
		"d": {"billing"},
	}
	requested := []string{"a", "b", "c", "d", "e"}
	self := caller
	other := otherUser
	for _, requestedUser := range []*int64{nil, &self, &other} {
		v := Resolve(requested, roles, requestedUser, caller)
		for _, p := range v.BillingProjects {
			require.NotContains(t, v.UserProjects, p)
			require.Contains(t, roles, p)
		}
		for _, p := range v.UserProjects {
			require.Contains(t, roles, p)
		}
	}
}

func TestResolveEmptyRequest(t *testing.T) {
	v := Resolve(nil, sampleRoles(), nil, caller)
	require.True(t, v.Empty())
	require.Equal(t, ScopeDefault, v.Scope)
}

func TestRoleMapAdd(t *testing.T) {
	roles := RoleMap{}
	roles.Add("p1", " Billing ")
	roles.Add("p1", "billing")
	roles.Add("p2", "")
	require.Equal(t, []string{"billing"}, roles.Roles("p1"))
	require.Equal(t, []string{}, roles.Roles("p2"))
	require.Equal(t, []string{}, roles.Roles("missing"))
	require.True(t, roles.Has("p1", RoleBilling))
}
