package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func principalWith(role Role, perms ...Permission) *Principal {
	p := &Principal{ID: "p-1", Email: "p1@example.com", Role: role, Active: true}
	for _, perm := range perms {
		p.Grant(perm)
	}
	return p
}

func TestRoleOrdering(t *testing.T) {
	require.True(t, RoleViewer < RoleMember)
	require.True(t, RoleMember < RoleManager)
	require.True(t, RoleManager < RoleAdmin)
}

func TestParseRoleRejectsUnknown(t *testing.T) {
	_, err := ParseRole("owner")
	require.Error(t, err)

	role, err := ParseRole("manager")
	require.NoError(t, err)
	assert.Equal(t, RoleManager, role)
}

func TestHasPermission(t *testing.T) {
	member := principalWith(RoleMember, PermCreateEvent)

	assert.True(t, HasPermission(member, PermCreateEvent))
	assert.False(t, HasPermission(member, PermDeleteEvent))
}

func TestSuperuserSatisfiesAnyPermission(t *testing.T) {
	admin := principalWith(RoleViewer, PermAdmin)
	root := principalWith(RoleViewer, PermRoot)

	for _, perm := range Permissions() {
		assert.True(t, HasPermission(admin, perm), "admin should satisfy %s", perm)
		assert.True(t, HasPermission(root, perm), "root should satisfy %s", perm)
	}
}

func TestNilAndInactivePrincipalsFailEverything(t *testing.T) {
	inactive := principalWith(RoleAdmin, PermAdmin)
	inactive.Active = false

	for _, p := range []*Principal{nil, inactive} {
		assert.False(t, IsSuperuser(p))
		assert.False(t, HasPermission(p, PermViewEvent))
		assert.False(t, HasMinimumRole(p, RoleViewer))
		assert.False(t, CanPerform(p, ActionViewEvent))
		assert.False(t, CanEditEvent(p, "p-1"))
		assert.False(t, CanDeleteEvent(p))
	}
}

func TestHasAnyPermission(t *testing.T) {
	member := principalWith(RoleMember, PermViewEvent)

	assert.True(t, HasAnyPermission(member, PermDeleteEvent, PermViewEvent))
	assert.False(t, HasAnyPermission(member, PermDeleteEvent, PermManageUsers))
	assert.False(t, HasAnyPermission(member))
}

func TestHasAllPermissions(t *testing.T) {
	member := principalWith(RoleMember, PermViewEvent, PermCreateEvent)

	assert.True(t, HasAllPermissions(member, PermViewEvent, PermCreateEvent))
	assert.False(t, HasAllPermissions(member, PermViewEvent, PermDeleteEvent))
	assert.True(t, HasAllPermissions(member))
	assert.False(t, HasAllPermissions(nil))
}

func TestHasMinimumRoleIgnoresPermissions(t *testing.T) {
	viewer := principalWith(RoleViewer, PermAdmin)

	// The role comparison stays positional even for superusers.
	assert.False(t, HasMinimumRole(viewer, RoleManager))
	assert.True(t, HasMinimumRole(viewer, RoleViewer))
}

func TestCanPerform(t *testing.T) {
	cases := []struct {
		name   string
		p      *Principal
		action Action
		want   bool
	}{
		{"manager creates events by role", principalWith(RoleManager), ActionCreateEvent, true},
		{"member cannot create without permission", principalWith(RoleMember), ActionCreateEvent, false},
		{"member creates with explicit permission", principalWith(RoleMember, PermCreateEvent), ActionCreateEvent, true},
		{"member views by role", principalWith(RoleMember), ActionViewEvent, true},
		{"viewer cannot view without permission", principalWith(RoleViewer), ActionViewEvent, false},
		{"viewer views with permission", principalWith(RoleViewer, PermViewEvent), ActionViewEvent, true},
		{"admin tag passes any gate", principalWith(RoleViewer, PermAdmin), ActionDeleteEvent, true},
		{"unknown action denied", principalWith(RoleAdmin, PermRoot), Action("event:telefax"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanPerform(tc.p, tc.action))
		})
	}
}

func TestEditSettingsIsPermissionOnly(t *testing.T) {
	// No role grants settings edits implicitly, not even admin rank.
	assert.False(t, CanPerform(principalWith(RoleAdmin), ActionEditSettings))
	assert.True(t, CanPerform(principalWith(RoleViewer, PermEditSettings), ActionEditSettings))
	assert.True(t, CanPerform(principalWith(RoleViewer, PermRoot), ActionEditSettings))
}

func TestCanEditEvent(t *testing.T) {
	owner := principalWith(RoleMember, PermEditEvent)
	owner.ID = "owner-1"

	assert.True(t, CanEditEvent(owner, "owner-1"))
	assert.False(t, CanEditEvent(owner, "someone-else"))

	manager := principalWith(RoleManager)
	assert.True(t, CanEditEvent(manager, "someone-else"))

	// Edit gate must still pass for members, ownership alone is not enough.
	bare := principalWith(RoleViewer)
	bare.ID = "owner-1"
	assert.False(t, CanEditEvent(bare, "owner-1"))

	super := principalWith(RoleViewer, PermAdmin)
	assert.True(t, CanEditEvent(super, "someone-else"))
}

func TestCanDeleteEventIgnoresOwnership(t *testing.T) {
	member := principalWith(RoleMember, PermDeleteEvent)
	member.ID = "owner-1"

	// Holding the delete permission is not enough below manager rank.
	assert.False(t, CanDeleteEvent(member))

	assert.True(t, CanDeleteEvent(principalWith(RoleManager)))
	assert.True(t, CanDeleteEvent(principalWith(RoleViewer, PermRoot)))
}

func TestGrantRevokeRoundTrip(t *testing.T) {
	p := principalWith(RoleMember)
	p.Grant(PermInviteStakeholder)
	require.True(t, HasPermission(p, PermInviteStakeholder))

	p.Revoke(PermInviteStakeholder)
	require.False(t, HasPermission(p, PermInviteStakeholder))
}
