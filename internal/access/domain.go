package access

import "fmt"

// Role is a coarse-grained rank forming a strict total order. Higher
// levels include the capabilities gated on lower ones.
type Role int

const (
	RoleViewer  Role = 1
	RoleMember  Role = 2
	RoleManager Role = 3
	RoleAdmin   Role = 4
)

var roleNames = map[Role]string{
	RoleViewer:  "viewer",
	RoleMember:  "member",
	RoleManager: "manager",
	RoleAdmin:   "admin",
}

var rolesByName = map[string]Role{
	"viewer":  RoleViewer,
	"member":  RoleMember,
	"manager": RoleManager,
	"admin":   RoleAdmin,
}

// String returns the store encoding of the role.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// Valid reports whether the role is a known rank.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// ParseRole maps a store encoding back to a Role. Unknown strings are
// rejected rather than silently defaulted.
func ParseRole(s string) (Role, error) {
	if role, ok := rolesByName[s]; ok {
		return role, nil
	}
	return 0, fmt.Errorf("access: unknown role %q", s)
}

// Permission is an atomic capability tag, independent of role.
type Permission string

const (
	PermCreateEvent       Permission = "events.create"
	PermEditEvent         Permission = "events.edit"
	PermDeleteEvent       Permission = "events.delete"
	PermViewEvent         Permission = "events.view"
	PermCreateStakeholder Permission = "stakeholders.create"
	PermEditStakeholder   Permission = "stakeholders.edit"
	PermDeleteStakeholder Permission = "stakeholders.delete"
	PermViewStakeholder   Permission = "stakeholders.view"
	PermAssignStakeholder Permission = "stakeholders.assign"
	PermInviteStakeholder Permission = "stakeholders.invite"
	PermManageUsers       Permission = "users.manage"
	PermViewReports       Permission = "reports.view"
	PermEditSettings      Permission = "settings.edit"

	// PermAdmin and PermRoot satisfy every other permission check
	// unconditionally.
	PermAdmin Permission = "admin"
	PermRoot  Permission = "root"
)

var allPermissions = map[Permission]struct{}{
	PermCreateEvent:       {},
	PermEditEvent:         {},
	PermDeleteEvent:       {},
	PermViewEvent:         {},
	PermCreateStakeholder: {},
	PermEditStakeholder:   {},
	PermDeleteStakeholder: {},
	PermViewStakeholder:   {},
	PermAssignStakeholder: {},
	PermInviteStakeholder: {},
	PermManageUsers:       {},
	PermViewReports:       {},
	PermEditSettings:      {},
	PermAdmin:             {},
	PermRoot:              {},
}

// ParsePermission maps a store encoding back to a Permission, rejecting
// unknown tags.
func ParsePermission(s string) (Permission, error) {
	perm := Permission(s)
	if _, ok := allPermissions[perm]; !ok {
		return "", fmt.Errorf("access: unknown permission %q", s)
	}
	return perm, nil
}

// Permissions returns every known permission tag.
func Permissions() []Permission {
	out := make([]Permission, 0, len(allPermissions))
	for p := range allPermissions {
		out = append(out, p)
	}
	return out
}

// Principal describes the authenticated actor subject to access checks.
type Principal struct {
	ID            string
	Email         string
	Role          Role
	Permissions   map[Permission]struct{}
	Active        bool
	StakeholderID string
}

// Grant adds a permission to the principal's set.
func (p *Principal) Grant(perm Permission) {
	if p.Permissions == nil {
		p.Permissions = make(map[Permission]struct{})
	}
	p.Permissions[perm] = struct{}{}
}

// Revoke removes a permission from the principal's set.
func (p *Principal) Revoke(perm Permission) {
	delete(p.Permissions, perm)
}

// PermissionList returns the granted tags as strings for storage.
func (p *Principal) PermissionList() []string {
	out := make([]string, 0, len(p.Permissions))
	for perm := range p.Permissions {
		out = append(out, string(perm))
	}
	return out
}

// Action enumerates the gated operations.
type Action string

const (
	ActionCreateEvent       Action = "event:create"
	ActionEditEvent         Action = "event:edit"
	ActionDeleteEvent       Action = "event:delete"
	ActionViewEvent         Action = "event:view"
	ActionCreateStakeholder Action = "stakeholder:create"
	ActionEditStakeholder   Action = "stakeholder:edit"
	ActionDeleteStakeholder Action = "stakeholder:delete"
	ActionViewStakeholder   Action = "stakeholder:view"
	ActionAssignStakeholder Action = "stakeholder:assign"
	ActionInviteStakeholder Action = "stakeholder:invite"
	ActionManageUsers       Action = "users:manage"
	ActionViewReports       Action = "reports:view"
	ActionEditSettings      Action = "settings:edit"
)

// actionRule pairs the baseline role with the explicit permission that
// can stand in for it. A zero role means there is no role baseline and
// only the permission grants the action.
type actionRule struct {
	minRole Role
	perm    Permission
}

var actionRules = map[Action]actionRule{
	ActionCreateEvent:       {RoleManager, PermCreateEvent},
	ActionEditEvent:         {RoleManager, PermEditEvent},
	ActionDeleteEvent:       {RoleManager, PermDeleteEvent},
	ActionViewEvent:         {RoleMember, PermViewEvent},
	ActionCreateStakeholder: {RoleManager, PermCreateStakeholder},
	ActionEditStakeholder:   {RoleManager, PermEditStakeholder},
	ActionDeleteStakeholder: {RoleManager, PermDeleteStakeholder},
	ActionViewStakeholder:   {RoleMember, PermViewStakeholder},
	ActionAssignStakeholder: {RoleManager, PermAssignStakeholder},
	ActionInviteStakeholder: {RoleManager, PermInviteStakeholder},
	ActionManageUsers:       {RoleManager, PermManageUsers},
	ActionViewReports:       {RoleManager, PermViewReports},

	// Settings editing must be granted explicitly. Role rank alone,
	// including Admin, never implies it.
	ActionEditSettings: {0, PermEditSettings},
}
