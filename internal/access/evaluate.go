// Package access evaluates whether a principal may perform an action. All
// predicates are pure: they never touch I/O and never return errors. A
// nil or deactivated principal fails every check, so callers can pass the
// result of a lookup straight through without special-casing.
package access

// IsSuperuser reports whether the principal holds the admin or root tag.
// Superusers pass every composite gate regardless of role or ownership.
func IsSuperuser(p *Principal) bool {
	if !usable(p) {
		return false
	}
	_, admin := p.Permissions[PermAdmin]
	_, root := p.Permissions[PermRoot]
	return admin || root
}

// HasPermission reports whether the permission is satisfied. Possession
// of admin or root satisfies any permission check.
func HasPermission(p *Principal, perm Permission) bool {
	if !usable(p) {
		return false
	}
	if _, ok := p.Permissions[perm]; ok {
		return true
	}
	return IsSuperuser(p)
}

// HasAnyPermission reports whether at least one of the permissions is
// satisfied. An empty list is never satisfied.
func HasAnyPermission(p *Principal, perms ...Permission) bool {
	for _, perm := range perms {
		if HasPermission(p, perm) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether every permission is satisfied. An
// empty list is trivially satisfied.
func HasAllPermissions(p *Principal, perms ...Permission) bool {
	if !usable(p) {
		return false
	}
	for _, perm := range perms {
		if !HasPermission(p, perm) {
			return false
		}
	}
	return true
}

// HasMinimumRole reports whether the principal's rank is at least the
// required role. The comparison is purely positional in the hierarchy
// and independent of the permission set.
func HasMinimumRole(p *Principal, role Role) bool {
	if !usable(p) {
		return false
	}
	return p.Role >= role
}

// CanPerform is the composite gate: the action is allowed when the
// principal meets the baseline role, holds the explicit permission, or
// is a superuser. Unknown actions are denied.
func CanPerform(p *Principal, action Action) bool {
	if !usable(p) {
		return false
	}
	rule, ok := actionRules[action]
	if !ok {
		return false
	}
	if rule.minRole != 0 && HasMinimumRole(p, rule.minRole) {
		return true
	}
	return HasPermission(p, rule.perm)
}

// CanEditEvent gates edits on a specific event. Managers and above may
// edit any event; everyone else needs both the edit gate and ownership.
func CanEditEvent(p *Principal, ownerID string) bool {
	if !CanPerform(p, ActionEditEvent) {
		return false
	}
	if IsSuperuser(p) || HasMinimumRole(p, RoleManager) {
		return true
	}
	return ownerID != "" && ownerID == p.ID
}

// CanDeleteEvent gates deletion. Ownership is not sufficient here:
// deletion always requires a management rank (or superuser tag), even
// when the delete permission was granted explicitly.
func CanDeleteEvent(p *Principal) bool {
	if !CanPerform(p, ActionDeleteEvent) {
		return false
	}
	return IsSuperuser(p) || HasMinimumRole(p, RoleManager)
}

func usable(p *Principal) bool {
	return p != nil && p.Active
}
