package authz

import (
	"github.com/trefle-asso/trefle/pkg/roles"
)

// Engine evaluates authorization rules against a role registry. Every method
// is a pure function of its inputs and the (immutable) registry, performs no
// I/O, and is safe for unrestricted concurrent use.
type Engine struct {
	registry *roles.Registry
}

// NewEngine creates an engine over the given registry.
func NewEngine(registry *roles.Registry) *Engine {
	return &Engine{registry: registry}
}

// Registry returns the registry the engine evaluates against.
func (e *Engine) Registry() *roles.Registry {
	return e.registry
}

// HasPermission reports whether roleID resolves to a known role whose
// permission set contains perm. Unknown role ids are denied (fail closed).
func (e *Engine) HasPermission(roleID string, perm roles.Permission) bool {
	role, ok := e.registry.Get(roleID)
	if !ok {
		return false
	}
	return role.HasPermission(perm)
}

// IsHigher reports whether role a sits strictly above role b in the
// hierarchy. Unknown role ids compare at level 0.
func (e *Engine) IsHigher(a, b string) bool {
	return e.registry.Level(a) > e.registry.Level(b)
}

// IsHigherOrEqual reports whether role a sits at or above role b.
func (e *Engine) IsHigherOrEqual(a, b string) bool {
	return e.registry.Level(a) >= e.registry.Level(b)
}

// CanAssignRole decides whether an actor may change a target identity's role.
// It returns nil when the assignment is legal and a *DeniedError otherwise.
//
// The checks run in a fixed order: the self check first so that an actor can
// never touch its own role regardless of permissions (anti-lockout), then the
// permission check, then the two hierarchy checks (anti-escalation).
func (e *Engine) CanAssignRole(actorRoleID, targetCurrentRoleID, newRoleID string, targetIsSelf bool) error {
	if targetIsSelf {
		return &DeniedError{Reason: ReasonSelf}
	}
	if !e.HasPermission(actorRoleID, roles.PermRolesAssign) {
		return &DeniedError{Reason: ReasonMissingPermission, Permission: roles.PermRolesAssign}
	}

	actorLevel := e.registry.Level(actorRoleID)
	if e.registry.Level(targetCurrentRoleID) >= actorLevel {
		return &DeniedError{Reason: ReasonTargetNotBelow}
	}
	if e.registry.Level(newRoleID) >= actorLevel {
		return &DeniedError{Reason: ReasonRoleNotBelow}
	}
	return nil
}

// CanDeleteAccount decides whether an actor may delete a target identity.
// Same shape as CanAssignRole: self check, then admin.users.manage, then the
// hierarchy check.
func (e *Engine) CanDeleteAccount(actorRoleID, targetRoleID string, targetIsSelf bool) error {
	if targetIsSelf {
		return &DeniedError{Reason: ReasonSelf}
	}
	if !e.HasPermission(actorRoleID, roles.PermUsersManage) {
		return &DeniedError{Reason: ReasonMissingPermission, Permission: roles.PermUsersManage}
	}
	if e.registry.Level(targetRoleID) >= e.registry.Level(actorRoleID) {
		return &DeniedError{Reason: ReasonTargetNotBelow}
	}
	return nil
}

// CanInviteRole reports whether an actor at actorLevel may provision an
// identity with the requested role. The requested level must sit strictly
// below the actor's; restricted roles additionally require the actor to be at
// level 8 or above.
func (e *Engine) CanInviteRole(actorLevel int, requested *roles.Role) bool {
	if requested == nil {
		return false
	}
	if requested.Level >= actorLevel {
		return false
	}
	if requested.Restricted && actorLevel < roles.RestrictedGrantMinLevel {
		return false
	}
	return true
}

// CanInviteRoleID is CanInviteRole for a role id, resolving it through the
// registry. Unknown role ids are denied.
func (e *Engine) CanInviteRoleID(actorRoleID, requestedRoleID string) bool {
	requested, ok := e.registry.Get(requestedRoleID)
	if !ok {
		return false
	}
	return e.CanInviteRole(e.registry.Level(actorRoleID), requested)
}
