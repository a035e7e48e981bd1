// Package authz implements the authorization rules of the platform as pure
// predicates over the role registry.
//
// # Overview
//
// The engine answers four questions:
//
//	HasPermission:    does this role carry this permission token?
//	IsHigherOrEqual:  strict hierarchy comparison between two roles
//	CanAssignRole:    may this actor change that identity's role?
//	CanDeleteAccount: may this actor delete that identity?
//	CanInviteRole:    may this actor provision an identity at that role?
//
// Two invariants back every decision:
//
//   - Anti-lockout: an actor can never change or delete its own account, no
//     matter its role.
//   - Anti-escalation: an actor can never grant, hold over, or remove
//     authority at or above its own level.
//
// Unknown role ids resolve to level 0 with no permissions, so every check
// fails closed.
//
// All methods are side-effect free and deterministic, which keeps the rule
// system testable without any external dependency.
package authz
