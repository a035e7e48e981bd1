// Package audit provides audit logging for security-relevant actions.
//
// # Overview
//
// This package records role assignments, account deletions, access denials,
// identity provisioning, and membership application decisions, each with the
// acting identity and request context.
//
// # Event Types
//
// Authorization: role_assign, access_denied
// Admin: account_delete, bootstrap
// Provisioning: identity_create, bulk_invite
// Membership: application_submit, application_review
//
// # Usage Example
//
//	logger.Log(ctx, &audit.Event{
//		EventType: audit.EventTypeRoleAssign,
//		Status:    audit.EventStatusSuccess,
//		ActorID:   actor.IdentityID,
//		ActorRole: actor.RoleID,
//		TargetID:  targetID,
//		Metadata:  map[string]any{"new_role": newRoleID},
//	})
//
// The FileLogger writes newline-delimited JSON with size-based rotation; the
// Recorder keeps events in memory for tests. FromContext falls back to a
// no-op logger so call sites never need nil checks.
package audit
