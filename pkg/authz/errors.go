package authz

import (
	"errors"
	"fmt"

	"github.com/trefle-asso/trefle/pkg/roles"
)

// DenialReason identifies which rule rejected an operation.
type DenialReason string

const (
	// ReasonSelf: the actor targeted its own account (anti-lockout).
	ReasonSelf DenialReason = "self_target"

	// ReasonMissingPermission: the actor's role lacks the required permission.
	ReasonMissingPermission DenialReason = "missing_permission"

	// ReasonTargetNotBelow: the target's role level is at or above the actor's.
	ReasonTargetNotBelow DenialReason = "target_not_below_actor"

	// ReasonRoleNotBelow: the requested role level is at or above the actor's.
	ReasonRoleNotBelow DenialReason = "role_not_below_actor"
)

// DeniedError reports a rejected authorization decision. Denials are rule
// outcomes, not faults: callers surface them to the user and never retry them
// automatically.
type DeniedError struct {
	Reason     DenialReason
	Permission roles.Permission // set when Reason is ReasonMissingPermission
}

func (e *DeniedError) Error() string {
	switch e.Reason {
	case ReasonSelf:
		return "denied: actors cannot modify their own account"
	case ReasonMissingPermission:
		return fmt.Sprintf("denied: missing permission %q", e.Permission)
	case ReasonTargetNotBelow:
		return "denied: target role is not below the actor's role"
	case ReasonRoleNotBelow:
		return "denied: requested role is not below the actor's role"
	default:
		return fmt.Sprintf("denied: %s", e.Reason)
	}
}

// IsDenied reports whether err is (or wraps) a DeniedError.
func IsDenied(err error) bool {
	var denied *DeniedError
	return errors.As(err, &denied)
}
