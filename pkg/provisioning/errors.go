package provisioning

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateEmail is returned when the identity provider already holds
	// an account for the requested email.
	ErrDuplicateEmail = errors.New("an identity with this email already exists")

	// ErrPermissionDenied is returned when the actor may not provision an
	// identity with the requested role.
	ErrPermissionDenied = errors.New("not allowed to invite this role")

	// ErrTooManyRows is returned when a bulk request exceeds MaxRows.
	ErrTooManyRows = fmt.Errorf("bulk invite accepts at most %d rows", MaxRows)
)

// ValidationError reports a malformed request field. Validation errors are
// detected before any external call, so no partial state exists when one is
// returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ProviderError wraps an identity provider failure. The row or operation is
// kept intact by callers so the request can be retried once the provider
// recovers.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity provider %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
