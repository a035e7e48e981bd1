// Package membership implements the application workflow that turns a
// prospective member's submission into a provisioned account.
//
// # State machine
//
//	Pending → Approved   (terminal, provisions an identity)
//	Pending → Rejected   (terminal, requires a reason, no side effects)
//
// Terminal states never transition again: a second review returns
// ErrAlreadyReviewed and mutates nothing.
//
// # Partial failure
//
// On approval the identity is created at the provider before the terminal
// status is persisted. A provider failure (including a timeout) aborts the
// whole review and leaves the application pending. A welcome-mail failure
// does not: the approval completes and the reviewer receives the plaintext
// credential as a fallback payload instead.
package membership
