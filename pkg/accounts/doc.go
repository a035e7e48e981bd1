// Package accounts exposes the admin operations on member identities:
// permission checks, role assignment, account deletion, and the one-time
// bootstrap of the founding president. Every operation runs the hierarchy
// rules of pkg/authz against the target's current role as stored at the
// identity provider and leaves an audit trail.
package accounts
