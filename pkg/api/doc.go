// Package api exposes the HTTP administration surface: the authorization
// probe, account role management, membership application intake and review,
// and single or bulk invitations.
//
// The service sits behind an authenticating gateway. The gateway verifies
// the caller's session and forwards the identity in the X-Actor-Id and
// X-Actor-Role headers; handlers trust those headers and decide only
// whether the actor's role permits the operation.
package api
