// Package provisioning creates member identities at the external identity
// provider and delivers the welcome credential.
//
// The package offers two entry points. Service.Invite provisions one
// identity for an operator-chosen role, subject to the invitation rules of
// the authorization engine. Bulk.Run wraps Invite for up to MaxRows
// requests, validating and deduplicating rows up front and creating
// identities in fixed-size batches with a pause in between so the provider's
// rate limit is respected.
//
// Identity creation is the point of no return: once the provider accepted a
// create, the identity exists even if the welcome notification fails or a
// bulk run is cancelled mid-flight. Callers therefore always get per-row
// accounting rather than a rollback.
package provisioning
