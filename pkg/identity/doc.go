// Package identity models the consumed contract of the external identity
// provider and ships three implementations of it:
//
//   - RESTProvider: production client for the provider's admin API, with
//     OAuth2 client-credentials auth and a bounded per-call timeout
//   - CachedProvider: read-through LRU decorator over any Provider
//   - MemoryProvider: in-memory implementation for tests and local dev
//
// The provider is the source of truth for account existence and credential
// state. This system writes only the Metadata projection (role id and the
// must-reset-password flag); it never stores credentials itself.
package identity
