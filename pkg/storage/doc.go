// Package storage opens and tunes the backing stores: the PostgreSQL
// database holding membership applications and the Redis instance backing
// distributed rate limiting. Domain packages receive the opened handles and
// never deal with connection setup themselves.
package storage
