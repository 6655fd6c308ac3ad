// Package cache defines the byte-oriented cache surface shared by the plan
// handler, the plan use case, and the options-flow client, plus the adapter
// that backs it with a cache.Service.
package cache

import "time"

// BytesCache stores opaque payloads under string keys with a TTL. A miss is
// reported through ok, not an error.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
