// Package cache stores the outcome of past renders so an identical
// normalized script is not rendered twice.
//
// # Backends
//
//   - [NullCache]: never stores anything (caching disabled)
//   - [FileCache]: JSON entries on local disk, for the CLI and single hosts
//   - [RedisCache]: shared entries for several service instances
//
// # Keys
//
// Keys are built by a [Keyer] from the render target, the hash of the
// normalized script and a fingerprint of the engine configuration. A
// [ScopedKeyer] prefixes keys so deployments can share one Redis.
package cache

import (
	"context"
	"time"
)

// TTLRender is how long a render entry is kept. Entries whose artifact has
// been removed from disk are ignored by the pipeline regardless of TTL.
const TTLRender = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value for key. A missing or expired key is a miss, not
	// an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// RenderKey returns the key for a render of a normalized script.
	RenderKey(target, scriptHash, engineFingerprint string) string
}

// DefaultKeyer builds unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// RenderKey returns "render:<target>:<hash>" where hash covers the script
// hash and the engine fingerprint.
func (DefaultKeyer) RenderKey(target, scriptHash, engineFingerprint string) string {
	return hashKey("render:"+target, scriptHash, engineFingerprint)
}
