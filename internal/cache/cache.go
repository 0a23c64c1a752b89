// Package cache provides the TTL key/value store backing the server's media
// registry.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a namespaced cache key from an identifier.
func Key(id string) string {
	hash := sha256.Sum256([]byte(id))
	return "adpulse:v1:" + hex.EncodeToString(hash[:])
}
