package server

import (
	"time"

	"adpulse/internal/cache"
)

// registryKey is the cache key for the current media reference. The registry
// holds one active reference at a time, mirroring a single live broadcast.
const registryKey = "current-media"

// MediaRegistry resolves media references for analysis requests. Upload and
// session state live here, in the plumbing layer — the pipeline only ever
// sees an already-resolved reference.
type MediaRegistry struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewMediaRegistry creates a registry on top of a TTL cache.
func NewMediaRegistry(c cache.Cache, ttl time.Duration) *MediaRegistry {
	return &MediaRegistry{cache: c, ttl: ttl}
}

// Register stores the active media reference.
func (m *MediaRegistry) Register(mediaRef string) error {
	return m.cache.Set(cache.Key(registryKey), []byte(mediaRef), m.ttl)
}

// Current returns the active media reference, if any.
func (m *MediaRegistry) Current() (string, bool) {
	val, ok := m.cache.Get(cache.Key(registryKey))
	if !ok || len(val) == 0 {
		return "", false
	}
	return string(val), true
}

// Clear drops the active media reference.
func (m *MediaRegistry) Clear() error {
	return m.cache.Delete(cache.Key(registryKey))
}
