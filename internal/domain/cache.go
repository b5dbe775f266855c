package domain

import (
	"context"
	"time"
)

// ResolutionStatus classifies the outcome of a configuration lookup.
type ResolutionStatus int

const (
	// StatusPresent means a tier returned a decoded value.
	StatusPresent ResolutionStatus = iota

	// StatusAbsent means the origin answered authoritatively that the key
	// does not exist. Absent results are never cached.
	StatusAbsent

	// StatusUnavailable means no tier could answer: the origin was
	// unreachable or timed out. Callers treat this like Absent, but
	// observability distinguishes the two.
	StatusUnavailable
)

// Source names the tier that settled a lookup. The values double as the
// hit_type label on the cache metrics.
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
	SourceOrigin Source = "origin"
	SourceError  Source = "error"
)

// Resolution is the explicit result of a configuration lookup. Lookups never
// fail: transport faults degrade to Unavailable instead of surfacing an error.
type Resolution struct {
	Key    string
	Status ResolutionStatus
	Value  ConfigValue
	Source Source
}

// Present reports whether the lookup produced a usable value.
func (r Resolution) Present() bool { return r.Status == StatusPresent }

// ConfigStore resolves configuration keys through the cache tiers.
type ConfigStore interface {
	// Get resolves a key via local tier, remote tier, then origin.
	Get(ctx context.Context, key string) Resolution

	// Close releases the underlying connections.
	Close() error
}

// CacheConfig holds configuration for cache initialization.
type CacheConfig struct {
	// Type is the cache layout: "memory" (local + origin only) or
	// "redis" (local + shared Redis tier + origin).
	Type string

	// LocalTTL bounds the validity of local tier entries.
	LocalTTL time.Duration

	// RemoteTTL is the expiry set on remote tier writes.
	RemoteTTL time.Duration

	// Redis settings for the remote tier.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// OriginConfig locates the authoritative configuration service.
type OriginConfig struct {
	BaseURL string
	Timeout time.Duration
}
