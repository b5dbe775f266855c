// Package cache provides the tiered configuration store: an in-process TTL
// tier backed by a shared Redis tier backed by the authoritative origin.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/fature/cpa-engine/internal/domain"
	"github.com/fature/cpa-engine/internal/metrics"
)

// remoteStore is the shared cache tier contract.
type remoteStore interface {
	get(ctx context.Context, key string) (domain.ConfigValue, bool, error)
	set(ctx context.Context, key string, value domain.ConfigValue) error
	ping(ctx context.Context) error
	close() error
}

// originFetcher is the authoritative configuration source contract.
type originFetcher interface {
	fetch(ctx context.Context, key string) (domain.ConfigValue, bool, error)
	ping(ctx context.Context) error
}

// Store resolves configuration keys cache-aside through the tiers.
// Lookup order: local, remote, origin, short-circuiting on first hit.
type Store struct {
	local   *localTier
	remote  remoteStore // nil when running without a shared tier
	origin  originFetcher
	metrics *metrics.Metrics
}

// New creates a tiered store from configuration.
// Type "memory" runs local + origin; "redis" adds the shared tier.
func New(cacheCfg domain.CacheConfig, originCfg domain.OriginConfig, m *metrics.Metrics) (*Store, error) {
	s := &Store{
		local:   newLocalTier(cacheCfg.LocalTTL),
		origin:  newOriginClient(originCfg),
		metrics: m,
	}

	switch cacheCfg.Type {
	case "", "memory":
	case "redis":
		s.remote = newRedisTier(cacheCfg, DefaultPolicy())
	default:
		return nil, &UnsupportedTypeError{Type: cacheCfg.Type}
	}

	return s, nil
}

// UnsupportedTypeError reports an unknown cache type in configuration.
type UnsupportedTypeError struct {
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return "unsupported cache type: " + e.Type
}

// Get resolves a key. It never returns an error: transport faults at the
// remote tier fall through to the origin, and origin faults resolve to
// Unavailable. Absent results are never cached.
func (s *Store) Get(ctx context.Context, key string) domain.Resolution {
	now := time.Now()

	if value, ok := s.local.get(key, now); ok {
		s.metrics.RecordCacheHit(key, string(domain.SourceLocal))
		return domain.Resolution{Key: key, Status: domain.StatusPresent, Value: value, Source: domain.SourceLocal}
	}

	if s.remote != nil {
		value, found, err := s.remote.get(ctx, key)
		if err != nil {
			slog.Warn("remote cache lookup failed, falling through to origin",
				"key", key,
				"error", err,
			)
		} else if found {
			s.local.set(key, value, now)
			s.metrics.RecordCacheHit(key, string(domain.SourceRemote))
			return domain.Resolution{Key: key, Status: domain.StatusPresent, Value: value, Source: domain.SourceRemote}
		}
	}

	value, found, err := s.origin.fetch(ctx, key)
	if err != nil {
		slog.Warn("origin fetch failed",
			"key", key,
			"error", err,
		)
		s.metrics.RecordCacheHit(key, string(domain.SourceError))
		return domain.Resolution{Key: key, Status: domain.StatusUnavailable, Source: domain.SourceError}
	}
	if !found {
		s.metrics.RecordCacheHit(key, string(domain.SourceError))
		return domain.Resolution{Key: key, Status: domain.StatusAbsent, Source: domain.SourceError}
	}

	s.local.set(key, value, now)
	if s.remote != nil {
		if err := s.remote.set(ctx, key, value); err != nil {
			slog.Warn("remote cache backfill failed",
				"key", key,
				"error", err,
			)
		}
	}

	s.metrics.RecordCacheHit(key, string(domain.SourceOrigin))
	return domain.Resolution{Key: key, Status: domain.StatusPresent, Value: value, Source: domain.SourceOrigin}
}

// PingOrigin checks origin liveness.
func (s *Store) PingOrigin(ctx context.Context) error {
	return s.origin.ping(ctx)
}

// PingRemote checks remote tier liveness.
// Returns nil when no remote tier is configured.
func (s *Store) PingRemote(ctx context.Context) error {
	if s.remote == nil {
		return nil
	}
	return s.remote.ping(ctx)
}

// RemoteEnabled reports whether a shared tier is configured.
func (s *Store) RemoteEnabled() bool {
	return s.remote != nil
}

// Stats returns local tier size and TTL.
func (s *Store) Stats() (size int, ttl time.Duration) {
	return s.local.size(), s.local.ttl
}

// Close releases the remote tier connection.
func (s *Store) Close() error {
	if s.remote != nil {
		return s.remote.close()
	}
	return nil
}
