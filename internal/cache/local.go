package cache

import (
	"sync"
	"time"

	"github.com/fature/cpa-engine/internal/domain"
)

// localTier is the in-process configuration cache. Entries expire lazily:
// an expired entry is treated as a miss but left in place until overwritten.
type localTier struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]localEntry
}

type localEntry struct {
	value     domain.ConfigValue
	fetchedAt time.Time
}

func newLocalTier(ttl time.Duration) *localTier {
	if ttl <= 0 {
		ttl = 300 * time.Second
	}
	return &localTier{
		ttl:     ttl,
		entries: make(map[string]localEntry),
	}
}

// get returns the cached value if it was fetched within the TTL window.
func (t *localTier) get(key string, now time.Time) (domain.ConfigValue, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, ok := t.entries[key]
	if !ok {
		return domain.ConfigValue{}, false
	}
	if now.Sub(entry.fetchedAt) >= t.ttl {
		return domain.ConfigValue{}, false
	}
	return entry.value, true
}

// set stores a value with a fresh fetchedAt. Last write wins.
func (t *localTier) set(key string, value domain.ConfigValue, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[key] = localEntry{value: value, fetchedAt: now}
}

func (t *localTier) size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
