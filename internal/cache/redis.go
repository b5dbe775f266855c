package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fature/cpa-engine/internal/domain"
)

// remoteKeyPrefix namespaces configuration entries in the shared store.
const remoteKeyPrefix = "config_cache:"

// remoteEnvelope is the stored representation: the raw text plus its declared
// type tag, so a read can re-decode through the codec.
type remoteEnvelope struct {
	DataType string `json:"data_type"`
	Value    string `json:"value"`
}

// redisTier is the shared remote cache tier. All faults are non-fatal; after
// the backoff policy is exhausted the tier stays degraded for the process
// lifetime and every call becomes an immediate miss.
type redisTier struct {
	client *redis.Client
	ttl    time.Duration
	policy Policy

	mu        sync.Mutex
	failures  int
	downSince time.Time
	retryAt   time.Time
	degraded  bool
}

func newRedisTier(cfg domain.CacheConfig, policy Policy) *redisTier {
	addr := cfg.RedisAddr
	if addr == "" {
		addr = "localhost:6379"
	}
	ttl := cfg.RemoteTTL
	if ttl <= 0 {
		ttl = 3600 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	return &redisTier{
		client: client,
		ttl:    ttl,
		policy: policy,
	}
}

// get retrieves and decodes a value. found=false with a nil error is a miss.
func (t *redisTier) get(ctx context.Context, key string) (domain.ConfigValue, bool, error) {
	if !t.available() {
		return domain.ConfigValue{}, false, nil
	}

	raw, err := t.client.Get(ctx, remoteKeyPrefix+key).Bytes()
	if err == redis.Nil {
		t.markSuccess()
		return domain.ConfigValue{}, false, nil
	}
	if err != nil {
		t.markFailure(err)
		return domain.ConfigValue{}, false, err
	}
	t.markSuccess()

	var env remoteEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return domain.ConfigValue{}, false, fmt.Errorf("decode remote entry %q: %w", key, err)
	}
	return domain.DecodeValue(env.Value, env.DataType), true, nil
}

// set writes a value with the remote TTL.
func (t *redisTier) set(ctx context.Context, key string, value domain.ConfigValue) error {
	if !t.available() {
		return nil
	}

	data, err := json.Marshal(remoteEnvelope{
		DataType: value.DataType(),
		Value:    value.Raw(),
	})
	if err != nil {
		return fmt.Errorf("encode remote entry %q: %w", key, err)
	}

	if err := t.client.Set(ctx, remoteKeyPrefix+key, data, t.ttl).Err(); err != nil {
		t.markFailure(err)
		return err
	}
	t.markSuccess()
	return nil
}

func (t *redisTier) ping(ctx context.Context) error {
	return t.client.Ping(ctx).Err()
}

func (t *redisTier) close() error {
	return t.client.Close()
}

// available reports whether the tier should be tried at all. While backing
// off, calls short-circuit to a miss without touching the connection.
func (t *redisTier) available() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.degraded {
		return false
	}
	if t.failures > 0 && time.Now().Before(t.retryAt) {
		return false
	}
	return true
}

func (t *redisTier) markFailure(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	if t.failures == 0 {
		t.downSince = now
	}
	t.failures++

	delay, ok := t.policy.Next(t.failures, now.Sub(t.downSince))
	if !ok {
		if !t.degraded {
			slog.Error("remote cache tier degraded, giving up until restart",
				"failures", t.failures,
				"down_for", now.Sub(t.downSince).String(),
				"error", err,
			)
		}
		t.degraded = true
		return
	}

	t.retryAt = now.Add(delay)
	slog.Warn("remote cache tier failure, backing off",
		"failures", t.failures,
		"retry_in", delay.String(),
		"error", err,
	)
}

func (t *redisTier) markSuccess() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures = 0
	t.retryAt = time.Time{}
	t.downSince = time.Time{}
}
