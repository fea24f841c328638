package persistence

import (
	"context"
	"time"

	"github.com/angelmondragon/storefront/pkg/redis"
)

// RedisBackend stores each namespace under storefront:<session>:<namespace> with a TTL
// refreshed on every read and write.
type RedisBackend struct {
	store redis.StateStore
	ttl   time.Duration
}

func NewRedisBackend(store redis.StateStore, ttl time.Duration) *RedisBackend {
	return &RedisBackend{store: store, ttl: ttl}
}

func (r *RedisBackend) Read(ctx context.Context, sessionID string, ns Namespace) ([]byte, bool, error) {
	value, err := r.store.GetEx(ctx, r.store.StateKey(sessionID, string(ns)), r.ttl)
	if redis.IsMissing(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(value), true, nil
}

func (r *RedisBackend) Write(ctx context.Context, sessionID string, ns Namespace, data []byte) error {
	return r.store.Set(ctx, r.store.StateKey(sessionID, string(ns)), string(data), r.ttl)
}

func (r *RedisBackend) Delete(ctx context.Context, sessionID string, ns Namespace) error {
	return r.store.Del(ctx, r.store.StateKey(sessionID, string(ns)))
}
