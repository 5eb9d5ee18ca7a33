package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/briefdash-labs/briefdash/internal/errors"
)

// RedisStore keeps the latest snapshot per family in Redis. The whole
// envelope is one JSON value per key, so writes are atomic. Keys have no
// Redis TTL: staleness is derived at read time from UpdatedAt, and a stale
// snapshot is still better than none.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// NewRedisStoreWithClient wraps an existing client. Useful for tests.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(family string) string {
	return fmt.Sprintf("briefdash:snapshot:%s", family)
}

// GetLatest fetches and decodes the envelope for the family.
func (r *RedisStore) GetLatest(ctx context.Context, family string) (*Snapshot, error) {
	raw, err := r.client.Get(ctx, redisKey(family)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStoreUnavailable("redis read failed", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, errors.NewStoreUnavailable("redis snapshot decode failed", err)
	}
	return &snap, nil
}

// SetLatest encodes and writes the envelope. Last write wins.
func (r *RedisStore) SetLatest(ctx context.Context, family string, snap *Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return errors.NewStoreUnavailable("redis snapshot encode failed", err)
	}
	if err := r.client.Set(ctx, redisKey(family), raw, 0).Err(); err != nil {
		return errors.NewStoreUnavailable("redis write failed", err)
	}
	return nil
}

// Ping verifies connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return errors.NewStoreUnavailable("redis ping failed", err)
	}
	return nil
}

// Close releases the client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

var _ Store = (*RedisStore)(nil)
