package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"
)

// Store is a namespaced TTL cache for ranked recommendation lists.
// Implementations must make per-key operations atomic; no cross-key
// transaction discipline is required. All methods are best-effort: a failing
// backend reads as a miss and writes as a no-op.
type Store interface {
	// Get reads the value under key into dest. Returns false on miss,
	// expiry, backend error, or malformed entry.
	Get(ctx context.Context, key string, dest any) bool

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value any, ttl time.Duration)

	// Invalidate removes a single key.
	Invalidate(ctx context.Context, key string)

	// InvalidatePattern removes all keys matching a glob pattern,
	// e.g. "rec:user:<id>:*".
	InvalidatePattern(ctx context.Context, pattern string)
}

// RedisStore implements Store on Redis. Values are CBOR-encoded for compact
// storage of recommendation lists.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisStore creates a RedisStore backed by the given client.
func NewRedisStore(client *redis.Client, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{client: client, logger: logger}
}

// Get implements Store. Backend errors and undecodable entries read as a miss.
func (s *RedisStore) Get(ctx context.Context, key string, dest any) bool {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		s.logger.Debug("cache miss", "key", key)
		return false
	}
	if err != nil {
		s.logger.Warn("cache get failed, treating as miss", "key", key, "error", err)
		return false
	}

	if err := cbor.Unmarshal(data, dest); err != nil {
		s.logger.Warn("malformed cache entry, treating as miss", "key", key, "error", err)
		return false
	}

	s.logger.Debug("cache hit", "key", key)
	return true
}

// Set implements Store. Encoding and backend errors are logged and swallowed.
func (s *RedisStore) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := cbor.Marshal(value)
	if err != nil {
		s.logger.Warn("failed to encode cache value", "key", key, "error", err)
		return
	}

	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		s.logger.Warn("cache set failed", "key", key, "error", err)
		return
	}

	s.logger.Debug("cached value", "key", key, "ttl", ttl)
}

// Invalidate implements Store.
func (s *RedisStore) Invalidate(ctx context.Context, key string) {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.logger.Warn("cache invalidation failed", "key", key, "error", err)
		return
	}
	s.logger.Debug("invalidated cache key", "key", key)
}

// InvalidatePattern implements Store using SCAN to avoid blocking Redis on
// large keyspaces.
func (s *RedisStore) InvalidatePattern(ctx context.Context, pattern string) {
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn("cache pattern scan failed", "pattern", pattern, "error", err)
		return
	}

	if len(keys) == 0 {
		return
	}

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn("cache pattern invalidation failed", "pattern", pattern, "error", err)
		return
	}

	s.logger.Debug("invalidated cache keys", "pattern", pattern, "count", len(keys))
}
