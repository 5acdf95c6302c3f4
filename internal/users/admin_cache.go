package users

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// AdminIDsKey is the Redis key holding the cached admin id list.
const AdminIDsKey = "users:admin_ids"

// AdminIDSource loads admin ids from the database.
type AdminIDSource interface {
	AdminIDs(ctx context.Context) ([]int64, error)
}

// kv is the subset of the Redis client the cache uses.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// AdminIDCache serves the admin id list from Redis, refilling it from the
// database when the entry is missing or expired. Redis failures fall back to
// the database.
type AdminIDCache struct {
	rdb    kv
	source AdminIDSource
	ttl    time.Duration
	logger *zap.Logger
}

// NewAdminIDCache creates a cache. rdb may be nil to always read the database.
func NewAdminIDCache(rdb kv, source AdminIDSource, ttl time.Duration, logger *zap.Logger) *AdminIDCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminIDCache{rdb: rdb, source: source, ttl: ttl, logger: logger}
}

// AdminIDs returns the ids of all admins in ascending order.
func (c *AdminIDCache) AdminIDs(ctx context.Context) ([]int64, error) {
	if c.rdb == nil {
		return c.source.AdminIDs(ctx)
	}
	raw, err := c.rdb.Get(ctx, AdminIDsKey).Bytes()
	switch {
	case err == nil:
		var ids []int64
		if jsonErr := json.Unmarshal(raw, &ids); jsonErr == nil {
			return ids, nil
		}
		c.logger.Warn("discarding malformed admin id cache entry")
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("admin id cache read failed", zap.Error(err))
		return c.source.AdminIDs(ctx)
	}

	ids, err := c.source.AdminIDs(ctx)
	if err != nil {
		return nil, err
	}
	body, _ := json.Marshal(ids)
	if err := c.rdb.Set(ctx, AdminIDsKey, body, c.ttl).Err(); err != nil {
		c.logger.Warn("admin id cache write failed", zap.Error(err))
	}
	return ids, nil
}
