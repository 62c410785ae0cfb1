package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/harshbajani/GujaratStore-sub003/internal/usecase"
)

// RedisCache holds the write-through order-status cache read by storefront
// status polling.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (r *RedisCache) SetStatus(ctx context.Context, orderNumber string, status string) error {
	return r.rdb.Set(ctx, "order:status:"+orderNumber, status, r.ttl).Err()
}

func (r *RedisCache) GetStatus(ctx context.Context, orderNumber string) (string, error) {
	val, err := r.rdb.Get(ctx, "order:status:"+orderNumber).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

var _ usecase.OrderCache = (*RedisCache)(nil)
