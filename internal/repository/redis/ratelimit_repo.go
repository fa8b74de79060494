package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const RateLimitPrefix = "ratelimit"

func RateLimitKey(scope, id string) string {
	return fmt.Sprintf("%s:%s:%s", RateLimitPrefix, scope, id)
}

// RateLimitRepository counts hits per fixed window.
type RateLimitRepository struct {
	rdb *redis.Client
}

func NewRateLimitRepository(rdb *redis.Client) *RateLimitRepository {
	return &RateLimitRepository{rdb: rdb}
}

// Allow records one hit on key. The first hit creates the counter with the
// window as its TTL; later hits only increment it.
func (r *RateLimitRepository) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, time.Duration, error) {
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SetNX(ctx, key, 0, window)
		incr = p.Incr(ctx, key)
		ttl = p.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return false, 0, 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	count := int(incr.Val())
	retryAfter := ttl.Val()
	if retryAfter < 0 {
		retryAfter = window
	}
	if count > limit {
		return false, 0, retryAfter, nil
	}
	return true, limit - count, retryAfter, nil
}
