package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Daily counters only matter for the day they were issued; keep them around
// long enough to ride out clock skew between gateway instances.
const redisKeyTTL = 48 * time.Hour

// RedisAllocator allocates sequence numbers with a Redis INCR per key, which
// is atomic across concurrent callers and processes.
type RedisAllocator struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed allocator.
func NewRedis(client *redis.Client) *RedisAllocator {
	return &RedisAllocator{client: client}
}

func (a *RedisAllocator) Next(ctx context.Context, region int, district string, day time.Time) (int, error) {
	key := "seq:" + Key(region, district, day)

	n, err := a.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	if n == 1 {
		// First allocation for this key; bound its lifetime.
		if err := a.client.Expire(ctx, key, redisKeyTTL).Err(); err != nil {
			return 0, fmt.Errorf("expire %s: %w", key, err)
		}
	}
	return int(n), nil
}
