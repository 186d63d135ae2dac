package cache

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const limiterPrefix = "contentcraft_limiter"

// NewRateLimiter 按格式化速率（如 60-M）创建限流器，有 Redis 时使用共享存储。
func NewRateLimiter(formatted string, client *redis.Client) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("parse rate limit: %w", err)
	}

	var store limiter.Store
	if client != nil {
		store, err = sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: limiterPrefix})
		if err != nil {
			return nil, fmt.Errorf("create redis limiter store: %w", err)
		}
	} else {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          limiterPrefix,
			CleanUpInterval: time.Minute,
		})
	}
	return limiter.New(store, rate), nil
}
