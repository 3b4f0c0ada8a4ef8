package config

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/logger"
)

// ConnectRedis returns nil, nil when no URL is configured; callers fall back
// to the in-process cache and skip rate limiting.
func ConnectRedis(redisURL string) (*redis.Client, error) {
	log := logger.WithComponent("redis")
	if redisURL == "" {
		log.Warn().Msg("REDIS_URL not set, running without Redis")
		return nil, nil
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := WithTimeout()
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info().Str("addr", opt.Addr).Msg("connected to Redis")
	return client, nil
}
