package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/logger"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "filter:meta:"

// RedisCache shares metadata across instances. Read and write failures are
// logged and treated as misses.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zerolog.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
		log:    logger.WithComponent("metadata-cache"),
	}
}

func (c *RedisCache) Get(ctx context.Context, scope string) (*models.FilterMetadata, bool) {
	key := keyPrefix + scope
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Error().Err(err).Str("key", key).Msg("cache get failed")
		}
		return nil, false
	}
	var md models.FilterMetadata
	if err := json.Unmarshal(data, &md); err != nil {
		c.log.Error().Err(err).Str("key", key).Msg("cache unmarshal failed")
		return nil, false
	}
	return &md, true
}

func (c *RedisCache) Set(ctx context.Context, scope string, md *models.FilterMetadata) {
	key := keyPrefix + scope
	data, err := json.Marshal(md)
	if err != nil {
		c.log.Error().Err(err).Str("key", key).Msg("cache marshal failed")
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Error().Err(err).Str("key", key).Msg("cache set failed")
	}
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	var (
		cursor  uint64
		deleted int64
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("invalidating metadata cache: %w", err)
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return fmt.Errorf("invalidating metadata cache: %w", err)
			}
			deleted += n
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	c.log.Info().Int64("keys_deleted", deleted).Msg("metadata cache invalidated")
	return nil
}
