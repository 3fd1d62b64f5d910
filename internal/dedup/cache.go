package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pulselabs/pulse/internal/logger"
)

// SeenCache is a redis set of content hashes in front of the persisted
// store. Misses fall through to postgres, so redis errors degrade to a
// slower check instead of failing the job.
type SeenCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewSeenCache(client *redis.Client, ttl time.Duration, log logger.Logger) *SeenCache {
	return &SeenCache{
		client: client,
		ttl:    ttl,
		logger: log,
	}
}

func (c *SeenCache) key(contentHash string) string {
	return fmt.Sprintf("seen:article:%s", contentHash)
}

func (c *SeenCache) Has(ctx context.Context, contentHash string) bool {
	key := c.key(contentHash)

	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		c.logger.Error("Redis error checking seen cache",
			logger.String("redis_key", key),
			logger.Error(err),
		)
		return false
	}

	return exists == 1
}

func (c *SeenCache) Mark(ctx context.Context, contentHash string) error {
	key := c.key(contentHash)

	err := c.client.Set(ctx, key, "1", c.ttl).Err()
	if err != nil {
		c.logger.Error("Redis error marking article seen",
			logger.String("redis_key", key),
			logger.Duration("ttl", c.ttl),
			logger.Error(err),
		)
		return err
	}

	c.logger.Debug("Article marked seen",
		logger.String("redis_key", key),
	)

	return nil
}

func (c *SeenCache) Clear(ctx context.Context, contentHash string) error {
	key := c.key(contentHash)

	err := c.client.Del(ctx, key).Err()
	if err != nil {
		c.logger.Error("Redis error clearing seen cache entry",
			logger.String("redis_key", key),
			logger.Error(err),
		)
		return err
	}

	return nil
}
