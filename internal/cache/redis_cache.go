package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/config"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/domain"
)

// RedisMessageCache caches recent room history in Redis with a TTL.
type RedisMessageCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisMessageCache(cfg config.CacheConfig) (*RedisMessageCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisMessageCache{
		client: client,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
	}, nil
}

func (c *RedisMessageCache) key(roomID uint) string {
	return fmt.Sprintf("%s:%d", c.prefix, roomID)
}

func (c *RedisMessageCache) Get(ctx context.Context, roomID uint) ([]domain.HistoryEntry, error) {
	data, err := c.client.Get(ctx, c.key(roomID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var entries []domain.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}
	return entries, nil
}

func (c *RedisMessageCache) Set(ctx context.Context, roomID uint, entries []domain.HistoryEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := c.client.Set(ctx, c.key(roomID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}

func (c *RedisMessageCache) Invalidate(ctx context.Context, roomID uint) error {
	return c.client.Del(ctx, c.key(roomID)).Err()
}

func (c *RedisMessageCache) Close() error {
	return c.client.Close()
}
