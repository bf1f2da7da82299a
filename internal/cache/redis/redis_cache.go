package redis

import (
	"context"
	"fmt"
	"time"

	cache "claimspipe/internal/cache/iface"
	"claimspipe/internal/logger"

	"github.com/redis/go-redis/v9"
)

type redisCache struct {
	client *redis.Client
	logger logger.Logger
}

// NewRedisCache creates a new Redis cache client
func NewRedisCache(addr string, password string, db int, log logger.Logger) (cache.Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("connected to Redis successfully", logger.String("addr", addr))

	return &redisCache{
		client: client,
		logger: log.With(logger.String("component", "redis_cache")),
	}, nil
}

// Set stores a value with optional TTL
func (r *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	err := r.client.Set(ctx, key, value, ttl).Err()
	if err != nil {
		r.logger.Error("failed to set key",
			logger.String("key", key),
			logger.Error(err))
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

// Get retrieves a value by key
func (r *redisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", fmt.Errorf("key not found: %s", key)
	}
	if err != nil {
		r.logger.Error("failed to get key",
			logger.String("key", key),
			logger.Error(err))
		return "", fmt.Errorf("redis get failed: %w", err)
	}

	return val, nil
}

// Delete removes a key
func (r *redisCache) Delete(ctx context.Context, key string) error {
	err := r.client.Del(ctx, key).Err()
	if err != nil {
		r.logger.Error("failed to delete key",
			logger.String("key", key),
			logger.Error(err))
		return fmt.Errorf("redis delete failed: %w", err)
	}

	return nil
}

// SetNX sets the key only if it does not exist
func (r *redisCache) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	acquired, err := r.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		r.logger.Error("failed to setnx",
			logger.String("key", key),
			logger.Error(err))
		return false, fmt.Errorf("redis setnx failed: %w", err)
	}

	return acquired, nil
}

// Close closes the Redis connection
func (r *redisCache) Close() error {
	return r.client.Close()
}
