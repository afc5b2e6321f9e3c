// Package cache mirrors the persisted fixture snapshot into Redis so
// co-located consumers can read it without touching the snapshot file.
// The file on disk stays the source of truth; the mirror is best-effort.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"matchcast/ingestion/internal/models"
)

// Config holds Redis connection settings and the snapshot key.
type Config struct {
	Addr     string
	Password string
	DB       int
	Key      string
	TTL      time.Duration
}

// RedisCache publishes snapshots to a single Redis key with a TTL.
type RedisCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(cfg Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.Info().Str("addr", cfg.Addr).Str("key", cfg.Key).Msg("Redis snapshot mirror connected")

	return &RedisCache{client: client, key: cfg.Key, ttl: cfg.TTL}, nil
}

// SetSnapshot stores the serialized record map under the snapshot key.
func (c *RedisCache) SetSnapshot(ctx context.Context, records models.RecordMap) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot for redis: %w", err)
	}

	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set snapshot key: %w", err)
	}

	return nil
}

// GetSnapshot reads the mirrored record map. A missing key yields an
// empty map, matching the snapshot file's absence semantics.
func (c *RedisCache) GetSnapshot(ctx context.Context) (models.RecordMap, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return models.RecordMap{}, nil
		}
		return nil, fmt.Errorf("failed to get snapshot key: %w", err)
	}

	var records models.RecordMap
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode mirrored snapshot: %w", err)
	}

	return records, nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
