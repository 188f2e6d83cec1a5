package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"driveid/internal/verify/models"
	"driveid/pkg/platform/sentinel"
)

// RedisStore persists verification results in Redis with per-entry TTL.
// Results are stored as JSON; Redis handles expiry.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps a connected Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Find returns the stored result, or sentinel.ErrNotFound if the key is
// absent or expired.
func (s *RedisStore) Find(ctx context.Context, key string) (*models.SourceResult, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var result models.SourceResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode cached result: %w", err)
	}
	return &result, nil
}

// Save stores a result under key with the given TTL.
func (s *RedisStore) Save(ctx context.Context, key string, result *models.SourceResult, ttl time.Duration) error {
	if result == nil {
		return nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := s.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
