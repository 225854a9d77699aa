package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/onoo-labs/marketing-assistant/internal/project/domain"
)

// RedisRepository keeps the document under one fixed key with no expiry.
type RedisRepository struct {
	client *redis.Client
	key    string
}

// NewRedisRepository creates a repository storing the document at key.
func NewRedisRepository(client *redis.Client, key string) *RedisRepository {
	return &RedisRepository{client: client, key: key}
}

// Get returns the stored document or domain.ErrProjectNotFound.
func (r *RedisRepository) Get(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return data, nil
}

// Put replaces the stored document.
func (r *RedisRepository) Put(ctx context.Context, doc []byte) error {
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.key, doc, 0)
	pipe.Set(ctx, r.key+":updated_at", redisNow(), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
