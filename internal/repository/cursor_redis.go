package repository

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// RedisCursorRepository implements CursorRepository on plain Redis string keys.
// The server must be configured for persistence (AOF or RDB) for cursors
// to survive restarts.
type RedisCursorRepository struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisCursorRepository wraps an existing client. All keys are stored
// under keyPrefix.
func NewRedisCursorRepository(client *redis.Client, keyPrefix string) *RedisCursorRepository {
	if keyPrefix == "" {
		keyPrefix = "connector:cursor:"
	}
	log.Printf("[RedisCursorRepository] Using key prefix %s", keyPrefix)
	return &RedisCursorRepository{client: client, keyPrefix: keyPrefix}
}

// GetInt64 returns the stored value for key.
func (r *RedisCursorRepository) GetInt64(ctx context.Context, key string) (int64, bool, error) {
	value, err := r.client.Get(ctx, r.keyPrefix+key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get cursor %s: %w", key, err)
	}
	return value, true, nil
}

// PutInt64 stores value under key without expiry.
func (r *RedisCursorRepository) PutInt64(ctx context.Context, key string, value int64) error {
	if err := r.client.Set(ctx, r.keyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to put cursor %s: %w", key, err)
	}
	return nil
}

// Ping verifies the server is reachable.
func (r *RedisCursorRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (r *RedisCursorRepository) Close() error {
	return r.client.Close()
}

var _ CursorRepository = (*RedisCursorRepository)(nil)
