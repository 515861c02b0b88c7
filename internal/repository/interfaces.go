package repository

import (
	"context"
)

// CursorRepository is a durable key to integer store holding sync progress.
// Values must survive process restarts.
type CursorRepository interface {
	// GetInt64 returns the stored value and whether the key exists.
	GetInt64(ctx context.Context, key string) (int64, bool, error)

	// PutInt64 creates or overwrites the value stored under key.
	PutInt64(ctx context.Context, key string, value int64) error

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close closes the repository connection.
	Close() error
}

// Store types accepted by CURSOR_DB_TYPE.
const (
	StoreSQLite   = "sqlite"
	StoreBolt     = "bolt"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreMySQL    = "mysql"
	StoreMongoDB  = "mongodb"
)
