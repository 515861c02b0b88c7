package repository

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	bolt "github.com/boltdb/bolt"
)

const cursorBucket = "cursors"

// BoltCursorRepository implements CursorRepository on an embedded BoltDB file.
type BoltCursorRepository struct {
	db *bolt.DB
}

// NewBoltCursorRepository opens (or creates) the database at path and
// ensures the cursor bucket exists.
func NewBoltCursorRepository(path string) (*BoltCursorRepository, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open BoltDB: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(cursorBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	log.Printf("[BoltCursorRepository] Initialized with database: %s", path)
	return &BoltCursorRepository{db: db}, nil
}

// GetInt64 returns the stored value for key.
func (r *BoltCursorRepository) GetInt64(ctx context.Context, key string) (int64, bool, error) {
	var (
		value int64
		found bool
	)
	err := r.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(cursorBucket)).Get([]byte(key))
		if v == nil {
			return nil
		}
		parsed, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("corrupt value for %s: %w", key, err)
		}
		value, found = parsed, true
		return nil
	})
	if err != nil {
		return 0, false, fmt.Errorf("failed to get cursor %s: %w", key, err)
	}
	return value, found, nil
}

// PutInt64 stores value under key.
func (r *BoltCursorRepository) PutInt64(ctx context.Context, key string, value int64) error {
	err := r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(cursorBucket)).Put([]byte(key), []byte(strconv.FormatInt(value, 10)))
	})
	if err != nil {
		return fmt.Errorf("failed to put cursor %s: %w", key, err)
	}
	return nil
}

// Ping is a no-op for the embedded store.
func (r *BoltCursorRepository) Ping(ctx context.Context) error {
	return nil
}

// Close releases the database file lock.
func (r *BoltCursorRepository) Close() error {
	return r.db.Close()
}

var _ CursorRepository = (*BoltCursorRepository)(nil)
