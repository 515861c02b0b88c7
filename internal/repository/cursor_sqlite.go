package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteCursorRepository implements CursorRepository using SQLite.
type SQLiteCursorRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteCursorRepository opens (or creates) the SQLite database at dbPath.
func NewSQLiteCursorRepository(dbPath string) (*SQLiteCursorRepository, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports 1 writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createSQLiteTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteCursorRepository] Initialized with database: %s", dbPath)
	return &SQLiteCursorRepository{db: db}, nil
}

func createSQLiteTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS connector_cursor (
		cursor_key TEXT PRIMARY KEY,
		cursor_value INTEGER NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	_, err := db.Exec(query)
	return err
}

// GetInt64 returns the stored value for key.
func (r *SQLiteCursorRepository) GetInt64(ctx context.Context, key string) (int64, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var value int64
	err := r.db.QueryRowContext(ctx,
		`SELECT cursor_value FROM connector_cursor WHERE cursor_key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get cursor %s: %w", key, err)
	}
	return value, true, nil
}

// PutInt64 stores value under key.
func (r *SQLiteCursorRepository) PutInt64(ctx context.Context, key string, value int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		INSERT INTO connector_cursor (cursor_key, cursor_value, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(cursor_key) DO UPDATE SET
			cursor_value = excluded.cursor_value,
			updated_at = datetime('now')`

	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to put cursor %s: %w", key, err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (r *SQLiteCursorRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLiteCursorRepository) Close() error {
	return r.db.Close()
}

var _ CursorRepository = (*SQLiteCursorRepository)(nil)
