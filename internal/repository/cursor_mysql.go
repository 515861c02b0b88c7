package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLCursorRepository implements CursorRepository using MySQL.
type MySQLCursorRepository struct {
	db *sql.DB
}

// NewMySQLCursorRepository opens a MySQL connection pool and prepares the cursor table.
func NewMySQLCursorRepository(dsn string) (*MySQLCursorRepository, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	if err := createMySQLTables(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[MySQLCursorRepository] Initialized")
	return &MySQLCursorRepository{db: db}, nil
}

func createMySQLTables(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS connector_cursor (
		cursor_key VARCHAR(191) NOT NULL PRIMARY KEY,
		cursor_value BIGINT NOT NULL,
		updated_at DATETIME NOT NULL
	)`
	_, err := db.ExecContext(ctx, query)
	return err
}

// GetInt64 returns the stored value for key.
func (r *MySQLCursorRepository) GetInt64(ctx context.Context, key string) (int64, bool, error) {
	var value int64
	err := r.db.QueryRowContext(ctx,
		`SELECT cursor_value FROM connector_cursor WHERE cursor_key = ? LIMIT 1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get cursor %s: %w", key, err)
	}
	return value, true, nil
}

// PutInt64 stores value under key.
func (r *MySQLCursorRepository) PutInt64(ctx context.Context, key string, value int64) error {
	query := `
		INSERT INTO connector_cursor (cursor_key, cursor_value, updated_at)
		VALUES (?, ?, UTC_TIMESTAMP())
		ON DUPLICATE KEY UPDATE
			cursor_value = VALUES(cursor_value),
			updated_at = UTC_TIMESTAMP()`

	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to put cursor %s: %w", key, err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (r *MySQLCursorRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *MySQLCursorRepository) Close() error {
	return r.db.Close()
}

var _ CursorRepository = (*MySQLCursorRepository)(nil)
