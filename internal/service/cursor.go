package service

import (
	"context"
	"fmt"

	"case-connector/internal/repository"
)

// CursorState is a snapshot of one cursor pair.
type CursorState struct {
	LastID int64 `json:"last_id"`
	Page   int64 `json:"page"`
}

// SyncCursor persists the (last id, page) pair of one sync stream.
// Discovery and refresh use two instances with different keys and defaults.
type SyncCursor struct {
	repo        repository.CursorRepository
	idKey       string
	pageKey     string
	defaultPage int64
}

// NewDiscoveryCursor returns the cursor of the new case discovery stream.
// Its page defaults to 1.
func NewDiscoveryCursor(repo repository.CursorRepository, prefix string) *SyncCursor {
	return &SyncCursor{
		repo:        repo,
		idKey:       prefix + "_last_sync_id",
		pageKey:     prefix + "_last_sync_page",
		defaultPage: 1,
	}
}

// NewRefreshCursor returns the cursor of the refresh stream. Its page
// defaults to 0, the page before the first one.
func NewRefreshCursor(repo repository.CursorRepository, prefix string) *SyncCursor {
	return &SyncCursor{
		repo:        repo,
		idKey:       prefix + "_last_refreshed_id",
		pageKey:     prefix + "_last_refreshed_page",
		defaultPage: 0,
	}
}

// LastID returns the last synced case id, 0 when never stored.
func (c *SyncCursor) LastID(ctx context.Context) (int64, error) {
	return c.get(ctx, c.idKey, 0)
}

// Page returns the stored page, or the stream's default when never stored.
func (c *SyncCursor) Page(ctx context.Context) (int64, error) {
	return c.get(ctx, c.pageKey, c.defaultPage)
}

// SetLastID persists the last synced case id.
func (c *SyncCursor) SetLastID(ctx context.Context, id int64) error {
	if err := c.repo.PutInt64(ctx, c.idKey, id); err != nil {
		return fmt.Errorf("failed to store %s: %w", c.idKey, err)
	}
	return nil
}

// SetPage persists the page.
func (c *SyncCursor) SetPage(ctx context.Context, page int64) error {
	if err := c.repo.PutInt64(ctx, c.pageKey, page); err != nil {
		return fmt.Errorf("failed to store %s: %w", c.pageKey, err)
	}
	return nil
}

// Snapshot reads both values.
func (c *SyncCursor) Snapshot(ctx context.Context) (CursorState, error) {
	id, err := c.LastID(ctx)
	if err != nil {
		return CursorState{}, err
	}
	page, err := c.Page(ctx)
	if err != nil {
		return CursorState{}, err
	}
	return CursorState{LastID: id, Page: page}, nil
}

// Reset stores 0 for both values so the next walk starts from the beginning.
func (c *SyncCursor) Reset(ctx context.Context) error {
	if err := c.SetLastID(ctx, 0); err != nil {
		return err
	}
	return c.SetPage(ctx, 0)
}

func (c *SyncCursor) get(ctx context.Context, key string, fallback int64) (int64, error) {
	v, found, err := c.repo.GetInt64(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !found {
		return fallback, nil
	}
	return v, nil
}
