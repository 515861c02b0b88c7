// Package tagapi registers cases as tags in the time tracking platform.
package tagapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"case-connector/internal/apperror"
	"case-connector/internal/model"
	"case-connector/pkg/uid"
)

// Client submits tag upsert batches.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a tag registry client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// UpsertBatch creates or updates all tags in one request. The batch either
// succeeds or fails as a whole from the caller's point of view.
func (c *Client) UpsertBatch(ctx context.Context, requests []model.UpsertTagRequest) error {
	if len(requests) == 0 {
		return nil
	}

	body, err := json.Marshal(requests)
	if err != nil {
		return fmt.Errorf("failed to encode tag batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tag/upsert/batch", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build tag batch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if id := uid.FromContext(ctx); id != "" {
		req.Header.Set(uid.Header, id)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperror.Wrap(apperror.ErrTransport, "tag batch upsert failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apperror.Wrap(apperror.ErrTransport, "tag batch upsert failed",
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))))
	}
	return nil
}
