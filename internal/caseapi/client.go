// Package caseapi is the HTTP client for the remote case management API.
package caseapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"case-connector/internal/apperror"
	"case-connector/internal/model"
	"case-connector/pkg/uid"

	"golang.org/x/oauth2"
)

// Field mapping keys every post must provide.
const (
	FieldCaseID             = "pid"
	FieldUserID             = "userId"
	FieldNarrative          = "narrative"
	FieldStartDateTime      = "startDateTime"
	FieldTotalTimeSecs      = "totalTimeSecs"
	FieldChargeableTimeSecs = "chargeableTimeSecs"
	FieldActivityCode       = "activityCode"
)

// RequiredFields lists the mapping keys a post field mapping must define.
var RequiredFields = []string{
	FieldCaseID,
	FieldUserID,
	FieldNarrative,
	FieldStartDateTime,
	FieldTotalTimeSecs,
	FieldChargeableTimeSecs,
	FieldActivityCode,
}

// Config holds the settings needed to talk to the case API.
type Config struct {
	// BaseURL must end with a slash, e.g. "https://cases.example.com/".
	BaseURL string
	APIKey  string
	// CaseType is listed by the health check.
	CaseType string
	// FieldMapping maps each required field to the remote form field name.
	FieldMapping map[string]string
	Timeout      time.Duration
}

// Client talks to the case API. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	cfg        Config
}

// NewClient creates a client authenticating every request with
// "Authorization: apikey <key>".
func NewClient(cfg Config) *Client {
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.APIKey,
		TokenType:   "apikey",
	})
	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &oauth2.Transport{
			Source: ts,
			Base:   http.DefaultTransport,
		},
	}

	return &Client{httpClient: httpClient, cfg: cfg}
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// apiResponse is the envelope returned by every endpoint.
type apiResponse struct {
	Result struct {
		Data []model.Case `json:"data"`
	} `json:"result"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ListCases fetches one page of cases ordered by case id. An empty page
// yields an empty slice and no error.
func (c *Client) ListCases(ctx context.Context, caseType string, page, pageSize int64) ([]model.Case, error) {
	resp, err := c.listPage(ctx, caseType, page, pageSize)
	if err != nil {
		return nil, err
	}
	return resp.Result.Data, nil
}

func (c *Client) listPage(ctx context.Context, caseType string, page, pageSize int64) (*apiResponse, error) {
	endpoint := fmt.Sprintf("%sapi/list/type/%s/rowsPerPage/%d/page/%d/orderrow/caseId",
		c.cfg.BaseURL, url.PathEscape(caseType), pageSize, page)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build list request: %w", err)
	}
	return c.do(req)
}

// FindCaseByReference searches for a case whose reference matches name,
// ignoring case. It returns nil when no case matches.
func (c *Client) FindCaseByReference(ctx context.Context, caseType, name string) (*model.Case, error) {
	endpoint := fmt.Sprintf("%sapi/list/type/%s/search/%s",
		c.cfg.BaseURL, url.PathEscape(caseType), url.PathEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}

	for _, found := range resp.Result.Data {
		if strings.EqualFold(found.CaseReference, name) {
			return &found, nil
		}
	}
	return nil, nil
}

// PostTimeRecord submits one time and charge record as a form post.
func (c *Client) PostTimeRecord(ctx context.Context, postType string, record model.TimePostRecord) error {
	form := url.Values{}
	form.Set(c.field(FieldCaseID), strconv.FormatInt(record.CaseID, 10))
	form.Set(c.field(FieldUserID), record.UserID)
	form.Set(c.field(FieldNarrative), record.Narrative)
	form.Set(c.field(FieldStartDateTime), record.StartDateTime)
	form.Set(c.field(FieldTotalTimeSecs), strconv.FormatInt(record.TotalTimeSecs, 10))
	form.Set(c.field(FieldChargeableTimeSecs), strconv.FormatInt(record.ChargeableTimeSecs, 10))
	form.Set(c.field(FieldActivityCode), record.ActivityCode)

	endpoint := fmt.Sprintf("%sapi/%s", c.cfg.BaseURL, url.PathEscape(postType))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build post request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	_, err = c.do(req)
	return err
}

// HealthCheck reports whether the API answers a one row listing with code 200.
// It never returns an error.
func (c *Client) HealthCheck(ctx context.Context) bool {
	resp, err := c.listPage(ctx, c.cfg.CaseType, 1, 1)
	if err != nil {
		log.Printf("[CaseAPI] Error while trying to connect: %v", err)
		return false
	}
	return resp.Code == http.StatusOK
}

func (c *Client) field(key string) string {
	if name, ok := c.cfg.FieldMapping[key]; ok && name != "" {
		return name
	}
	return key
}

// do executes req and decodes the response envelope. A non-2xx status with
// a readable message is a remote error carrying that message, and so is a
// 2xx without body. IO failures and unreadable error replies are transport
// errors.
func (c *Client) do(req *http.Request) (*apiResponse, error) {
	req.Header.Set("Accept", "application/json")
	if id := uid.FromContext(req.Context()); id != "" {
		req.Header.Set(uid.Header, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrTransport, "request to case API failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrTransport, "failed to read case API response", err)
	}

	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !success {
		log.Printf("[CaseAPI] Request %s %s failed with code %d and body %s",
			req.Method, req.URL.Path, resp.StatusCode, truncate(body))

		var remote apiResponse
		if err := json.Unmarshal(body, &remote); err != nil || strings.TrimSpace(remote.Message) == "" {
			return nil, apperror.Wrap(apperror.ErrTransport, "case API request failed",
				fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body)))
		}
		return nil, apperror.Newf(apperror.ErrRemote,
			"Unable to connect to the case API. Error reported by the case API: %s", remote.Message)
	}

	if trimmed := strings.TrimSpace(string(body)); trimmed == "" || trimmed == "null" {
		return nil, apperror.New(apperror.ErrRemote,
			"There was an unexpected error when trying to connect to the case API.")
	}

	var decoded apiResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, apperror.Wrap(apperror.ErrTransport, "failed to decode case API response", err)
	}
	return &decoded, nil
}

// maxLoggedBody bounds the response text kept in logs and errors.
const maxLoggedBody = 512

func truncate(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > maxLoggedBody {
		return text[:maxLoggedBody] + "..."
	}
	return text
}
