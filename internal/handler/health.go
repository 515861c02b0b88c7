package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"runtime"
	"time"

	"case-connector/internal/cache"
	"case-connector/pkg/response"
)

// ServiceName identifies this connector in status responses.
const ServiceName = "case-connector"

const readyCacheKey = "health:ready"

// StartTime tracks when the server started for uptime calculation
var StartTime = time.Now()

// CaseAPIChecker reports whether the case API answers.
type CaseAPIChecker interface {
	HealthCheck(ctx context.Context) bool
}

// StorePinger reports whether the cursor store is reachable.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// Config holds the dependencies of the health handlers.
type Config struct {
	CaseAPI  CaseAPIChecker
	Store    StorePinger
	Cache    cache.Cache
	CacheTTL time.Duration
	Version  string
}

// Handler contains shared HTTP handlers and their dependencies.
type Handler struct {
	cfg Config
}

// New creates a new handler.
func New(cfg Config) *Handler {
	if cfg.Cache == nil {
		cfg.Cache = cache.NewMemoryCache()
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 30 * time.Second
	}
	return &Handler{cfg: cfg}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// Health handles GET /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	response.OK(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   h.cfg.Version,
	})
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Ready     bool      `json:"ready"`
	Timestamp time.Time `json:"timestamp"`
	Checks    []Check   `json:"checks"`
}

// Check represents an individual readiness check.
type Check struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Ready handles GET /api/v1/ready. Results are cached so that frequent
// probes do not reach the case API every time.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data, err := h.cfg.Cache.GetOrSet(ctx, readyCacheKey, h.cfg.CacheTTL, func() ([]byte, error) {
		return json.Marshal(h.checkReady(ctx))
	})
	if err != nil {
		log.Printf("[Health] Readiness cache unavailable: %v", err)
		data, _ = json.Marshal(h.checkReady(ctx))
	}

	var resp ReadyResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		response.Error(w, err)
		return
	}

	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, status, resp)
}

func (h *Handler) checkReady(ctx context.Context) ReadyResponse {
	checks := []Check{
		{Name: "case_api", Status: h.caseAPIStatus(ctx)},
		{Name: "cursor_store", Status: h.storeStatus(ctx)},
	}

	allReady := true
	for _, check := range checks {
		if check.Status != "ok" {
			allReady = false
			break
		}
	}

	return ReadyResponse{
		Ready:     allReady,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	}
}

func (h *Handler) caseAPIStatus(ctx context.Context) string {
	if h.cfg.CaseAPI == nil {
		return "not_configured"
	}
	if !h.cfg.CaseAPI.HealthCheck(ctx) {
		return "unreachable"
	}
	return "ok"
}

func (h *Handler) storeStatus(ctx context.Context) string {
	if h.cfg.Store == nil {
		return "not_configured"
	}
	if err := h.cfg.Store.Ping(ctx); err != nil {
		log.Printf("[Health] Cursor store ping failed: %v", err)
		return "error"
	}
	return "ok"
}

// StatusChecks represents the checks in status response
type StatusChecks struct {
	CursorStore string  `json:"cursor_store"`
	MemoryMB    float64 `json:"memory_mb"`
}

// StatusResponse represents the unified status response for monitoring
type StatusResponse struct {
	Service       string       `json:"service"`
	Status        string       `json:"status"`
	Version       string       `json:"version"`
	Timestamp     string       `json:"timestamp"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	PingMS        int64        `json:"ping_ms"`
	Checks        StatusChecks `json:"checks"`
}

// Status handles GET /api/status - unified health check for monitoring
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	requestStart := time.Now()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	memoryMB := float64(memStats.Alloc) / 1024 / 1024

	storeStatus := h.storeStatus(r.Context())
	status := "ok"
	if storeStatus == "error" {
		status = "degraded"
	}

	resp := StatusResponse{
		Service:       ServiceName,
		Status:        status,
		Version:       h.cfg.Version,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		UptimeSeconds: int64(time.Since(StartTime).Seconds()),
		PingMS:        time.Since(requestStart).Milliseconds(),
		Checks: StatusChecks{
			CursorStore: storeStatus,
			MemoryMB:    float64(int(memoryMB*100)) / 100,
		},
	}

	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	response.OK(w, resp)
}
