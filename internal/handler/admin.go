package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"runtime"
	"time"

	"case-connector/internal/service"
	"case-connector/pkg/apierror"
	"case-connector/pkg/response"
	"case-connector/pkg/uid"
)

// EngineRunner runs the sync engines on demand.
type EngineRunner interface {
	RunSyncNow(ctx context.Context) (service.SyncReport, error)
	RunRefreshNow(ctx context.Context) (service.SyncReport, error)
	NextRuns() map[string]time.Time
}

// CursorReader reads the stored position of one sync stream.
type CursorReader interface {
	Snapshot(ctx context.Context) (service.CursorState, error)
}

// AdminHandler handles admin-related HTTP requests.
type AdminHandler struct {
	runner        EngineRunner
	syncCursor    CursorReader
	refreshCursor CursorReader
	dbType        string // Cursor store type: sqlite, bolt, redis, postgres, mysql or mongodb
	startTime     time.Time
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(runner EngineRunner, syncCursor, refreshCursor CursorReader, dbType string) *AdminHandler {
	return &AdminHandler{
		runner:        runner,
		syncCursor:    syncCursor,
		refreshCursor: refreshCursor,
		dbType:        dbType,
		startTime:     time.Now(),
	}
}

// RunSync handles POST /api/v1/admin/sync
func (h *AdminHandler) RunSync(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "sync", h.runner.RunSyncNow)
}

// RunRefresh handles POST /api/v1/admin/refresh
func (h *AdminHandler) RunRefresh(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "refresh", h.runner.RunRefreshNow)
}

func (h *AdminHandler) run(w http.ResponseWriter, r *http.Request, name string, fn func(context.Context) (service.SyncReport, error)) {
	runID := uid.Short()
	start := time.Now()
	log.Printf("[AdminHandler] Manual %s %s started", name, runID)

	report, err := fn(r.Context())
	if errors.Is(err, service.ErrAlreadyRunning) {
		response.Error(w, apierror.Conflict(name+" is already running"))
		return
	}
	if err != nil {
		log.Printf("[AdminHandler] Manual %s %s failed: %v", name, runID, err)
		response.Error(w, err)
		return
	}

	log.Printf("[AdminHandler] Manual %s %s finished in %s", name, runID, time.Since(start).Round(time.Millisecond))
	response.OK(w, map[string]interface{}{
		"run_id": runID,
		"engine": name,
		"report": report,
	})
}

// GetCursors handles GET /api/v1/admin/cursors
func (h *AdminHandler) GetCursors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	syncState, err := h.syncCursor.Snapshot(ctx)
	if err != nil {
		response.Error(w, err)
		return
	}
	refreshState, err := h.refreshCursor.Snapshot(ctx)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"sync":      syncState,
		"refresh":   refreshState,
		"next_runs": h.runner.NextRuns(),
	})
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := make(map[string]interface{})

	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["db_type"] = h.dbType

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":   float64(memStats.Alloc) / 1024 / 1024,
		"sys_mb":     float64(memStats.Sys) / 1024 / 1024,
		"num_gc":     memStats.NumGC,
		"goroutines": runtime.NumGoroutine(),
	}

	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}
