package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"case-connector/pkg/uid"

	"github.com/robfig/cron/v3"
)

// ErrAlreadyRunning is returned by manual runs while the same engine is busy.
var ErrAlreadyRunning = errors.New("engine is already running")

// DiscoveryEngine runs one discovery pass.
type DiscoveryEngine interface {
	SyncNewCases(ctx context.Context) (SyncReport, error)
}

// RefreshEngine runs one refresh pass.
type RefreshEngine interface {
	RefreshCases(ctx context.Context) (SyncReport, error)
}

// SchedulerConfig holds the schedules of both engines.
type SchedulerConfig struct {
	// SyncSchedule is a cron spec or descriptor. Default: @every 1m
	SyncSchedule string

	// RefreshSchedule is a cron spec or descriptor. Default: @every 5m
	RefreshSchedule string

	// JobTimeout bounds a single run. Default: 5 minutes
	JobTimeout time.Duration

	Location *time.Location
}

// DefaultSchedulerConfig returns the default schedules.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		SyncSchedule:    "@every 1m",
		RefreshSchedule: "@every 5m",
		JobTimeout:      5 * time.Minute,
		Location:        time.UTC,
	}
}

// SyncScheduler periodically triggers the discovery and refresh engines.
// Each engine has its own lock so a run is never started while the
// previous run of the same engine is still in progress.
type SyncScheduler struct {
	discovery DiscoveryEngine
	refresh   RefreshEngine
	config    SchedulerConfig
	cron      *cron.Cron

	syncMu    sync.Mutex
	refreshMu sync.Mutex

	entries   map[string]cron.EntryID
	mu        sync.Mutex
	isRunning bool
}

// NewSyncScheduler creates a scheduler and registers both jobs. An invalid
// schedule is reported here rather than at Start.
func NewSyncScheduler(syncEngine DiscoveryEngine, refreshEngine RefreshEngine, config SchedulerConfig) (*SyncScheduler, error) {
	defaults := DefaultSchedulerConfig()
	if config.SyncSchedule == "" {
		config.SyncSchedule = defaults.SyncSchedule
	}
	if config.RefreshSchedule == "" {
		config.RefreshSchedule = defaults.RefreshSchedule
	}
	if config.JobTimeout == 0 {
		config.JobTimeout = defaults.JobTimeout
	}
	if config.Location == nil {
		config.Location = defaults.Location
	}

	logger := cron.VerbosePrintfLogger(log.New(log.Writer(), "[SyncScheduler] ", log.LstdFlags))
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

	s := &SyncScheduler{
		discovery: syncEngine,
		refresh:   refreshEngine,
		config:    config,
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(config.Location),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		entries: make(map[string]cron.EntryID),
	}

	syncID, err := s.cron.AddFunc(config.SyncSchedule, s.runSync)
	if err != nil {
		return nil, fmt.Errorf("invalid sync schedule %q: %w", config.SyncSchedule, err)
	}
	s.entries["sync"] = syncID

	refreshID, err := s.cron.AddFunc(config.RefreshSchedule, s.runRefresh)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", config.RefreshSchedule, err)
	}
	s.entries["refresh"] = refreshID

	return s, nil
}

// Start begins the scheduler.
func (s *SyncScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}
	s.isRunning = true
	s.cron.Start()

	log.Printf("[SyncScheduler] Started - Sync: %s, Refresh: %s, Timeout: %v",
		s.config.SyncSchedule, s.config.RefreshSchedule, s.config.JobTimeout)
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *SyncScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	log.Printf("[SyncScheduler] Stopped")
}

// NextRuns returns the next activation time of each job. Times are zero
// until the scheduler has been started.
func (s *SyncScheduler) NextRuns() map[string]time.Time {
	next := make(map[string]time.Time, len(s.entries))
	for name, id := range s.entries {
		next[name] = s.cron.Entry(id).Next
	}
	return next
}

func (s *SyncScheduler) runSync() {
	ctx, cancel := context.WithTimeout(uid.WithContext(context.Background(), uid.New()), s.config.JobTimeout)
	defer cancel()

	if _, err := s.RunSyncNow(ctx); err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			log.Printf("[SyncScheduler] Sync still running, skipping")
			return
		}
		log.Printf("[SyncScheduler] Error during sync: %v", err)
	}
}

func (s *SyncScheduler) runRefresh() {
	ctx, cancel := context.WithTimeout(uid.WithContext(context.Background(), uid.New()), s.config.JobTimeout)
	defer cancel()

	if _, err := s.RunRefreshNow(ctx); err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			log.Printf("[SyncScheduler] Refresh still running, skipping")
			return
		}
		log.Printf("[SyncScheduler] Error during refresh: %v", err)
	}
}

// RunSyncNow triggers an immediate discovery run.
func (s *SyncScheduler) RunSyncNow(ctx context.Context) (SyncReport, error) {
	if !s.syncMu.TryLock() {
		return SyncReport{}, ErrAlreadyRunning
	}
	defer s.syncMu.Unlock()

	report, err := s.discovery.SyncNewCases(ctx)
	if err == nil && report.CasesSynced > 0 {
		log.Printf("[SyncScheduler] Synced %d new cases", report.CasesSynced)
	}
	return report, err
}

// RunRefreshNow triggers an immediate refresh run.
func (s *SyncScheduler) RunRefreshNow(ctx context.Context) (SyncReport, error) {
	if !s.refreshMu.TryLock() {
		return SyncReport{}, ErrAlreadyRunning
	}
	defer s.refreshMu.Unlock()

	return s.refresh.RefreshCases(ctx)
}
