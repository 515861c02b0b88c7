package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"case-connector/internal/cache"
	"case-connector/internal/caseapi"
	"case-connector/internal/config"
	"case-connector/internal/narrative"
	"case-connector/internal/repository"
	"case-connector/internal/service"
	"case-connector/internal/tagapi"

	"github.com/redis/go-redis/v9"
)

// app holds every long lived component built from one configuration.
type app struct {
	cfg *config.Config

	redisClient *redis.Client
	cursors     repository.CursorRepository
	healthCache cache.Cache

	caseClient *caseapi.Client
	tagClient  *tagapi.Client

	discovery *service.SyncService
	refresh   *service.RefreshService
	poster    *service.TimePostService
	scheduler *service.SyncScheduler
}

// newApp builds the connector. Callers must call close.
func newApp(cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	if cfg.CursorDB.Type == repository.StoreRedis || cfg.HealthCache.Type == "redis" {
		client, err := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.CursorDB.RedisAddress(),
			Password: cfg.CursorDB.RedisPassword,
			DB:       cfg.CursorDB.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		a.redisClient = client
		log.Println("Redis client initialized")
	}

	cursors, err := openCursorRepository(cfg.CursorDB, a.redisClient)
	if err != nil {
		a.close()
		return nil, err
	}
	a.cursors = cursors

	if cfg.HealthCache.Type == "redis" {
		a.healthCache = cache.NewRedisCache(a.redisClient, "connector:cache:")
	} else {
		a.healthCache = cache.NewMemoryCache()
	}

	mapping, err := cfg.CaseAPI.PostFieldMapping()
	if err != nil {
		a.close()
		return nil, err
	}
	loc, err := cfg.Posting.Location()
	if err != nil {
		a.close()
		return nil, err
	}

	a.caseClient = caseapi.NewClient(caseapi.Config{
		BaseURL:      cfg.CaseAPI.BaseURL,
		APIKey:       cfg.CaseAPI.APIKey,
		CaseType:     cfg.CaseAPI.CaseType,
		FieldMapping: mapping,
		Timeout:      cfg.CaseAPI.Timeout,
	})
	a.tagClient = tagapi.NewClient(cfg.TagAPI.BaseURL, cfg.TagAPI.APIKey, cfg.TagAPI.Timeout)

	feed := service.FeedConfig{
		CaseType:      cfg.CaseAPI.CaseType,
		BatchSize:     cfg.TagAPI.BatchSize,
		TagPath:       cfg.TagAPI.Path,
		CaseURLPrefix: cfg.CaseAPI.CaseURLPrefix(),
	}
	prefix := cfg.CursorDB.KeyPrefix
	a.discovery = service.NewSyncService(a.caseClient, a.tagClient, service.NewDiscoveryCursor(a.cursors, prefix), feed)
	a.refresh = service.NewRefreshService(a.caseClient, a.tagClient, service.NewRefreshCursor(a.cursors, prefix), feed)

	a.poster = service.NewTimePostService(a.caseClient, narrative.NewRenderer(cfg.Posting.IncludeSummary), service.TimePostConfig{
		CaseType: cfg.CaseAPI.CaseType,
		PostType: cfg.CaseAPI.PostType,
		TagPath:  cfg.TagAPI.Path,
		Location: loc,
	})

	a.scheduler, err = service.NewSyncScheduler(a.discovery, a.refresh, service.SchedulerConfig{
		SyncSchedule:    cfg.Schedule.Sync,
		RefreshSchedule: cfg.Schedule.Refresh,
		JobTimeout:      cfg.Schedule.JobTimeout,
		Location:        loc,
	})
	if err != nil {
		a.close()
		return nil, err
	}

	return a, nil
}

func (a *app) close() {
	if a.cursors != nil {
		if err := a.cursors.Close(); err != nil {
			log.Printf("Failed to close cursor store: %v", err)
		}
	}
	if a.redisClient != nil {
		_ = a.redisClient.Close()
	}
}

// openCursorRepository opens the cursor store selected by CURSOR_DB_TYPE.
// redisClient is only used by the redis store.
func openCursorRepository(cfg config.CursorDBConfig, redisClient *redis.Client) (repository.CursorRepository, error) {
	switch cfg.Type {
	case repository.StoreMongoDB, "mongo":
		repo, err := repository.NewMongoDBCursorRepository(cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MongoDB cursor store: %w", err)
		}
		log.Println("MongoDB cursor store initialized")
		return repo, nil
	case repository.StorePostgres, "postgresql":
		repo, err := repository.NewPostgresCursorRepository(cfg.PostgresDSN())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL cursor store: %w", err)
		}
		log.Println("PostgreSQL cursor store initialized")
		return repo, nil
	case repository.StoreMySQL:
		repo, err := repository.NewMySQLCursorRepository(cfg.MySQLDSN())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MySQL cursor store: %w", err)
		}
		log.Println("MySQL cursor store initialized")
		return repo, nil
	case repository.StoreRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("redis cursor store requires a redis client")
		}
		log.Println("Redis cursor store initialized")
		return repository.NewRedisCursorRepository(redisClient, ""), nil
	case repository.StoreBolt:
		if err := ensureDir(cfg.Path); err != nil {
			return nil, err
		}
		repo, err := repository.NewBoltCursorRepository(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Bolt cursor store: %w", err)
		}
		log.Println("Bolt cursor store initialized")
		return repo, nil
	default: // sqlite
		if err := ensureDir(cfg.Path); err != nil {
			return nil, err
		}
		repo, err := repository.NewSQLiteCursorRepository(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite cursor store: %w", err)
		}
		log.Println("SQLite cursor store initialized")
		return repo, nil
	}
}

// ensureDir creates the directory holding an embedded database file.
func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	return nil
}

// loadApp loads configuration and builds the connector.
func loadApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return newApp(cfg)
}

func commandContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}
