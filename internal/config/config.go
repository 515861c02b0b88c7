package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"case-connector/internal/apperror"
	"case-connector/internal/caseapi"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server      ServerConfig
	App         AppConfig
	CaseAPI     CaseAPIConfig
	TagAPI      TagAPIConfig
	Posting     PostingConfig
	Schedule    ScheduleConfig
	CursorDB    CursorDBConfig
	HealthCache HealthCacheConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"case-connector"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`

	// APIKeys guards the time posting and admin routes. Empty leaves them open.
	APIKeys []string `envconfig:"API_KEYS" default:""`
}

// CaseAPIConfig holds the remote case API settings.
type CaseAPIConfig struct {
	BaseURL      string        `envconfig:"CASE_API_BASE_URL"`
	APIKey       string        `envconfig:"CASE_API_KEY"`
	CaseType     string        `envconfig:"CASE_TYPE"`
	PostType     string        `envconfig:"CASE_POST_TYPE"`
	FieldMapping string        `envconfig:"CASE_POST_FIELD_MAPPING" default:"pid:pid,userId:userId,narrative:narrative,startDateTime:startDateTime,totalTimeSecs:totalTimeSecs,chargeableTimeSecs:chargeableTimeSecs,activityCode:activityCode"`
	URLSuffix    string        `envconfig:"CASE_URL_SUFFIX" default:"projekt/show/ID/"`
	Timeout      time.Duration `envconfig:"CASE_API_TIMEOUT" default:"30s"`
}

// TagAPIConfig holds the tag registry settings.
type TagAPIConfig struct {
	BaseURL   string        `envconfig:"TAG_API_BASE_URL"`
	APIKey    string        `envconfig:"TAG_API_KEY"`
	Path      string        `envconfig:"TAG_UPSERT_PATH" default:"/Cases/"`
	BatchSize int64         `envconfig:"TAG_UPSERT_BATCH_SIZE" default:"500"`
	Timeout   time.Duration `envconfig:"TAG_API_TIMEOUT" default:"30s"`
}

// PostingConfig holds time posting settings.
type PostingConfig struct {
	Timezone       string `envconfig:"TIMEZONE" default:"UTC"`
	IncludeSummary bool   `envconfig:"ADD_SUMMARY_TO_NARRATIVE" default:"false"`
}

// ScheduleConfig holds the engine schedules.
type ScheduleConfig struct {
	Enabled    bool          `envconfig:"SCHEDULER_ENABLED" default:"true"`
	Sync       string        `envconfig:"SYNC_SCHEDULE" default:"@every 1m"`
	Refresh    string        `envconfig:"REFRESH_SCHEDULE" default:"@every 5m"`
	JobTimeout time.Duration `envconfig:"SCHEDULER_JOB_TIMEOUT" default:"5m"`
}

// CursorDBConfig holds sync cursor store settings.
type CursorDBConfig struct {
	Type      string `envconfig:"CURSOR_DB_TYPE" default:"sqlite"` // sqlite, bolt, redis, postgres, mysql or mongodb
	Path      string `envconfig:"CURSOR_DB_PATH" default:"./data/cursors.db"`
	KeyPrefix string `envconfig:"CURSOR_KEY_PREFIX" default:"case"`

	// PostgreSQL and MySQL settings
	Host     string `envconfig:"CURSOR_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"CURSOR_DB_PORT" default:"0"`
	Name     string `envconfig:"CURSOR_DB_NAME" default:"connector"`
	User     string `envconfig:"CURSOR_DB_USER" default:""`
	Password string `envconfig:"CURSOR_DB_PASS" default:""`
	SSLMode  string `envconfig:"CURSOR_DB_SSLMODE" default:"disable"`

	// MongoDB settings
	MongoURI        string `envconfig:"MONGODB_URI" default:""`
	MongoDatabase   string `envconfig:"MONGODB_DATABASE" default:"connector"`
	MongoCollection string `envconfig:"MONGODB_COLLECTION" default:"connector_cursor"`

	// Redis settings, also used by the shared health cache
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// HealthCacheConfig holds readiness cache settings.
type HealthCacheConfig struct {
	Type string        `envconfig:"HEALTH_CACHE_TYPE" default:"memory"` // memory or redis
	TTL  time.Duration `envconfig:"HEALTH_CACHE_TTL" default:"30s"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CaseURLPrefix returns the URL prepended to a case id to build tag links.
func (c *CaseAPIConfig) CaseURLPrefix() string {
	base := c.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + strings.TrimPrefix(c.URLSuffix, "/")
}

// PostFieldMapping parses FieldMapping ("key:field,key:field").
func (c *CaseAPIConfig) PostFieldMapping() (map[string]string, error) {
	mapping := make(map[string]string)
	for _, entry := range strings.Split(c.FieldMapping, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, field, ok := strings.Cut(entry, ":")
		key, field = strings.TrimSpace(key), strings.TrimSpace(field)
		if !ok || key == "" || field == "" {
			return nil, apperror.Newf(apperror.ErrConfiguration,
				"Invalid CASE_POST_FIELD_MAPPING entry %q, expected key:field", entry)
		}
		mapping[key] = field
	}

	for _, key := range caseapi.RequiredFields {
		if _, ok := mapping[key]; !ok {
			return nil, apperror.Newf(apperror.ErrConfiguration,
				"CASE_POST_FIELD_MAPPING is missing required key %q", key)
		}
	}
	return mapping, nil
}

// Location returns the zone time is posted in.
func (p *PostingConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrConfiguration, "Invalid TIMEZONE "+p.Timezone, err)
	}
	return loc, nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (d *CursorDBConfig) PostgresDSN() string {
	port := d.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, port, d.Name, d.SSLMode)
}

// MySQLDSN returns the MySQL data source name.
func (d *CursorDBConfig) MySQLDSN() string {
	port := d.Port
	if port == 0 {
		port = 3306
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		d.User, d.Password, d.Host, port, d.Name)
}

// RedisAddress returns the Redis address in host:port format.
func (d *CursorDBConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", d.RedisHost, d.RedisPort)
}

// Validate reports the first setting the connector cannot start with.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"CASE_API_BASE_URL", c.CaseAPI.BaseURL},
		{"CASE_API_KEY", c.CaseAPI.APIKey},
		{"CASE_TYPE", c.CaseAPI.CaseType},
		{"CASE_POST_TYPE", c.CaseAPI.PostType},
		{"TAG_API_BASE_URL", c.TagAPI.BaseURL},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return apperror.Newf(apperror.ErrConfiguration, "%s is required", r.name)
		}
	}

	if c.TagAPI.BatchSize < 1 {
		return apperror.Newf(apperror.ErrConfiguration,
			"TAG_UPSERT_BATCH_SIZE must be at least 1, got %d", c.TagAPI.BatchSize)
	}
	if _, err := c.Posting.Location(); err != nil {
		return err
	}
	if _, err := c.CaseAPI.PostFieldMapping(); err != nil {
		return err
	}

	switch c.CursorDB.Type {
	case "sqlite", "bolt", "redis", "postgres", "postgresql", "mysql", "mongodb", "mongo":
	default:
		return apperror.Newf(apperror.ErrConfiguration, "Unsupported CURSOR_DB_TYPE %q", c.CursorDB.Type)
	}
	if (c.CursorDB.Type == "mongodb" || c.CursorDB.Type == "mongo") && c.CursorDB.MongoURI == "" {
		return apperror.New(apperror.ErrConfiguration, "MONGODB_URI is required for the mongodb cursor store")
	}
	return nil
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
