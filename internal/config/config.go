package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// Upstream listing site
	BaseURL      string        `envconfig:"BASE_URL" default:"https://livetv.sx"`
	ScheduleURL  string        `envconfig:"SCHEDULE_URL" default:"https://livetv.sx/enx/allupcomingsports/1/"`
	FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"15s"`
	// The upstream host serves a self-signed certificate. Verification
	// is disabled on purpose; the flag keeps that choice visible and
	// reversible rather than a silent default.
	InsecureSkipVerify bool `envconfig:"INSECURE_SKIP_VERIFY" default:"true"`

	// Enrichment worker pool
	EnrichConcurrency int           `envconfig:"ENRICH_CONCURRENCY" default:"10"`
	EnrichTimeout     time.Duration `envconfig:"ENRICH_TIMEOUT" default:"30s"`

	// Snapshot persistence
	SnapshotPath string `envconfig:"SNAPSHOT_PATH" default:"fixtures.json"`

	// Database (optional run history; empty host disables it)
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:""`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"matchcast"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"matchcast_user"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" default:""`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Redis (optional snapshot mirror; empty host disables it)
	RedisHost     string        `envconfig:"REDIS_HOST" default:""`
	RedisPort     int           `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	RedisKey      string        `envconfig:"REDIS_KEY" default:"matchcast:snapshot"`
	RedisTTL      time.Duration `envconfig:"REDIS_TTL" default:"1h"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Read-only API
	APIPort int `envconfig:"API_PORT" default:"8080"`

	// Scheduler
	EnableScheduler    bool   `envconfig:"ENABLE_SCHEDULER" default:"true"`
	InitialSyncEnabled bool   `envconfig:"INITIAL_SYNC_ENABLED" default:"true"`
	ScrapeCron         string `envconfig:"SCRAPE_CRON" default:"*/30 * * * *"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if in development mode
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("BASE_URL is required")
	}

	if c.ScheduleURL == "" {
		return fmt.Errorf("SCHEDULE_URL is required")
	}

	if c.EnrichConcurrency < 1 {
		return fmt.Errorf("ENRICH_CONCURRENCY must be >= 1, got %d", c.EnrichConcurrency)
	}

	if c.SnapshotPath == "" {
		return fmt.Errorf("SNAPSHOT_PATH is required")
	}

	return nil
}

// DatabaseEnabled reports whether a run-history database is configured.
func (c *Config) DatabaseEnabled() bool {
	return c.DatabaseHost != ""
}

// RedisEnabled reports whether a Redis snapshot mirror is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MustLoad loads configuration or panics on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
