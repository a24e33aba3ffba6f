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
	// Server settings
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	Port string `envconfig:"PORT" default:"8080"`

	// Database settings
	DatabaseDriver string `envconfig:"DATABASE_DRIVER" default:"sqlite"`
	DatabasePath   string `envconfig:"DATABASE_PATH" default:"./data/court_cases.db"`
	DatabaseDSN    string `envconfig:"DATABASE_DSN"`

	// Logging settings
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// Cache settings
	CacheBackend string        `envconfig:"CACHE_BACKEND" default:"memory"`
	CacheSize    int           `envconfig:"CACHE_SIZE" default:"1000"`
	CacheTTL     time.Duration `envconfig:"CACHE_TTL" default:"30m"`
	RedisURL     string        `envconfig:"REDIS_URL"`

	// Court settings
	CourtBaseURL string `envconfig:"COURT_BASE_URL" default:"https://districts.ecourts.gov.in/delhi"`
	CourtName    string `envconfig:"COURT_NAME" default:"Delhi District Courts"`

	// Fetch adapter settings
	Adapter        string        `envconfig:"ADAPTER" default:"demo"`
	AdapterURL     string        `envconfig:"ADAPTER_URL"`
	AdapterRetries int           `envconfig:"ADAPTER_RETRIES" default:"2"`
	FetchTimeout   time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`

	// Browser settings, used by the browser adapter only
	HeadlessMode bool   `envconfig:"HEADLESS_MODE" default:"true"`
	UserAgent    string `envconfig:"USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"`
	BrowserPath  string `envconfig:"ROD_BROWSER_PATH"`

	// API settings
	APIRateLimit  int           `envconfig:"API_RATE_LIMIT" default:"100"`
	APIRateWindow time.Duration `envconfig:"API_RATE_WINDOW" default:"60s"`
}

// Load reads configuration from the .env file (when present) and the
// environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// Not an error if .env doesn't exist
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings that cannot be expressed as defaults.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite":
		if c.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH is required for the sqlite driver")
		}
	case "postgres":
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER: %s", c.DatabaseDriver)
	}

	switch c.CacheBackend {
	case "memory", "none":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis cache backend")
		}
	default:
		return fmt.Errorf("unsupported CACHE_BACKEND: %s", c.CacheBackend)
	}

	switch c.Adapter {
	case "demo", "browser":
	case "http":
		if c.AdapterURL == "" {
			return fmt.Errorf("ADAPTER_URL is required for the http adapter")
		}
	default:
		return fmt.Errorf("unsupported ADAPTER: %s", c.Adapter)
	}

	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive")
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("CACHE_SIZE must be positive")
	}
	if c.AdapterRetries < 0 {
		return fmt.Errorf("ADAPTER_RETRIES must not be negative")
	}
	if c.APIRateLimit < 0 || c.APIRateWindow <= 0 {
		return fmt.Errorf("invalid API rate limit settings")
	}

	return nil
}
