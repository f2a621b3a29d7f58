package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/damon-houk/yc-central/internal/infrastructure/logger"
)

type Config struct {
	Provider  Provider
	RateLimit RateLimit
	Retry     Retry
	Cache     Cache
	Log       Log
}

type Provider struct {
	BaseURL      string        `env:"YC_PROVIDER_URL" env-default:"https://www.alphavantage.co"`
	APIKeyEnv    string        `env:"YC_API_KEY_ENV" env-default:"ALPHAVANTAGE_API_KEY"`
	Timeout      time.Duration `env:"YC_HTTP_TIMEOUT" env-default:"30s"`
	Interval     string        `env:"YC_INTERVAL" env-default:"daily"`
	MaxRangeDays int           `env:"YC_MAX_RANGE_DAYS" env-default:"366"`
}

type RateLimit struct {
	Requests int           `env:"YC_RATE_LIMIT_REQUESTS" env-default:"5"`
	Window   time.Duration `env:"YC_RATE_LIMIT_WINDOW" env-default:"1m"`
}

type Retry struct {
	MaxAttempts int           `env:"YC_RETRY_MAX_ATTEMPTS" env-default:"5"`
	BaseDelay   time.Duration `env:"YC_RETRY_BASE_DELAY" env-default:"1s"`
	MaxDelay    time.Duration `env:"YC_RETRY_MAX_DELAY" env-default:"32s"`
}

type Cache struct {
	Backend       string        `env:"YC_CACHE_BACKEND" env-default:"none"`
	TTL           time.Duration `env:"YC_CACHE_TTL" env-default:"24h"`
	BadgerPath    string        `env:"YC_CACHE_BADGER_PATH" env-default:"./data"`
	RedisAddr     string        `env:"YC_CACHE_REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string        `env:"YC_CACHE_REDIS_PASSWORD"`
	RedisDB       int           `env:"YC_CACHE_REDIS_DB" env-default:"0"`
}

type Log struct {
	Level string `env:"YC_LOG_LEVEL" env-default:"WARN"`
}

// Cache backends
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheBadger = "badger"
	CacheRedis  = "redis"
)

var intervals = map[string]bool{"daily": true, "weekly": true, "monthly": true}

// Load reads configuration from the environment. envFile, when not empty, is
// loaded first; a missing file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the configuration with every default applied and no
// environment overrides
func Default() *Config {
	return &Config{
		Provider: Provider{
			BaseURL:      "https://www.alphavantage.co",
			APIKeyEnv:    "ALPHAVANTAGE_API_KEY",
			Timeout:      30 * time.Second,
			Interval:     "daily",
			MaxRangeDays: 366,
		},
		RateLimit: RateLimit{Requests: 5, Window: time.Minute},
		Retry:     Retry{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: 32 * time.Second},
		Cache: Cache{
			Backend:    CacheNone,
			TTL:        24 * time.Hour,
			BadgerPath: "./data",
			RedisAddr:  "localhost:6379",
		},
		Log: Log{Level: string(logger.WarnLevel)},
	}
}

// Validate checks value ranges that struct tags cannot express
func (c *Config) Validate() error {
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider base URL must not be empty")
	}
	if c.Provider.APIKeyEnv == "" {
		return fmt.Errorf("API key environment variable name must not be empty")
	}
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("HTTP timeout must be positive, got %s", c.Provider.Timeout)
	}
	if !intervals[c.Provider.Interval] {
		return fmt.Errorf("interval must be one of daily, weekly, monthly, got %q", c.Provider.Interval)
	}
	if c.Provider.MaxRangeDays <= 0 {
		return fmt.Errorf("max range days must be positive, got %d", c.Provider.MaxRangeDays)
	}
	if c.RateLimit.Requests < 0 || (c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit %d per %s", c.RateLimit.Requests, c.RateLimit.Window)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.BaseDelay < 0 || c.Retry.MaxDelay < c.Retry.BaseDelay {
		return fmt.Errorf("invalid retry delays base=%s max=%s", c.Retry.BaseDelay, c.Retry.MaxDelay)
	}
	switch c.Cache.Backend {
	case CacheNone, CacheMemory, CacheBadger, CacheRedis:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// APIKey resolves the provider credential from the configured variable name
func (c *Config) APIKey() string {
	return os.Getenv(c.Provider.APIKeyEnv)
}
