package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort string `env:"PORT" envDefault:"8080"`
	AppEnv     string `env:"APP_ENV" envDefault:"development"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseType   string `env:"DATABASE_TYPE" envDefault:"sqlite"`
	DatabaseURL    string `env:"DATABASE_URL"`
	DatabasePath   string `env:"DB_PATH" envDefault:"./playlearn.db"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"./migrations"`

	JWTSecret string `env:"JWT_SECRET"`

	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"30"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	CacheProvider   string        `env:"CACHE_PROVIDER" envDefault:"memory"`
	RedisURL        string        `env:"REDIS_URL"`
	CatalogCacheTTL time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"10m"`

	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"6h"`

	BackupS3Bucket   string `env:"BACKUP_S3_BUCKET"`
	BackupS3Region   string `env:"BACKUP_S3_REGION" envDefault:"auto"`
	BackupS3Endpoint string `env:"BACKUP_S3_ENDPOINT"`
	// Static credentials for the backup bucket. When unset the default AWS
	// credential chain is used.
	BackupS3AccessKeyID     string `env:"BACKUP_S3_ACCESS_KEY_ID"`
	BackupS3SecretAccessKey string `env:"BACKUP_S3_SECRET_ACCESS_KEY"`
}

// Load reads an optional .env file and then parses configuration from the
// environment, applying defaults for anything unset.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that have no safe default.
func (c *Config) Validate() error {
	switch c.DatabaseType {
	case "sqlite", "sqlite3":
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for %s", c.DatabaseType)
		}
	default:
		return fmt.Errorf("unsupported DATABASE_TYPE: %s", c.DatabaseType)
	}

	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.RateLimitRequests <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive")
	}
	switch c.CacheProvider {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when CACHE_PROVIDER=redis")
		}
	default:
		return fmt.Errorf("unsupported CACHE_PROVIDER: %s", c.CacheProvider)
	}
	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
