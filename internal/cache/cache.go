package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Cache stores encoded values with an expiry
type Cache interface {
	// Get returns the value for key and whether it was present
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Config selects and configures a cache provider
type Config struct {
	Provider string // "memory" or "redis"
	RedisURL string
}

// New builds the cache named by cfg.Provider
func New(cfg Config, logger *zap.Logger) (Cache, error) {
	switch cfg.Provider {
	case "", "memory":
		return NewMemoryCache(), nil
	case "redis":
		return NewRedisCache(cfg.RedisURL, logger)
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", cfg.Provider)
	}
}
