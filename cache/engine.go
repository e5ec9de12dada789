package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"initiativehub/config"
)

var (
	ErrCacheFull   = errors.New("cache is full")
	ErrUnsupported = errors.New("unsupported cache engine")
)

// Engine is the storage behind the config cache.
type Engine interface {
	// Get returns the stored bytes and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores value with a TTL; zero means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes keys; missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error

	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	Close() error
}

// New builds the engine named in cfg.
func New(cfg config.CacheConfig) (Engine, error) {
	switch cfg.Engine {
	case "", "memory":
		return NewMemoryCache(cfg.MaxItems), nil
	case "redis":
		return NewRedisCache(cfg.RedisAddr, cfg.RedisDB)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, cfg.Engine)
	}
}

// GetJSON decodes a cached JSON value into dst. A decode failure is treated as
// a miss.
func GetJSON(ctx context.Context, e Engine, key string, dst interface{}) bool {
	data, ok := e.Get(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

// SetJSON encodes value as JSON and stores it.
func SetJSON(ctx context.Context, e Engine, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}
	return e.Set(ctx, key, data, ttl)
}
