// Package storage is the client's persistent key/value store, the Go
// counterpart of browser local storage. Values are opaque strings.
package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/roktofy/client/internal/config"
	"github.com/roktofy/client/internal/db"
)

// Storage defines the key/value operations every backend provides
type Storage interface {
	// Get returns the stored value and whether the key exists
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes the value, overwriting any previous one
	Set(ctx context.Context, key, value string) error
	// Remove deletes the key; removing a missing key is not an error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Open builds the backend selected by the configuration
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Storage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Storage {
	case config.StorageMemory:
		return NewMemory(), nil
	case config.StorageFile:
		return NewFile(cfg.StoragePath)
	case config.StorageSQLite:
		if err := ensureDir(cfg.StoragePath); err != nil {
			return nil, err
		}
		return openSQL(ctx, db.DriverSQLite, cfg.StoragePath, logger)
	case config.StoragePostgres:
		return openSQL(ctx, db.DriverPostgres, cfg.DatabaseURL, logger)
	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping failed: %w", err)
		}
		return NewRedis(client, DefaultRedisPrefix), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}

func openSQL(ctx context.Context, driver, dsn string, logger *zap.Logger) (Storage, error) {
	database, err := db.Open(ctx, driver, dsn, logger)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(database, driver, logger); err != nil {
		_ = database.Close()
		return nil, err
	}
	return NewSQL(database, driver), nil
}
