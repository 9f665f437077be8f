package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Storage backends selectable through ROKTOFY_STORAGE
const (
	StorageFile     = "file"
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

// Config holds the client configuration
type Config struct {
	APIURL        string
	AuthScheme    string
	HTTPTimeout   time.Duration
	Storage       string
	StoragePath   string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads the client configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		APIURL:        strings.TrimRight(getenv("ROKTOFY_API_URL", "http://localhost:8080/api/v1"), "/"),
		AuthScheme:    getenv("ROKTOFY_AUTH_SCHEME", "JWT"),
		HTTPTimeout:   getenvDuration("ROKTOFY_HTTP_TIMEOUT", 30*time.Second),
		Storage:       strings.ToLower(getenv("ROKTOFY_STORAGE", StorageFile)),
		StoragePath:   os.Getenv("ROKTOFY_STORAGE_PATH"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
	}

	u, err := url.Parse(cfg.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("ROKTOFY_API_URL must be an absolute URL, got %q", cfg.APIURL)
	}

	if db := os.Getenv("REDIS_DB"); db != "" {
		n, err := strconv.Atoi(db)
		if err != nil {
			return nil, fmt.Errorf("REDIS_DB must be an integer: %w", err)
		}
		cfg.RedisDB = n
	}

	switch cfg.Storage {
	case StorageMemory:
	case StorageFile, StorageSQLite:
		if cfg.StoragePath == "" {
			cfg.StoragePath = defaultStoragePath(cfg.Storage)
		}
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is required for postgres storage")
		}
	case StorageRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR environment variable is required for redis storage")
		}
	default:
		return nil, fmt.Errorf("unknown ROKTOFY_STORAGE %q", cfg.Storage)
	}

	return cfg, nil
}

func defaultStoragePath(backend string) string {
	name := "storage.json"
	if backend == StorageSQLite {
		name = "storage.db"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".roktofy", name)
	}
	return filepath.Join(home, ".roktofy", name)
}

// MockConfig holds the configuration of the local API stand-in
type MockConfig struct {
	Port            string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	SeedDemo        bool
	LoginRateLimit  int
}

// LoadMock reads the mock server configuration from environment variables
func LoadMock() (*MockConfig, error) {
	cfg := &MockConfig{
		Port:            getenv("PORT", "8080"),
		AccessTokenTTL:  getenvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getenvDuration("REFRESH_TOKEN_TTL", 24*time.Hour),
		SeedDemo:        os.Getenv("MOCK_SEED_DEMO") == "true",
		LoginRateLimit:  20,
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	cfg.JWTSecret = jwtSecret

	if limit := os.Getenv("LOGIN_RATE_LIMIT"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("LOGIN_RATE_LIMIT must be a positive integer, got %q", limit)
		}
		cfg.LoginRateLimit = n
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	if val := os.Getenv(key + "_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
