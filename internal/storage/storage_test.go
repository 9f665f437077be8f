package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roktofy/client/internal/config"
)

// exerciseStorage checks the contract shared by every backend
func exerciseStorage(t *testing.T, s Storage) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok, "missing key must report absent")

	require.NoError(t, s.Set(ctx, "authTokens", `{"access":"A"}`))
	v, ok, err := s.Get(ctx, "authTokens")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"access":"A"}`, v)

	require.NoError(t, s.Set(ctx, "authTokens", `{"access":"B"}`))
	v, _, err = s.Get(ctx, "authTokens")
	require.NoError(t, err)
	assert.Equal(t, `{"access":"B"}`, v, "Set must overwrite")

	require.NoError(t, s.Remove(ctx, "authTokens"))
	_, ok, err = s.Get(ctx, "authTokens")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Remove(ctx, "authTokens"), "removing a missing key is not an error")
}

func TestMemory(t *testing.T) {
	exerciseStorage(t, NewMemory())
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "storage.json")
	s, err := NewFile(path)
	require.NoError(t, err)
	exerciseStorage(t, s)
}

func TestFilePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storage.json")

	first, err := NewFile(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "authTokens", "value"))

	second, err := NewFile(path)
	require.NoError(t, err)
	v, ok, err := second.Get(ctx, "authTokens")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileCorruptReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("not-json"), 0o600))

	s, err := NewFile(path)
	require.NoError(t, err)
	_, ok, err := s.Get(ctx, "authTokens")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "authTokens", "fresh"))
	v, ok, err := s.Get(ctx, "authTokens")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "fresh", v)
}

func TestSQLite(t *testing.T) {
	cfg := &config.Config{
		Storage:     config.StorageSQLite,
		StoragePath: filepath.Join(t.TempDir(), "storage.db"),
	}
	s, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	exerciseStorage(t, s)
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping postgres storage test")
	}
	cfg := &config.Config{Storage: config.StoragePostgres, DatabaseURL: dsn}
	s, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	exerciseStorage(t, s)
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping redis storage test")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	s := NewRedis(client, "roktofy-test:")
	t.Cleanup(func() { s.Close() })
	exerciseStorage(t, s)
}

func TestSQLBindPostgres(t *testing.T) {
	s := &sqlStorage{driver: "postgres"}
	assert.Equal(t, "SELECT value FROM t WHERE a = $1 AND b = $2", s.bind("SELECT value FROM t WHERE a = ? AND b = ?"))

	s = &sqlStorage{driver: "sqlite"}
	assert.Equal(t, "a = ?", s.bind("a = ?"))
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{Storage: "tape"}, nil)
	require.Error(t, err)
}
