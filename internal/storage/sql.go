package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roktofy/client/internal/db"
)

type sqlStorage struct {
	db     *sql.DB
	driver string
}

// NewSQL creates a Storage over the kv_storage table. The table must exist
// (see db.Migrate).
func NewSQL(database *sql.DB, driver string) Storage {
	return &sqlStorage{db: database, driver: driver}
}

// bind rewrites ? placeholders to $n for postgres
func (s *sqlStorage) bind(query string) string {
	if s.driver != db.DriverPostgres {
		return query
	}
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, fmt.Sprintf("$%d", n)...)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}

func (s *sqlStorage) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.bind(`SELECT value FROM kv_storage WHERE key = ?`), key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("query storage key: %w", err)
	}
	return value, true, nil
}

func (s *sqlStorage) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, s.bind(`
		INSERT INTO kv_storage (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`), key, value)
	if err != nil {
		return fmt.Errorf("upsert storage key: %w", err)
	}
	return nil
}

func (s *sqlStorage) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.bind(`DELETE FROM kv_storage WHERE key = ?`), key); err != nil {
		return fmt.Errorf("delete storage key: %w", err)
	}
	return nil
}

func (s *sqlStorage) Close() error {
	return s.db.Close()
}
