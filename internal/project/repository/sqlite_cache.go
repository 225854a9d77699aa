package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schemaKV = `
create table if not exists kv (
	key        text primary key,
	value      text not null,
	updated_at text not null
);`

// SQLiteCache keeps the local backup in a single-table SQLite database.
type SQLiteCache struct {
	db  *sql.DB
	key string
}

// OpenSQLiteCache opens (or creates) the cache database at path.
func OpenSQLiteCache(ctx context.Context, path, key string) (*SQLiteCache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaKV); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite cache: %w", err)
	}

	return &SQLiteCache{db: db, key: key}, nil
}

func (c *SQLiteCache) Get(ctx context.Context) (string, bool, error) {
	var value string
	err := c.db.QueryRowContext(ctx, `select value from kv where key = ?`, c.key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read sqlite cache: %w", err)
	}
	return value, true, nil
}

func (c *SQLiteCache) Set(ctx context.Context, value string) error {
	const q = `
insert into kv (key, value, updated_at) values (?, ?, ?)
on conflict(key) do update set value = excluded.value, updated_at = excluded.updated_at;
`
	if _, err := c.db.ExecContext(ctx, q, c.key, value, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("write sqlite cache: %w", err)
	}
	return nil
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
