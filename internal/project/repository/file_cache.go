package repository

import (
	"context"
	"os"
	"path/filepath"
)

// FileCache keeps the local backup as one file per key.
type FileCache struct {
	dir string
	key string
}

func NewFileCache(dir, key string) *FileCache {
	return &FileCache{dir: dir, key: key}
}

// Path returns the full path to the cache file.
func (c *FileCache) Path() string {
	return filepath.Join(c.dir, c.key+".json")
}

func (c *FileCache) Get(ctx context.Context) (string, bool, error) {
	data, err := os.ReadFile(c.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

// Set writes atomically: temp file, then rename.
func (c *FileCache) Set(ctx context.Context, value string) error {
	if err := os.MkdirAll(c.dir, 0o700); err != nil {
		return err
	}

	path := c.Path()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
