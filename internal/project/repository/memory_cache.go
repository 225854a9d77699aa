package repository

import (
	"context"
	"sync"
)

// MemoryCache is an in-process LocalCache, used by tests and dry runs.
type MemoryCache struct {
	mu     sync.Mutex
	value  string
	ok     bool
	writes int
	err    error
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Get(ctx context.Context) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", false, c.err
	}
	return c.value, c.ok, nil
}

func (c *MemoryCache) Set(ctx context.Context, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.value, c.ok = value, true
	c.writes++
	return nil
}

// Fail makes every later call return err; nil restores normal behaviour.
func (c *MemoryCache) Fail(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

// Writes counts successful Set calls.
func (c *MemoryCache) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}
