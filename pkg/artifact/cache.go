package artifact

import (
	"path/filepath"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/vanderheijden86/clusterboard/pkg/debug"
	"github.com/vanderheijden86/clusterboard/pkg/model"
)

// LoaderFunc loads one bundle from a path.
type LoaderFunc func(path string) (*model.Bundle, error)

// Cache holds loaded bundles keyed by absolute path.
// Thread-safe; concurrent Gets for the same path share a single load.
// Failed loads are not cached.
type Cache struct {
	load  LoaderFunc
	group singleflight.Group
	loads atomic.Int64

	mu      sync.RWMutex
	bundles map[string]*model.Bundle
}

// NewCache creates a cache backed by Load.
func NewCache() *Cache {
	return NewCacheWithLoader(Load)
}

// NewCacheWithLoader creates a cache backed by a custom loader.
func NewCacheWithLoader(load LoaderFunc) *Cache {
	return &Cache{
		load:    load,
		bundles: make(map[string]*model.Bundle),
	}
}

// Get returns the bundle for path, loading it on first use.
func (c *Cache) Get(path string) (*model.Bundle, error) {
	key := cacheKey(path)
	if b, ok := c.lookup(key); ok {
		debug.Log("artifact cache hit: %s", key)
		return b, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if b, ok := c.lookup(key); ok {
			return b, nil
		}
		c.loads.Add(1)
		b, err := c.load(path)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.bundles[key] = b
		c.mu.Unlock()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Bundle), nil
}

// Loads reports how many times the underlying loader ran.
func (c *Cache) Loads() int64 {
	return c.loads.Load()
}

// Len returns the number of cached bundles.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.bundles)
}

func (c *Cache) lookup(key string) (*model.Bundle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.bundles[key]
	return b, ok
}

func cacheKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
