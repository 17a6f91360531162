// Package assets handles asset loading and caching.
//
// Relative paths are searched in the configured root directories, last root
// first. Remote sources (anything go-getter can fetch) are downloaded into a
// local cache directory before loading.
package assets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Faultbox/midgard-terrain/internal/logger"
)

var (
	// ErrNotFound is returned when no root holds the requested asset.
	ErrNotFound = errors.New("asset not found")
	// ErrUnsupportedFormat is returned for files no decoder understands.
	ErrUnsupportedFormat = errors.New("unsupported asset format")
)

// Manager handles asset loading from directories and remote sources.
type Manager struct {
	roots   []string
	fetcher *Fetcher
	cache   *Cache
	loads   singleflight.Group
	mu      sync.RWMutex
	log     *zap.Logger
}

// NewManager creates a new asset manager searching roots.
func NewManager(roots ...string) *Manager {
	return &Manager{
		roots: roots,
		cache: NewCache(),
		log:   logger.Named("assets"),
	}
}

// AddRoot adds a search directory with the highest priority.
func (m *Manager) AddRoot(dir string) {
	m.mu.Lock()
	m.roots = append(m.roots, dir)
	m.mu.Unlock()
}

// SetFetcher enables remote sources.
func (m *Manager) SetFetcher(f *Fetcher) {
	m.mu.Lock()
	m.fetcher = f
	m.mu.Unlock()
}

// Resolve maps an asset path to a local file.
func (m *Manager) Resolve(ctx context.Context, path string) (string, error) {
	m.mu.RLock()
	fetcher := m.fetcher
	roots := m.roots
	m.mu.RUnlock()

	if IsRemote(path) {
		if fetcher == nil {
			return "", fmt.Errorf("%w: %s (remote sources disabled)", ErrNotFound, path)
		}
		return fetcher.Fetch(ctx, path)
	}

	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return path, nil
	}

	for i := len(roots) - 1; i >= 0; i-- {
		candidate := filepath.Join(roots[i], path)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, path)
}

// Load reads an asset, from cache when possible. Concurrent loads of the
// same path share one read.
func (m *Manager) Load(ctx context.Context, path string) ([]byte, error) {
	if data, ok := m.cache.Get(path); ok {
		return data, nil
	}

	v, err, _ := m.loads.Do(path, func() (any, error) {
		local, err := m.Resolve(ctx, path)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(local)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", local, err)
		}
		m.cache.Set(path, data)
		m.log.Debug("asset loaded", zap.String("path", path), zap.Int("bytes", len(data)))
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Invalidate drops path from the cache so the next load reads it again.
func (m *Manager) Invalidate(path string) {
	m.cache.Delete(path)
}

// Close drops cached data.
func (m *Manager) Close() {
	m.cache.Clear()
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[string][]byte
	mu   sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Delete removes an item.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
