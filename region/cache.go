package region

import (
	"path/filepath"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Cache keeps at most one open Handle per absolute region path. Acquire is safe for
// concurrent use; Clear must not run while an extraction on a cached handle is reading.
type Cache struct {
	logger   *zap.Logger
	resolver *Resolver

	mu      sync.Mutex
	handles map[string]*Handle
}

func NewCache(logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		logger:   logger,
		resolver: NewResolver(),
		handles:  make(map[string]*Handle),
	}
}

// Resolver returns the coordinate resolver shared with this cache.
func (c *Cache) Resolver() *Resolver { return c.resolver }

// Acquire returns the cached handle for path, opening it if it is absent or was closed.
// The cache lock is held across the open so two callers never open the same file.
func (c *Cache) Acquire(path string) (*Handle, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if _, err := c.resolver.Resolve(abs); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.handles[abs]; ok && !h.Closed() {
		return h, nil
	}
	h, err := OpenHandle(abs)
	if err != nil {
		return nil, err
	}
	c.handles[abs] = h
	c.logger.Debug("Region opened", zap.String("path", abs))
	return h, nil
}

// Clear closes and forgets every handle. A failing close is logged and the sweep carries
// on; the combined failures are returned.
func (c *Cache) Clear() (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for path, h := range c.handles {
		if closeErr := h.Close(); closeErr != nil {
			c.logger.Warn("Close region fail", zap.String("path", path), zap.Error(closeErr))
			err = multierr.Append(err, closeErr)
		}
		delete(c.handles, path)
	}
	return err
}

// Len reports how many open handles the cache holds.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, h := range c.handles {
		if !h.Closed() {
			n++
		}
	}
	return n
}

// Paths lists the cached region paths in sorted order.
func (c *Cache) Paths() []string {
	c.mu.Lock()
	paths := maps.Keys(c.handles)
	c.mu.Unlock()
	slices.Sort(paths)
	return paths
}
