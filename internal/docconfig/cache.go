package docconfig

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/a3tai/mcp-official-forms/internal/jurisdiction"
)

type cacheKey struct {
	documentType string
	jurisdiction jurisdiction.Key
}

func (k cacheKey) String() string {
	return k.documentType + "|" + string(k.jurisdiction)
}

// Cache memoizes loaded configs per (document type, canonical jurisdiction).
// Entries are never invalidated: the underlying data is compiled in. Failed
// loads are not cached. A Cache belongs to the loaders it is handed to; tests
// get isolation by constructing their own.
type Cache struct {
	mu      sync.RWMutex
	entries map[cacheKey]*DocumentConfig
	group   singleflight.Group
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]*DocumentConfig)}
}

func (c *Cache) get(key cacheKey) (*DocumentConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cfg, ok := c.entries[key]
	return cfg, ok
}

// getOrLoad returns the cached config or runs load once for concurrent
// callers of the same key.
func (c *Cache) getOrLoad(key cacheKey, load func() (*DocumentConfig, error)) (*DocumentConfig, error) {
	if cfg, ok := c.get(key); ok {
		return cfg, nil
	}

	v, err, _ := c.group.Do(key.String(), func() (interface{}, error) {
		if cfg, ok := c.get(key); ok {
			return cfg, nil
		}
		cfg, err := load()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = cfg
		c.mu.Unlock()
		return cfg, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*DocumentConfig), nil
}

// Len returns the number of cached configs
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
