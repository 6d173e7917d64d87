// Package cache memoizes parsed trees by (path, mtime, format name) so
// a file touched repeatedly in one watch session is only parsed once
// per change, with concurrent requests for the same key collapsed into
// a single parse via singleflight.
package cache

import (
	"fmt"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/horiacristescu/nub/internal/tree"
)

// DefaultSize is the default number of entries kept.
const DefaultSize = 256

// Key identifies one cached parse result.
type Key struct {
	Path    string
	ModTime time.Time
	Format  string
}

func (k Key) string() string {
	return fmt.Sprintf("%s|%s|%d", k.Format, k.Path, k.ModTime.UnixNano())
}

// ParseFunc produces a tree for a cache miss.
type ParseFunc func() (*tree.Node, error)

// Cache is an LRU of parsed trees with singleflight-guarded population.
type Cache struct {
	lru    *lru.Cache[string, *tree.Node]
	flight singleflight.Group
}

// New builds a Cache holding at most size entries. size <= 0 uses
// DefaultSize.
func New(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	l, err := lru.New[string, *tree.Node](size)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return &Cache{lru: l}, nil
}

// Get returns the cached tree for key if present, without invoking fn.
func (c *Cache) Get(key Key) (*tree.Node, bool) {
	return c.lru.Get(key.string())
}

// GetOrParse returns the cached tree for key, or calls fn to produce
// and store one on a miss. Concurrent callers for the same key share a
// single fn invocation.
func (c *Cache) GetOrParse(key Key, fn ParseFunc) (*tree.Node, error) {
	k := key.string()
	if n, ok := c.lru.Get(k); ok {
		return n, nil
	}
	v, err, _ := c.flight.Do(k, func() (any, error) {
		n, err := fn()
		if err != nil {
			return nil, err
		}
		c.lru.Add(k, n)
		return n, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*tree.Node), nil
}

// Invalidate drops a single key, e.g. on a watch-detected change.
func (c *Cache) Invalidate(key Key) {
	c.lru.Remove(key.string())
}

// Purge clears every entry.
func (c *Cache) Purge() {
	c.lru.Purge()
}

// Len reports the number of entries currently cached.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// KeyForPath builds a Key from a file's current mtime on disk. Callers
// that already have an os.FileInfo (e.g. from a directory walk) should
// build Key directly instead of re-stating the file.
func KeyForPath(path, format string) (Key, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Key{}, fmt.Errorf("stat %q: %w", path, err)
	}
	return Key{Path: path, ModTime: info.ModTime(), Format: format}, nil
}
