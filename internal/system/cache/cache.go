// Released under an MIT license. See LICENSE.

// Package cache records the exports of loaded modules by resolved path.
package cache

import (
	"sort"
	"sync"

	"github.com/xylo-lang/xylo/internal/common/interface/cell"
)

// T (cache) maps absolute module paths to exports.
type T struct {
	sync.RWMutex
	modules map[string]cell.I
}

type cache = T

// New creates an empty cache.
func New() *cache {
	return &cache{modules: map[string]cell.I{}}
}

// Get returns the exports cached for path.
func (c *cache) Get(path string) (cell.I, bool) {
	c.RLock()
	defer c.RUnlock()

	v, ok := c.modules[path]

	return v, ok
}

// Paths returns the cached paths in sorted order.
func (c *cache) Paths() []string {
	c.RLock()
	defer c.RUnlock()

	paths := make([]string, 0, len(c.modules))
	for p := range c.modules {
		paths = append(paths, p)
	}

	sort.Strings(paths)

	return paths
}

// Put records v as the exports of path. The first entry for a path wins.
func (c *cache) Put(path string, v cell.I) cell.I {
	c.Lock()
	defer c.Unlock()

	if prev, ok := c.modules[path]; ok {
		return prev
	}

	c.modules[path] = v

	return v
}
