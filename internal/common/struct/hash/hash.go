// Released under an MIT license. See LICENSE.

// Package hash provides xylo's name to variable mapping type.
package hash

import (
	"sort"
	"sync"

	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/interface/reference"
	"github.com/xylo-lang/xylo/internal/common/struct/slot"
)

// T (hash) maps names to references.
type T struct {
	sync.RWMutex
	m map[string]reference.I
}

type hash = T

// New creates a new hash.
func New() *hash {
	return &hash{m: map[string]reference.I{}}
}

// Bind associates the name k with the existing reference r.
func (h *hash) Bind(k string, r reference.I) {
	h.Lock()
	defer h.Unlock()

	h.m[k] = r
}

// Del frees the name k from any association in the hash h.
func (h *hash) Del(k string) bool {
	if h == nil {
		return false
	}

	h.Lock()
	defer h.Unlock()

	_, ok := h.m[k]
	if !ok {
		return false
	}

	delete(h.m, k)

	return true
}

// Get retrieves the reference associated with the name k in the hash h.
func (h *hash) Get(k string) reference.I {
	if h == nil {
		return nil
	}

	h.RLock()
	defer h.RUnlock()

	return h.m[k]
}

// Names returns the names in the hash h in sorted order.
func (h *hash) Names() []string {
	h.RLock()
	defer h.RUnlock()

	names := make([]string, 0, len(h.m))
	for k := range h.m {
		names = append(names, k)
	}

	sort.Strings(names)

	return names
}

// Set associates the name k with a fresh slot holding the cell v.
func (h *hash) Set(k string, v cell.I) reference.I {
	r := slot.New(v)

	h.Bind(k, r)

	return r
}

// Size returns the number of entries in the hash h.
func (h *hash) Size() int {
	h.RLock()
	defer h.RUnlock()

	return len(h.m)
}
