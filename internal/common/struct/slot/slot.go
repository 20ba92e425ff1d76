// Released under an MIT license. See LICENSE.

// Package slot provides xylo's variable type.
package slot

import (
	"sync"

	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/interface/reference"
)

// T (slot) holds a cell value and the kinds declared for it.
type T struct {
	sync.RWMutex
	c     cell.I
	kinds []string
}

type slot = T

// New creates a new slot with the cell c.
func New(c cell.I) *slot {
	return &slot{c: c}
}

// Get returns the cell in slot s.
func (s *slot) Get() cell.I {
	s.RLock()
	defer s.RUnlock()

	return s.c
}

// Kinds returns the kinds declared for slot s.
func (s *slot) Kinds() []string {
	s.RLock()
	defer s.RUnlock()

	return s.kinds
}

// Restrict records the kinds declared for slot s.
func (s *slot) Restrict(kinds []string) {
	s.Lock()
	defer s.Unlock()

	s.kinds = kinds
}

// Set replaces the cell in slot s with the cell c.
func (s *slot) Set(c cell.I) {
	s.Lock()
	defer s.Unlock()

	s.c = c
}

// A compiler-checked list of interfaces this type satisfies. Never called.
func implements() { //nolint:deadcode,unused
	var t slot

	// The slot type is a reference.
	_ = reference.I(&t)
}
