// Released under an MIT license. See LICENSE.

// Package literal defines the interface for xylo values that have a source-like representation.
package literal

import (
	"github.com/xylo-lang/xylo/internal/common"
	"github.com/xylo-lang/xylo/internal/common/interface/cell"
)

// I (literal) is any type that can be expressed as a literal.
type I interface {
	Literal() string
}

// String returns the literal representation for a cell, falling back to
// its display string when the cell has no literal form.
func String(c cell.I) string {
	l, ok := c.(I)
	if !ok {
		return common.String(c)
	}

	return l.Literal()
}
