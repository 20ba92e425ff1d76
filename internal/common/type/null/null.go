// Released under an MIT license. See LICENSE.

// Package null provides xylo's two empty values, null and undefined.
package null

import (
	"github.com/xylo-lang/xylo/internal/common"
	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/interface/literal"
	"github.com/xylo-lang/xylo/internal/common/interface/truth"
)

// T (null) is an empty value. There are exactly two: Null and Undefined.
type T struct {
	name string
}

type null = T

//nolint:gochecknoglobals
var (
	// Null is the value of nil and of declarations without an initializer.
	Null = &null{name: "null"}

	// Undefined is the value of missing table keys and absent arguments.
	Undefined = &null{name: "undefined"}
)

// Is returns true if c is null or undefined. A Go nil counts as undefined.
func Is(c cell.I) bool {
	if c == nil {
		return true
	}

	_, ok := c.(*null)

	return ok
}

// Or returns c, or Undefined if c is a Go nil.
func Or(c cell.I) cell.I {
	if c == nil {
		return Undefined
	}

	return c
}

// Bool is always false.
func (n *null) Bool() bool {
	return false
}

// Equal returns true if c is the same empty value.
func (n *null) Equal(c cell.I) bool {
	return n == c
}

// Literal returns the literal representation of n.
func (n *null) Literal() string {
	if n == Null {
		return "nil"
	}

	return n.name
}

// Name returns the kind name of n.
func (n *null) Name() string {
	return n.name
}

// String returns the display text of n.
func (n *null) String() string {
	return n.name
}

// A compiler-checked list of interfaces this type satisfies. Never called.
func implements() { //nolint:deadcode,unused
	var t null

	// The null type is a cell.
	_ = cell.I(&t)

	// The null type has a literal representation.
	_ = literal.I(&t)

	// The null type is a stringer.
	_ = common.Stringer(&t)

	// The null type has a truth value.
	_ = truth.I(&t)
}
