// Released under an MIT license. See LICENSE.

// Package cell defines the interface for all xylo values.
package cell

// I (cell) is the basic unit of storage in xylo.
// Name returns the value's runtime kind as reported by type().
type I interface {
	Equal(c I) bool
	Name() string
}
