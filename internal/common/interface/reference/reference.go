// Released under an MIT license. See LICENSE.

// Package reference defines the interface for xylo's variable type.
package reference

import (
	"github.com/xylo-lang/xylo/internal/common/interface/cell"
)

// I (reference) is anything that can hold a value.
// Kinds are the type names declared for the binding, if any.
type I interface {
	Get() cell.I
	Set(c cell.I)

	Kinds() []string
	Restrict(kinds []string)
}
