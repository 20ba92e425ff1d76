// Released under an MIT license. See LICENSE.

// Package common defines helpers shared by xylo's value types.
package common

import (
	"fmt"

	"github.com/xylo-lang/xylo/internal/common/interface/cell"
)

type Stringer = fmt.Stringer

// String returns the display string for a cell.
func String(c cell.I) string {
	if c == nil {
		return "undefined"
	}

	if s, ok := c.(Stringer); ok {
		return s.String()
	}

	return c.Name()
}
