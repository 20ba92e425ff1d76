// Released under an MIT license. See LICENSE.

// Package num provides xylo's number type.
package num

import (
	"math"
	"strconv"

	"github.com/xylo-lang/xylo/internal/common"
	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/interface/literal"
	"github.com/xylo-lang/xylo/internal/common/interface/truth"
)

const name = "number"

// T (num) wraps Go's float64 type.
type T float64

type num = T

// New creates a new num cell from a float64.
func New(f float64) cell.I {
	return num(f)
}

// Int creates a num from the integer i.
func Int(i int) cell.I {
	return num(float64(i))
}

// Parse creates a num from its decimal text.
func Parse(s string) (cell.I, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}

	return num(f), nil
}

// Is returns true if c is a num.
func Is(c cell.I) bool {
	_, ok := c.(num)

	return ok
}

// To returns a num if c is a num; Otherwise it panics.
func To(c cell.I) num {
	if n, ok := c.(num); ok {
		return n
	}

	panic("not a " + name)
}

// Bool returns the truth value of the num n. Zero and NaN are false.
func (n num) Bool() bool {
	f := float64(n)

	return f != 0 && !math.IsNaN(f)
}

// Equal returns true if c is the same number as the num n.
func (n num) Equal(c cell.I) bool {
	return Is(c) && float64(n) == float64(To(c))
}

// Float returns the value of the num n as a float64.
func (n num) Float() float64 {
	return float64(n)
}

// Int returns the value of the num n truncated to an int.
func (n num) Int() int {
	return int(float64(n))
}

// Literal returns the literal representation of the num n.
func (n num) Literal() string {
	return n.String()
}

// Name returns the type name for the num n.
func (n num) Name() string {
	return name
}

// String returns the shortest text that reads back as the num n.
func (n num) String() string {
	f := float64(n)

	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	if a := math.Abs(f); a >= 1e-6 && a < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	return strconv.FormatFloat(f, 'g', -1, 64)
}

// A compiler-checked list of interfaces this type satisfies. Never called.
func implements() { //nolint:deadcode,unused
	var t num

	// The num type is a cell.
	_ = cell.I(t)

	// The num type has a literal representation.
	_ = literal.I(t)

	// The num type is a stringer.
	_ = common.Stringer(t)

	// The num type has a truth value.
	_ = truth.I(t)
}
