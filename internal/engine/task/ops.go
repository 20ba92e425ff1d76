// Released under an MIT license. See LICENSE.

package task

import (
	"math"
	"strings"

	"github.com/xylo-lang/xylo/internal/common"
	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/interface/truth"
	"github.com/xylo-lang/xylo/internal/common/struct/fault"
	"github.com/xylo-lang/xylo/internal/common/type/boolean"
	"github.com/xylo-lang/xylo/internal/common/type/null"
	"github.com/xylo-lang/xylo/internal/common/type/num"
	"github.com/xylo-lang/xylo/internal/common/type/str"
)

// Binary applies the operator op to l and r. The short-circuiting
// operators are handled by the evaluator and are not accepted here.
func Binary(op string, l, r cell.I) (cell.I, error) {
	l, r = null.Or(l), null.Or(r)

	switch op {
	case "==":
		return boolean.Bool(Equal(l, r)), nil
	case "~=", "!=":
		return boolean.Bool(!Equal(l, r)), nil
	case "..":
		return str.New(common.String(l) + common.String(r)), nil
	case "in":
		t := toTable(r)
		if t == nil {
			return nil, fault.New(fault.TypeMismatch, nil,
				"'in' expects a table on the right, got %s", Kind(r))
		}

		return boolean.Bool(t.Has(l)), nil
	case "<", "<=", ">", ">=":
		return compare(op, l, r)
	case "+":
		if str.Is(l) || str.Is(r) {
			return str.New(common.String(l) + common.String(r)), nil
		}
	}

	a, aok := l.(num.T)
	b, bok := r.(num.T)

	if !aok || !bok {
		bad := l
		if aok {
			bad = r
		}

		if _, ok := arithmetic[op]; !ok {
			return nil, fault.New(fault.Unknown, nil, "Unknown operator: %s", op)
		}

		return nil, fault.New(fault.TypeMismatch, nil,
			"attempt to perform arithmetic (%s) on a %s value", op, Kind(bad))
	}

	fn, ok := arithmetic[op]
	if !ok {
		return nil, fault.New(fault.Unknown, nil, "Unknown operator: %s", op)
	}

	return num.New(fn(float64(a), float64(b))), nil
}

// Equal is strict equality: same kind and same value, identity for
// tables and functions.
func Equal(l, r cell.I) bool {
	l, r = null.Or(l), null.Or(r)

	return l.Equal(r)
}

// Truth returns the truthiness of c. False, nil, undefined, 0, NaN and
// the empty string are false. Everything else is true.
func Truth(c cell.I) bool {
	return truth.Value(c)
}

// Unary applies the prefix operator op to v.
func Unary(op string, v cell.I) (cell.I, error) {
	v = null.Or(v)

	switch op {
	case "-":
		n, ok := v.(num.T)
		if !ok {
			return nil, fault.New(fault.TypeMismatch, nil,
				"Unary '-' cannot be applied to type %s", Kind(v))
		}

		return num.New(-float64(n)), nil
	case "not":
		return boolean.Bool(!Truth(v)), nil
	}

	return nil, fault.New(fault.Unknown, nil, "Unknown unary operator: %s", op)
}

//nolint:gochecknoglobals
var arithmetic = map[string]func(a, b float64) float64{
	"+": func(a, b float64) float64 { return a + b },
	"-": func(a, b float64) float64 { return a - b },
	"*": func(a, b float64) float64 { return a * b },
	"/": func(a, b float64) float64 { return a / b },
	"%": math.Mod,
	"^": math.Pow,
}

func compare(op string, l, r cell.I) (cell.I, error) {
	var c int

	switch a := l.(type) {
	case num.T:
		b, ok := r.(num.T)
		if !ok {
			return nil, incomparable(l, r)
		}

		switch {
		case a < b:
			c = -1
		case a > b:
			c = 1
		case a != b:
			return boolean.False, nil // NaN.
		}
	case str.T:
		b, ok := r.(str.T)
		if !ok {
			return nil, incomparable(l, r)
		}

		c = strings.Compare(string(a), string(b))
	default:
		return nil, incomparable(l, r)
	}

	switch op {
	case "<":
		return boolean.Bool(c < 0), nil
	case "<=":
		return boolean.Bool(c <= 0), nil
	case ">":
		return boolean.Bool(c > 0), nil
	}

	return boolean.Bool(c >= 0), nil
}

func incomparable(l, r cell.I) error {
	return fault.New(fault.TypeMismatch, nil, "attempt to compare %s with %s", Kind(l), Kind(r))
}
