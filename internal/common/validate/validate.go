// Released under an MIT license. See LICENSE.

// Package validate checks the arguments passed to builtin functions.
package validate

import (
	"fmt"

	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/struct/fault"
	"github.com/xylo-lang/xylo/internal/common/type/null"
	"github.com/xylo-lang/xylo/internal/common/type/num"
	"github.com/xylo-lang/xylo/internal/common/type/str"
	"github.com/xylo-lang/xylo/internal/common/type/table"
)

// Fixed checks that between min and max arguments were passed and returns
// exactly max arguments, padding missing ones with undefined.
func Fixed(name string, actual []cell.I, min, max int) ([]cell.I, error) {
	if err := Variadic(name, actual, min); err != nil {
		return nil, err
	}

	if len(actual) > max {
		s := Count(max, "argument", "s")

		return nil, fault.New(fault.Unknown, nil,
			"%s: expected at most %s, passed %d", name, s, len(actual))
	}

	expected := make([]cell.I, max)
	for i := range expected {
		expected[i] = null.Undefined
		if i < len(actual) {
			expected[i] = null.Or(actual[i])
		}
	}

	return expected, nil
}

// Variadic checks that at least min arguments were passed.
func Variadic(name string, actual []cell.I, min int) error {
	if len(actual) < min {
		s := Count(min, "argument", "s")

		return fault.New(fault.Unknown, nil,
			"%s: expected %s, passed %d", name, s, len(actual))
	}

	return nil
}

// Count returns n followed by label, pluralized with p unless n is 1.
func Count(n int, label string, p string) string {
	if n == 1 {
		p = ""
	}

	return fmt.Sprintf("%d %s%s", n, label, p)
}

// Number returns argument i of the function name as a float64.
func Number(name string, args []cell.I, i int) (float64, error) {
	if i < len(args) {
		if n, ok := args[i].(num.T); ok {
			return n.Float(), nil
		}
	}

	return 0, mismatch(name, args, i, "number")
}

// OptionalNumber returns argument i as a float64, or otherwise if it is absent.
func OptionalNumber(name string, args []cell.I, i int, otherwise float64) (float64, error) {
	if i >= len(args) || null.Is(args[i]) {
		return otherwise, nil
	}

	return Number(name, args, i)
}

// String returns argument i of the function name as a string.
func String(name string, args []cell.I, i int) (string, error) {
	if i < len(args) {
		if s, ok := args[i].(str.T); ok {
			return string(s), nil
		}
	}

	return "", mismatch(name, args, i, "string")
}

// OptionalString returns argument i as a string, or otherwise if it is absent.
func OptionalString(name string, args []cell.I, i int, otherwise string) (string, error) {
	if i >= len(args) || null.Is(args[i]) {
		return otherwise, nil
	}

	return String(name, args, i)
}

// Table returns argument i of the function name as a table.
func Table(name string, args []cell.I, i int) (*table.T, error) {
	if i < len(args) {
		switch t := args[i].(type) {
		case *table.T:
			return t, nil
		case table.Holder:
			return t.Table(), nil
		}
	}

	return nil, mismatch(name, args, i, "table")
}

func mismatch(name string, args []cell.I, i int, expected string) error {
	got := "no value"
	if i < len(args) {
		got = null.Or(args[i]).Name()
	}

	return fault.New(fault.TypeMismatch, nil,
		"bad argument #%d to '%s' (%s expected, got %s)", i+1, name, expected, got)
}
