// Released under an MIT license. See LICENSE.

package task

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"

	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/type/boolean"
	"github.com/xylo-lang/xylo/internal/common/type/null"
	"github.com/xylo-lang/xylo/internal/common/type/num"
	"github.com/xylo-lang/xylo/internal/common/type/str"
	"github.com/xylo-lang/xylo/internal/common/type/table"
)

// FromGo converts a Go value into a xylo value. Slices become tables
// keyed from 0, maps become tables with sorted keys, and functions of
// the form func(...any) any or func(...any) (any, error) become builtins.
func FromGo(v any) cell.I {
	switch x := v.(type) {
	case nil:
		return null.Null
	case cell.I:
		return x
	case bool:
		return boolean.Bool(x)
	case string:
		return str.New(x)
	case []byte:
		return str.New(string(x))
	case func(...any) any:
		return NewBuiltin("native", func(_ *T, args []cell.I) (cell.I, error) {
			return FromGo(x(gos(args)...)), nil
		})
	case func(...any) (any, error):
		return NewBuiltin("native", func(_ *T, args []cell.I) (cell.I, error) {
			r, err := x(gos(args)...)
			if err != nil {
				return nil, err
			}

			return FromGo(r), nil
		})
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() { //nolint:exhaustive
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return num.New(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return num.New(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return num.New(rv.Float())
	case reflect.Pointer:
		if rv.IsNil() {
			return null.Null
		}

		return FromGo(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		t := table.New()
		for i := 0; i < rv.Len(); i++ {
			t.Set(num.Int(i), FromGo(rv.Index(i).Interface()))
		}

		return t
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})

		t := table.New()
		for _, k := range keys {
			t.Set(FromGo(k.Interface()), FromGo(rv.MapIndex(k).Interface()))
		}

		return t
	}

	return str.New(fmt.Sprint(v))
}

// ToGo converts a xylo value into a Go value. Tables whose keys are
// exactly 0..n-1 become []any, other tables map[string]any. Functions
// are returned unchanged.
func ToGo(c cell.I) any {
	return togo(c, map[*table.T]bool{})
}

func gos(args []cell.I) []any {
	vs := make([]any, len(args))
	for i, a := range args {
		vs[i] = ToGo(a)
	}

	return vs
}

func togo(c cell.I, seen map[*table.T]bool) any {
	switch x := null.Or(c).(type) {
	case *null.T:
		return nil
	case *boolean.T:
		return x.Bool()
	case num.T:
		return float64(x)
	case str.T:
		return string(x)
	}

	t := toTable(c)
	if t == nil {
		return c
	}

	if seen[t] {
		return nil
	}

	seen[t] = true
	defer delete(seen, t)

	keys := t.Keys()

	if Sequence(t) {
		vs := make([]any, len(keys))
		for i := range vs {
			vs[i] = togo(t.Get(num.Int(i)), seen)
		}

		return vs
	}

	m := make(map[string]any, len(keys))
	for _, k := range keys {
		m[KeyString(k)] = togo(t.Get(k), seen)
	}

	return m
}

// KeyString returns the string form of a table key as used by the
// json and yaml encoders.
func KeyString(k cell.I) string {
	if n, ok := k.(num.T); ok && float64(n) == math.Trunc(float64(n)) && !math.IsInf(float64(n), 0) {
		return strconv.FormatInt(int64(n), 10)
	}

	return fmt.Sprint(k)
}

// Sequence returns true if the own keys of t are exactly 0..n-1 for
// some n greater than zero.
func Sequence(t *table.T) bool {
	n := t.Len()
	if n == 0 {
		return false
	}

	for i := 0; i < n; i++ {
		if _, ok := t.Own(num.Int(i)); !ok {
			return false
		}
	}

	return true
}
