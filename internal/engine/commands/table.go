// Released under an MIT license. See LICENSE.

package commands

import (
	"sort"
	"strings"

	"github.com/xylo-lang/xylo/internal/common"
	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/type/boolean"
	"github.com/xylo-lang/xylo/internal/common/type/null"
	"github.com/xylo-lang/xylo/internal/common/type/num"
	"github.com/xylo-lang/xylo/internal/common/type/obj"
	"github.com/xylo-lang/xylo/internal/common/type/str"
	"github.com/xylo-lang/xylo/internal/common/type/table"
	"github.com/xylo-lang/xylo/internal/common/validate"
	"github.com/xylo-lang/xylo/internal/engine/task"
)

// Tables returns a new table library.
func Tables() *table.T {
	return library(TableFunctions())
}

// TableFunctions returns a mapping of names to table functions. Functions
// that treat a table as a sequence see its values at integer keys in
// key order, followed by its other values. Functions that rewrite a
// sequence renumber it from 0.
func TableFunctions() map[string]task.Function {
	return map[string]task.Function{
		"clone":       tclone,
		"concat":      tconcat,
		"contains":    tcontains,
		"count":       tcount,
		"every":       quantifier("every", true),
		"filter":      tfilter,
		"find":        tfind,
		"forEach":     tforEach,
		"indexOf":     tindexOf,
		"insert":      tinsert,
		"isEmpty":     tisEmpty,
		"keys":        tkeys,
		"lastIndexOf": tlastIndexOf,
		"map":         tmap,
		"merge":       tmerge,
		"pack":        tpack,
		"reduce":      treduce,
		"remove":      tremove,
		"reverse":     treverse,
		"some":        quantifier("some", false),
		"sort":        tsort,
		"sub":         tsub,
		"unique":      tunique,
		"unpack":      tsub,
		"values":      tvalues,
	}
}

// quantifier returns every, if all is true, or some.
func quantifier(name string, all bool) task.Function {
	return func(t *task.T, args []cell.I) (cell.I, error) {
		s, err := validate.Table(name, args, 0)
		if err != nil {
			return nil, err
		}

		fn := arg(args, 1)

		for i, v := range elements(s) {
			r, err := t.Await(fn, v, num.Int(i))
			if err != nil {
				return nil, err
			}

			if task.Truth(r) != all {
				return boolean.Bool(!all), nil
			}
		}

		return boolean.Bool(all), nil
	}
}

func tclone(_ *task.T, args []cell.I) (cell.I, error) {
	v, err := validate.Fixed("clone", args, 1, 1)
	if err != nil {
		return nil, err
	}

	return clone(v[0], map[*table.T]*table.T{}), nil
}

func tconcat(_ *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.Table("concat", args, 0)
	if err != nil {
		return nil, err
	}

	sep, err := validate.OptionalString("concat", args, 1, "")
	if err != nil {
		return nil, err
	}

	vs := elements(s)

	i, err := validate.OptionalNumber("concat", args, 2, 0)
	if err != nil {
		return nil, err
	}

	j, err := validate.OptionalNumber("concat", args, 3, float64(len(vs)-1))
	if err != nil {
		return nil, err
	}

	first, last := bounds(len(vs), i, j+1)

	parts := make([]string, 0, last-first)
	for _, v := range vs[first:last] {
		if null.Is(v) {
			continue
		}

		parts = append(parts, common.String(v))
	}

	return str.New(strings.Join(parts, sep)), nil
}

func tcontains(_ *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.Table("contains", args, 0)
	if err != nil {
		return nil, err
	}

	return boolean.Bool(position(elements(s), arg(args, 1), 0) >= 0), nil
}

func tcount(_ *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.Table("count", args, 0)
	if err != nil {
		return nil, err
	}

	n := 0

	for _, v := range elements(s) {
		if task.Equal(v, arg(args, 1)) {
			n++
		}
	}

	return num.Int(n), nil
}

func tfilter(t *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.Table("filter", args, 0)
	if err != nil {
		return nil, err
	}

	var kept []cell.I

	for i, v := range elements(s) {
		r, err := t.Await(arg(args, 1), v, num.Int(i))
		if err != nil {
			return nil, err
		}

		if task.Truth(r) {
			kept = append(kept, v)
		}
	}

	return table.From(kept...), nil
}

func tfind(_ *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.Table("find", args, 0)
	if err != nil {
		return nil, err
	}

	init, err := validate.OptionalNumber("find", args, 2, 0)
	if err != nil {
		return nil, err
	}

	i := position(elements(s), arg(args, 1), int(init))
	if i < 0 {
		return null.Null, nil
	}

	return num.Int(i), nil
}

func tforEach(t *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.Table("forEach", args, 0)
	if err != nil {
		return nil, err
	}

	for i, v := range elements(s) {
		if _, err := t.Await(arg(args, 1), v, num.Int(i)); err != nil {
			return nil, err
		}
	}

	return null.Null, nil
}

func tindexOf(_ *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.Table("indexOf", args, 0)
	if err != nil {
		return nil, err
	}

	init, err := validate.OptionalNumber("indexOf", args, 2, 0)
	if err != nil {
		return nil, err
	}

	return num.Int(position(elements(s), arg(args, 1), int(init))), nil
}

// tinsert inserts value at pos, or appends it when only a value is given.
func tinsert(_ *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.Table("insert", args, 0)
	if err != nil {
		return nil, err
	}

	vs := elements(s)

	if len(args) < 3 {
		s.Replace(append(vs, arg(args, 1)))

		return s, nil
	}

	at, err := validate.Number("insert", args, 1)
	if err != nil {
		return nil, err
	}

	pos, _ := bounds(len(vs), at, at)

	vs = append(vs[:pos], append([]cell.I{args[2]}, vs[pos:]...)...)
	s.Replace(vs)

	return s, nil
}

func tisEmpty(_ *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.Table("isEmpty", args, 0)
	if err != nil {
		return nil, err
	}

	return boolean.Bool(s.Len() == 0), nil
}

func tkeys(_ *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.Table("keys", args, 0)
	if err != nil {
		return nil, err
	}

	return table.From(s.Keys()...), nil
}

func tlastIndexOf(_ *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.Table("lastIndexOf", args, 0)
	if err != nil {
		return nil, err
	}

	vs := elements(s)
	for i := len(vs) - 1; i >= 0; i-- {
		if task.Equal(vs[i], arg(args, 1)) {
			return num.Int(i), nil
		}
	}

	return num.Int(-1), nil
}

// tmap replaces each value v at position i with fn(v, i) and returns
// the same table.
func tmap(t *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.Table("map", args, 0)
	if err != nil {
		return nil, err
	}

	vs := elements(s)

	mapped := make([]cell.I, len(vs))
	for i, v := range vs {
		mapped[i], err = t.Await(arg(args, 1), v, num.Int(i))
		if err != nil {
			return nil, err
		}
	}

	s.Replace(mapped)

	return s, nil
}

func tmerge(_ *task.T, args []cell.I) (cell.I, error) {
	a, err := validate.Table("merge", args, 0)
	if err != nil {
		return nil, err
	}

	b, err := validate.Table("merge", args, 1)
	if err != nil {
		return nil, err
	}

	return table.From(append(elements(a), elements(b)...)...), nil
}

func tpack(_ *task.T, args []cell.I) (cell.I, error) {
	return table.From(args...), nil
}

func treduce(t *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.Table("reduce", args, 0)
	if err != nil {
		return nil, err
	}

	vs := elements(s)
	start := 0

	var acc cell.I = null.Undefined

	switch {
	case len(args) > 2 && args[2] != null.Undefined:
		acc = args[2]
	case len(vs) > 0:
		acc = vs[0]
		start = 1
	}

	for i := start; i < len(vs); i++ {
		acc, err = t.Await(arg(args, 1), acc, vs[i], num.Int(i))
		if err != nil {
			return nil, err
		}
	}

	return acc, nil
}

// tremove removes and returns the value at pos, or the last value.
func tremove(_ *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.Table("remove", args, 0)
	if err != nil {
		return nil, err
	}

	vs := elements(s)

	pos, err := validate.OptionalNumber("remove", args, 1, float64(len(vs)-1))
	if err != nil {
		return nil, err
	}

	i := int(pos)
	if pos < 0 || i >= len(vs) {
		return null.Null, nil
	}

	removed := vs[i]
	s.Replace(append(vs[:i], vs[i+1:]...))

	return removed, nil
}

func treverse(_ *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.Table("reverse", args, 0)
	if err != nil {
		return nil, err
	}

	vs := elements(s)
	for i, j := 0, len(vs)-1; i < j; i, j = i+1, j-1 {
		vs[i], vs[j] = vs[j], vs[i]
	}

	s.Replace(vs)

	return s, nil
}

// tsort sorts the sequence in place. The optional comparator returns
// true when its first argument belongs before its second.
func tsort(t *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.Table("sort", args, 0)
	if err != nil {
		return nil, err
	}

	vs := elements(s)
	comp := arg(args, 1)

	var failed error

	sort.SliceStable(vs, func(i, j int) bool {
		if failed != nil {
			return false
		}

		var r cell.I
		if null.Is(comp) {
			r, failed = task.Binary("<", vs[i], vs[j])
		} else {
			r, failed = t.Await(comp, vs[i], vs[j])
		}

		return failed == nil && task.Truth(r)
	})

	if failed != nil {
		return nil, failed
	}

	s.Replace(vs)

	return s, nil
}

func tsub(_ *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.Table("sub", args, 0)
	if err != nil {
		return nil, err
	}

	vs := elements(s)

	i, err := validate.OptionalNumber("sub", args, 1, 0)
	if err != nil {
		return nil, err
	}

	j, err := validate.OptionalNumber("sub", args, 2, float64(len(vs)))
	if err != nil {
		return nil, err
	}

	first, last := bounds(len(vs), i, j)

	return table.From(vs[first:last]...), nil
}

func tunique(_ *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.Table("unique", args, 0)
	if err != nil {
		return nil, err
	}

	var kept []cell.I

	for _, v := range elements(s) {
		if position(kept, v, 0) < 0 {
			kept = append(kept, v)
		}
	}

	return table.From(kept...), nil
}

func tvalues(_ *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.Table("values", args, 0)
	if err != nil {
		return nil, err
	}

	var vs []cell.I

	s.Entries(func(_, v cell.I) bool {
		vs = append(vs, v)

		return true
	})

	return table.From(vs...), nil
}

func arg(args []cell.I, i int) cell.I {
	if i < len(args) {
		return null.Or(args[i])
	}

	return null.Undefined
}

// clone copies tables deeply. Instances are copied as plain tables.
func clone(c cell.I, seen map[*table.T]*table.T) cell.I {
	var t *table.T

	switch v := c.(type) {
	case *table.T:
		t = v
	case *obj.T:
		t = v.Table()
	default:
		return c
	}

	if copied, ok := seen[t]; ok {
		return copied
	}

	copied := table.New()
	seen[t] = copied

	t.Entries(func(k, v cell.I) bool {
		copied.Set(k, clone(v, seen))

		return true
	})

	return copied
}

func position(vs []cell.I, v cell.I, from int) int {
	if from < 0 {
		from = 0
	}

	for i := from; i < len(vs); i++ {
		if task.Equal(vs[i], v) {
			return i
		}
	}

	return -1
}
