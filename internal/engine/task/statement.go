// Released under an MIT license. See LICENSE.

package task

import (
	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/struct/fault"
	"github.com/xylo-lang/xylo/internal/common/type/env"
	"github.com/xylo-lang/xylo/internal/common/type/null"
	"github.com/xylo-lang/xylo/internal/common/type/num"
	"github.com/xylo-lang/xylo/internal/common/type/obj"
	"github.com/xylo-lang/xylo/internal/common/type/str"
	"github.com/xylo-lang/xylo/internal/common/type/table"
	"github.com/xylo-lang/xylo/internal/reader/ast"
)

func (t *T) define(e *env.T, n *ast.Function) (cell.I, control, error) {
	c := t.closure(e, n)

	switch {
	case n.Owner != "":
		o, err := t.lookup(e, &ast.Identifier{Pos: n.Pos, Name: n.Owner})
		if err != nil {
			return nil, normal, err
		}

		if err := t.setMember(e, o, str.New(n.Name), c); err != nil {
			return nil, normal, err
		}

	case n.Name != "":
		e.Define(n.Name, c)
	}

	return c, normal, nil
}

func (t *T) forIn(e *env.T, n *ast.ForIn) (cell.I, control, error) {
	iter, err := t.eval(e, n.Iterator)
	if err != nil {
		return nil, normal, err
	}

	body := func(k, v cell.I) (cell.I, control, error) {
		e.Define(n.Key, null.Or(k))
		e.Define(n.Value, null.Or(v))

		return t.block(e, n.Body)
	}

	next, err := t.iterator(e, iter)
	if err != nil {
		return nil, normal, err
	}

	if next == nil {
		tbl := toTable(iter)
		if tbl == nil {
			return nil, normal, fault.New(fault.TypeMismatch, n.Loc,
				"for-in expects an iterator or a table, got %s", Kind(iter))
		}

		var (
			keys   []cell.I
			values []cell.I
		)

		tbl.Entries(func(k, v cell.I) bool {
			keys = append(keys, k)
			values = append(values, v)

			return true
		})

		for i := range keys {
			v, c, err := body(keys[i], values[i])
			if err != nil || c == returned {
				return v, c, err
			}

			if c == broke {
				break
			}
		}

		return null.Null, normal, nil
	}

	for {
		r, err := t.apply(next, []cell.I{iter}, iter, true)
		if err != nil {
			return nil, normal, err
		}

		step := toTable(r)
		if step == nil {
			return nil, normal, fault.New(fault.TypeMismatch, n.Loc,
				"iterator next must return a table, got %s", Kind(r))
		}

		if Truth(step.Get(str.New("done"))) {
			return null.Null, normal, nil
		}

		var k, v cell.I = null.Undefined, null.Undefined
		if pair := toTable(step.Get(str.New("value"))); pair != nil {
			k, v = pair.Get(num.Int(0)), pair.Get(num.Int(1))
		}

		r, c, err := body(k, v)
		if err != nil || c == returned {
			return r, c, err
		}

		if c == broke {
			return null.Null, normal, nil
		}
	}
}

func (t *T) forLoop(e *env.T, n *ast.For) (cell.I, control, error) {
	var bounds [3]float64

	for i, x := range []ast.Node{n.Start, n.Stop, n.Step} {
		v, err := t.eval(e, x)
		if err != nil {
			return nil, normal, err
		}

		f, ok := v.(num.T)
		if !ok {
			what := [...]string{"initial", "limit", "step"}[i]

			return nil, normal, fault.New(fault.TypeMismatch, x.Source(),
				"'for' %s value must be a number, got %s", what, Kind(v))
		}

		bounds[i] = float64(f)
	}

	start, stop, step := bounds[0], bounds[1], bounds[2]
	if step == 0 {
		return nil, normal, fault.New(fault.TypeMismatch, n.Step.Source(), "'for' step is zero")
	}

	r := e.Define(n.Var, num.New(start))

	// The variable is start + k*step so rounding does not accumulate. A
	// body that assigns the variable restarts the count from its value.
	base, k := start, 0.0

	for {
		f, ok := r.Get().(num.T)
		if !ok {
			return nil, normal, fault.New(fault.TypeMismatch, n.Loc,
				"'for' variable '%s' must remain a number", n.Var)
		}

		i := float64(f)
		if (step > 0 && i > stop) || (step < 0 && i < stop) {
			return null.Null, normal, nil
		}

		v, c, err := t.block(e, n.Body)
		if err != nil || c == returned {
			return v, c, err
		}

		if c == broke {
			return null.Null, normal, nil
		}

		if f, ok = r.Get().(num.T); ok {
			if float64(f) != base+k*step {
				base, k = float64(f), 0
			}

			k++
			r.Set(num.New(base + k*step))
		}
	}
}

// iterator returns the next function of iter if it follows the iterator
// protocol, or nil if it does not.
func (t *T) iterator(e *env.T, iter cell.I) (cell.I, error) {
	switch iter.(type) {
	case *table.T, *obj.T:
	default:
		return nil, nil
	}

	next, err := t.member(e, iter, str.New("next"))
	if err != nil {
		return nil, err
	}

	if b, ok := next.(*Bound); ok {
		next = b.Method()
	}

	if _, ok := next.(Callable); !ok {
		return nil, nil
	}

	return next, nil
}

func (t *T) switchStatement(e *env.T, n *ast.Switch) (cell.I, control, error) {
	subject, err := t.eval(e, n.Subject)
	if err != nil {
		return nil, normal, err
	}

	body := n.Default
	matched := n.HasDefault

	for _, c := range n.Cases {
		v, err := t.eval(e, c.Value)
		if err != nil {
			return nil, normal, err
		}

		if Equal(subject, v) {
			body = c.Body
			matched = true

			break
		}
	}

	if !matched {
		return null.Null, normal, nil
	}

	v, c, err := t.block(e, body)
	if c == broke {
		c = normal
	}

	return v, c, err
}

func (t *T) try(e *env.T, n *ast.Try) (cell.I, control, error) {
	v, c, err := t.block(e, n.Body)
	if err == nil || !n.HasCatch {
		return v, c, err
	}

	scope := env.New(e)
	scope.Define(n.Catch, Caught(err))

	return t.block(scope, n.Handler)
}

// Caught returns the value bound by catch for err: the thrown value for
// errors raised with a value, otherwise the message with its position.
func Caught(err error) cell.I {
	if f, ok := fault.As(err); ok && f.Kind == fault.Thrown && f.Value != nil {
		return f.Value
	}

	return str.New(err.Error())
}

func toTable(c cell.I) *table.T {
	switch v := c.(type) {
	case *table.T:
		return v
	case table.Holder:
		return v.Table()
	}

	return nil
}
