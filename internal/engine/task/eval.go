// Released under an MIT license. See LICENSE.

package task

import (
	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/interface/reference"
	"github.com/xylo-lang/xylo/internal/common/struct/fault"
	"github.com/xylo-lang/xylo/internal/common/type/boolean"
	"github.com/xylo-lang/xylo/internal/common/type/env"
	"github.com/xylo-lang/xylo/internal/common/type/null"
	"github.com/xylo-lang/xylo/internal/common/type/num"
	"github.com/xylo-lang/xylo/internal/common/type/str"
	"github.com/xylo-lang/xylo/internal/common/type/table"
	"github.com/xylo-lang/xylo/internal/reader/ast"
)

func (t *T) eval(e *env.T, n ast.Node) (v cell.I, err error) {
	defer func() {
		if err != nil {
			err = fault.Annotate(err, n.Source())
		}
	}()

	switch n := n.(type) {
	case *ast.Assign:
		return t.assign(e, n)

	case *ast.Binary:
		return t.binary(e, n)

	case *ast.Boolean:
		return boolean.Bool(n.Value), nil

	case *ast.Call:
		callee, err := t.eval(e, n.Callee)
		if err != nil {
			return nil, err
		}

		args, err := t.args(e, n.Args)
		if err != nil {
			return nil, err
		}

		return t.apply(callee, args, nil, false)

	case *ast.Class:
		return t.class(e, n)

	case *ast.Function:
		return t.closure(e, n), nil

	case *ast.Global:
		v, err := t.initial(e, n.Value, n.Kinds)
		if err != nil {
			return nil, err
		}

		t.declare(n.Name, v, n.Kinds)

		return v, nil

	case *ast.Identifier:
		return t.lookup(e, n)

	case *ast.Instantiate:
		return t.instantiate(e, n)

	case *ast.Local:
		v, err := t.initial(e, n.Value, n.Kinds)
		if err != nil {
			return nil, err
		}

		e.Define(n.Name, v).Restrict(n.Kinds)

		return v, nil

	case *ast.Member:
		o, err := t.eval(e, n.Object)
		if err != nil {
			return nil, err
		}

		k, err := t.key(e, n)
		if err != nil {
			return nil, err
		}

		return t.member(e, o, k)

	case *ast.MethodCall:
		return t.methodCall(e, n)

	case *ast.Nil:
		return null.Null, nil

	case *ast.Number:
		return num.New(n.Value), nil

	case *ast.Require:
		if t.Loader == nil {
			return nil, fault.New(fault.ModuleNotFound, n.Loc, "Module not found: %s", n.Name)
		}

		return t.Loader.Load(t, n.Name)

	case *ast.String:
		return str.New(n.Value), nil

	case *ast.Table:
		return t.table(e, n)

	case *ast.Unary:
		operand, err := t.eval(e, n.Operand)
		if err != nil {
			return nil, err
		}

		return Unary(n.Op, operand)

	case *ast.Update:
		return t.update(e, n)

	case *ast.Vararg:
		r := e.Lookup("...")
		if r == nil {
			return nil, fault.New(fault.Undefined, n.Loc, "Vararg '...' used outside of vararg function")
		}

		return r.Get(), nil

	case *ast.Break, *ast.For, *ast.ForIn, *ast.If, *ast.Return, *ast.Switch, *ast.Try, *ast.While:
		v, _, err := t.exec(e, n)

		return v, err
	}

	return nil, fault.New(fault.Unknown, n.Source(), "Unknown node type: %T", n)
}

func (t *T) args(e *env.T, nodes []ast.Node) ([]cell.I, error) {
	args := make([]cell.I, 0, len(nodes))

	for _, n := range nodes {
		v, err := t.eval(e, n)
		if err != nil {
			return nil, err
		}

		args = append(args, v)
	}

	return args, nil
}

func (t *T) assign(e *env.T, n *ast.Assign) (cell.I, error) {
	v, err := t.eval(e, n.Value)
	if err != nil {
		return nil, err
	}

	v = null.Or(v)

	id, ok := n.Target.(*ast.Identifier)
	if !ok {
		m, ok := n.Target.(*ast.Member)
		if !ok {
			return nil, fault.New(fault.Unknown, n.Loc, "Invalid assignment target")
		}

		o, err := t.eval(e, m.Object)
		if err != nil {
			return nil, err
		}

		k, err := t.key(e, m)
		if err != nil {
			return nil, err
		}

		return v, t.setMember(e, o, k, v)
	}

	_, r := e.Owner(id.Name)

	kinds := []string(n.Kinds)
	if kinds == nil && r != nil {
		kinds = r.Kinds()
	}

	if err := CheckType(v, kinds, n.Loc); err != nil {
		return nil, err
	}

	if r == nil {
		r = t.root(e).Define(id.Name, v)
	} else {
		r.Set(v)
	}

	if n.Kinds != nil {
		r.Restrict(n.Kinds)
	}

	if e.Local(id.Name) == nil {
		e.Bind(id.Name, r)
	}

	return v, nil
}

func (t *T) binary(e *env.T, n *ast.Binary) (cell.I, error) {
	l, err := t.eval(e, n.Left)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case "and":
		if !Truth(l) {
			return l, nil
		}

		return t.eval(e, n.Right)

	case "or":
		if Truth(l) {
			return l, nil
		}

		return t.eval(e, n.Right)

	case "&&", "||":
		if Truth(l) == (n.Op == "||") {
			return boolean.Bool(Truth(l)), nil
		}

		r, err := t.eval(e, n.Right)
		if err != nil {
			return nil, err
		}

		return boolean.Bool(Truth(r)), nil
	}

	r, err := t.eval(e, n.Right)
	if err != nil {
		return nil, err
	}

	return Binary(n.Op, l, r)
}

func (t *T) closure(e *env.T, n *ast.Function) *Closure {
	return &Closure{Template: t.template(n), env: e, owner: t}
}

func (t *T) initial(e *env.T, n ast.Node, kinds ast.Kinds) (cell.I, error) {
	if n == nil {
		return null.Null, nil
	}

	v, err := t.eval(e, n)
	if err != nil {
		return nil, err
	}

	v = null.Or(v)

	return v, CheckType(v, kinds, n.Source())
}

func (t *T) instantiate(e *env.T, n *ast.Instantiate) (cell.I, error) {
	v, err := t.lookup(e, n.Class)
	if err != nil {
		return nil, err
	}

	args, err := t.args(e, n.Args)
	if err != nil {
		return nil, err
	}

	switch c := v.(type) {
	case *Class:
		return c.instantiate(args)
	case Callable:
		return t.apply(c, args, nil, false)
	}

	return nil, fault.New(fault.NotCallable, n.Loc, "Cannot instantiate non-class '%s'", n.Class.Name)
}

func (t *T) key(e *env.T, n *ast.Member) (cell.I, error) {
	if !n.Computed {
		return str.New(n.Name), nil
	}

	k, err := t.eval(e, n.Property)
	if err != nil {
		return nil, err
	}

	return null.Or(k), nil
}

func (t *T) lookup(e *env.T, n *ast.Identifier) (cell.I, error) {
	r := e.Lookup(n.Name)
	if r == nil {
		return nil, fault.New(fault.Undefined, n.Loc, "Undefined variable: %s", n.Name)
	}

	return null.Or(r.Get()), nil
}

func (t *T) methodCall(e *env.T, n *ast.MethodCall) (cell.I, error) {
	recv, err := t.eval(e, n.Object)
	if err != nil {
		return nil, err
	}

	m, err := t.member(e, recv, str.New(n.Name))
	if err != nil {
		return nil, err
	}

	if b, ok := m.(*Bound); ok {
		m = b.Method()
	}

	if _, ok := m.(Callable); !ok {
		return nil, fault.New(fault.NotCallable, n.Loc,
			"Trying to call non-function: method '%s' of %s is %s", n.Name, Kind(recv), Kind(m))
	}

	args, err := t.args(e, n.Args)
	if err != nil {
		return nil, err
	}

	return t.apply(m, append([]cell.I{recv}, args...), recv, false)
}

// root returns the global environment at the base of e's chain.
func (t *T) root(e *env.T) *env.T {
	for p := e.Enclosing(); p != nil && p != t.registry; p = p.Enclosing() {
		e = p
	}

	return e
}

func (t *T) table(e *env.T, n *ast.Table) (cell.I, error) {
	tbl := table.New()

	for _, entry := range n.Entries {
		k, err := t.eval(e, entry.Key)
		if err != nil {
			return nil, err
		}

		v, err := t.eval(e, entry.Value)
		if err != nil {
			return nil, err
		}

		v = null.Or(v)

		if err := CheckType(v, n.Kinds, entry.Value.Source()); err != nil {
			return nil, err
		}

		tbl.Set(null.Or(k), v)
	}

	return tbl, nil
}

func (t *T) update(e *env.T, n *ast.Update) (cell.I, error) {
	var (
		old cell.I
		set func(cell.I) error
	)

	switch target := n.Target.(type) {
	case *ast.Identifier:
		var r reference.I

		if r = e.Lookup(target.Name); r == nil {
			return nil, fault.New(fault.Undefined, target.Loc, "Undefined variable: %s", target.Name)
		}

		old = null.Or(r.Get())
		set = func(v cell.I) error {
			if err := CheckType(v, r.Kinds(), n.Loc); err != nil {
				return err
			}

			r.Set(v)

			return nil
		}

	case *ast.Member:
		o, err := t.eval(e, target.Object)
		if err != nil {
			return nil, err
		}

		k, err := t.key(e, target)
		if err != nil {
			return nil, err
		}

		if old, err = t.member(e, o, k); err != nil {
			return nil, err
		}

		set = func(v cell.I) error {
			return t.setMember(e, o, k, v)
		}

	default:
		return nil, fault.New(fault.Unknown, n.Loc, "Invalid argument for update expression")
	}

	f, ok := old.(num.T)
	if !ok {
		return nil, fault.New(fault.TypeMismatch, n.Loc,
			"Increment/decrement operator can only be applied to numbers, got %s", Kind(old))
	}

	if err := set(num.New(float64(f) + 1)); err != nil {
		return nil, err
	}

	return old, nil
}
