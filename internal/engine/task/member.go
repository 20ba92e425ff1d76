// Released under an MIT license. See LICENSE.

package task

import (
	"github.com/xylo-lang/xylo/internal/common"
	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/interface/reference"
	"github.com/xylo-lang/xylo/internal/common/struct/fault"
	"github.com/xylo-lang/xylo/internal/common/type/env"
	"github.com/xylo-lang/xylo/internal/common/type/null"
	"github.com/xylo-lang/xylo/internal/common/type/obj"
	"github.com/xylo-lang/xylo/internal/common/type/str"
	"github.com/xylo-lang/xylo/internal/common/type/table"
)

// Call calls fn with args. An async closure starts a task and returns nil.
func (t *T) Call(fn cell.I, args ...cell.I) (cell.I, error) {
	return t.apply(fn, args, nil, false)
}

// Await calls fn with args and returns its result, even if fn is async.
func (t *T) Await(fn cell.I, args ...cell.I) (cell.I, error) {
	return t.apply(fn, args, nil, true)
}

// Get returns the member k of o as seen from the global environment.
func (t *T) Get(o, k cell.I) (cell.I, error) {
	return t.member(t.global, o, k)
}

// Set assigns v to the member k of o as seen from the global environment.
func (t *T) Set(o, k, v cell.I) error {
	return t.setMember(t.global, o, k, v)
}

func (t *T) apply(fn cell.I, args []cell.I, self cell.I, wait bool) (cell.I, error) {
	switch f := fn.(type) {
	case *Closure:
		return f.apply(args, self, wait)
	case *Bound:
		return t.apply(f.fn, f.arguments(args), f.recv, wait)
	case Callable:
		return f.Call(t, args)
	}

	return nil, fault.New(fault.NotCallable, nil, "Trying to call non-function: %s", Kind(fn))
}

func (t *T) member(e *env.T, o, k cell.I) (cell.I, error) {
	switch v := o.(type) {
	case *obj.T:
		if r := private(v, k); r != nil {
			if !isSelf(e, v) {
				return nil, fault.New(fault.Private, nil,
					"Cannot access private field '%s'", common.String(k))
			}

			return bind(r.Get(), v), nil
		}

		x, _ := v.Table().Lookup(k)

		return bind(x, v), nil

	case *Class:
		if x, ok := v.static(k); ok {
			return x, nil
		}

		x, _ := v.proto.Lookup(k)

		return x, nil

	case *Scope:
		if s, ok := k.(str.T); ok {
			if r := v.env.Lookup(string(s)); r != nil {
				return null.Or(r.Get()), nil
			}
		}

		return null.Undefined, nil

	case str.T:
		if t.Strings != nil {
			return t.Strings.Get(k), nil
		}

		return null.Undefined, nil

	case *table.T:
		x, _ := v.Lookup(k)

		return x, nil
	}

	if null.Is(o) {
		return nil, fault.New(fault.NullMember, nil,
			"Cannot read property '%s' of %s", common.String(k), null.Or(o).Name())
	}

	return nil, fault.New(fault.TypeMismatch, nil,
		"Cannot read property '%s' of %s", common.String(k), Kind(o))
}

func (t *T) setMember(e *env.T, o, k, v cell.I) error {
	switch x := o.(type) {
	case *obj.T:
		if r := private(x, k); r != nil {
			if !isSelf(e, x) {
				return fault.New(fault.Private, nil,
					"Cannot assign to private field '%s'", common.String(k))
			}

			r.Set(v)

			return nil
		}

		x.Table().Set(k, v)

		return nil

	case *Class:
		x.statics.Set(k, v)

		return nil

	case *Scope:
		s, ok := k.(str.T)
		if !ok {
			return fault.New(fault.TypeMismatch, nil, "Global names must be strings, got %s", Kind(k))
		}

		if r := x.env.Lookup(string(s)); r != nil {
			if err := CheckType(v, r.Kinds(), nil); err != nil {
				return err
			}

			r.Set(v)
		} else {
			x.env.Define(string(s), v)
		}

		return nil

	case *table.T:
		x.Set(k, v)

		return nil
	}

	if null.Is(o) {
		return fault.New(fault.NullMember, nil,
			"Cannot set property '%s' of %s", common.String(k), null.Or(o).Name())
	}

	return fault.New(fault.TypeMismatch, nil,
		"Cannot set property '%s' of %s", common.String(k), Kind(o))
}

func bind(v cell.I, recv cell.I) cell.I {
	if c, ok := v.(*Closure); ok {
		return &Bound{fn: c, recv: recv}
	}

	return v
}

func isSelf(e *env.T, o *obj.T) bool {
	r := e.Lookup("self")

	return r != nil && r.Get() == cell.I(o)
}

func private(o *obj.T, k cell.I) reference.I {
	s, ok := k.(str.T)
	if !ok {
		return nil
	}

	return o.Private().Get(string(s))
}
