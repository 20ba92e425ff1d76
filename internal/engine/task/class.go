// Released under an MIT license. See LICENSE.

package task

import (
	"fmt"

	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/struct/fault"
	"github.com/xylo-lang/xylo/internal/common/type/env"
	"github.com/xylo-lang/xylo/internal/common/type/null"
	"github.com/xylo-lang/xylo/internal/common/type/obj"
	"github.com/xylo-lang/xylo/internal/common/type/str"
	"github.com/xylo-lang/xylo/internal/common/type/table"
	"github.com/xylo-lang/xylo/internal/reader/ast"
)

// Class is a class value. Calling it creates an instance.
type Class struct {
	env     *env.T
	name    string
	node    *ast.Class
	owner   *T
	parent  *Class
	proto   *table.T
	statics *table.T
}

type class = Class

// Call creates a new instance of the class c.
func (c *class) Call(_ *T, args []cell.I) (cell.I, error) {
	return c.instantiate(args)
}

// Equal returns true if v is the same class.
func (c *class) Equal(v cell.I) bool {
	o, ok := v.(*class)

	return ok && o == c
}

// Name returns the runtime kind of a class.
func (*class) Name() string {
	return "function"
}

// Parent returns the class c extends, or nil.
func (c *class) Parent() *Class {
	return c.parent
}

// Prototype returns the table shared by every instance of c.
func (c *class) Prototype() *table.T {
	return c.proto
}

func (c *class) String() string {
	return fmt.Sprintf("class: %s", c.name)
}

func (c *class) instantiate(args []cell.I) (cell.I, error) {
	inst := obj.New(c, c.proto)

	// Private members of ancestors first so a subclass can shadow them.
	var chain []*class
	for k := c; k != nil; k = k.parent {
		chain = append([]*class{k}, chain...)
	}

	for _, k := range chain {
		scope := env.New(k.env)
		scope.Define("self", inst)

		for _, f := range k.node.Fields {
			if !f.Private {
				continue
			}

			v := cell.I(null.Null)

			if f.Value != nil {
				var err error

				v, err = k.owner.eval(scope, f.Value)
				if err != nil {
					return nil, err
				}
			}

			inst.Private().Set(f.Name, v)
		}

		for _, m := range k.node.Methods {
			if m.Private {
				inst.Private().Set(m.Name, k.owner.closure(k.env, m))
			}
		}
	}

	ctor, ok := c.proto.Lookup(str.New("init"))
	if !ok || null.Is(ctor) {
		return inst, nil
	}

	if _, err := c.owner.apply(ctor, append([]cell.I{inst}, args...), inst, true); err != nil {
		return nil, err
	}

	return inst, nil
}

// static looks up a static member of c or its ancestors.
func (c *class) static(k cell.I) (cell.I, bool) {
	for o := c; o != nil; o = o.parent {
		if v, ok := o.statics.Own(k); ok {
			return v, true
		}
	}

	return nil, false
}

func (t *T) class(e *env.T, n *ast.Class) (cell.I, error) {
	c := &class{
		env:     e,
		name:    n.Name,
		node:    n,
		owner:   t,
		proto:   table.New(),
		statics: table.New(),
	}

	if n.Parent != nil {
		v, err := t.lookup(e, n.Parent)
		if err != nil {
			return nil, err
		}

		p, ok := v.(*class)
		if !ok {
			return nil, fault.New(fault.TypeMismatch, n.Parent.Loc,
				"Parent class '%s' not found", n.Parent.Name)
		}

		c.parent = p
		c.proto.SetProto(p.proto)
	}

	for _, f := range n.StaticFields {
		v, err := t.field(e, f)
		if err != nil {
			return nil, err
		}

		c.statics.Set(str.New(f.Name), v)
	}

	for _, m := range n.StaticMethods {
		c.statics.Set(str.New(m.Name), t.closure(e, m))
	}

	for _, f := range n.Fields {
		if f.Private {
			continue
		}

		v, err := t.field(e, f)
		if err != nil {
			return nil, err
		}

		c.proto.Set(str.New(f.Name), v)
	}

	for _, m := range n.Methods {
		if !m.Private {
			c.proto.Set(str.New(m.Name), t.closure(e, m))
		}
	}

	e.Define(n.Name, c)

	return c, nil
}

func (t *T) field(e *env.T, f ast.Field) (cell.I, error) {
	if f.Value == nil {
		return null.Null, nil
	}

	return t.eval(e, f.Value)
}

// Scope exposes an environment as a table-like value.
type Scope struct {
	env *env.T
}

// NewScope creates a view of the environment e.
func NewScope(e *env.T) *Scope {
	return &Scope{env: e}
}

// Equal returns true if v is a view of the same environment.
func (s *Scope) Equal(v cell.I) bool {
	o, ok := v.(*Scope)

	return ok && o.env == s.env
}

// Name returns the runtime kind of a scope.
func (*Scope) Name() string {
	return "table"
}

func (s *Scope) String() string {
	return fmt.Sprintf("table: %p", s.env)
}

// Table returns a snapshot of the names visible in the environment.
// Inner bindings shadow outer ones.
func (s *Scope) Table() *table.T {
	t := table.New()

	for e := s.env; e != nil; e = e.Enclosing() {
		for _, k := range e.Names() {
			key := str.New(k)
			if !t.Has(key) {
				t.Set(key, e.Get(k).Get())
			}
		}
	}

	return t
}
