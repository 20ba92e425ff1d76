// Released under an MIT license. See LICENSE.

package task

import (
	"fmt"
	"sync/atomic"

	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/type/env"
	"github.com/xylo-lang/xylo/internal/common/type/null"
	"github.com/xylo-lang/xylo/internal/common/type/table"
	"github.com/xylo-lang/xylo/internal/reader/ast"
)

// Callable is implemented by every value that can be called.
type Callable interface {
	cell.I

	Call(t *T, args []cell.I) (cell.I, error)
}

// Template is the shared, parsed form of a function literal. Every
// evaluation of the same literal produces a closure over one template.
type Template struct {
	*ast.Function
}

// Closure is a function value: a template and the environment it was
// created in.
type Closure struct {
	*Template

	checked atomic.Bool
	env     *env.T
	owner   *T
}

type closure = Closure

// Call calls the closure c. Async closures start a task and return nil.
func (c *closure) Call(_ *T, args []cell.I) (cell.I, error) {
	return c.apply(args, nil, false)
}

// Equal returns true if v is a closure over the same template and environment.
func (c *closure) Equal(v cell.I) bool {
	o, ok := v.(*closure)

	return ok && o.Template == c.Template && o.env == c.env
}

// Name returns the runtime kind of a closure.
func (*closure) Name() string {
	return "function"
}

func (c *closure) String() string {
	if c.Function.Name != "" {
		return fmt.Sprintf("function: %s %p", c.Function.Name, c.Template)
	}

	return fmt.Sprintf("function: %p", c.Template)
}

func (c *closure) apply(args []cell.I, self cell.I, wait bool) (cell.I, error) {
	if c.Async && !wait {
		name := c.Function.Name
		if name == "" {
			name = "anonymous"
		}

		c.owner.Spawn(name, func() (cell.I, error) {
			return c.run(args, self)
		}, nil)

		return null.Null, nil
	}

	return c.run(args, self)
}

func (c *closure) run(args []cell.I, self cell.I) (cell.I, error) {
	t := c.owner
	scope := env.New(c.env)

	if self != nil {
		scope.Define("self", self)
	}

	check := t.Params == ParamsAlways || c.checked.CompareAndSwap(false, true)

	for i, p := range c.Params {
		if p.Vararg {
			rest := []cell.I{}
			if i < len(args) {
				rest = args[i:]
			}

			scope.Define("...", table.From(rest...))

			break
		}

		v := cell.I(null.Undefined)
		if i < len(args) {
			v = null.Or(args[i])
		}

		if check {
			if err := CheckType(v, p.Kinds, p.Loc); err != nil {
				return nil, err
			}
		}

		scope.Define(p.Name, v).Restrict(p.Kinds)
	}

	v, _, err := t.block(scope, c.Body)
	if err != nil {
		return nil, err
	}

	v = null.Or(v)

	if err := CheckType(v, c.Returns, c.Loc); err != nil {
		return nil, err
	}

	return v, nil
}

// Bound is a method read from an instance. Calling it makes the
// instance available to the body as self.
type Bound struct {
	fn   cell.I
	recv cell.I
}

// Call calls the underlying method with self set to the receiver.
func (b *Bound) Call(t *T, args []cell.I) (cell.I, error) {
	return t.apply(b, args, nil, false)
}

// Equal returns true if v binds the same method to the same receiver.
func (b *Bound) Equal(v cell.I) bool {
	o, ok := v.(*Bound)

	return ok && o.fn.Equal(b.fn) && o.recv.Equal(b.recv)
}

// Method returns the unbound method.
func (b *Bound) Method() cell.I {
	return b.fn
}

// Name returns the runtime kind of a bound method.
func (*Bound) Name() string {
	return "function"
}

// Receiver returns the instance the method is bound to.
func (b *Bound) Receiver() cell.I {
	return b.recv
}

func (b *Bound) String() string {
	return fmt.Sprint(b.fn)
}

// arguments prepends the receiver when the method declares self as its
// first parameter.
func (b *Bound) arguments(args []cell.I) []cell.I {
	if c, ok := b.fn.(*Closure); ok && len(c.Params) > 0 && c.Params[0].Name == "self" {
		return append([]cell.I{b.recv}, args...)
	}

	return args
}

// Function is the signature of functions implemented in Go.
type Function func(t *T, args []cell.I) (cell.I, error)

// Builtin is a function implemented in Go.
type Builtin struct {
	fn   Function
	name string
}

// NewBuiltin creates a builtin called name.
func NewBuiltin(name string, fn Function) *Builtin {
	return &Builtin{fn: fn, name: name}
}

// Call calls the builtin.
func (b *Builtin) Call(t *T, args []cell.I) (cell.I, error) {
	v, err := b.fn(t, args)
	if err != nil {
		return nil, err
	}

	return null.Or(v), nil
}

// Equal returns true if v is the same builtin.
func (b *Builtin) Equal(v cell.I) bool {
	o, ok := v.(*Builtin)

	return ok && o == b
}

// Name returns the runtime kind of a builtin.
func (*Builtin) Name() string {
	return "function"
}

func (b *Builtin) String() string {
	return "function: builtin " + b.name
}

// A compiler-checked list of interfaces this type satisfies. Never called.
func implements() { //nolint:deadcode,unused
	var b Builtin

	_ = Callable(&b)

	var c Closure

	_ = Callable(&c)

	var m Bound

	_ = Callable(&m)

	var k Class

	_ = Callable(&k)

	var s Scope

	_ = table.Holder(&s)
}
