// Released under an MIT license. See LICENSE.

// Package obj provides xylo's class instance type.
package obj

import (
	"fmt"

	"github.com/xylo-lang/xylo/internal/common"
	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/interface/literal"
	"github.com/xylo-lang/xylo/internal/common/struct/hash"
	"github.com/xylo-lang/xylo/internal/common/type/table"
)

// T (obj) is an instance of a class. Its public members live in a table
// whose prototype is the class prototype. Private members live in a
// separate store owned by the instance.
type T struct {
	class   cell.I
	private *hash.T
	public  *table.T
}

type obj = T

// New creates an instance of class backed by the prototype proto.
func New(class cell.I, proto *table.T) *obj {
	public := table.New()
	public.SetProto(proto)

	return &obj{
		class:   class,
		private: hash.New(),
		public:  public,
	}
}

// Is returns true if c is an obj.
func Is(c cell.I) bool {
	_, ok := c.(*obj)

	return ok
}

// Class returns the class that created the obj o.
func (o *obj) Class() cell.I {
	return o.class
}

// Equal returns true if c is the same obj as o.
func (o *obj) Equal(c cell.I) bool {
	return o == c
}

// Literal returns the rendering of the public members of o.
func (o *obj) Literal() string {
	return o.public.Literal()
}

// Name returns the kind name of instances.
func (o *obj) Name() string {
	return "table"
}

// Private returns the private member store of o.
func (o *obj) Private() *hash.T {
	return o.private
}

// String returns the display string of o.
func (o *obj) String() string {
	return fmt.Sprintf("%s: %p", common.String(o.class), o)
}

// Table returns the public member table of o.
func (o *obj) Table() *table.T {
	return o.public
}

// A compiler-checked list of interfaces this type satisfies. Never called.
func implements() { //nolint:deadcode,unused
	var t obj

	// The obj type is a cell.
	_ = cell.I(&t)

	// The obj type has a literal representation.
	_ = literal.I(&t)

	// The obj type is backed by a table.
	_ = table.Holder(&t)
}
