// Released under an MIT license. See LICENSE.

// Package ast defines the nodes produced by the xylo parser.
//
// Every node records the location of the token that introduced it.
// Nodes are never modified after parsing.
package ast

import (
	"github.com/xylo-lang/xylo/internal/common/struct/loc"
)

// Node is implemented by every AST node.
type Node interface {
	Source() *loc.T
}

// Kinds is a type annotation: the permitted runtime kinds of a value.
// An empty annotation permits everything.
type Kinds []string

// Pos is embedded in every node to record its location.
type Pos struct {
	Loc *loc.T
}

// Source returns the location of the node.
func (p Pos) Source() *loc.T {
	return p.Loc
}

// Literals.
type (
	Boolean struct {
		Pos
		Value bool
	}

	Nil struct {
		Pos
	}

	Number struct {
		Pos
		Value float64
	}

	String struct {
		Pos
		Value string
	}

	Vararg struct {
		Pos
	}
)

// Entry is one key/value pair in a table constructor.
// Positional entries carry the implicit numeric key.
type Entry struct {
	Key   Node
	Value Node
}

// Table is a table constructor.
type Table struct {
	Pos
	Entries []Entry
	Kinds   Kinds
}

// Expressions.
type (
	Assign struct {
		Pos
		Target Node // *Identifier or *Member.
		Value  Node
		Kinds  Kinds
	}

	Binary struct {
		Pos
		Op          string
		Left, Right Node
	}

	Call struct {
		Pos
		Callee Node
		Args   []Node
	}

	// Instantiate is a call whose callee is an identifier starting with
	// an uppercase letter.
	Instantiate struct {
		Pos
		Class *Identifier
		Args  []Node
	}

	Identifier struct {
		Pos
		Name string
	}

	// Member is obj.name when Computed is false and obj[Property] otherwise.
	Member struct {
		Pos
		Object   Node
		Name     string
		Property Node
		Computed bool
	}

	// MethodCall is obj:name(args). The receiver is passed as the first argument.
	MethodCall struct {
		Pos
		Object Node
		Name   string
		Args   []Node
	}

	Require struct {
		Pos
		Name string
	}

	Unary struct {
		Pos
		Op      string
		Operand Node
	}

	Update struct {
		Pos
		Op     string
		Target Node
	}
)

// Param is a function parameter.
type Param struct {
	Pos
	Name   string
	Kinds  Kinds
	Vararg bool
}

// Function is a function literal or definition. A named function used as
// a statement defines Name in the current scope. When Owner is set it
// defines the method Name on the value bound to Owner, and the parser
// has added an implicit first parameter named self.
type Function struct {
	Pos
	Name    string
	Owner   string
	Params  []Param
	Returns Kinds
	Body    []Node
	Async   bool
	Private bool
	Hash    uint64
}

// Vararg reports whether the final parameter collects remaining arguments.
func (f *Function) Vararg() bool {
	n := len(f.Params)

	return n > 0 && f.Params[n-1].Vararg
}

// Field is a class field declaration.
type Field struct {
	Pos
	Name    string
	Value   Node // May be nil.
	Private bool
	Static  bool
}

// Class is a class definition.
type Class struct {
	Pos
	Name          string
	Parent        *Identifier // May be nil.
	Fields        []Field
	Methods       []*Function
	StaticFields  []Field
	StaticMethods []*Function
}

// Case is one arm of a switch.
type Case struct {
	Pos
	Value Node
	Body  []Node
}

// Statements.
type (
	Break struct {
		Pos
	}

	// For is a numeric for loop.
	For struct {
		Pos
		Var               string
		Start, Stop, Step Node
		Body              []Node
	}

	ForIn struct {
		Pos
		Key, Value string
		Iterator   Node
		Body       []Node
	}

	// Global declares Name in every live global environment.
	Global struct {
		Pos
		Name  string
		Kinds Kinds
		Value Node // May be nil.
	}

	If struct {
		Pos
		Cond Node
		Then []Node
		Else []Node
	}

	Local struct {
		Pos
		Name  string
		Kinds Kinds
		Value Node // May be nil.
	}

	Return struct {
		Pos
		Value Node // May be nil.
	}

	Switch struct {
		Pos
		Subject    Node
		Cases      []Case
		Default    []Node
		HasDefault bool
	}

	Try struct {
		Pos
		Body     []Node
		Catch    string
		Handler  []Node
		HasCatch bool
	}

	While struct {
		Pos
		Cond Node
		Body []Node
	}
)
