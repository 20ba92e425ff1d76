// Released under an MIT license. See LICENSE.

// Package task provides the evaluator for xylo programs.
//
// A task evaluates one program or module over a chain of environments.
// Tasks created from the same Runtime share its global registry, its
// function templates and its outstanding asynchronous work.
package task

import (
	"path/filepath"

	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/struct/fault"
	"github.com/xylo-lang/xylo/internal/common/type/env"
	"github.com/xylo-lang/xylo/internal/common/type/null"
	"github.com/xylo-lang/xylo/internal/common/type/table"
	"github.com/xylo-lang/xylo/internal/reader/ast"
	"github.com/xylo-lang/xylo/internal/reader/parser"
)

type control int

const (
	normal control = iota
	broke
	returned
)

// T (task) evaluates a program.
type T struct {
	*Runtime

	chain  []string
	global *env.T
	path   string
}

// New creates a task for the program at path. Chain lists the modules
// whose loading led to this one, outermost first. The prelude, if any,
// is installed into the task's global environment.
func New(r *Runtime, path string, chain []string) *T {
	t := &T{
		Runtime: r,
		chain:   chain,
		global:  env.New(r.registry),
		path:    path,
	}

	r.register(t.global)

	if r.Prelude != nil {
		r.Prelude(t)
	}

	return t
}

// Chain returns the load chain of the task, ending with its own path.
func (t *T) Chain() []string {
	if t.path == "" {
		return t.chain
	}

	return append(append([]string{}, t.chain...), t.path)
}

// Close removes the task's global environment from the set that
// receives global declarations.
func (t *T) Close() {
	t.unregister(t.global)
}

// Dir returns the directory of the task's program, or "" if it has no file.
func (t *T) Dir() string {
	if t.path == "" {
		return ""
	}

	return filepath.Dir(t.path)
}

// Global returns the task's global environment.
func (t *T) Global() *env.T {
	return t.global
}

// Evaluate parses source and runs it in a fresh task sharing t's runtime.
func (t *T) Evaluate(source, name string) (cell.I, error) {
	nodes, err := parser.Parse(source, name)
	if err != nil {
		return nil, err
	}

	s := New(t.Runtime, t.path, t.chain)
	defer s.Close()

	return s.Run(nodes)
}

// Export runs nodes as a module and returns its exports. The module sees
// an empty exports table. An explicit top-level return of a value other
// than nil replaces the exports.
func (t *T) Export(nodes []ast.Node) (cell.I, error) {
	t.global.Define("exports", table.New())

	v, c, err := t.block(t.global, nodes)
	if err != nil {
		return nil, err
	}

	if c == returned && !null.Is(v) {
		return v, nil
	}

	return null.Or(t.global.Local("exports").Get()), nil
}

// Path returns the file the task's program was read from.
func (t *T) Path() string {
	return t.path
}

// Run runs nodes in the task's global environment and returns the value
// of an explicit top-level return, or else the value of the last node.
func (t *T) Run(nodes []ast.Node) (cell.I, error) {
	v, _, err := t.block(t.global, nodes)
	if err != nil {
		return nil, err
	}

	return null.Or(v), nil
}

func (t *T) block(e *env.T, nodes []ast.Node) (cell.I, control, error) {
	var v cell.I = null.Null

	for _, n := range nodes {
		r, c, err := t.exec(e, n)
		if err != nil {
			return nil, normal, err
		}

		if c != normal {
			return r, c, nil
		}

		v = r
	}

	return v, normal, nil
}

func (t *T) exec(e *env.T, n ast.Node) (v cell.I, c control, err error) {
	defer func() {
		if err != nil {
			err = fault.Annotate(err, n.Source())
		}
	}()

	switch n := n.(type) {
	case *ast.Break:
		return null.Null, broke, nil

	case *ast.For:
		return t.forLoop(e, n)

	case *ast.ForIn:
		return t.forIn(e, n)

	case *ast.Function:
		return t.define(e, n)

	case *ast.If:
		cond, err := t.eval(e, n.Cond)
		if err != nil {
			return nil, normal, err
		}

		if Truth(cond) {
			return t.block(e, n.Then)
		}

		return t.block(e, n.Else)

	case *ast.Return:
		if n.Value == nil {
			return null.Null, returned, nil
		}

		v, err := t.eval(e, n.Value)

		return v, returned, err

	case *ast.Switch:
		return t.switchStatement(e, n)

	case *ast.Try:
		return t.try(e, n)

	case *ast.While:
		for {
			cond, err := t.eval(e, n.Cond)
			if err != nil {
				return nil, normal, err
			}

			if !Truth(cond) {
				return null.Null, normal, nil
			}

			v, c, err := t.block(e, n.Body)
			if err != nil || c == returned {
				return v, c, err
			}

			if c == broke {
				return null.Null, normal, nil
			}
		}
	}

	v, err = t.eval(e, n)

	return v, normal, err
}
