// Released under an MIT license. See LICENSE.

// Package env provides xylo's lexical environment type.
package env

import (
	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/interface/reference"
	"github.com/xylo-lang/xylo/internal/common/struct/hash"
)

// T (env) maps names to variables and links to an enclosing env.
type T struct {
	previous *T
	*names
}

type env = T

// We alias hash.T to names so that when embedded it is easy to refer to
// it by name. Embedding names also lets us access its methods directly.
type names = hash.T

// New creates a new env enclosed by previous.
func New(previous *T) *env {
	return &env{
		previous: previous,
		names:    hash.New(),
	}
}

// Define creates a fresh variable k holding v in the env e.
func (e *env) Define(k string, v cell.I) reference.I {
	return e.Set(k, v)
}

// Enclosing returns the enclosing env.
func (e *env) Enclosing() *env {
	return e.previous
}

// Local retrieves the variable k only if the env e itself binds it.
func (e *env) Local(k string) reference.I {
	return e.Get(k)
}

// Lookup retrieves the variable k from the env e or the nearest enclosing env.
func (e *env) Lookup(k string) reference.I {
	_, r := e.Owner(k)

	return r
}

// Owner returns the nearest env binding k, starting at e, and the variable.
func (e *env) Owner(k string) (*env, reference.I) {
	for o := e; o != nil; o = o.previous {
		if r := o.Get(k); r != nil {
			return o, r
		}
	}

	return nil, nil
}
