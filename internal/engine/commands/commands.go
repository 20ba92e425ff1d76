// Released under an MIT license. See LICENSE.

// Package commands provides xylo's builtin functions and libraries.
package commands

import (
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/struct/fault"
	"github.com/xylo-lang/xylo/internal/common/type/str"
	"github.com/xylo-lang/xylo/internal/common/type/table"
	"github.com/xylo-lang/xylo/internal/engine/loader"
	"github.com/xylo-lang/xylo/internal/engine/task"
)

// Host capabilities.
const (
	HTTP   = "http"
	OS     = "os"
	Timers = "timers"
	YAML   = "yaml"
)

// Capabilities lists every capability this host can grant.
func Capabilities() []string {
	return []string{HTTP, OS, Timers, YAML}
}

// T (commands) is the set of builtins installed into every task of a runtime.
type T struct {
	// Exit ends the process. It is called by os.exit.
	Exit func(code int)

	enabled map[string]bool
	once    sync.Once
	shared  map[string]cell.I
	text    *table.T
}

type commands = T

// New creates the builtins for a host granting capabilities. A nil slice
// grants every capability.
func New(capabilities []string) (*commands, error) {
	if capabilities == nil {
		capabilities = Capabilities()
	}

	enabled := map[string]bool{}

	for _, c := range capabilities {
		if !gated(c) {
			return nil, fault.New(fault.Capability, nil,
				"unknown capability: %s (known: %s)", c, strings.Join(Capabilities(), ", "))
		}

		enabled[c] = true
	}

	return &commands{
		Exit:    os.Exit,
		enabled: enabled,
		text:    library(StringFunctions()),
	}, nil
}

// Attach makes r install these builtins into each new task and use the
// string library for method calls on strings.
func (c *commands) Attach(r *task.Runtime) {
	r.Prelude = c.Install
	r.Strings = c.text
}

// Enabled returns true if the capability k was granted.
func (c *commands) Enabled(k string) bool {
	return c.enabled[k]
}

// Install defines the core functions and the library tables in the
// global environment of t. Library tables are shared by every task.
func (c *commands) Install(t *task.T) {
	g := t.Global()

	for k, fn := range c.Functions() {
		g.Define(k, task.NewBuiltin(k, fn))
	}

	c.once.Do(func() {
		c.shared = map[string]cell.I{}

		for k, f := range c.Libraries() {
			if v, err := f(t); err == nil {
				c.shared[k] = v
			}
		}

		c.shared["string"] = c.text
	})

	for k, v := range c.shared {
		g.Define(k, v)
	}

	g.Define("_G", task.NewScope(g))
}

// Libraries returns a factory for each library that require can name.
// Each call of a factory creates a fresh library table.
func (c *commands) Libraries() map[string]loader.Factory {
	builders := map[string]func() *table.T{
		"json":   JSON,
		"math":   Math,
		"string": func() *table.T { return library(StringFunctions()) },
		"table":  Tables,

		HTTP: HTTPLibrary,
		OS:   c.OS,
		YAML: YAMLLibrary,
	}

	libraries := map[string]loader.Factory{
		"dom":   unavailable("dom"),
		"noise": unavailable("noise"),
	}

	for k, build := range builders {
		if gated(k) && !c.enabled[k] {
			libraries[k] = unavailable(k)

			continue
		}

		build := build

		libraries[k] = func(*task.T) (cell.I, error) {
			return build(), nil
		}
	}

	return libraries
}

// Strings returns the string library shared by method calls on strings
// and the global string.
func (c *commands) Strings() *table.T {
	return c.text
}

func gated(k string) bool {
	for _, c := range Capabilities() {
		if c == k {
			return true
		}
	}

	return false
}

func library(fns map[string]task.Function) *table.T {
	names := make([]string, 0, len(fns))
	for k := range fns {
		names = append(names, k)
	}

	sort.Strings(names)

	t := table.New()
	for _, k := range names {
		t.Set(str.New(k), task.NewBuiltin(k, fns[k]))
	}

	return t
}

func unavailable(name string) loader.Factory {
	return func(*task.T) (cell.I, error) {
		return nil, fault.New(fault.Capability, nil, "capability not available in this host: %s", name)
	}
}
