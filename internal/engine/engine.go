// Released under an MIT license. See LICENSE.

// Package engine provides an evaluator for xylo programs.
package engine

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/type/str"
	"github.com/xylo-lang/xylo/internal/common/type/table"
	"github.com/xylo-lang/xylo/internal/engine/commands"
	"github.com/xylo-lang/xylo/internal/engine/loader"
	"github.com/xylo-lang/xylo/internal/engine/task"
	"github.com/xylo-lang/xylo/internal/reader/ast"
	"github.com/xylo-lang/xylo/internal/reader/parser"
)

// Version is the interpreter version.
const Version = "1.0.0"

// Config holds the settings for a new engine.
type Config struct {
	// Args are exposed to programs as the global table arg.
	Args []string

	// Capabilities lists the host capabilities granted. Nil grants all.
	Capabilities []string

	// Exit ends the process on os.exit. It defaults to os.Exit.
	Exit func(code int)

	Logger *slog.Logger
	Params task.Policy

	// Roots are searched for modules after XYLOPATH.
	Roots []string

	// Stdout receives the output of print. It defaults to os.Stdout.
	Stdout io.Writer
}

// T (engine) is a facade in front of the machinery for evaluating xylo code.
type T struct {
	commands *commands.T
	loader   *loader.T
	runtime  *task.Runtime
}

type engine = T

// New creates an engine configured by c.
func New(c Config) (*engine, error) {
	cmds, err := commands.New(c.Capabilities)
	if err != nil {
		return nil, err
	}

	if c.Exit != nil {
		cmds.Exit = c.Exit
	}

	r := task.NewRuntime(c.Logger)
	r.Params = c.Params

	if c.Stdout != nil {
		r.Stdout = c.Stdout
	}

	cmds.Attach(r)

	args := make([]cell.I, len(c.Args))
	for i, a := range c.Args {
		args[i] = str.New(a)
	}

	arg := table.From(args...)

	r.Prelude = func(t *task.T) {
		cmds.Install(t)
		t.Global().Define("arg", arg)
	}

	l := loader.New(cmds.Libraries(), c.Roots, r.Logger)
	r.Loader = l

	return &engine{commands: cmds, loader: l, runtime: r}, nil
}

// Errors returns the channel receiving failures of asynchronous tasks.
func (e *engine) Errors() <-chan error {
	return e.runtime.Errors()
}

// Modules returns the paths of every module loaded so far.
func (e *engine) Modules() []string {
	return e.loader.Cached()
}

// Run evaluates source, labelled name, and returns its final value.
// Relative module requests resolve against the working directory.
func (e *engine) Run(source, name string) (cell.I, error) {
	nodes, err := parser.Parse(source, name)
	if err != nil {
		return nil, err
	}

	return e.run("", nodes)
}

// RunFile evaluates the program in the file at path.
func (e *engine) RunFile(path string) (cell.I, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}

	nodes, err := parser.Parse(string(b), abs)
	if err != nil {
		return nil, err
	}

	return e.run(abs, nodes)
}

// Session creates a task whose global environment persists across
// evaluations.
func (e *engine) Session() *Session {
	return &Session{task: task.New(e.runtime, "", nil)}
}

// Wait blocks until every asynchronous task and timer has finished.
func (e *engine) Wait() {
	e.runtime.Wait()
}

func (e *engine) run(path string, nodes []ast.Node) (cell.I, error) {
	t := task.New(e.runtime, path, nil)
	defer t.Close()

	return t.Run(nodes)
}

// Session evaluates successive inputs in one global environment.
type Session struct {
	task *task.T
}

// Close stops the session from receiving global declarations.
func (s *Session) Close() {
	s.task.Close()
}

// Evaluate runs nodes and returns the value of the last one.
func (s *Session) Evaluate(nodes []ast.Node) (cell.I, error) {
	return s.task.Run(nodes)
}

// Names returns every name visible in the session's global environment.
func (s *Session) Names() []string {
	seen := map[string]bool{}

	var names []string

	for e := s.task.Global(); e != nil; e = e.Enclosing() {
		for _, k := range e.Names() {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}

	sort.Strings(names)

	return names
}

// Run evaluates source with every capability granted, waits for any
// asynchronous work it started, and returns its final value.
func Run(source string) (cell.I, error) {
	e, err := New(Config{})
	if err != nil {
		return nil, err
	}

	v, err := e.Run(source, "main")

	e.Wait()

	return v, err
}
