// Released under an MIT license. See LICENSE.

package task

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/struct/slot"
	"github.com/xylo-lang/xylo/internal/common/type/env"
	"github.com/xylo-lang/xylo/internal/common/type/table"
	"github.com/xylo-lang/xylo/internal/reader/ast"
)

// Loader resolves require requests. The task t is the requesting evaluator.
type Loader interface {
	Load(t *T, name string) (cell.I, error)
}

// Policy controls how often parameter annotations are checked.
type Policy int

// Parameter check policies.
const (
	// ParamsAlways checks parameter annotations on every call.
	ParamsAlways Policy = iota
	// ParamsOnce checks parameter annotations on the first call of each closure.
	ParamsOnce
)

// Runtime holds the state shared by every evaluator of one program:
// the live global environments, the registry of global declarations,
// the function template cache, and outstanding asynchronous work.
type Runtime struct {
	Loader  Loader
	Logger  *slog.Logger
	Params  Policy
	Prelude func(t *T)
	Stdout  io.Writer

	// Strings is consulted for member access on string values.
	Strings *table.T

	errs      chan error
	globals   map[*env.T]struct{}
	mu        sync.Mutex
	registry  *env.T
	tasks     sync.WaitGroup
	templates sync.Map
	timers    *timers
}

// NewRuntime creates a runtime logging to logger. A nil logger discards output.
func NewRuntime(logger *slog.Logger) *Runtime {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Runtime{
		Logger:   logger,
		Stdout:   os.Stdout,
		errs:     make(chan error, 64),
		globals:  map[*env.T]struct{}{},
		registry: env.New(nil),
		timers:   newTimers(),
	}
}

// Errors returns the channel receiving failures of asynchronous tasks.
// Sends never block: when nobody is reading, failures are only logged.
func (r *Runtime) Errors() <-chan error {
	return r.errs
}

// Wait blocks until every asynchronous task and pending timer has finished.
func (r *Runtime) Wait() {
	r.tasks.Wait()
}

// Spawn runs fn as an independent task. A failure is logged and sent to
// the error channel. If done is not nil it receives fn's outcome.
func (r *Runtime) Spawn(name string, fn func() (cell.I, error), done func(cell.I, error)) {
	r.tasks.Add(1)

	go func() {
		defer r.tasks.Done()

		r.Logger.Debug("task started", "task", name)

		v, err := fn()
		if err != nil {
			r.report(name, err)
		}

		if done != nil {
			done(v, err)
		}

		r.Logger.Debug("task finished", "task", name)
	}()
}

func (r *Runtime) declare(k string, v cell.I, kinds []string) {
	s := slot.New(v)
	s.Restrict(kinds)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.registry.Bind(k, s)

	for g := range r.globals {
		g.Bind(k, s)
	}
}

func (r *Runtime) register(g *env.T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.globals[g] = struct{}{}
}

func (r *Runtime) report(name string, err error) {
	r.Logger.Error("async task failed", "task", name, "err", err)

	select {
	case r.errs <- err:
	default:
	}
}

func (r *Runtime) template(fn *ast.Function) *Template {
	v, _ := r.templates.LoadOrStore(fn.Hash, &Template{Function: fn})

	return v.(*Template) //nolint:forcetypeassert
}

func (r *Runtime) unregister(g *env.T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.globals, g)
}
