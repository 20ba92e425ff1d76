// Released under an MIT license. See LICENSE.

// Package loader resolves and loads the modules named by require.
//
// A request is answered, in order, from the table of built-in libraries,
// from the cache of modules already loaded, or by finding a file and
// running it. Source files run in a nested task that shares the
// requesting task's runtime. Shared objects are opened as Go plugins.
package loader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"plugin"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/struct/fault"
	"github.com/xylo-lang/xylo/internal/engine/task"
	"github.com/xylo-lang/xylo/internal/reader/parser"
	"github.com/xylo-lang/xylo/internal/system/cache"
)

// Extension is the extension of xylo source files.
const Extension = ".xylo"

// Factory creates a fresh instance of a built-in library.
type Factory func(t *task.T) (cell.I, error)

// T (loader) resolves and loads modules for one runtime.
type T struct {
	builtins map[string]Factory
	cache    *cache.T
	flight   singleflight.Group
	logger   *slog.Logger
	roots    []string
}

type loader = T

// New creates a loader. Roots are searched for bare module names after
// the requesting directory, the working directory and XYLOPATH.
func New(builtins map[string]Factory, roots []string, logger *slog.Logger) *loader {
	if logger == nil {
		logger = slog.Default()
	}

	return &loader{
		builtins: builtins,
		cache:    cache.New(),
		logger:   logger,
		roots:    roots,
	}
}

// Cached returns the paths of every module loaded so far.
func (l *loader) Cached() []string {
	return l.cache.Paths()
}

// Load returns the exports of the module name requested by t.
func (l *loader) Load(t *task.T, name string) (cell.I, error) {
	if f, ok := l.builtins[name]; ok {
		return f(t)
	}

	path, tried := l.Resolve(name, t.Dir())
	if path == "" {
		return nil, fault.New(fault.ModuleNotFound, nil,
			"Module not found: %s (tried: %s)", name, strings.Join(tried, ", "))
	}

	chain := t.Chain()
	for i, p := range chain {
		if p == path {
			cycle := append(append([]string{}, chain[i:]...), path)

			return nil, fault.New(fault.Cycle, nil, "import cycle: %s", strings.Join(cycle, " -> "))
		}
	}

	if v, ok := l.cache.Get(path); ok {
		return v, nil
	}

	v, err, _ := l.flight.Do(path, func() (any, error) {
		if v, ok := l.cache.Get(path); ok {
			return v, nil
		}

		v, err := l.load(t, path)
		if err != nil {
			return nil, err
		}

		l.logger.Debug("module loaded", "name", name, "path", path)

		return l.cache.Put(path, v), nil
	})
	if err != nil {
		return nil, err
	}

	return v.(cell.I), nil //nolint:forcetypeassert
}

// Resolve finds the file for the module name requested from the
// directory from. It returns the absolute path, or "" and every
// candidate that was tried.
func (l *loader) Resolve(name, from string) (string, []string) {
	cwd, _ := os.Getwd()

	var dirs []string

	switch {
	case filepath.IsAbs(name):
		dirs = []string{""}
	case strings.HasPrefix(name, "."):
		if from == "" {
			from = cwd
		}

		dirs = []string{from}
	default:
		if from != "" {
			dirs = append(dirs, from)
		}

		dirs = append(dirs, cwd)
		dirs = append(dirs, filepath.SplitList(os.Getenv("XYLOPATH"))...)
		dirs = append(dirs, l.roots...)
	}

	var tried []string

	seen := map[string]bool{}

	for _, dir := range dirs {
		for _, c := range candidates(filepath.Join(dir, name)) {
			if seen[c] {
				continue
			}

			seen[c] = true
			tried = append(tried, c)

			if info, err := os.Stat(c); err == nil && info.Mode().IsRegular() {
				if abs, err := filepath.Abs(c); err == nil {
					return abs, tried
				}

				return c, tried
			}
		}
	}

	return "", tried
}

func (l *loader) load(t *task.T, path string) (cell.I, error) {
	if filepath.Ext(path) == ".so" {
		return native(path)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	nodes, err := parser.Parse(string(b), path)
	if err != nil {
		return nil, err
	}

	return task.New(t.Runtime, path, t.Chain()).Export(nodes)
}

// candidates lists the files tried for base. Only a name that already
// ends in a module extension is tried as given.
func candidates(base string) []string {
	if ext := filepath.Ext(base); ext == Extension || ext == ".so" {
		return []string{base}
	}

	return []string{base + Extension, base, base + ".so"}
}

func native(path string) (cell.I, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("native module load error: %w", err)
	}

	sym, err := p.Lookup("Exports")
	if err != nil {
		return nil, fmt.Errorf("native module load error: %w", err)
	}

	switch exports := sym.(type) {
	case *map[string]any:
		return task.FromGo(*exports), nil
	case map[string]any:
		return task.FromGo(exports), nil
	}

	return nil, fault.New(fault.TypeMismatch, nil,
		"Unsupported module type: %s exports %T", path, sym)
}
