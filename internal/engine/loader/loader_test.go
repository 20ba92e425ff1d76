// Released under an MIT license. See LICENSE.

package loader

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/struct/fault"
	"github.com/xylo-lang/xylo/internal/common/type/num"
	"github.com/xylo-lang/xylo/internal/common/type/str"
	"github.com/xylo-lang/xylo/internal/common/type/table"
	"github.com/xylo-lang/xylo/internal/engine/task"
	"github.com/xylo-lang/xylo/internal/reader/parser"
)

type harness struct {
	dir    string
	loads  atomic.Int32
	loader *T
	t      *testing.T
}

func setup(t *testing.T, files map[string]string) *harness {
	t.Helper()

	h := &harness{dir: t.TempDir(), t: t}

	for name, source := range files {
		path := filepath.Join(h.dir, name)

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}

		if err := os.WriteFile(path, []byte(source), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	h.loader = New(map[string]Factory{
		"math": func(_ *task.T) (cell.I, error) {
			m := table.New()
			m.Set(str.New("pi"), num.New(3.14))

			return m, nil
		},
	}, nil, nil)

	return h
}

func (h *harness) run(name string) (cell.I, error) {
	h.t.Helper()

	path := filepath.Join(h.dir, name)

	b, err := os.ReadFile(path)
	if err != nil {
		h.t.Fatal(err)
	}

	nodes, err := parser.Parse(string(b), path)
	if err != nil {
		h.t.Fatal(err)
	}

	r := task.NewRuntime(nil)
	r.Loader = h.loader
	r.Prelude = func(k *task.T) {
		k.Global().Define("tick", task.NewBuiltin("tick", func(_ *task.T, _ []cell.I) (cell.I, error) {
			h.loads.Add(1)

			return nil, nil
		}))
	}

	return task.New(r, path, nil).Run(nodes)
}

func TestDiamondLoadsOnce(t *testing.T) {
	h := setup(t, map[string]string{
		"main.xylo": `
local b = require("./b")
local c = require("./c")
return b.d == c.d and b.d.value == 1`,
		"b.xylo": `exports.d = require("./d")`,
		"c.xylo": `exports.d = require("./d.xylo")`,
		"d.xylo": "tick()\nexports.value = 1",
	})

	v, err := h.run("main.xylo")
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(true, task.ToGo(v)); diff != "" {
		t.Fatalf("exports differ (-want +got):\n%s", diff)
	}

	if n := h.loads.Load(); n != 1 {
		t.Fatalf("expected the shared module to run once, ran %d times", n)
	}

	if n := len(h.loader.Cached()); n != 3 {
		t.Fatalf("expected 3 cached modules, got %d", n)
	}
}

func TestCycle(t *testing.T) {
	h := setup(t, map[string]string{
		"a.xylo": `require("./b")`,
		"b.xylo": `require("./a")`,
	})

	_, err := h.run("a.xylo")
	if !fault.Is(err, fault.Cycle) {
		t.Fatalf("expected an import cycle, got %v", err)
	}

	if !strings.Contains(err.Error(), "a.xylo -> ") {
		t.Fatalf("expected the chain in %q", err.Error())
	}
}

func TestNotFoundListsCandidates(t *testing.T) {
	h := setup(t, map[string]string{
		"main.xylo": `require("./missing")`,
	})

	_, err := h.run("main.xylo")
	if !fault.Is(err, fault.ModuleNotFound) {
		t.Fatalf("expected module not found, got %v", err)
	}

	for _, suffix := range []string{"missing.xylo", "missing,", "missing.so"} {
		if !strings.Contains(err.Error(), suffix) {
			t.Errorf("expected %q in %q", suffix, err.Error())
		}
	}
}

func TestBuiltinsAreFresh(t *testing.T) {
	h := setup(t, map[string]string{
		"main.xylo": `
local a = require("math")
local b = require("math")
return {a == b, a.pi}`,
	})

	v, err := h.run("main.xylo")
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]any{false, 3.14}, task.ToGo(v)); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchPath(t *testing.T) {
	lib := t.TempDir()

	if err := os.WriteFile(filepath.Join(lib, "util.xylo"), []byte("return {name = \"util\"}"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("XYLOPATH", lib)

	h := setup(t, map[string]string{
		"main.xylo": `return require("util").name`,
	})

	v, err := h.run("main.xylo")
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff("util", task.ToGo(v)); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestNestedRelativeRequire(t *testing.T) {
	h := setup(t, map[string]string{
		"main.xylo":      `return require("./pkg/outer").inner`,
		"pkg/outer.xylo": `exports.inner = require("./inner").name`,
		"pkg/inner.xylo": `exports.name = "inner"`,
	})

	v, err := h.run("main.xylo")
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff("inner", task.ToGo(v)); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSyntaxErrorInModule(t *testing.T) {
	h := setup(t, map[string]string{
		"main.xylo": `require("./bad")`,
		"bad.xylo":  "if x then",
	})

	if _, err := h.run("main.xylo"); !fault.Is(err, fault.Syntax) {
		t.Fatalf("expected a syntax error, got %v", err)
	}
}

func TestDottedNames(t *testing.T) {
	h := setup(t, map[string]string{
		"main.xylo":       `return {require("./v1.2").version, require("./utils.core").name}`,
		"v1.2.xylo":       `exports.version = "1.2"`,
		"utils.core.xylo": `exports.name = "core"`,
	})

	v, err := h.run("main.xylo")
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]any{"1.2", "core"}, task.ToGo(v)); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestCandidates(t *testing.T) {
	cases := map[string][]string{
		"m":      {"m.xylo", "m", "m.so"},
		"v1.2":   {"v1.2.xylo", "v1.2", "v1.2.so"},
		"m.xylo": {"m.xylo"},
		"m.so":   {"m.so"},
	}

	for base, expected := range cases {
		if diff := cmp.Diff(expected, candidates(base)); diff != "" {
			t.Errorf("%s: mismatch (-want +got):\n%s", base, diff)
		}
	}
}
