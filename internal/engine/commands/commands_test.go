// Released under an MIT license. See LICENSE.

package commands

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/struct/fault"
	"github.com/xylo-lang/xylo/internal/engine/loader"
	"github.com/xylo-lang/xylo/internal/engine/task"
	"github.com/xylo-lang/xylo/internal/reader/parser"
)

type harness struct {
	commands *T
	exited   int
	out      bytes.Buffer
	runtime  *task.Runtime
}

func setup(t *testing.T, capabilities []string) *harness {
	t.Helper()

	c, err := New(capabilities)
	if err != nil {
		t.Fatal(err)
	}

	h := &harness{commands: c, exited: -1, runtime: task.NewRuntime(nil)}

	c.Exit = func(code int) { h.exited = code }
	c.Attach(h.runtime)

	h.runtime.Stdout = &h.out
	h.runtime.Loader = loader.New(c.Libraries(), nil, nil)

	return h
}

func (h *harness) run(t *testing.T, source string) (cell.I, error) {
	t.Helper()

	nodes, err := parser.Parse(source, "test")
	if err != nil {
		t.Fatalf("%q: %v", source, err)
	}

	k := task.New(h.runtime, "", nil)
	defer k.Close()

	v, err := k.Run(nodes)

	h.runtime.Wait()

	return v, err
}

func (h *harness) check(t *testing.T, source string, expected any) {
	t.Helper()

	v, err := h.run(t, source)
	if err != nil {
		t.Fatalf("%q: unexpected error: %v", source, err)
	}

	if diff := cmp.Diff(expected, task.ToGo(v)); diff != "" {
		t.Fatalf("%q: mismatch (-want +got):\n%s", source, diff)
	}
}

func (h *harness) failure(t *testing.T, source string, k fault.Kind) *fault.T {
	t.Helper()

	_, err := h.run(t, source)
	if err == nil {
		t.Fatalf("%q: expected an error", source)
	}

	f, ok := fault.As(err)
	if !ok || f.Kind != k {
		t.Fatalf("%q: expected %v, got %v", source, k, err)
	}

	return f
}

func check(t *testing.T, source string, expected any) {
	t.Helper()

	setup(t, nil).check(t, source, expected)
}

func failure(t *testing.T, source string, k fault.Kind) *fault.T {
	t.Helper()

	return setup(t, nil).failure(t, source, k)
}

func TestPrint(t *testing.T) {
	h := setup(t, nil)

	h.check(t, `print("a", 1, true, nil, {1, 2})`, nil)

	if diff := cmp.Diff("a 1 true null {1, 2}\n", h.out.String()); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestType(t *testing.T) {
	check(t, `return {type(1), type("s"), type(nil), type({}), type(print), type(true)}`,
		[]any{"number", "string", "null", "table", "function", "boolean"})
}

func TestConversions(t *testing.T) {
	check(t, `return {tonumber("12"), tonumber("0x1f"), tonumber(""), tonumber(true), tonumber("x", 7)}`,
		[]any{12.0, 31.0, 0.0, 1.0, 7.0})
	check(t, `return {tostring(1.5), tostring(nil), tostring(false)}`,
		[]any{"1.5", "null", "false"})
	check(t, `return tonumber("nan")`, 0.0)
}

func TestLen(t *testing.T) {
	check(t, `return len("héllo")`, 5.0)
	check(t, `return len({1, 2, 3}, "ab")`, 5.0)

	failure(t, `return len(nil)`, fault.TypeMismatch)
}

func TestAssert(t *testing.T) {
	check(t, `return assert(3)`, 3.0)

	f := failure(t, `assert(false, "nope")`, fault.Thrown)
	if f.Message != "Assertion failed: nope" {
		t.Fatalf("unexpected message %q", f.Message)
	}

	f = failure(t, `assert(nil)`, fault.Thrown)
	if f.Message != "Assertion failed: Condition is false" {
		t.Fatalf("unexpected message %q", f.Message)
	}
}

func TestProtectedCalls(t *testing.T) {
	check(t, `
local r = pcall(function(a, b) return a + b end, 1, 2)
return {r.result, r.isComplete}`, []any{3.0, true})

	check(t, `
local r = pcall(function() error("boom") end)
return {r.error, r.isComplete}`, []any{"boom", false})

	check(t, `return pcall(1).error`, "Attempt to call a non-function")

	check(t, `
local r = xpcall(function() error({code = 4}) end, function(e) return e.code * 2 end)
return {r.result, r.isComplete, r.handled}`, []any{8.0, false, true})

	check(t, `
local r = xpcall(function() return "ok" end, print)
return {r.result, r.isComplete}`, []any{"ok", true})
}

func TestIterators(t *testing.T) {
	check(t, `
local keys = {}
local values = {}
for k, v in pairs({a = 1, b = 2}) do
	table.insert(keys, k)
	table.insert(values, v)
end
return {keys, values}`, []any{[]any{"a", "b"}, []any{1.0, 2.0}})

	check(t, `
local s = ""
for i, c in ipairs("abc") do s = s .. i .. c end
return s`, "0a1b2c")

	check(t, `
local t = {}
t[2] = "c"
t[0] = "a"
t[1] = "b"
local s = ""
for i, v in ipairs(t) do s = s .. v end
return s`, "abc")

	check(t, `return next({x = 1})`, []any{"x", 1.0})
	check(t, `return next({x = 1}, "x")`, nil)

	failure(t, `ipairs(1)`, fault.TypeMismatch)
}

func TestLoadstring(t *testing.T) {
	check(t, `return loadstring("return 1 + 2")`, 3.0)

	failure(t, `loadstring("return +")`, fault.Syntax)
}

func TestGlobalScope(t *testing.T) {
	check(t, `x = 5
return _G.x`, 5.0)
}

func TestTimers(t *testing.T) {
	h := setup(t, nil)

	h.check(t, `
local count = 0
local id = 0
id = setInterval(function()
	count = count + 1
	if count == 3 then
		clearInterval(id)
		print("ticks", count)
	end
end, 1)
setTimeout(function(s) print(s) end, 5, "fired")
return nil`, nil)

	for _, line := range []string{"ticks 3\n", "fired\n"} {
		if !strings.Contains(h.out.String(), line) {
			t.Fatalf("expected %q in %q", line, h.out.String())
		}
	}

	h.check(t, `
local id = setTimeout(function() print("never") end, 10000)
return clearTimeout(id)`, true)
	h.check(t, `return clearTimeout(12345)`, false)
}

func TestAwaitListener(t *testing.T) {
	h := setup(t, nil)

	h.check(t, `awaitListener(function(n) return n * 2 end, function(v) print(v) end, 21)`, nil)

	if diff := cmp.Diff("42\n", h.out.String()); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestCapabilities(t *testing.T) {
	if _, err := New([]string{"teleport"}); !fault.Is(err, fault.Capability) {
		t.Fatalf("expected a capability error, got %v", err)
	}

	h := setup(t, []string{})

	for _, source := range []string{
		`require("http")`,
		`require("os")`,
		`require("yaml")`,
		`require("dom")`,
		`setTimeout(print, 1)`,
	} {
		f := h.failure(t, source, fault.Capability)
		if !strings.Contains(f.Message, "capability not available in this host") {
			t.Fatalf("%q: unexpected message %q", source, f.Message)
		}
	}

	h.failure(t, `return os`, fault.Undefined)
	h.failure(t, `return http`, fault.Undefined)
	h.check(t, `return type(json)`, "table")

	if h.commands.Enabled(Timers) {
		t.Fatal("timers should be disabled")
	}

	all := setup(t, nil)
	all.check(t, `return type(os.time)`, "function")

	all.failure(t, `require("noise")`, fault.Capability)
}

func TestRequireBuildsFreshLibraries(t *testing.T) {
	check(t, `
local a = require("math")
local b = require("math")
a.extra = 1
return {a == b, math == require("math"), type(b.extra)}`, []any{false, false, "undefined"})
}

func TestStringsShared(t *testing.T) {
	h := setup(t, nil)

	if h.runtime.Strings != h.commands.Strings() {
		t.Fatal("the runtime should use the shared string library")
	}

	h.check(t, `return ("abc"):upper() == string.upper("abc")`, true)
}

func TestWarnLogs(t *testing.T) {
	var b bytes.Buffer

	h := setup(t, nil)
	h.runtime.Logger = slog.New(slog.NewTextHandler(&b, nil))

	h.check(t, `warn("careful", 1)`, nil)

	if !strings.Contains(b.String(), "careful 1") {
		t.Fatalf("expected the warning to be logged, got %q", b.String())
	}
}

func TestExit(t *testing.T) {
	h := setup(t, nil)

	h.check(t, `os.exit(3)`, nil)

	if h.exited != 3 {
		t.Fatalf("expected exit status 3, got %d", h.exited)
	}
}

func TestSleep(t *testing.T) {
	start := time.Now()

	check(t, `os.sleep(20)`, nil)

	if time.Since(start) < 20*time.Millisecond {
		t.Fatal("sleep returned early")
	}
}
