// Released under an MIT license. See LICENSE.

package task

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/xylo-lang/xylo/internal/common"
	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/struct/fault"
	"github.com/xylo-lang/xylo/internal/common/type/null"
	"github.com/xylo-lang/xylo/internal/reader/parser"
)

// prelude installs the few builtins these tests need.
func prelude(extra map[string]Function) func(t *T) {
	return func(t *T) {
		t.Global().Define("throw", NewBuiltin("throw", func(_ *T, args []cell.I) (cell.I, error) {
			var v cell.I = null.Null
			if len(args) > 0 {
				v = args[0]
			}

			return nil, &fault.T{Kind: fault.Thrown, Message: common.String(v), Value: v}
		}))

		for k, fn := range extra {
			t.Global().Define(k, NewBuiltin(k, fn))
		}
	}
}

func start(t *testing.T, r *Runtime, source string) (*T, cell.I, error) {
	t.Helper()

	nodes, err := parser.Parse(source, "test")
	if err != nil {
		t.Fatalf("%q: %v", source, err)
	}

	if r == nil {
		r = NewRuntime(nil)
	}

	if r.Prelude == nil {
		r.Prelude = prelude(nil)
	}

	k := New(r, "", nil)
	v, err := k.Run(nodes)

	return k, v, err
}

func check(t *testing.T, source string, expected any) {
	t.Helper()

	_, v, err := start(t, nil, source)
	if err != nil {
		t.Fatalf("%q: unexpected error: %v", source, err)
	}

	if diff := cmp.Diff(expected, ToGo(v)); diff != "" {
		t.Fatalf("%q: mismatch (-want +got):\n%s", source, diff)
	}
}

func failure(t *testing.T, source string, k fault.Kind) *fault.T {
	t.Helper()

	_, _, err := start(t, nil, source)
	if err == nil {
		t.Fatalf("%q: expected an error", source)
	}

	f, ok := fault.As(err)
	if !ok || f.Kind != k {
		t.Fatalf("%q: expected %v, got %v", source, k, err)
	}

	return f
}

func TestLocalReturn(t *testing.T) {
	check(t, "local x = 1 + 2\nreturn x", 3.0)
	check(t, "local x = 1\nx", 1.0)
}

func TestNumericFor(t *testing.T) {
	count := func(header string) string {
		return "local n = 0\nfor " + header + " do n = n + 1 end\nreturn n"
	}

	check(t, count("i = 1, 10"), 10.0)
	check(t, count("i = 1, 10, 2"), 5.0)
	check(t, count("i = 10, 1, -1"), 10.0)
	check(t, count("i = 10, 1, -3"), 4.0)
	check(t, count("i = 1, 0"), 0.0)
	check(t, count("i = 0.5, 2"), 2.0)
	check(t, count("i = 1, 2, 0.1"), 11.0)
	check(t, count("i = 0, 1, 0.1"), 11.0)
	check(t, count("i = 1, 0, -0.1"), 11.0)

	check(t, `
local seen = ""
for i = 1, 10 do
	seen = seen .. i .. " "
	if i == 2 then i = 7 end
end
return seen`, "1 2 8 9 10 ")

	failure(t, "for i = 1, 2, 0 do end", fault.TypeMismatch)
	failure(t, `for i = "a", 2 do end`, fault.TypeMismatch)
}

func TestBreakStopsInnermostLoop(t *testing.T) {
	check(t, `
local outer = 0
local total = 0
while outer < 3 do
	outer = outer + 1
	local i = 0
	while true do
		i = i + 1
		if i == 2 then break end
	end
	total = total + i
end
return {outer, total}`, []any{3.0, 6.0})

	check(t, `
local n = 0
for i = 1, 10 do
	if i > 4 then break end
	n = i
end
return n`, 4.0)
}

func TestInheritance(t *testing.T) {
	source := `
class Animal
	name = "animal"
	function init(self, name) self.name = name end
	function speak(self) return self.name .. " makes a sound" end
	function kind(self) return "animal" end
end

class Dog extends Animal
	function speak(self) return self.name .. " barks" end
end

class Puppy extends Dog
	function init(self, name)
		Dog.init(self, name .. " jr")
	end
end

local d = Dog("rex")
local a = Animal("cat")
local p = Puppy("rex")
return {d:speak(), d:kind(), a:speak(), p:speak(), Animal.name}`

	check(t, source, []any{"rex barks", "animal", "cat makes a sound", "rex jr barks", "animal"})
}

func TestBoundMethods(t *testing.T) {
	check(t, `
class Counter
	n = 0
	function inc() self.n = self.n + 1 return self.n end
end
local c = Counter()
local f = c.inc
f()
return f()`, 2.0)

	check(t, `
class Greeter
	word = "hi"
	function greet(self, name) return self.word .. " " .. name end
end
local g = Greeter()
local f = g.greet
return {g:greet("a"), g.greet("b"), f("c")}`, []any{"hi a", "hi b", "hi c"})
}

func TestStaticMembers(t *testing.T) {
	check(t, `
class C
	static count = 0
	static function inc() C.count = C.count + 1 return C.count end
end
class D extends C end
C.inc()
return {C.inc(), D.count}`, []any{2.0, 2.0})
}

func TestPrivateFields(t *testing.T) {
	source := `
class Account
	private balance = 10
	function get(self) return self.balance end
	function deposit(self, n) self.balance = self.balance + n end
	private function secret(self) return "s" end
	function reveal(self) return self:secret() end
end
local a = Account()
`

	check(t, source+"a:deposit(5)\nreturn {a:get(), a:reveal()}", []any{15.0, "s"})

	failure(t, source+"return a.balance", fault.Private)
	failure(t, source+"a.balance = 1", fault.Private)
	failure(t, source+"return a:secret()", fault.Private)
}

func TestPrivateFieldsPerInstance(t *testing.T) {
	check(t, `
class Box
	private items = {}
	function add(self, v) self.items[0] = v end
	function first(self) return self.items[0] end
end
local a = Box()
local b = Box()
a:add(1)
b:add(2)
return {a:first(), b:first()}`, []any{1.0, 2.0})
}

func TestInheritedPrivateFields(t *testing.T) {
	check(t, `
class Base
	private id = 7
	function getId(self) return self.id end
end
class Derived extends Base end
return Derived():getId()`, 7.0)
}

func TestTypeAnnotations(t *testing.T) {
	failure(t, `local x: number = "a"`, fault.TypeMismatch)
	failure(t, "local x: number = 5\nx = \"a\"", fault.TypeMismatch)
	failure(t, "function f(a: string) return a end\nf(1)", fault.TypeMismatch)
	failure(t, "function f(): number return \"a\" end\nf()", fault.TypeMismatch)
	failure(t, `local t = {: number 1, "b"}`, fault.TypeMismatch)
	failure(t, "x: string = 1", fault.TypeMismatch)

	check(t, "local x: number | string = 5\nx = \"a\"\nreturn x", "a")
	check(t, "function f(a: string) return a end\nreturn f(\"ok\")", "ok")
	check(t, "local x: null\nreturn x", nil)
}

func TestDeclaredTypesFollowTheBinding(t *testing.T) {
	check(t, `
local x: number = 1
function f()
	local x = 2
	x = "t"
	return x
end
return {f(), x}`, []any{"t", 1.0})

	failure(t, `
local x: number = 1
function f() x = "t" end
f()`, fault.TypeMismatch)
}

func TestParamsCheckedOnce(t *testing.T) {
	r := NewRuntime(nil)
	r.Params = ParamsOnce

	_, v, err := start(t, r, `
function f(a: number) return a end
f(1)
return f("a")`)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff("a", ToGo(v)); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestClosures(t *testing.T) {
	check(t, `
function counter()
	local n = 0
	return function() n = n + 1 return n end
end
local c = counter()
local d = counter()
c()
c()
d()
return {c(), d()}`, []any{3.0, 2.0})
}

func TestAssignmentCreatesGlobal(t *testing.T) {
	check(t, "function f() g = 5 end\nf()\nreturn g", 5.0)
}

func TestFunctionTemplates(t *testing.T) {
	check(t, `
local fs = {}
for i = 0, 1 do fs[i] = function() return 1 end end
return fs[0] == fs[1]`, true)

	check(t, `
local a = function() return 1 end
local b = function() return 1 end
return a == b`, false)

	check(t, `
function make() return function() return 1 end end
return make() == make()`, false)
}

func TestVarargs(t *testing.T) {
	check(t, "function f(a, ...) return ... end\nlocal t = f(1, 2, 3)\nreturn t[0] + t[1]", 5.0)
	check(t, "function f(...) return ... end\nreturn f()", map[string]any{})

	failure(t, "function f() return ... end\nf()", fault.Undefined)
}

func TestUpdate(t *testing.T) {
	check(t, "local i = 1\nlocal old = i++\nreturn old * 10 + i", 12.0)
	check(t, "local t = {n = 1}\nt.n++\nreturn t.n", 2.0)

	failure(t, `local s = "a"`+"\ns++", fault.TypeMismatch)
	failure(t, "missing++", fault.Undefined)
}

func TestForIn(t *testing.T) {
	check(t, "local s = 0\nfor k, v in {1, 2, 3} do s = s + k + v end\nreturn s", 9.0)

	check(t, `
local it = {i = 0}
function it:next()
	self.i = self.i + 1
	if self.i > 3 then return {done = true} end
	return {value = {self.i, self.i * 2}, done = false}
end
local s = 0
for k, v in it do
	if k == 3 then break end
	s = s + k + v
end
return s`, 9.0)

	failure(t, "for k, v in 1 do end", fault.TypeMismatch)
}

func TestSwitch(t *testing.T) {
	source := func(v string) string {
		return `
local r = "none"
switch ` + v + `
case 1: r = "one"
case "1": r = "string one"
case 2:
	r = "two"
	break
	r = "unreachable"
default: r = "other"
end
return r`
	}

	check(t, source("1"), "one")
	check(t, source(`"1"`), "string one")
	check(t, source("2"), "two")
	check(t, source("3"), "other")
}

func TestTryCatch(t *testing.T) {
	f := failure(t, "local x = 1\nreturn y", fault.Undefined)
	if f.Source == nil || f.Source.Line != 2 {
		t.Fatalf("expected line 2, got %v", f.Source)
	}

	check(t, "try return y catch e return e end", "Undefined variable: y at line 1, column 12, fileName test")
	check(t, `try throw("boom") catch e return e end`, "boom")
	check(t, "try throw({code = 2}) catch e return e.code end", 2.0)
	check(t, "try local a = 1 end\nreturn 2", 2.0)

	failure(t, "try return y end", fault.Undefined)
}

func TestOperators(t *testing.T) {
	check(t, `return "a" + 1`, "a1")
	check(t, "return 1 .. 2", "12")
	check(t, "return nil and 1", nil)
	check(t, "return 0 or \"x\"", "x")
	check(t, "return 1 && 2", true)
	check(t, "return false || nil", false)
	check(t, "return 7 % 3", 1.0)
	check(t, "return 2 ^ 10", 1024.0)
	check(t, `return "a" < "b"`, true)
	check(t, `return 1 == "1"`, false)
	check(t, "return 1 ~= 2", true)
	check(t, `return "k" in {k = 1}`, true)
	check(t, "return not 0", true)
	check(t, "return -(2 + 3)", -5.0)
	check(t, "local t = {}\nreturn t == t", true)
	check(t, "return {} == {}", false)

	failure(t, `return 1 - "a"`, fault.TypeMismatch)
	failure(t, `return 1 < "a"`, fault.TypeMismatch)
	failure(t, `return -"a"`, fault.TypeMismatch)
}

func TestMemberErrors(t *testing.T) {
	failure(t, "local t = nil\nreturn t.x", fault.NullMember)
	failure(t, "local t\nt.x = 1", fault.NullMember)
	failure(t, "local x = 1\nx()", fault.NotCallable)
	failure(t, "local x = 1\nreturn Thing()", fault.Undefined)
	failure(t, "Thing = 1\nreturn Thing()", fault.NotCallable)
	failure(t, `class A extends Missing end`, fault.Undefined)
}

func TestTables(t *testing.T) {
	check(t, `local t = {1, 2, x = 3}
t[2] = 4
return {t[0], t.x, t[2], t.missing}`, []any{1.0, 3.0, 4.0, nil})
}

func TestMethodDefinitionOnTable(t *testing.T) {
	check(t, `
local M = {}
function M:greet(name) return "hi " .. name end
return M:greet("bob")`, "hi bob")
}

func TestRequireWithoutLoader(t *testing.T) {
	failure(t, `require("x")`, fault.ModuleNotFound)
}

func TestGlobalBroadcast(t *testing.T) {
	r := NewRuntime(nil)

	a, _, err := start(t, r, "g = 0")
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := start(t, r, "global g = 1"); err != nil {
		t.Fatal(err)
	}

	_, v, err := start(t, r, "return g")
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(1.0, ToGo(v)); diff != "" {
		t.Fatalf("late task: mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(1.0, ToGo(a.Global().Lookup("g").Get())); diff != "" {
		t.Fatalf("early task: mismatch (-want +got):\n%s", diff)
	}
}

func TestAsyncReturnsImmediately(t *testing.T) {
	release := make(chan struct{})

	r := NewRuntime(nil)
	r.Prelude = prelude(map[string]Function{
		"block": func(_ *T, _ []cell.I) (cell.I, error) {
			<-release

			return nil, nil
		},
	})

	k, v, err := start(t, r, `
done = false
function *work() block() done = true end
local v = work()
return {v, done}`)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]any{nil, false}, ToGo(v)); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}

	close(release)
	r.Wait()

	if diff := cmp.Diff(true, ToGo(k.Global().Lookup("done").Get())); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestAsyncFailureIsReported(t *testing.T) {
	r := NewRuntime(nil)

	_, v, err := start(t, r, "function *bad() throw(\"x\") end\nbad()\nreturn 1")
	if err != nil {
		t.Fatalf("async failure raised at the call site: %v", err)
	}

	if diff := cmp.Diff(1.0, ToGo(v)); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}

	r.Wait()

	select {
	case err := <-r.Errors():
		if !strings.Contains(err.Error(), "x") {
			t.Fatalf("unexpected error %v", err)
		}
	default:
		t.Fatal("expected the failure on the error channel")
	}
}

func TestAwait(t *testing.T) {
	k, _, err := start(t, nil, "function *f(x) return x * 2 end")
	if err != nil {
		t.Fatal(err)
	}

	f := k.Global().Lookup("f").Get()

	v, err := k.Await(f, FromGo(21))
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(42.0, ToGo(v)); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestTimers(t *testing.T) {
	r := NewRuntime(nil)

	ticks := make(chan struct{}, 8)

	id := r.Schedule(time.Millisecond, true, func() error {
		select {
		case ticks <- struct{}{}:
		default:
		}

		return nil
	})

	fired := make(chan struct{})

	r.Schedule(time.Millisecond, false, func() error {
		close(fired)

		return nil
	})

	<-fired
	<-ticks
	<-ticks

	if !r.Cancel(id) {
		t.Fatal("expected the interval to be pending")
	}

	r.Wait()

	if r.Cancel(id) {
		t.Fatal("cancelled timer is still pending")
	}
}

func TestEvaluate(t *testing.T) {
	k, _, err := start(t, nil, "")
	if err != nil {
		t.Fatal(err)
	}

	v, err := k.Evaluate("return 1 + 1", "loadstring")
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(2.0, ToGo(v)); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}

	if _, err := k.Evaluate("if", "loadstring"); !fault.Is(err, fault.Syntax) {
		t.Fatalf("expected a syntax error, got %v", err)
	}
}
