// Released under an MIT license. See LICENSE.

package parser

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xylo-lang/xylo/internal/common/struct/fault"
	"github.com/xylo-lang/xylo/internal/reader/ast"
)

// sexpr renders nodes in a compact prefix form for comparison.
func sexpr(n ast.Node) string {
	switch n := n.(type) {
	case nil:
		return "_"
	case *ast.Assign:
		k := ""
		if len(n.Kinds) > 0 {
			k = ":" + strings.Join(n.Kinds, "|")
		}

		return "(= " + sexpr(n.Target) + k + " " + sexpr(n.Value) + ")"
	case *ast.Binary:
		return "(" + n.Op + " " + sexpr(n.Left) + " " + sexpr(n.Right) + ")"
	case *ast.Boolean:
		return strconv.FormatBool(n.Value)
	case *ast.Break:
		return "break"
	case *ast.Call:
		return "(call " + sexpr(n.Callee) + list(n.Args) + ")"
	case *ast.Class:
		s := "(class " + n.Name
		if n.Parent != nil {
			s += " < " + n.Parent.Name
		}

		for _, f := range n.Fields {
			s += " " + field(f)
		}

		for _, f := range n.StaticFields {
			s += " " + field(f)
		}

		for _, m := range n.Methods {
			s += " " + sexpr(m)
		}

		for _, m := range n.StaticMethods {
			s += " static" + sexpr(m)
		}

		return s + ")"
	case *ast.For:
		return "(for " + n.Var + " " + sexpr(n.Start) + " " + sexpr(n.Stop) + " " + sexpr(n.Step) + list(n.Body) + ")"
	case *ast.ForIn:
		return "(for-in " + n.Key + " " + n.Value + " " + sexpr(n.Iterator) + list(n.Body) + ")"
	case *ast.Function:
		s := "(fn"
		if n.Async {
			s += "*"
		}

		if n.Private {
			s += " private"
		}

		if n.Owner != "" {
			s += " " + n.Owner + ":"
		} else if n.Name != "" {
			s += " "
		}

		s += n.Name + " ["

		for i, p := range n.Params {
			if i > 0 {
				s += " "
			}

			s += p.Name
			if len(p.Kinds) > 0 {
				s += ":" + strings.Join(p.Kinds, "|")
			}
		}

		s += "]"
		if len(n.Returns) > 0 {
			s += ":" + strings.Join(n.Returns, "|")
		}

		return s + list(n.Body) + ")"
	case *ast.Global:
		return "(global " + n.Name + " " + sexpr(n.Value) + ")"
	case *ast.Identifier:
		return n.Name
	case *ast.If:
		return "(if " + sexpr(n.Cond) + " (" + strings.TrimSpace(list(n.Then)) + ") (" + strings.TrimSpace(list(n.Else)) + "))"
	case *ast.Instantiate:
		return "(new " + n.Class.Name + list(n.Args) + ")"
	case *ast.Local:
		k := ""
		if len(n.Kinds) > 0 {
			k = ":" + strings.Join(n.Kinds, "|")
		}

		return "(local " + n.Name + k + " " + sexpr(n.Value) + ")"
	case *ast.Member:
		if n.Computed {
			return "(index " + sexpr(n.Object) + " " + sexpr(n.Property) + ")"
		}

		return "(. " + sexpr(n.Object) + " " + n.Name + ")"
	case *ast.MethodCall:
		return "(: " + sexpr(n.Object) + " " + n.Name + list(n.Args) + ")"
	case *ast.Nil:
		return "nil"
	case *ast.Number:
		return strconv.FormatFloat(n.Value, 'f', -1, 64)
	case *ast.Require:
		return "(require " + strconv.Quote(n.Name) + ")"
	case *ast.Return:
		return "(return " + sexpr(n.Value) + ")"
	case *ast.String:
		return strconv.Quote(n.Value)
	case *ast.Switch:
		s := "(switch " + sexpr(n.Subject)
		for _, c := range n.Cases {
			s += " (case " + sexpr(c.Value) + list(c.Body) + ")"
		}

		if n.HasDefault {
			s += " (default" + list(n.Default) + ")"
		}

		return s + ")"
	case *ast.Table:
		s := "{"
		for i, e := range n.Entries {
			if i > 0 {
				s += " "
			}

			s += sexpr(e.Key) + "=" + sexpr(e.Value)
		}

		return s + "}"
	case *ast.Try:
		s := "(try" + list(n.Body)
		if n.HasCatch {
			s += " (catch " + n.Catch + list(n.Handler) + ")"
		}

		return s + ")"
	case *ast.Unary:
		return "(" + n.Op + " " + sexpr(n.Operand) + ")"
	case *ast.Update:
		return "(" + n.Op + " " + sexpr(n.Target) + ")"
	case *ast.Vararg:
		return "..."
	case *ast.While:
		return "(while " + sexpr(n.Cond) + list(n.Body) + ")"
	}

	return fmt.Sprintf("%T", n)
}

func field(f ast.Field) string {
	s := "(field "
	if f.Static {
		s += "static "
	}

	if f.Private {
		s += "private "
	}

	return s + f.Name + " " + sexpr(f.Value) + ")"
}

func list(ns []ast.Node) string {
	s := ""
	for _, n := range ns {
		s += " " + sexpr(n)
	}

	return s
}

func check(t *testing.T, source string, expected ...string) {
	t.Helper()

	nodes, err := Parse(source, "test")
	if err != nil {
		t.Fatalf("%q: unexpected error: %v", source, err)
	}

	actual := make([]string, 0, len(nodes))
	for _, n := range nodes {
		actual = append(actual, sexpr(n))
	}

	if diff := cmp.Diff(expected, actual); diff != "" {
		t.Fatalf("%q: mismatch (-want +got):\n%s", source, diff)
	}
}

func failure(t *testing.T, source string) *fault.T {
	t.Helper()

	_, err := Parse(source, "test")
	if err == nil {
		t.Fatalf("%q: expected a syntax error", source)
	}

	f, ok := fault.As(err)
	if !ok || f.Kind != fault.Syntax {
		t.Fatalf("%q: expected a syntax fault, got %v", source, err)
	}

	return f
}

func TestPrecedence(t *testing.T) {
	check(t, "1 + 2 * 3", "(+ 1 (* 2 3))")
	check(t, "1 * 2 + 3", "(+ (* 1 2) 3)")
	check(t, "1 - 2 - 3", "(- (- 1 2) 3)")
	check(t, "a or b and c", "(or a (and b c))")
	check(t, "a < b == c", "(== (< a b) c)")
	check(t, `"a" .. 1 + 2`, `(.. "a" (+ 1 2))`)
	check(t, "-a * b", "(* (- a) b)")
	check(t, "not a and b", "(and (not a) b)")
	check(t, "(1 + 2) * 3", "(* (+ 1 2) 3)")
	check(t, "k in t", "(in k t)")
	check(t, "a || b && c", "(|| a (&& b c))")
}

func TestPostfix(t *testing.T) {
	check(t, "a.b.c", "(. (. a b) c)")
	check(t, "a[1].b", "(. (index a 1) b)")
	check(t, "f(1, 2)(3)", "(call (call f 1 2) 3)")
	check(t, "obj:m(1)", "(: obj m 1)")
	check(t, "obj:m", "(. obj m)")
	check(t, "a.b(c)", "(call (. a b) c)")
	check(t, "f(1 2)", "(call f 1 2)")
	check(t, "(f)(1)", "(call f 1)")
}

func TestInstantiate(t *testing.T) {
	check(t, "Point(1, 2)", "(new Point 1 2)")
	check(t, "Ärger()", "(new Ärger)")
	check(t, "point(1, 2)", "(call point 1 2)")
}

func TestAssignment(t *testing.T) {
	check(t, "x = 1", "(= x 1)")
	check(t, "a.b = c", "(= (. a b) c)")
	check(t, "a[1] = 2", "(= (index a 1) 2)")
	check(t, "x: number = 5", "(= x:number 5)")
	check(t, "x: number | string = 5", "(= x:number|string 5)")
	check(t, "x:number()", "(: x number)")
	check(t, "x = y = 2", "(= x (= y 2))")
}

func TestUpdate(t *testing.T) {
	check(t, "i++", "(++ i)")
	check(t, "a.b++", "(++ (. a b))")
}

func TestDeclarations(t *testing.T) {
	check(t, "local x", "(local x _)")
	check(t, "local x: number = 1", "(local x:number 1)")
	check(t, "global g = 2", "(global g 2)")
}

func TestTables(t *testing.T) {
	check(t, "{}", "{}")
	check(t, "{1, 2, 3}", "{0=1 1=2 2=3}")
	check(t, "{a = 1, b = 2}", `{"a"=1 "b"=2}`)
	check(t, `{1, ["k"] = 2}`, `{0=1 "k"=2}`)
	check(t, "{: number 1, 2}", "{0=1 1=2}")
	check(t, "{a == b}", "{0=(== a b)}")
}

func TestTableAnnotation(t *testing.T) {
	nodes, err := Parse("{: number | string 1}", "test")
	if err != nil {
		t.Fatal(err)
	}

	tbl := nodes[0].(*ast.Table)
	if diff := cmp.Diff(ast.Kinds{"number", "string"}, tbl.Kinds); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestFunctions(t *testing.T) {
	check(t, "function f(a, b) return a + b end", "(fn f [a b] (return (+ a b)))")
	check(t, "fun (x) x end", "(fn [x] x)")
	check(t, "function *tick() end", "(fn* tick [])")
	check(t, "function Obj:m(x: number): string end", "(fn Obj:m [self x:number]:string)")
	check(t, "function v(a, ...) return ... end", "(fn v [a ...] (return ...))")
	check(t, "function f() return end", "(fn f [] (return _))")
}

func TestFunctionHash(t *testing.T) {
	source := "function f() return 1 end\nfunction f() return 1 end"

	first, err := Parse(source, "test")
	if err != nil {
		t.Fatal(err)
	}

	again, err := Parse(source, "test")
	if err != nil {
		t.Fatal(err)
	}

	a := first[0].(*ast.Function).Hash
	b := first[1].(*ast.Function).Hash

	if a == b {
		t.Fatal("identical functions at different sites should differ")
	}

	if a != again[0].(*ast.Function).Hash {
		t.Fatal("reparsing should produce the same hash")
	}
}

func TestControlFlow(t *testing.T) {
	check(t, "if a then b else c end", "(if a (b) (c))")
	check(t, "if a then end", "(if a () ())")
	check(t, "while x < 3 do x++ end", "(while (< x 3) (++ x))")
	check(t, "for i = 1, 10 do print(i) end", "(for i 1 10 1 (call print i))")
	check(t, "for i = 10, 1, -1 do end", "(for i 10 1 (- 1))")
	check(t, "for k, v in pairs(t) do end", "(for-in k v (call pairs t))")
	check(t, "while true do break end", "(while true break)")
}

func TestSwitch(t *testing.T) {
	check(t,
		`switch x case 1: a() case "b": b() default: c() end`,
		`(switch x (case 1 (call a)) (case "b" (call b)) (default (call c)))`,
	)
	check(t, "switch t case t.a: 1 end", "(switch t (case (. t a) 1))")
	check(t, "switch f() case (o:m()): 1 end", "(switch (call f) (case (: o m) 1))")
}

func TestTry(t *testing.T) {
	check(t, "try error('x') catch e print(e) end", `(try (call error "x") (catch e (call print e)))`)
	check(t, "try f() end", "(try (call f))")
}

func TestClass(t *testing.T) {
	check(t, `
class Point extends Base
	x = 0
	private secret = 1
	static count = 0
	function init(self, x) self.x = x end
	private function hidden() end
	static function make() end
end`,
		"(class Point < Base (field x 0) (field private secret 1) (field static count 0) "+
			"(fn init [self x] (= (. self x) x)) (fn private hidden []) static(fn make []))",
	)
}

func TestRequire(t *testing.T) {
	check(t, `require("./mod")`, `(require "./mod")`)

	failure(t, "require(name)")
}

func TestStrings(t *testing.T) {
	check(t, `"a\nb"`, `"a\nb"`)
	check(t, `'single'`, `"single"`)
	check(t, "\"two\nlines\"", `"two\nlines"`)
}

func TestSemicolonsAndComments(t *testing.T) {
	check(t, "a = 1; b = 2 // trailing\n-- dashes\nc", "(= a 1)", "(= b 2)", "c")
}

func TestSyntaxErrors(t *testing.T) {
	for _, source := range []string{
		"end",
		"{1, a = 2, 3}",
		"local end = 1",
		"switch x foo end",
		"1 +",
		")",
	} {
		failure(t, source)
	}
}

func TestIncomplete(t *testing.T) {
	for _, source := range []string{
		"function f()",
		"if x then",
		"{1, 2",
		"f(1,",
		"while x do",
	} {
		if f := failure(t, source); !f.Incomplete {
			t.Errorf("%q: expected an incomplete fault, got %v", source, f)
		}
	}

	if f := failure(t, "if x do"); f.Incomplete {
		t.Errorf("expected a complete fault, got %v", f)
	}
}

func TestErrorLocation(t *testing.T) {
	f := failure(t, "x = 1\n  )")

	if f.Source == nil || f.Source.Line != 2 || f.Source.Char != 3 {
		t.Fatalf("unexpected location %v", f.Source)
	}
}

func TestEveryPrefix(t *testing.T) {
	program := `local a: number = 1
global g = {1, 2, ["k"] = {: string "v"}}
function Point:len(x: number, ...): number return x end
fun (y) y end
function *tick() return end
class A extends B private x = 1 static y = 2
	public function m(self, z) return self.x + z end
	static function s() end
end
for i = 1, 10, 2 do a++ end
for k, v in pairs(g) do print(k, v) end
while a < 3 do break end
if a == 1 and not b then c = -a else c = "s" .. a end
switch a case 1: print(1) default: print(2) end
try error("x") catch e print(e) end
local m = require("./m")
local n = A(1)
n:m(2)
return g[0].k`

	for i := range program {
		source := program[:i]

		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("%q: panicked: %v", source, r)
				}
			}()

			_, err := Parse(source, "test")
			if err == nil {
				return
			}

			if f, ok := fault.As(err); !ok || f.Kind != fault.Syntax {
				t.Fatalf("%q: expected a syntax fault, got %v", source, err)
			}
		}()
	}
}
