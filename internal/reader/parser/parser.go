// Released under an MIT license. See LICENSE.

// Package parser provides a recursive descent parser for the xylo language.
//
// Binary operators are folded by precedence climbing. Postfix member access,
// method calls, indexing and calls attach greedily after any primary. There
// is no error recovery: the first malformed form aborts the parse.
package parser

import (
	"hash/fnv"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/michaelmacinnis/adapted"

	"github.com/xylo-lang/xylo/internal/common/struct/fault"
	"github.com/xylo-lang/xylo/internal/common/struct/loc"
	"github.com/xylo-lang/xylo/internal/common/struct/token"
	"github.com/xylo-lang/xylo/internal/reader/ast"
	"github.com/xylo-lang/xylo/internal/reader/lexer"
)

// T holds the state of the parser.
type T struct {
	colon  bool       // Is ':' a method call? False while parsing a case value.
	index  int        // Index of the lookahead token.
	label  string     // Source label used when there are no tokens.
	tokens []*token.T // Tokens being parsed.
}

//nolint:gochecknoglobals
var (
	kinds = map[string]bool{
		"boolean":   true,
		"function":  true,
		"null":      true,
		"number":    true,
		"string":    true,
		"table":     true,
		"undefined": true,
	}

	precedence = map[string]int{
		"or": 1, "||": 1,
		"and": 2, "&&": 2,
		"<": 3, ">": 3, "<=": 3, ">=": 3, "==": 3, "~=": 3, "!=": 3, "in": 3,
		"..": 4,
		"+":  5, "-": 5,
		"*": 6, "/": 6, "%": 6, "^": 6,
	}

	reserved = map[string]bool{
		"and": true, "break": true, "case": true, "catch": true,
		"class": true, "default": true, "do": true, "else": true,
		"end": true, "extends": true, "false": true, "for": true,
		"fun": true, "function": true, "global": true, "if": true,
		"in": true, "local": true, "nil": true, "not": true,
		"or": true, "require": true, "return": true, "switch": true,
		"then": true, "true": true, "try": true, "while": true,
	}

	// Tokens that may directly follow a bare return.
	terminators = []string{"case", "catch", "default", "else", "end"}
)

// New creates a new parser for tokens. Label names the source when
// there are no tokens to take a location from.
func New(tokens []*token.T, label string) *T {
	return &T{colon: true, label: label, tokens: tokens}
}

// Parse tokenizes and parses source.
func Parse(source, label string) ([]ast.Node, error) {
	return New(lexer.Tokenize(source, label), label).Parse()
}

// Parse consumes every token and returns the top-level nodes.
// Syntax errors are returned as a *fault.T of kind fault.Syntax.
func (p *T) Parse() (nodes []ast.Node, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		f, ok := r.(*fault.T)
		if !ok {
			panic(r)
		}

		nodes = nil
		err = f
	}()

	for p.peek() != nil {
		nodes = append(nodes, p.expression())
	}

	return nodes, nil
}

func (p *T) consume() *token.T {
	t := p.peek()
	if t == nil {
		p.expected("more input")
	}

	p.index++

	return t
}

func (p *T) expect(v string) *token.T {
	if p.peek().Matches(v) {
		return p.consume()
	}

	p.expected("'" + v + "'")

	return nil
}

func (p *T) expected(what string) {
	t := p.peek()
	if t != nil {
		panic(fault.New(fault.Syntax, t.Source(), "Expected %s, got '%s'", what, t.Value()))
	}

	f := fault.New(fault.Syntax, p.end(), "Expected %s but reached end of input", what)
	f.Incomplete = true

	panic(f)
}

func (p *T) end() *loc.T {
	if n := len(p.tokens); n > 0 {
		return p.tokens[n-1].Source()
	}

	return &loc.T{Char: 1, Line: 1, Name: p.label}
}

func (p *T) peek() *token.T {
	return p.peekAt(0)
}

func (p *T) peekAt(n int) *token.T {
	if i := p.index + n; i < len(p.tokens) {
		return p.tokens[i]
	}

	return nil
}

// pos returns the position of t. A nil t is the end of input, which the
// caller reports when it reads the missing token.
func pos(t *token.T) ast.Pos {
	if t == nil {
		return ast.Pos{}
	}

	return ast.Pos{Loc: t.Source()}
}

// Grammar.

func (p *T) annotation() ast.Kinds {
	if !p.peek().Matches(":") {
		return nil
	}

	p.consume()

	ks := p.kinds()
	if len(ks) == 0 {
		p.expected("type after ':'")
	}

	return ks
}

func (p *T) arguments() []ast.Node {
	p.expect("(")

	var args []ast.Node

	p.nested(func() {
		for !p.peek().Matches(")") {
			if p.peek() == nil {
				p.expected("')'")
			}

			args = append(args, p.expression())

			if p.peek().Matches(",") {
				p.consume()
			}
		}
	})

	p.expect(")")

	return args
}

func (p *T) binary(minimum int) ast.Node {
	left := p.unary()

	for {
		t := p.peek()
		if t == nil || t.Is(token.String) {
			return left
		}

		prec := precedence[t.Value()]
		if prec == 0 || prec < minimum {
			return left
		}

		p.consume()

		right := p.binary(prec + 1)

		left = &ast.Binary{Pos: pos(t), Op: t.Value(), Left: left, Right: right}
	}
}

func (p *T) block(ends ...string) []ast.Node {
	body := []ast.Node{}

	for !p.peek().Matches(ends...) {
		if p.peek() == nil {
			p.expected("'" + strings.Join(ends, "' or '") + "'")
		}

		body = append(body, p.expression())
	}

	return body
}

func (p *T) class() ast.Node {
	kw := p.consume()

	c := &ast.Class{Pos: pos(kw), Name: p.name("class name")}

	if p.peek().Matches("extends") {
		p.consume()

		at := pos(p.peek())
		c.Parent = &ast.Identifier{Pos: at, Name: p.name("parent class name")}
	}

	for !p.peek().Matches("end") {
		t := p.peek()
		if t == nil {
			p.expected("'end'")
		}

		private, static := false, false

		switch t.Value() {
		case "private":
			private = true

			p.consume()
		case "static":
			static = true

			p.consume()
		case "public":
			p.consume()
		}

		if p.peek().Matches("function", "fun") {
			m := p.function()
			m.Private = private

			if static {
				c.StaticMethods = append(c.StaticMethods, m)
			} else {
				c.Methods = append(c.Methods, m)
			}

			continue
		}

		f := ast.Field{Pos: pos(p.peek()), Private: private, Static: static}
		f.Name = p.name("field name")

		if p.peek().Matches("=") {
			p.consume()
			f.Value = p.expression()
		}

		if static {
			c.StaticFields = append(c.StaticFields, f)
		} else {
			c.Fields = append(c.Fields, f)
		}
	}

	p.expect("end")

	return c
}

func (p *T) declaration() (ast.Pos, string, ast.Kinds, ast.Node) {
	kw := p.consume()
	name := p.name("identifier")
	ks := p.annotation()

	var value ast.Node

	if p.peek().Matches("=") {
		p.consume()
		value = p.expression()
	}

	return pos(kw), name, ks, value
}

func (p *T) expression() ast.Node {
	return p.binary(1)
}

func (p *T) forLoop() ast.Node {
	kw := p.consume()
	name := p.name("variable name after 'for'")

	if p.peek().Matches("=") {
		p.consume()

		f := &ast.For{Pos: pos(kw), Var: name}
		f.Start = p.expression()

		p.expect(",")

		f.Stop = p.expression()
		f.Step = &ast.Number{Pos: pos(kw), Value: 1}

		if p.peek().Matches(",") {
			p.consume()
			f.Step = p.expression()
		}

		p.expect("do")
		f.Body = p.block("end")
		p.expect("end")

		return f
	}

	p.expect(",")

	f := &ast.ForIn{Pos: pos(kw), Key: name}
	f.Value = p.name("variable name after ','")

	p.expect("in")

	f.Iterator = p.expression()

	p.expect("do")
	f.Body = p.block("end")
	p.expect("end")

	return f
}

func (p *T) function() *ast.Function {
	start := p.index
	kw := p.consume()

	f := &ast.Function{Pos: pos(kw)}

	if p.peek().Matches("*") {
		p.consume()

		f.Async = true
	}

	if p.peek().Is(token.Identifier) {
		f.Name = p.name("function name")
	}

	if p.peek().Matches(":") {
		p.consume()

		f.Owner = f.Name
		f.Name = p.name("method name")
		f.Params = append(f.Params, ast.Param{Pos: f.Pos, Name: "self"})
	}

	p.expect("(")

	for !p.peek().Matches(")") {
		t := p.peek()
		if t.Matches("...") {
			p.consume()

			f.Params = append(f.Params, ast.Param{Pos: pos(t), Name: "...", Vararg: true})

			break
		}

		param := ast.Param{Pos: pos(t), Name: p.name("parameter name")}
		param.Kinds = p.annotation()

		f.Params = append(f.Params, param)

		if p.peek().Matches(",") {
			p.consume()
		}
	}

	p.expect(")")

	f.Returns = p.annotation()
	f.Body = p.block("end")

	p.expect("end")

	f.Hash = shape(p.tokens[start:p.index])

	return f
}

func (p *T) identifier() ast.Node {
	t := p.peek()
	id := &ast.Identifier{Pos: pos(t), Name: p.name("identifier")}

	// An annotated assignment: name: kind (| kind)* = value.
	// A ':' followed by a kind and then '(' is a method call instead.
	if p.peek().Matches(":") && kinds[p.peekAt(1).Value()] && !p.peekAt(2).Matches("(") {
		save := p.index

		p.consume()

		ks := p.kinds()

		if p.peek().Matches("=") {
			p.consume()

			return &ast.Assign{Pos: pos(t), Target: id, Value: p.expression(), Kinds: ks}
		}

		p.index = save
	}

	return id
}

func (p *T) ifStatement() ast.Node {
	kw := p.consume()

	n := &ast.If{Pos: pos(kw), Cond: p.expression()}

	p.expect("then")

	n.Then = p.block("else", "end")
	n.Else = []ast.Node{}

	if p.peek().Matches("else") {
		p.consume()

		n.Else = p.block("end")
	}

	p.expect("end")

	return n
}

func (p *T) kinds() ast.Kinds {
	var ks ast.Kinds

	for t := p.peek(); t.Is(token.Identifier) && kinds[t.Value()]; t = p.peek() {
		ks = append(ks, p.consume().Value())

		if p.peek().Matches("|") {
			p.consume()
		}
	}

	return ks
}

func (p *T) name(what string) string {
	t := p.peek()
	if !t.Is(token.Identifier) || reserved[t.Value()] {
		p.expected(what)
	}

	return p.consume().Value()
}

func (p *T) nested(fn func()) {
	saved := p.colon
	p.colon = true

	fn()

	p.colon = saved
}

func (p *T) postfix(expr ast.Node) ast.Node {
	for {
		t := p.peek()

		switch {
		case t.Matches("."):
			p.consume()

			expr = &ast.Member{Pos: pos(t), Object: expr, Name: p.name("property name")}

		case t.Matches("["):
			p.consume()

			var property ast.Node

			p.nested(func() {
				property = p.expression()
			})

			p.expect("]")

			expr = &ast.Member{Pos: pos(t), Object: expr, Property: property, Computed: true}

		case t.Matches(":") && p.colon:
			p.consume()

			name := p.name("method name")

			if p.peek().Matches("(") {
				expr = &ast.MethodCall{Pos: pos(t), Object: expr, Name: name, Args: p.arguments()}
			} else {
				expr = &ast.Member{Pos: pos(t), Object: expr, Name: name}
			}

		case t.Matches("("):
			args := p.arguments()

			if id, ok := expr.(*ast.Identifier); ok && upper(id.Name) {
				expr = &ast.Instantiate{Pos: id.Pos, Class: id, Args: args}
			} else {
				expr = &ast.Call{Pos: ast.Pos{Loc: expr.Source()}, Callee: expr, Args: args}
			}

		case t.Matches("++"):
			if !assignable(expr) {
				return expr
			}

			p.consume()

			return &ast.Update{Pos: ast.Pos{Loc: expr.Source()}, Op: "++", Target: expr}

		case t.Matches("="):
			if !assignable(expr) {
				return expr
			}

			p.consume()

			return &ast.Assign{Pos: ast.Pos{Loc: expr.Source()}, Target: expr, Value: p.expression()}

		default:
			return expr
		}
	}
}

func (p *T) primary() ast.Node {
	t := p.peek()
	if t == nil {
		p.expected("expression")
	}

	switch t.Class() {
	case token.Number:
		p.consume()

		f, err := strconv.ParseFloat(strings.TrimSuffix(t.Value(), "."), 64)
		if err != nil {
			panic(fault.New(fault.Syntax, t.Source(), "Invalid number '%s'", t.Value()))
		}

		return &ast.Number{Pos: pos(t), Value: f}

	case token.String:
		p.consume()

		return &ast.String{Pos: pos(t), Value: unquote(t.Value())}

	case token.Operator:
		switch t.Value() {
		case "(":
			p.consume()

			var e ast.Node

			p.nested(func() {
				e = p.expression()
			})

			p.expect(")")

			return e

		case "{":
			return p.table()

		case "...":
			p.consume()

			return &ast.Vararg{Pos: pos(t)}
		}

	case token.Identifier:
		return p.keyword(t)
	}

	panic(fault.New(fault.Syntax, t.Source(), "Unexpected token '%s'", t.Value()))
}

func (p *T) keyword(t *token.T) ast.Node {
	switch t.Value() {
	case "break":
		p.consume()

		return &ast.Break{Pos: pos(t)}

	case "class":
		return p.class()

	case "false", "true":
		p.consume()

		return &ast.Boolean{Pos: pos(t), Value: t.Value() == "true"}

	case "for":
		return p.forLoop()

	case "fun", "function":
		return p.function()

	case "global":
		at, name, ks, value := p.declaration()

		return &ast.Global{Pos: at, Name: name, Kinds: ks, Value: value}

	case "if":
		return p.ifStatement()

	case "local":
		at, name, ks, value := p.declaration()

		return &ast.Local{Pos: at, Name: name, Kinds: ks, Value: value}

	case "nil":
		p.consume()

		return &ast.Nil{Pos: pos(t)}

	case "require":
		return p.require()

	case "return":
		p.consume()

		r := &ast.Return{Pos: pos(t)}
		if p.peek() != nil && !p.peek().Matches(terminators...) {
			r.Value = p.expression()
		}

		return r

	case "switch":
		return p.switchStatement()

	case "try":
		return p.tryStatement()

	case "while":
		p.consume()

		w := &ast.While{Pos: pos(t), Cond: p.expression()}

		p.expect("do")
		w.Body = p.block("end")
		p.expect("end")

		return w
	}

	if reserved[t.Value()] {
		panic(fault.New(fault.Syntax, t.Source(), "Unexpected token '%s'", t.Value()))
	}

	return p.identifier()
}

func (p *T) require() ast.Node {
	kw := p.consume()

	p.expect("(")

	t := p.peek()
	if !t.Is(token.String) {
		p.expected("string literal")
	}

	p.consume()
	p.expect(")")

	return &ast.Require{Pos: pos(kw), Name: unquote(t.Value())}
}

func (p *T) switchStatement() ast.Node {
	kw := p.consume()

	s := &ast.Switch{Pos: pos(kw), Subject: p.expression()}

	for !p.peek().Matches("end") {
		t := p.peek()

		switch {
		case t.Matches("case"):
			p.consume()

			c := ast.Case{Pos: pos(t)}

			saved := p.colon
			p.colon = false
			c.Value = p.expression()
			p.colon = saved

			p.expect(":")

			c.Body = p.block("case", "default", "end")
			s.Cases = append(s.Cases, c)

		case t.Matches("default"):
			p.consume()
			p.expect(":")

			s.Default = p.block("case", "default", "end")
			s.HasDefault = true

		default:
			p.expected("'case', 'default', or 'end'")
		}
	}

	p.expect("end")

	return s
}

func (p *T) table() ast.Node {
	start := p.consume()

	t := &ast.Table{Pos: pos(start), Kinds: p.annotation()}

	index := 0
	explicit := false

	p.nested(func() {
		for !p.peek().Matches("}") {
			at := p.peek()
			if at == nil {
				p.expected("'}'")
			}

			var key ast.Node

			switch {
			case at.Matches("["):
				p.consume()

				key = p.expression()

				p.expect("]")
				p.expect("=")

				explicit = true

			case at.Is(token.Identifier) && p.peekAt(1).Matches("="):
				key = &ast.String{Pos: pos(at), Value: p.name("key")}

				p.consume()

				explicit = true

			case !explicit:
				key = &ast.Number{Pos: pos(at), Value: float64(index)}
				index++

			default:
				p.expected("key definition")
			}

			t.Entries = append(t.Entries, ast.Entry{Key: key, Value: p.expression()})

			if p.peek().Matches(",") {
				p.consume()
			} else if !p.peek().Matches("}") {
				p.expected("',' or '}'")
			}
		}
	})

	p.expect("}")

	return t
}

func (p *T) tryStatement() ast.Node {
	kw := p.consume()

	n := &ast.Try{Pos: pos(kw), Body: p.block("catch", "end")}

	if p.peek().Matches("catch") {
		p.consume()

		n.Catch = p.name("identifier after 'catch'")
		n.Handler = p.block("end")
		n.HasCatch = true
	}

	p.expect("end")

	return n
}

func (p *T) unary() ast.Node {
	t := p.peek()

	if t.Is(token.Operator) && t.Matches("-") {
		p.consume()

		return &ast.Unary{Pos: pos(t), Op: "-", Operand: p.unary()}
	}

	if t.Is(token.Identifier) && t.Matches("not") {
		p.consume()

		return &ast.Unary{Pos: pos(t), Op: "not", Operand: p.unary()}
	}

	return p.postfix(p.primary())
}

func assignable(n ast.Node) bool {
	switch n.(type) {
	case *ast.Identifier, *ast.Member:
		return true
	}

	return false
}

// shape returns a structural hash of a function literal's tokens, including
// their positions, so each literal site has its own key.
func shape(ts []*token.T) uint64 {
	h := fnv.New64a()

	for _, t := range ts {
		src := t.Source()

		_, _ = io.WriteString(h, t.Value())
		_, _ = io.WriteString(h, "\x00"+strconv.Itoa(src.Line)+":"+strconv.Itoa(src.Char)+":"+src.Name+"\x00")
	}

	return h.Sum64()
}

func unquote(text string) string {
	raw := text[1 : len(text)-1]

	s, err := adapted.ActualBytes(raw)
	if err != nil {
		return strings.ReplaceAll(raw, `\n`, "\n")
	}

	return s
}

func upper(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)

	return unicode.IsUpper(r)
}
