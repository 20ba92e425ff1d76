// Released under an MIT license. See LICENSE.

// Package lexer provides a lexical scanner for the xylo language.
//
// The xylo lexer adapts the state function approach used by Go's text/template
// lexer and described in detail in Rob Pike's talk "Lexical Scanning in Go".
// See https://talks.golang.org/2011/lex.slide for more information.
//
// The lexer never fails. Characters that cannot start a token are skipped.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/xylo-lang/xylo/internal/common/struct/loc"
	"github.com/xylo-lang/xylo/internal/common/struct/token"
)

// T holds the state of the scanner.
type T struct {
	bytes string // Buffer being scanned.
	first int    // Index of the current token's first byte.
	index int    // Index of the current byte.
	state action // Current action.

	cursor loc.T // Location of the current byte.
	source loc.T // Location of the current token's first byte.

	tokens []*token.T
}

// New creates a new T. Label can be a file name or other identifier.
func New(label string) *T {
	l := &T{
		cursor: loc.T{
			Char: 1,
			Line: 1,
			Name: label,
		},
	}

	l.source = l.cursor
	l.state = skipWhitespace

	return l
}

// Tokenize scans all of source and returns its tokens in order.
func Tokenize(source, label string) []*token.T {
	l := New(label)

	l.Scan(source)

	var ts []*token.T

	for t := l.Token(); t != nil; t = l.Token() {
		ts = append(ts, t)
	}

	return ts
}

// Scan appends a text buffer to the text being scanned.
func (l *T) Scan(text string) {
	l.bytes += text

	if l.state == nil {
		l.state = skipWhitespace
	}
}

// Text is used to return the text corresponding to the current token.
func (l *T) Text() string {
	return l.bytes[l.first:l.index]
}

// Token returns the next scanned token, or nil if no token is available.
func (l *T) Token() *token.T {
	for len(l.tokens) == 0 {
		if l.state == nil {
			return nil
		}

		l.state = l.state(l)
	}

	t := l.tokens[0]
	l.tokens = l.tokens[1:]

	return t
}

type action func(*T) action

const eof = -1

//nolint:gochecknoglobals
var operators = []string{
	"...",
	"==", "++", "!=", "<=", ">=", "&&", "||", "..", "~=",
	"=", "{", "}", "(", ")", ",", ":", "[", "]",
	"<", ">", "+", "-", "*", "/", "%", "^", ".", "|",
}

func (l *T) accept(r rune, w int) {
	if r == '\n' {
		l.cursor.Line++
		l.cursor.Char = 1
	} else {
		l.cursor.Char++
	}

	l.index += w
}

func (l *T) emit(c token.Class, v string) {
	l.tokens = append(l.tokens, token.New(c, v, l.source))
	l.skip()
}

func (l *T) next() rune {
	r, w := l.peek()
	l.accept(r, w)

	return r
}

func (l *T) peek() (rune, int) {
	r, w := rune(eof), 0
	if l.index < len(l.bytes) {
		r, w = utf8.DecodeRuneInString(l.bytes[l.index:])
	}

	return r, w
}

func (l *T) rest() string {
	return l.bytes[l.index:]
}

func (l *T) skip() {
	l.first = l.index
	l.source = l.cursor
}

// T states.

func skipComment(l *T) action {
	for {
		r := l.next()
		if r == '\n' || r == eof {
			break
		}
	}

	l.skip()

	return skipWhitespace
}

func skipWhitespace(l *T) action {
	for {
		r, w := l.peek()

		switch {
		case r == eof:
			return nil
		case r == ';' || unicode.IsSpace(r):
			l.accept(r, w)
			l.skip()

			continue
		}

		break
	}

	rest := l.rest()

	if strings.HasPrefix(rest, "//") || strings.HasPrefix(rest, "--") {
		return skipComment
	}

	r, _ := l.peek()

	switch {
	case r == '"' || r == '\'':
		return stringLiteral
	case r == '_' || unicode.IsLetter(r):
		return identifier
	case '0' <= r && r <= '9':
		return number
	}

	return operator
}

func identifier(l *T) action {
	for {
		r, w := l.peek()
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}

		l.accept(r, w)
	}

	l.emit(token.Identifier, l.Text())

	return skipWhitespace
}

func number(l *T) action {
	digits := func() {
		for {
			r, w := l.peek()
			if r < '0' || r > '9' {
				return
			}

			l.accept(r, w)
		}
	}

	digits()

	if strings.HasPrefix(l.rest(), ".") && !strings.HasPrefix(l.rest(), "..") {
		l.next()
		digits()
	}

	l.emit(token.Number, l.Text())

	return skipWhitespace
}

func operator(l *T) action {
	rest := l.rest()

	for _, op := range operators {
		if strings.HasPrefix(rest, op) {
			for range op {
				l.next()
			}

			l.emit(token.Operator, op)

			return skipWhitespace
		}
	}

	// Not the start of any token.
	l.next()
	l.skip()

	return skipWhitespace
}

func stringLiteral(l *T) action {
	quote := l.next()

	for {
		r, w := l.peek()
		if r == eof {
			// Unterminated. Drop the quote and scan what follows as code.
			l.index = l.first
			l.cursor = l.source
			l.next()
			l.skip()

			return skipWhitespace
		}

		l.accept(r, w)

		if r == quote {
			break
		}
	}

	text := l.Text()

	l.emit(token.String, `"`+text[1:len(text)-1]+`"`)

	return skipWhitespace
}
