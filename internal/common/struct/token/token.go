// Released under an MIT license. See LICENSE.

// Package token is shared by the xylo lexer and parser.
package token

import (
	"strconv"

	"github.com/xylo-lang/xylo/internal/common/struct/loc"
)

// Class is a token's type.
type Class int

// T (token) is a lexical item returned by the scanner.
type T struct {
	class  Class
	source *loc.T
	value  string
}

type token = T

// Token classes.
const (
	Error Class = iota

	Identifier
	Number
	Operator
	String
)

// New creates a new token.
func New(class Class, value string, source loc.T) *token {
	source.Text = value

	return &token{
		class:  class,
		source: &source,
		value:  value,
	}
}

// String returns a string representation of Class. Useful for debugging.
func (c Class) String() string {
	switch c {
	case Error:
		return "Error"
	case Identifier:
		return "Identifier"
	case Number:
		return "Number"
	case Operator:
		return "Operator"
	case String:
		return "String"
	}

	return "Class(" + strconv.Itoa(int(c)) + ")"
}

// Class returns the token's class.
func (t *token) Class() Class {
	return t.class
}

// Is returns true if the token t is any of the classes in cs.
func (t *token) Is(cs ...Class) bool {
	if t == nil {
		return false
	}

	for _, c := range cs {
		if t.class == c {
			return true
		}
	}

	return false
}

// Matches returns true if the token t has any of the values in vs.
// Strings never match, so a quoted "end" is not the keyword end.
func (t *token) Matches(vs ...string) bool {
	if t == nil || t.class == String {
		return false
	}

	for _, v := range vs {
		if t.value == v {
			return true
		}
	}

	return false
}

// Source returns the source location for this token.
func (t *token) Source() *loc.T {
	return t.source
}

// String returns the token's string representation. Useful for debugging.
func (t *token) String() string {
	return strconv.Quote(t.value) + "(" +
		t.class.String() + "," +
		t.source.String() + ")"
}

// Value returns the token's string value, or "" for a nil token.
func (t *token) Value() string {
	if t == nil {
		return ""
	}

	return t.value
}
