// Released under an MIT license. See LICENSE.

// Package loc provides the type used to track the source of tokens and AST nodes.
package loc

import (
	"strconv"
)

// T (loc) is a lexical location.
type T struct {
	Char int    // Character position (column).
	Line int    // Line number (row).
	Name string // Label for the source of this token.
	Text string // The text at this location.
}

type loc = T

// Describe returns the location in the form used by runtime error messages.
func (l *loc) Describe() string {
	return "line " + strconv.Itoa(l.Line) +
		", column " + strconv.Itoa(l.Char) +
		", fileName " + l.Name
}

func (l *loc) String() string {
	return l.Name + ":" + strconv.Itoa(l.Line) + ":" + strconv.Itoa(l.Char)
}
