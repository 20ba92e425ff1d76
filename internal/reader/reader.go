// Released under an MIT license. See LICENSE.

// Package reader accumulates lines of xylo source until they form a
// complete program.
package reader

import (
	"strings"

	"github.com/xylo-lang/xylo/internal/common/struct/fault"
	"github.com/xylo-lang/xylo/internal/reader/ast"
	"github.com/xylo-lang/xylo/internal/reader/parser"
)

// T (reader) buffers interactive input.
type T struct {
	lines []string
	name  string
}

type reader = T

// New creates a new reader for name.
func New(name string) *T {
	return &T{name: name}
}

// Pending returns true if earlier lines are waiting for more input.
func (r *reader) Pending() bool {
	return len(r.lines) > 0
}

// Reset discards any buffered lines.
func (r *reader) Reset() {
	r.lines = nil
}

// Scan adds line to the buffer and returns the parsed nodes on a complete
// parse. If the buffered input ends mid-form, Scan returns nil, nil and
// keeps the buffer. Any other error discards the buffer.
func (r *reader) Scan(line string) ([]ast.Node, error) {
	r.lines = append(r.lines, line)

	source := r.Text()

	nodes, err := parser.Parse(source, r.name)
	if err != nil {
		if f, ok := fault.As(err); ok && f.Incomplete {
			return nil, nil
		}

		r.Reset()

		return nil, err
	}

	r.Reset()

	return nodes, nil
}

// Text returns the buffered source.
func (r *reader) Text() string {
	return strings.Join(r.lines, "\n")
}
