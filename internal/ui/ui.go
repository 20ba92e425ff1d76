// Released under an MIT license. See LICENSE.

// Package ui provides an interactive interface for the xylo language.
package ui

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/peterh/liner"

	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/interface/literal"
	"github.com/xylo-lang/xylo/internal/common/type/null"
	"github.com/xylo-lang/xylo/internal/reader"
	"github.com/xylo-lang/xylo/internal/reader/ast"
	"github.com/xylo-lang/xylo/internal/system/history"
)

// Prompts.
const (
	Continue = ">> "
	Primary  = "> "
)

// Evaluator is the interface for things that want to process parsed input.
type Evaluator interface {
	Evaluate(nodes []ast.Node) (cell.I, error)
	Names() []string
}

// Run reads lines until end of input and sends each complete form to e.
// Values are echoed to stdout and errors to stderr.
func Run(e Evaluator, stdout, stderr io.Writer) error {
	cli := liner.NewLiner()
	defer cli.Close()

	cli.SetCtrlCAborts(true)
	cli.SetWordCompleter(func(line string, pos int) (string, []string, string) {
		return complete(e.Names(), line, pos)
	})

	if err := history.Load(cli.ReadHistory); err != nil {
		fmt.Fprintln(stderr, err)
	}

	r := reader.New("stdin")

	for {
		line, err := cli.Prompt(prompt(r))

		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			r.Reset()

			continue
		case errors.Is(err, io.EOF):
			fmt.Fprintln(stdout)

			return history.Save(cli.WriteHistory)
		case err != nil:
			return err
		}

		if strings.TrimSpace(line) == "" && !r.Pending() {
			continue
		}

		cli.AppendHistory(line)

		v, err := step(e, r, line)
		if err != nil {
			fmt.Fprintln(stderr, err)
		} else if v != "" {
			fmt.Fprintln(stdout, v)
		}
	}
}

// complete returns completions for the identifier ending at pos.
func complete(names []string, line string, pos int) (string, []string, string) {
	head, tail := line[:pos], line[pos:]

	start := strings.LastIndexFunc(head, func(r rune) bool {
		return r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) + 1

	word := head[start:]
	if word == "" {
		return head, nil, tail
	}

	var matches []string

	for _, n := range append(names, keywords...) {
		if strings.HasPrefix(n, word) && n != word {
			matches = append(matches, n)
		}
	}

	sort.Strings(matches)

	return head[:start], matches, tail
}

func prompt(r *reader.T) string {
	if r.Pending() {
		return Continue
	}

	return Primary
}

// step scans line and, if it completes a form, evaluates it. It returns
// the display form of a value other than nil.
func step(e Evaluator, r *reader.T, line string) (string, error) {
	nodes, err := r.Scan(line)
	if err != nil || nodes == nil {
		return "", err
	}

	v, err := e.Evaluate(nodes)
	if err != nil || null.Is(v) {
		return "", err
	}

	return literal.String(v), nil
}

//nolint:gochecknoglobals
var keywords = []string{
	"break", "case", "catch", "class", "default", "else", "end", "extends",
	"false", "for", "function", "global", "local", "nil", "private",
	"public", "require", "return", "static", "switch", "then", "true",
	"try", "while",
}
