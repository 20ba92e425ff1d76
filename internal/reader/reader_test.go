// Released under an MIT license. See LICENSE.

package reader

import (
	"testing"
)

func TestScanAccumulatesLines(t *testing.T) {
	r := New("repl")

	nodes, err := r.Scan("function f(x)")
	if err != nil || nodes != nil {
		t.Fatalf("expected more input, got %v, %v", nodes, err)
	}

	if !r.Pending() {
		t.Fatal("expected pending input")
	}

	nodes, err = r.Scan("  return x end")
	if err != nil {
		t.Fatal(err)
	}

	if len(nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(nodes))
	}

	if r.Pending() {
		t.Fatal("expected the buffer to be empty")
	}
}

func TestScanDiscardsOnError(t *testing.T) {
	r := New("repl")

	if _, err := r.Scan("if x do"); err == nil {
		t.Fatal("expected a syntax error")
	}

	if r.Pending() {
		t.Fatal("expected the buffer to be discarded")
	}
}
