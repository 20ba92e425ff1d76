// Released under an MIT license. See LICENSE.

package history

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if err := Load(func(io.Reader) (int, error) {
		t.Fatal("there should be no history yet")

		return 0, nil
	}); err != nil {
		t.Fatal(err)
	}

	if err := Save(func(w io.Writer) (int, error) {
		return io.WriteString(w, "print(1)\n")
	}); err != nil {
		t.Fatal(err)
	}

	var b bytes.Buffer

	if err := Load(func(r io.Reader) (int, error) {
		n, err := b.ReadFrom(r)

		return int(n), err
	}); err != nil {
		t.Fatal(err)
	}

	if b.String() != "print(1)\n" {
		t.Fatalf("unexpected history %q", b.String())
	}

	if path, _ := Path(); path != filepath.Join(home, Name) {
		t.Fatalf("unexpected path %s", path)
	}
}
