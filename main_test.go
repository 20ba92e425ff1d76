// Released under an MIT license. See LICENSE.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xylo-lang/xylo/internal/engine"
)

func TestExamples(t *testing.T) {
	scripts, err := filepath.Glob(filepath.Join("examples", "*.xylo"))
	if err != nil {
		t.Fatal(err)
	}

	if len(scripts) == 0 {
		t.Fatal("no examples found")
	}

	for _, script := range scripts {
		t.Run(filepath.Base(script), func(t *testing.T) {
			want, err := os.ReadFile(strings.TrimSuffix(script, ".xylo") + ".out")
			if err != nil {
				t.Fatal(err)
			}

			var out bytes.Buffer

			e, err := engine.New(engine.Config{
				Args:   []string{script},
				Stdout: &out,
			})
			if err != nil {
				t.Fatal(err)
			}

			_, err = e.RunFile(script)

			e.Wait()

			if err != nil {
				t.Fatal(err)
			}

			if diff := cmp.Diff(string(want), out.String()); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
