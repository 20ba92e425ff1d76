// Released under an MIT license. See LICENSE.

package task

import (
	"strings"

	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/struct/fault"
	"github.com/xylo-lang/xylo/internal/common/struct/loc"
	"github.com/xylo-lang/xylo/internal/common/type/null"
)

// Kind returns the runtime kind of c: number, string, boolean, function,
// table, null or undefined.
func Kind(c cell.I) string {
	return null.Or(c).Name()
}

// CheckType fails with a type mismatch if kinds is not empty and does
// not contain the kind of v.
func CheckType(v cell.I, kinds []string, src *loc.T) error {
	if len(kinds) == 0 {
		return nil
	}

	k := Kind(v)
	for _, want := range kinds {
		if want == k {
			return nil
		}
	}

	return fault.New(fault.TypeMismatch, src,
		"Type mismatch: expected %s, got %s", strings.Join(kinds, " or "), k)
}
