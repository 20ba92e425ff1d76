// Released under an MIT license. See LICENSE.

// Package fault provides the error type raised by the xylo parser and evaluator.
package fault

import (
	"errors"
	"fmt"

	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/struct/loc"
)

// Kind classifies a fault.
type Kind int

// Fault kinds.
const (
	Unknown Kind = iota

	Capability
	Cycle
	ModuleNotFound
	NotCallable
	NullMember
	Private
	Syntax
	Thrown
	TypeMismatch
	Undefined
)

var names = map[Kind]string{ //nolint:gochecknoglobals
	Unknown:        "Error",
	Capability:     "CapabilityError",
	Cycle:          "CycleError",
	ModuleNotFound: "ModuleNotFoundError",
	NotCallable:    "NotCallableError",
	NullMember:     "NullMemberError",
	Private:        "PrivateFieldError",
	Syntax:         "SyntaxError",
	Thrown:         "Error",
	TypeMismatch:   "TypeError",
	Undefined:      "ReferenceError",
}

func (k Kind) String() string {
	return names[k]
}

// T (fault) is a xylo error. Source is the innermost position at which the
// fault was observed. Value is set for faults raised by user code.
type T struct {
	Kind       Kind
	Message    string
	Source     *loc.T
	Value      cell.I
	Incomplete bool
}

type fault = T

// New creates a fault of kind k at the location src.
func New(k Kind, src *loc.T, format string, args ...any) *fault {
	return &fault{
		Kind:    k,
		Message: fmt.Sprintf(format, args...),
		Source:  src,
	}
}

// Annotate returns err as a fault that carries a position.
// A fault that already has a position is returned unchanged.
func Annotate(err error, src *loc.T) error {
	if err == nil {
		return nil
	}

	var f *fault
	if !errors.As(err, &f) {
		return &fault{Kind: Unknown, Message: err.Error(), Source: src}
	}

	if f.Source != nil || src == nil {
		return err
	}

	annotated := *f
	annotated.Source = src

	return &annotated
}

// As returns err as a fault, if it is one.
func As(err error) (*fault, bool) {
	var f *fault
	ok := errors.As(err, &f)

	return f, ok
}

// Is returns true if err is a fault of kind k.
func Is(err error, k Kind) bool {
	f, ok := As(err)

	return ok && f.Kind == k
}

// Error returns the message followed by the position, if known.
func (f *fault) Error() string {
	if f.Source == nil {
		return f.Message
	}

	return f.Message + " at " + f.Source.Describe()
}
