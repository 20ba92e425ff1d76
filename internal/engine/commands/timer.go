// Released under an MIT license. See LICENSE.

package commands

import (
	"time"

	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/type/boolean"
	"github.com/xylo-lang/xylo/internal/common/type/num"
	"github.com/xylo-lang/xylo/internal/common/validate"
	"github.com/xylo-lang/xylo/internal/engine/task"
)

func cancel(t *task.T, args []cell.I) (cell.I, error) {
	id, err := validate.Number("clearTimeout", args, 0)
	if err != nil {
		return nil, err
	}

	return boolean.Bool(t.Cancel(int(id))), nil
}

// schedule returns setTimeout, or setInterval if repeat is true. The
// callback runs as its own task after a delay given in milliseconds.
func schedule(name string, repeat bool) task.Function {
	return func(t *task.T, args []cell.I) (cell.I, error) {
		if err := validate.Variadic(name, args, 1); err != nil {
			return nil, err
		}

		ms, err := validate.OptionalNumber(name, args, 1, 0)
		if err != nil {
			return nil, err
		}

		fn := args[0]

		var rest []cell.I
		if len(args) > 2 {
			rest = args[2:]
		}

		delay := time.Duration(ms * float64(time.Millisecond))

		id := t.Schedule(delay, repeat, func() error {
			_, err := t.Await(fn, rest...)

			return err
		})

		return num.Int(id), nil
	}
}
