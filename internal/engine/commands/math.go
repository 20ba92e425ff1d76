// Released under an MIT license. See LICENSE.

package commands

import (
	"math"
	"sync"
	"time"

	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/struct/fault"
	"github.com/xylo-lang/xylo/internal/common/type/null"
	"github.com/xylo-lang/xylo/internal/common/type/num"
	"github.com/xylo-lang/xylo/internal/common/type/str"
	"github.com/xylo-lang/xylo/internal/common/type/table"
	"github.com/xylo-lang/xylo/internal/common/validate"
	"github.com/xylo-lang/xylo/internal/engine/task"
)

// Math returns a new math library. Each library has its own random state.
func Math() *table.T {
	r := &random{}
	r.seed(0)

	t := library(mathFunctions(r))
	t.Set(str.New("huge"), num.New(math.Inf(1)))
	t.Set(str.New("pi"), num.New(math.Pi))

	return t
}

// mathFunctions returns a mapping of names to math functions. The random
// functions share the state r.
func mathFunctions(r *random) map[string]task.Function {
	return map[string]task.Function{
		"abs":        unary("abs", math.Abs),
		"acos":       unary("acos", math.Acos),
		"asin":       unary("asin", math.Asin),
		"atan":       unary("atan", math.Atan),
		"atan2":      binary("atan2", math.Atan2),
		"ceil":       unary("ceil", math.Ceil),
		"clamp":      clamp,
		"cos":        unary("cos", math.Cos),
		"cosh":       unary("cosh", math.Cosh),
		"deg":        unary("deg", func(x float64) float64 { return x * 180 / math.Pi }),
		"exp":        unary("exp", math.Exp),
		"floor":      unary("floor", math.Floor),
		"fmod":       binary("fmod", func(a, b float64) float64 { return a - math.Floor(a/b)*b }),
		"ldexp":      binary("ldexp", func(m, e float64) float64 { return m * math.Pow(2, e) }),
		"lerp":       lerp,
		"log":        logarithm,
		"log10":      unary("log10", math.Log10),
		"max":        extreme("max", math.Max, math.Inf(-1)),
		"min":        extreme("min", math.Min, math.Inf(1)),
		"pow":        binary("pow", math.Pow),
		"rad":        unary("rad", func(x float64) float64 { return x * math.Pi / 180 }),
		"random":     r.random,
		"randomseed": r.randomseed,
		"round":      unary("round", func(x float64) float64 { return math.Floor(x + 0.5) }),
		"sin":        unary("sin", math.Sin),
		"sinh":       unary("sinh", math.Sinh),
		"sqrt":       unary("sqrt", math.Sqrt),
		"tan":        unary("tan", math.Tan),
		"tanh":       unary("tanh", math.Tanh),
	}
}

func binary(name string, fn func(a, b float64) float64) task.Function {
	return func(_ *task.T, args []cell.I) (cell.I, error) {
		a, err := validate.Number(name, args, 0)
		if err != nil {
			return nil, err
		}

		b, err := validate.Number(name, args, 1)
		if err != nil {
			return nil, err
		}

		return num.New(fn(a, b)), nil
	}
}

func clamp(_ *task.T, args []cell.I) (cell.I, error) {
	v := make([]float64, 3)

	for i := range v {
		f, err := validate.Number("clamp", args, i)
		if err != nil {
			return nil, err
		}

		v[i] = f
	}

	return num.New(math.Min(math.Max(v[0], v[1]), v[2])), nil
}

// extreme returns min or max. With no arguments the result is the
// identity of fn.
func extreme(name string, fn func(a, b float64) float64, identity float64) task.Function {
	return func(_ *task.T, args []cell.I) (cell.I, error) {
		acc := identity

		for i := range args {
			f, err := validate.Number(name, args, i)
			if err != nil {
				return nil, err
			}

			acc = fn(acc, f)
		}

		return num.New(acc), nil
	}
}

func lerp(_ *task.T, args []cell.I) (cell.I, error) {
	v := make([]float64, 3)

	for i := range v {
		f, err := validate.Number("lerp", args, i)
		if err != nil {
			return nil, err
		}

		v[i] = f
	}

	return num.New(v[1] + v[0]*(v[2]-v[1])), nil
}

func logarithm(_ *task.T, args []cell.I) (cell.I, error) {
	x, err := validate.Number("log", args, 0)
	if err != nil {
		return nil, err
	}

	base, err := validate.OptionalNumber("log", args, 1, 0)
	if err != nil {
		return nil, err
	}

	if base == 0 {
		return num.New(math.Log(x)), nil
	}

	return num.New(math.Log(x) / math.Log(base)), nil
}

func unary(name string, fn func(float64) float64) task.Function {
	return func(_ *task.T, args []cell.I) (cell.I, error) {
		x, err := validate.Number(name, args, 0)
		if err != nil {
			return nil, err
		}

		return num.New(fn(x)), nil
	}
}

// random is a linear congruential generator. Seeding it with the same
// value reproduces the same sequence.
type random struct {
	sync.Mutex
	state uint32
}

func (r *random) float() float64 {
	r.Lock()
	defer r.Unlock()

	r.state = (r.state*214013 + 2531011) & 0x7fffffff

	return float64(r.state>>16) / 0x8000
}

func (r *random) random(_ *task.T, args []cell.I) (cell.I, error) {
	f := r.float()

	switch len(args) {
	case 0:
		return num.New(f), nil
	case 1:
		m, err := validate.Number("random", args, 0)
		if err != nil {
			return nil, err
		}

		return num.New(math.Floor(f*m) + 1), nil
	case 2:
		m, err := validate.Number("random", args, 0)
		if err != nil {
			return nil, err
		}

		n, err := validate.Number("random", args, 1)
		if err != nil {
			return nil, err
		}

		return num.New(math.Floor(f*(n-m+1)) + m), nil
	}

	return nil, fault.New(fault.Unknown, nil, "wrong number of arguments to 'random'")
}

func (r *random) randomseed(_ *task.T, args []cell.I) (cell.I, error) {
	seed, err := validate.OptionalNumber("randomseed", args, 0, 0)
	if err != nil {
		return nil, err
	}

	r.seed(int64(seed))

	return null.Null, nil
}

// seed resets the state. Zero seeds from the clock.
func (r *random) seed(s int64) {
	if s == 0 {
		s = time.Now().UnixMilli()
	}

	r.Lock()
	defer r.Unlock()

	r.state = uint32(s) & 0x7fffffff
}
