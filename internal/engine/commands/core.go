// Released under an MIT license. See LICENSE.

package commands

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/xylo-lang/xylo/internal/common"
	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/interface/literal"
	"github.com/xylo-lang/xylo/internal/common/struct/fault"
	"github.com/xylo-lang/xylo/internal/common/type/boolean"
	"github.com/xylo-lang/xylo/internal/common/type/null"
	"github.com/xylo-lang/xylo/internal/common/type/num"
	"github.com/xylo-lang/xylo/internal/common/type/obj"
	"github.com/xylo-lang/xylo/internal/common/type/str"
	"github.com/xylo-lang/xylo/internal/common/type/table"
	"github.com/xylo-lang/xylo/internal/common/validate"
	"github.com/xylo-lang/xylo/internal/engine/task"
)

// Functions returns a mapping of names to the core global functions.
func (c *commands) Functions() map[string]task.Function {
	fns := map[string]task.Function{
		"assert":        assert,
		"await":         await,
		"awaitListener": awaitListener,
		"error":         raise,
		"ipairs":        ipairs,
		"len":           length,
		"loadstring":    loadstring,
		"next":          next,
		"pairs":         pairs,
		"pcall":         pcall,
		"print":         show,
		"tonumber":      tonumber,
		"tostring":      tostring,
		"type":          kind,
		"warn":          warn,
		"xpcall":        xpcall,
	}

	timers := map[string]task.Function{
		"clearInterval": cancel,
		"clearTimeout":  cancel,
		"setInterval":   schedule("setInterval", true),
		"setTimeout":    schedule("setTimeout", false),
	}

	for k, fn := range timers {
		if !c.enabled[Timers] {
			fn = denied(Timers)
		}

		fns[k] = fn
	}

	return fns
}

func assert(_ *task.T, args []cell.I) (cell.I, error) {
	v, err := validate.Fixed("assert", args, 1, 2)
	if err != nil {
		return nil, err
	}

	if task.Truth(v[0]) {
		return v[0], nil
	}

	msg := "Condition is false"
	if !null.Is(v[1]) {
		msg = common.String(v[1])
	}

	return nil, thrown(str.New("Assertion failed: " + msg))
}

func await(t *task.T, args []cell.I) (cell.I, error) {
	if err := validate.Variadic("await", args, 1); err != nil {
		return nil, err
	}

	return t.Await(args[0], args[1:]...)
}

func awaitListener(t *task.T, args []cell.I) (cell.I, error) {
	if err := validate.Variadic("awaitListener", args, 2); err != nil {
		return nil, err
	}

	fn, listener, rest := args[0], args[1], args[2:]

	t.Spawn("awaitListener", func() (cell.I, error) {
		v, err := t.Await(fn, rest...)
		if err != nil {
			return nil, err
		}

		return t.Await(listener, v)
	}, nil)

	return null.Null, nil
}

func denied(capability string) task.Function {
	return func(*task.T, []cell.I) (cell.I, error) {
		return nil, fault.New(fault.Capability, nil,
			"capability not available in this host: %s", capability)
	}
}

func ipairs(_ *task.T, args []cell.I) (cell.I, error) {
	v, err := validate.Fixed("ipairs", args, 1, 1)
	if err != nil {
		return nil, err
	}

	var values []cell.I

	switch x := v[0].(type) {
	case str.T:
		for _, r := range string(x) {
			values = append(values, str.New(string(r)))
		}
	case *table.T:
		values = elements(x)
	case *obj.T:
		values = elements(x.Table())
	default:
		return nil, fault.New(fault.TypeMismatch, nil,
			"ipairs expects array-like table, got %s", task.Kind(v[0]))
	}

	keys := make([]cell.I, len(values))
	for i := range keys {
		keys[i] = num.Int(i)
	}

	return iterator(keys, values), nil
}

func kind(_ *task.T, args []cell.I) (cell.I, error) {
	v, err := validate.Fixed("type", args, 0, 1)
	if err != nil {
		return nil, err
	}

	return str.New(task.Kind(v[0])), nil
}

func length(_ *task.T, args []cell.I) (cell.I, error) {
	total := 0

	for i, a := range args {
		switch x := null.Or(a).(type) {
		case str.T:
			total += utf8.RuneCountInString(string(x))
		case *table.T:
			total += x.Len()
		case table.Holder:
			total += x.Table().Len()
		case *null.T:
			return nil, fault.New(fault.TypeMismatch, nil,
				"bad argument #%d to 'len' (value expected, got %s)", i+1, x.Name())
		}
	}

	return num.Int(total), nil
}

func loadstring(t *task.T, args []cell.I) (cell.I, error) {
	code, err := validate.String("loadstring", args, 0)
	if err != nil {
		return nil, err
	}

	return t.Evaluate(code, "loadstring")
}

func next(_ *task.T, args []cell.I) (cell.I, error) {
	t, err := validate.Table("next", args, 0)
	if err != nil {
		return nil, err
	}

	keys := t.Keys()

	i := 0

	if len(args) > 1 && !null.Is(args[1]) {
		i = len(keys)

		for j, k := range keys {
			if task.Equal(k, args[1]) {
				i = j + 1

				break
			}
		}
	}

	if i >= len(keys) {
		return null.Null, nil
	}

	return table.From(keys[i], t.Get(keys[i])), nil
}

func pairs(_ *task.T, args []cell.I) (cell.I, error) {
	t, err := validate.Table("pairs", args, 0)
	if err != nil {
		return nil, err
	}

	var keys, values []cell.I

	t.Entries(func(k, v cell.I) bool {
		keys = append(keys, k)
		values = append(values, v)

		return true
	})

	return iterator(keys, values), nil
}

func pcall(t *task.T, args []cell.I) (cell.I, error) {
	if err := validate.Variadic("pcall", args, 1); err != nil {
		return nil, err
	}

	if _, ok := args[0].(task.Callable); !ok {
		return outcome(nil, str.New("Attempt to call a non-function")), nil
	}

	v, err := t.Await(args[0], args[1:]...)
	if err != nil {
		t.Logger.Debug("pcall caught error", "err", err)

		return outcome(nil, str.New(message(err))), nil
	}

	return outcome(v, nil), nil
}

func raise(_ *task.T, args []cell.I) (cell.I, error) {
	var v cell.I = null.Null
	if len(args) > 0 {
		v = null.Or(args[0])
	}

	return nil, thrown(v)
}

func show(t *task.T, args []cell.I) (cell.I, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = display(a)
	}

	_, err := fmt.Fprintln(t.Stdout, strings.Join(parts, " "))

	return null.Null, err
}

func tonumber(_ *task.T, args []cell.I) (cell.I, error) {
	v, err := validate.Fixed("tonumber", args, 1, 2)
	if err != nil {
		return nil, err
	}

	otherwise := v[1]
	if null.Is(otherwise) {
		otherwise = num.Int(0)
	}

	switch x := v[0].(type) {
	case num.T:
		return x, nil
	case *boolean.T:
		if x.Bool() {
			return num.Int(1), nil
		}

		return num.Int(0), nil
	case str.T:
		if f, ok := number(string(x)); ok {
			return num.New(f), nil
		}
	case *null.T:
		if x == null.Null {
			return num.Int(0), nil
		}
	}

	return otherwise, nil
}

func tostring(_ *task.T, args []cell.I) (cell.I, error) {
	v, err := validate.Fixed("tostring", args, 0, 1)
	if err != nil {
		return nil, err
	}

	return str.New(common.String(v[0])), nil
}

func warn(t *task.T, args []cell.I) (cell.I, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = display(a)
	}

	t.Logger.Warn(strings.Join(parts, " "))

	return null.Null, nil
}

func xpcall(t *task.T, args []cell.I) (cell.I, error) {
	if err := validate.Variadic("xpcall", args, 2); err != nil {
		return nil, err
	}

	v, err := t.Await(args[0], args[2:]...)
	if err == nil {
		return outcome(v, nil), nil
	}

	msg := str.New(message(err))

	h, herr := t.Await(args[1], task.Caught(err))
	if herr != nil {
		t.Logger.Debug("error handler failed", "err", herr)

		r := outcome(nil, str.New(message(herr)))
		r.Set(str.New("handled"), boolean.False)

		return r, nil
	}

	r := outcome(h, msg)
	r.Set(str.New("isComplete"), boolean.False)
	r.Set(str.New("handled"), boolean.True)

	return r, nil
}

// display is the form print and warn use: tables render their contents.
func display(c cell.I) string {
	switch c.(type) {
	case *table.T, *obj.T:
		return literal.String(c)
	}

	return common.String(c)
}

// elements returns the values of t at non-negative integer keys in key
// order, followed by the values at other keys in insertion order.
func elements(t *table.T) []cell.I {
	type indexed struct {
		i int
		v cell.I
	}

	var (
		ints []indexed
		rest []cell.I
	)

	t.Entries(func(k, v cell.I) bool {
		if i, ok := index(k); ok {
			ints = append(ints, indexed{i, v})
		} else {
			rest = append(rest, v)
		}

		return true
	})

	sort.SliceStable(ints, func(a, b int) bool {
		return ints[a].i < ints[b].i
	})

	vs := make([]cell.I, 0, len(ints)+len(rest))
	for _, x := range ints {
		vs = append(vs, x.v)
	}

	return append(vs, rest...)
}

func index(k cell.I) (int, bool) {
	n, ok := k.(num.T)
	if !ok {
		return 0, false
	}

	f := n.Float()
	if f < 0 || f != math.Trunc(f) {
		return 0, false
	}

	return int(f), true
}

func iterator(keys, values []cell.I) *table.T {
	var (
		i  int
		mu sync.Mutex
	)

	done := record(field{"done", boolean.True})

	it := table.New()
	it.Set(str.New("next"), task.NewBuiltin("next", func(*task.T, []cell.I) (cell.I, error) {
		mu.Lock()
		defer mu.Unlock()

		if i >= len(keys) {
			return done, nil
		}

		step := record(
			field{"value", table.From(keys[i], values[i])},
			field{"done", boolean.False},
		)
		i++

		return step, nil
	}))

	return it
}

// message is the text pcall reports for err. Values raised by error()
// are reported without a position.
func message(err error) string {
	if f, ok := fault.As(err); ok && f.Kind == fault.Thrown {
		return f.Message
	}

	return err.Error()
}

func number(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		i, err := strconv.ParseUint(s[2:], 16, 64)

		return float64(i), err == nil
	}

	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || strings.ContainsAny(s, "nN") {
		return 0, false
	}

	return f, true
}

func outcome(result cell.I, err cell.I) *table.T {
	return record(
		field{"result", nullable(result)},
		field{"error", nullable(err)},
		field{"isComplete", boolean.Bool(err == nil)},
	)
}

func nullable(c cell.I) cell.I {
	if c == nil {
		return null.Null
	}

	return c
}

type field struct {
	k string
	v cell.I
}

func record(fs ...field) *table.T {
	t := table.New()
	for _, f := range fs {
		t.Set(str.New(f.k), f.v)
	}

	return t
}

func thrown(v cell.I) error {
	return &fault.T{Kind: fault.Thrown, Message: common.String(v), Value: v}
}
