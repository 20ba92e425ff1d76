// Released under an MIT license. See LICENSE.

package commands

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/iancoleman/orderedmap"

	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/struct/fault"
	"github.com/xylo-lang/xylo/internal/common/type/boolean"
	"github.com/xylo-lang/xylo/internal/common/type/null"
	"github.com/xylo-lang/xylo/internal/common/type/num"
	"github.com/xylo-lang/xylo/internal/common/type/str"
	"github.com/xylo-lang/xylo/internal/common/type/table"
	"github.com/xylo-lang/xylo/internal/common/validate"
	"github.com/xylo-lang/xylo/internal/engine/task"
)

// JSON returns a new json library. Objects keep their key order in both
// directions. Tables keyed exactly 0..n-1 encode as arrays.
func JSON() *table.T {
	return library(map[string]task.Function{
		"decode":  jdecode,
		"encode":  jencode,
		"get":     jget,
		"isValid": jisValid,
		"pretty":  jpretty,
	})
}

// Decode parses JSON text into a value.
func Decode(text string) (cell.I, error) {
	data := []byte(text)
	if !json.Valid(data) {
		var v any

		err := json.Unmarshal(data, &v)

		return nil, fault.New(fault.Unknown, nil, "json.decode: invalid JSON: %v", err)
	}

	// Wrapping lets one ordered decoder handle arrays and scalars too.
	wrapper := orderedmap.New()
	if err := json.Unmarshal([]byte(`{"v":`+text+`}`), wrapper); err != nil {
		return nil, fault.New(fault.Unknown, nil, "json.decode: invalid JSON: %v", err)
	}

	v, _ := wrapper.Get("v")

	return fromJSON(v), nil
}

// Encode renders c as JSON text, indented by indent spaces if indent > 0.
func Encode(c cell.I, indent int) (string, error) {
	v, err := toJSON(c, map[*table.T]bool{})
	if err != nil {
		return "", err
	}

	var b bytes.Buffer

	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)

	if indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", indent))
	}

	if err := enc.Encode(v); err != nil {
		return "", fault.New(fault.Unknown, nil, "json.encode: %v", err)
	}

	return strings.TrimSuffix(b.String(), "\n"), nil
}

func jdecode(_ *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.String("decode", args, 0)
	if err != nil {
		return nil, err
	}

	return Decode(s)
}

func jencode(_ *task.T, args []cell.I) (cell.I, error) {
	v, err := validate.Fixed("encode", args, 1, 1)
	if err != nil {
		return nil, err
	}

	s, err := Encode(v[0], 0)
	if err != nil {
		return nil, err
	}

	return str.New(s), nil
}

// jget follows the dot-separated path through nested tables and returns
// the value found, or the default when any step is missing.
func jget(_ *task.T, args []cell.I) (cell.I, error) {
	v, err := validate.Fixed("get", args, 2, 3)
	if err != nil {
		return nil, err
	}

	path, err := validate.String("get", args, 1)
	if err != nil {
		return nil, err
	}

	current := v[0]

	for _, part := range strings.Split(path, ".") {
		t := holder(current)
		if t == nil {
			return v[2], nil
		}

		x, ok := t.Lookup(str.New(part))
		if !ok {
			return v[2], nil
		}

		current = x
	}

	return current, nil
}

func jisValid(_ *task.T, args []cell.I) (cell.I, error) {
	s, ok := arg(args, 0).(str.T)

	return boolean.Bool(ok && json.Valid([]byte(s))), nil
}

// jpretty reindents JSON text. Text that is not valid JSON is returned
// unchanged.
func jpretty(_ *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.String("pretty", args, 0)
	if err != nil {
		return nil, err
	}

	indent, err := validate.OptionalNumber("pretty", args, 1, 2)
	if err != nil {
		return nil, err
	}

	v, err := Decode(s)
	if err != nil {
		return str.New(s), nil //nolint:nilerr
	}

	out, err := Encode(v, int(indent))
	if err != nil {
		return nil, err
	}

	return str.New(out), nil
}

func fromJSON(v any) cell.I {
	switch x := v.(type) {
	case nil:
		return null.Null
	case bool:
		return boolean.Bool(x)
	case float64:
		return num.New(x)
	case string:
		return str.New(x)
	case []any:
		vs := make([]cell.I, len(x))
		for i, e := range x {
			vs[i] = fromJSON(e)
		}

		return table.From(vs...)
	case orderedmap.OrderedMap:
		return fromObject(&x)
	case *orderedmap.OrderedMap:
		return fromObject(x)
	case map[string]any:
		return task.FromGo(x)
	}

	return task.FromGo(v)
}

func fromObject(o *orderedmap.OrderedMap) cell.I {
	t := table.New()

	for _, k := range o.Keys() {
		v, _ := o.Get(k)
		t.Set(str.New(k), fromJSON(v))
	}

	return t
}

func holder(c cell.I) *table.T {
	switch v := c.(type) {
	case *table.T:
		return v
	case table.Holder:
		return v.Table()
	}

	return nil
}

// toJSON converts c for encoding. Functions and undefined are dropped
// from objects and become null in arrays, as are non-finite numbers.
func toJSON(c cell.I, seen map[*table.T]bool) (any, error) {
	switch x := null.Or(c).(type) {
	case *null.T:
		return nil, nil
	case *boolean.T:
		return x.Bool(), nil
	case num.T:
		f := x.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, nil
		}

		return f, nil
	case str.T:
		return string(x), nil
	}

	t := holder(c)
	if t == nil {
		return nil, nil
	}

	if seen[t] {
		return nil, fault.New(fault.TypeMismatch, nil, "json.encode: cyclic table")
	}

	seen[t] = true
	defer delete(seen, t)

	if task.Sequence(t) {
		vs := make([]any, t.Len())
		for i := range vs {
			v, err := toJSON(t.Get(num.Int(i)), seen)
			if err != nil {
				return nil, err
			}

			vs[i] = v
		}

		return vs, nil
	}

	o := orderedmap.New()
	o.SetEscapeHTML(false)

	var failed error

	t.Entries(func(k, v cell.I) bool {
		if _, ok := v.(task.Callable); ok || v == null.Undefined {
			return true
		}

		e, err := toJSON(v, seen)
		if err != nil {
			failed = err

			return false
		}

		o.Set(task.KeyString(k), e)

		return true
	})

	return o, failed
}
