// Released under an MIT license. See LICENSE.

package commands

import (
	"math"
	"strconv"

	"gopkg.in/yaml.v3"

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

// YAMLLibrary returns a new yaml library.
func YAMLLibrary() *table.T {
	return library(map[string]task.Function{
		"decode": ydecode,
		"encode": yencode,
	})
}

func ydecode(_ *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.String("decode", args, 0)
	if err != nil {
		return nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(s), &doc); err != nil {
		return nil, fault.New(fault.Unknown, nil, "yaml.decode: %v", err)
	}

	if doc.Kind == 0 || len(doc.Content) == 0 {
		return null.Null, nil
	}

	return fromNode(doc.Content[0], map[*yaml.Node]cell.I{})
}

func yencode(_ *task.T, args []cell.I) (cell.I, error) {
	v, err := validate.Fixed("encode", args, 1, 1)
	if err != nil {
		return nil, err
	}

	n, err := toNode(v[0], map[*table.T]bool{})
	if err != nil {
		return nil, err
	}

	out, err := yaml.Marshal(n)
	if err != nil {
		return nil, fault.New(fault.Unknown, nil, "yaml.encode: %v", err)
	}

	return str.New(string(out)), nil
}

// fromNode converts a decoded node. Aliases share the value of their anchor.
func fromNode(n *yaml.Node, anchors map[*yaml.Node]cell.I) (cell.I, error) {
	if v, ok := anchors[n]; ok {
		return v, nil
	}

	switch n.Kind {
	case yaml.AliasNode:
		return fromNode(n.Alias, anchors)

	case yaml.MappingNode:
		t := table.New()
		anchors[n] = t

		for i := 0; i+1 < len(n.Content); i += 2 {
			k, err := fromNode(n.Content[i], anchors)
			if err != nil {
				return nil, err
			}

			v, err := fromNode(n.Content[i+1], anchors)
			if err != nil {
				return nil, err
			}

			t.Set(k, v)
		}

		return t, nil

	case yaml.SequenceNode:
		t := table.New()
		anchors[n] = t

		for i, c := range n.Content {
			v, err := fromNode(c, anchors)
			if err != nil {
				return nil, err
			}

			t.Set(num.Int(i), v)
		}

		return t, nil

	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fault.New(fault.Unknown, nil, "yaml.decode: line %d: %v", n.Line, err)
		}

		return task.FromGo(v), nil
	}

	return null.Null, nil
}

func toNode(c cell.I, seen map[*table.T]bool) (*yaml.Node, error) {
	scalar := func(tag, value string) *yaml.Node {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
	}

	switch x := null.Or(c).(type) {
	case *null.T:
		return scalar("!!null", "null"), nil
	case *boolean.T:
		return scalar("!!bool", x.String()), nil
	case num.T:
		f := x.Float()

		switch {
		case math.IsNaN(f):
			return scalar("!!float", ".nan"), nil
		case math.IsInf(f, 1):
			return scalar("!!float", ".inf"), nil
		case math.IsInf(f, -1):
			return scalar("!!float", "-.inf"), nil
		case f == math.Trunc(f) && math.Abs(f) < 1e15:
			return scalar("!!int", strconv.FormatInt(int64(f), 10)), nil
		}

		return scalar("!!float", x.String()), nil
	case str.T:
		return scalar("!!str", string(x)), nil
	}

	t := holder(c)
	if t == nil {
		return scalar("!!null", "null"), nil
	}

	if seen[t] {
		return nil, fault.New(fault.TypeMismatch, nil, "yaml.encode: cyclic table")
	}

	seen[t] = true
	defer delete(seen, t)

	if task.Sequence(t) {
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}

		for i := 0; i < t.Len(); i++ {
			e, err := toNode(t.Get(num.Int(i)), seen)
			if err != nil {
				return nil, err
			}

			n.Content = append(n.Content, e)
		}

		return n, nil
	}

	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	var failed error

	t.Entries(func(k, v cell.I) bool {
		if _, ok := v.(task.Callable); ok {
			return true
		}

		e, err := toNode(v, seen)
		if err != nil {
			failed = err

			return false
		}

		n.Content = append(n.Content, scalar("!!str", task.KeyString(k)), e)

		return true
	})

	return n, failed
}
