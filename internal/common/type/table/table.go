// Released under an MIT license. See LICENSE.

// Package table provides xylo's table type, an insertion-ordered map
// with an optional prototype consulted when a key is missing.
package table

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/xylo-lang/xylo/internal/common"
	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/interface/literal"
	"github.com/xylo-lang/xylo/internal/common/type/boolean"
	"github.com/xylo-lang/xylo/internal/common/type/null"
	"github.com/xylo-lang/xylo/internal/common/type/num"
	"github.com/xylo-lang/xylo/internal/common/type/str"
)

const name = "table"

// T (table) maps keys to values.
type T struct {
	sync.RWMutex
	items map[string]*entry
	order []string
	proto *T
}

type table = T

type entry struct {
	key   cell.I
	value cell.I
}

// Holder is implemented by values backed by a table, such as class instances.
type Holder interface {
	Table() *T
}

// New creates an empty table.
func New() *table {
	return &table{items: map[string]*entry{}}
}

// From creates a table with the values vs at keys 0, 1, 2, ...
func From(vs ...cell.I) *table {
	t := New()
	for i, v := range vs {
		t.Set(num.Int(i), v)
	}

	return t
}

// Is returns true if c is a table.
func Is(c cell.I) bool {
	_, ok := c.(*table)

	return ok
}

// To returns a table if c is a table; Otherwise it panics.
func To(c cell.I) *table {
	if t, ok := c.(*table); ok {
		return t
	}

	panic("not a " + name)
}

// Key returns the normalized key for c. Numbers and strings with the same
// text share a key. Tables and functions are keyed by identity.
func Key(c cell.I) string {
	switch v := c.(type) {
	case nil:
		return "undefined"
	case str.T:
		return string(v)
	case num.T, *boolean.T, *null.T:
		return common.String(v)
	}

	return fmt.Sprintf("%s: %p", c.Name(), c)
}

// Array returns the values at non-negative integer keys in key order.
func (t *table) Array() []cell.I {
	t.RLock()
	defer t.RUnlock()

	type indexed struct {
		i int
		v cell.I
	}

	vs := make([]indexed, 0, len(t.order))

	for _, k := range t.order {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 {
			continue
		}

		vs = append(vs, indexed{i, t.items[k].value})
	}

	sort.SliceStable(vs, func(a, b int) bool {
		return vs[a].i < vs[b].i
	})

	array := make([]cell.I, len(vs))
	for i, v := range vs {
		array[i] = v.v
	}

	return array
}

// Clear removes every own entry from the table t.
func (t *table) Clear() {
	t.Lock()
	defer t.Unlock()

	t.items = map[string]*entry{}
	t.order = nil
}

// Delete removes the own entry k from the table t.
func (t *table) Delete(k cell.I) bool {
	t.Lock()
	defer t.Unlock()

	s := Key(k)

	if _, ok := t.items[s]; !ok {
		return false
	}

	delete(t.items, s)

	for i, o := range t.order {
		if o == s {
			t.order = append(t.order[:i], t.order[i+1:]...)

			break
		}
	}

	return true
}

// Entries calls fn for each own entry in insertion order until fn returns false.
func (t *table) Entries(fn func(k, v cell.I) bool) {
	t.RLock()
	es := make([]*entry, len(t.order))

	for i, k := range t.order {
		es[i] = t.items[k]
	}
	t.RUnlock()

	for _, e := range es {
		if !fn(e.key, e.value) {
			return
		}
	}
}

// Equal returns true if c is the same table as t.
func (t *table) Equal(c cell.I) bool {
	return t == c
}

// Get returns the value for k, consulting the prototype chain.
// Missing keys yield undefined.
func (t *table) Get(k cell.I) cell.I {
	v, _ := t.Lookup(k)

	return v
}

// Has returns true if k is present in t or its prototype chain.
func (t *table) Has(k cell.I) bool {
	_, ok := t.Lookup(k)

	return ok
}

// Keys returns the own keys of t in insertion order.
func (t *table) Keys() []cell.I {
	t.RLock()
	defer t.RUnlock()

	keys := make([]cell.I, len(t.order))
	for i, k := range t.order {
		keys[i] = t.items[k].key
	}

	return keys
}

// Len returns the number of own entries in t.
func (t *table) Len() int {
	t.RLock()
	defer t.RUnlock()

	return len(t.order)
}

// Literal returns a source-like rendering of the table t.
func (t *table) Literal() string {
	return render(t, map[*table]bool{})
}

// Lookup returns the value for k and whether it was found in t or its prototypes.
func (t *table) Lookup(k cell.I) (cell.I, bool) {
	s := Key(k)

	for p := t; p != nil; p = p.Proto() {
		if v, ok := p.own(s); ok {
			return v, true
		}
	}

	return null.Undefined, false
}

// Name returns the kind name for tables.
func (t *table) Name() string {
	return name
}

// Own returns the value for k only if t itself holds it.
func (t *table) Own(k cell.I) (cell.I, bool) {
	return t.own(Key(k))
}

// Proto returns the prototype of t.
func (t *table) Proto() *table {
	t.RLock()
	defer t.RUnlock()

	return t.proto
}

// Replace discards the own entries of t and stores vs at keys 0, 1, 2, ...
func (t *table) Replace(vs []cell.I) {
	t.Clear()

	for i, v := range vs {
		t.Set(num.Int(i), v)
	}
}

// Set associates k with v in t. An existing entry keeps its position.
func (t *table) Set(k, v cell.I) {
	t.Lock()
	defer t.Unlock()

	s := Key(k)

	if e, ok := t.items[s]; ok {
		e.value = v

		return
	}

	t.items[s] = &entry{key: k, value: v}
	t.order = append(t.order, s)
}

// SetProto makes p the prototype of t.
func (t *table) SetProto(p *table) {
	t.Lock()
	defer t.Unlock()

	t.proto = p
}

// String returns the display string of the table t.
func (t *table) String() string {
	return fmt.Sprintf("table: %p", t)
}

func (t *table) own(s string) (cell.I, bool) {
	t.RLock()
	defer t.RUnlock()

	e, ok := t.items[s]
	if !ok {
		return nil, false
	}

	return e.value, true
}

func identifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}

		return false
	}

	return true
}

func render(t *table, seen map[*table]bool) string {
	if seen[t] {
		return "{...}"
	}

	seen[t] = true
	defer delete(seen, t)

	value := func(v cell.I) string {
		switch v := v.(type) {
		case *table:
			return render(v, seen)
		case Holder:
			return render(v.Table(), seen)
		}

		return literal.String(v)
	}

	var keys, values []cell.I

	t.Entries(func(k, v cell.I) bool {
		keys = append(keys, k)
		values = append(values, v)

		return true
	})

	sequence := true

	for i, k := range keys {
		if n, ok := k.(num.T); !ok || n.Float() != float64(i) {
			sequence = false

			break
		}
	}

	parts := make([]string, len(keys))

	for i, k := range keys {
		switch {
		case sequence:
			parts[i] = value(values[i])
		case str.Is(k) && identifier(string(str.To(k))):
			parts[i] = string(str.To(k)) + " = " + value(values[i])
		default:
			parts[i] = "[" + literal.String(k) + "] = " + value(values[i])
		}
	}

	return "{" + strings.Join(parts, ", ") + "}"
}

// A compiler-checked list of interfaces this type satisfies. Never called.
func implements() { //nolint:deadcode,unused
	var t table

	// The table type is a cell.
	_ = cell.I(&t)

	// The table type has a literal representation.
	_ = literal.I(&t)

	// The table type is a stringer.
	_ = common.Stringer(&t)
}
