// Released under an MIT license. See LICENSE.

package commands

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/xylo-lang/xylo/internal/common"
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

// StringFunctions returns a mapping of names to string functions. The
// same functions serve as methods on string values, where the receiver
// is passed as the first argument. Positions count characters from 0.
func StringFunctions() map[string]task.Function {
	return map[string]task.Function{
		"byte":         sbyte,
		"capitalize":   capitalize,
		"char":         char,
		"contains":     predicate("contains", strings.Contains),
		"count":        count,
		"endsWith":     predicate("endsWith", strings.HasSuffix),
		"find":         find,
		"format":       format,
		"gsub":         gsub,
		"isEmpty":      isEmpty,
		"join":         join,
		"len":          slength,
		"lower":        transform("lower", strings.ToLower),
		"ltrim":        transform("ltrim", func(s string) string { return strings.TrimLeftFunc(s, unicode.IsSpace) }),
		"match":        match,
		"padLeft":      pad("padLeft", true),
		"padRight":     pad("padRight", false),
		"rep":          rep,
		"replaceFirst": replaceFirst,
		"reverse":      transform("reverse", reverse),
		"rtrim":        transform("rtrim", func(s string) string { return strings.TrimRightFunc(s, unicode.IsSpace) }),
		"split":        split,
		"startsWith":   predicate("startsWith", strings.HasPrefix),
		"sub":          sub,
		"trim":         transform("trim", strings.TrimSpace),
		"upper":        transform("upper", strings.ToUpper),
	}
}

func capitalize(_ *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.String("capitalize", args, 0)
	if err != nil {
		return nil, err
	}

	r := []rune(s)
	if len(r) == 0 {
		return str.New(""), nil
	}

	return str.New(strings.ToUpper(string(r[0])) + strings.ToLower(string(r[1:]))), nil
}

func char(_ *task.T, args []cell.I) (cell.I, error) {
	rs := make([]rune, len(args))

	for i := range args {
		f, err := validate.Number("char", args, i)
		if err != nil {
			return nil, err
		}

		rs[i] = rune(f)
	}

	return str.New(string(rs)), nil
}

func count(_ *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.String("count", args, 0)
	if err != nil {
		return nil, err
	}

	sub, err := validate.String("count", args, 1)
	if err != nil {
		return nil, err
	}

	r := []rune(s)

	start, err := validate.OptionalNumber("count", args, 2, 0)
	if err != nil {
		return nil, err
	}

	end, err := validate.OptionalNumber("count", args, 3, float64(len(r)))
	if err != nil {
		return nil, err
	}

	i, j := bounds(len(r), start, end)
	if sub == "" {
		return num.Int(j - i + 1), nil
	}

	return num.Int(strings.Count(string(r[i:j]), sub)), nil
}

// find returns {first, last} for the first match of pattern in s at or
// after init, or nil. A true fourth argument matches pattern literally.
func find(_ *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.String("find", args, 0)
	if err != nil {
		return nil, err
	}

	pattern, err := validate.String("find", args, 1)
	if err != nil {
		return nil, err
	}

	init, err := validate.OptionalNumber("find", args, 2, 0)
	if err != nil {
		return nil, err
	}

	if len(args) > 3 && task.Truth(args[3]) {
		pattern = regexp.QuoteMeta(pattern)
	}

	re, err := compile("find", pattern)
	if err != nil {
		return nil, err
	}

	r := []rune(s)
	offset := int(math.Max(init, 0))

	if offset > len(r) {
		return null.Null, nil
	}

	loc := re.FindStringIndex(string(r[offset:]))
	if loc == nil {
		return null.Null, nil
	}

	rest := string(r[offset:])
	first := offset + len([]rune(rest[:loc[0]]))
	last := first + len([]rune(rest[loc[0]:loc[1]])) - 1

	return table.From(num.Int(first), num.Int(last)), nil
}

//nolint:gochecknoglobals
var directive = regexp.MustCompile(`%([%scdefgiouxXq])`)

// format substitutes the directives %s %c %d %i %e %f %g %o %u %x %X %q
// with successive arguments. %% is a literal percent sign.
func format(_ *task.T, args []cell.I) (cell.I, error) {
	f, err := validate.String("format", args, 0)
	if err != nil {
		return nil, err
	}

	rest := args[1:]

	out := directive.ReplaceAllStringFunc(f, func(m string) string {
		verb := m[1]
		if verb == '%' {
			return "%"
		}

		if len(rest) == 0 {
			return m
		}

		arg := rest[0]
		rest = rest[1:]

		n := func() float64 {
			if x, ok := arg.(num.T); ok {
				return x.Float()
			}

			x, _ := number(common.String(arg))

			return x
		}

		switch verb {
		case 's':
			return display(arg)
		case 'c':
			return string(rune(n()))
		case 'd', 'i':
			return strconv.FormatInt(int64(n()), 10)
		case 'e':
			return strconv.FormatFloat(n(), 'e', -1, 64)
		case 'f':
			return strconv.FormatFloat(n(), 'f', 6, 64)
		case 'g':
			return common.String(num.New(n()))
		case 'o':
			return strconv.FormatInt(int64(n()), 8)
		case 'u':
			return strconv.FormatInt(int64(math.Abs(n())), 10)
		case 'x':
			return strconv.FormatInt(int64(n()), 16)
		case 'X':
			return strings.ToUpper(strconv.FormatInt(int64(n()), 16))
		case 'q':
			return `"` + strings.ReplaceAll(common.String(arg), `"`, `\"`) + `"`
		}

		return m
	})

	return str.New(out), nil
}

// gsub replaces up to n matches of pattern in s. A string replacement may
// refer to capture groups as %1, %2, ... A function replacement is called
// with a table of the match and its groups.
func gsub(t *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.String("gsub", args, 0)
	if err != nil {
		return nil, err
	}

	pattern, err := validate.String("gsub", args, 1)
	if err != nil {
		return nil, err
	}

	re, err := compile("gsub", pattern)
	if err != nil {
		return nil, err
	}

	limit, err := validate.OptionalNumber("gsub", args, 3, math.Inf(1))
	if err != nil {
		return nil, err
	}

	var repl cell.I = str.New("")
	if len(args) > 2 {
		repl = args[2]
	}

	var (
		b    strings.Builder
		last int
	)

	for i, m := range re.FindAllStringSubmatchIndex(s, -1) {
		if float64(i) >= limit {
			break
		}

		b.WriteString(s[last:m[0]])

		groups := make([]cell.I, len(m)/2)
		for g := range groups {
			groups[g] = null.Null
			if m[2*g] >= 0 {
				groups[g] = str.New(s[m[2*g]:m[2*g+1]])
			}
		}

		switch r := repl.(type) {
		case task.Callable:
			v, err := t.Await(r, table.From(groups...))
			if err != nil {
				return nil, err
			}

			b.WriteString(common.String(v))
		case str.T:
			b.WriteString(expand(string(r), groups))
		default:
			b.WriteString(common.String(r))
		}

		last = m[1]
	}

	b.WriteString(s[last:])

	return str.New(b.String()), nil
}

func isEmpty(_ *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.String("isEmpty", args, 0)
	if err != nil {
		return nil, err
	}

	return boolean.Bool(s == ""), nil
}

func join(_ *task.T, args []cell.I) (cell.I, error) {
	t, err := validate.Table("join", args, 0)
	if err != nil {
		return nil, err
	}

	sep, err := validate.OptionalString("join", args, 1, "")
	if err != nil {
		return nil, err
	}

	vs := elements(t)

	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = common.String(v)
	}

	return str.New(strings.Join(parts, sep)), nil
}

// match returns the capture groups of the first match of pattern in s,
// or the whole match when pattern has no groups. It returns nil when
// nothing matches.
func match(_ *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.String("match", args, 0)
	if err != nil {
		return nil, err
	}

	pattern, err := validate.String("match", args, 1)
	if err != nil {
		return nil, err
	}

	init, err := validate.OptionalNumber("match", args, 2, 0)
	if err != nil {
		return nil, err
	}

	re, err := compile("match", pattern)
	if err != nil {
		return nil, err
	}

	r := []rune(s)
	offset := int(math.Min(math.Max(init, 0), float64(len(r))))

	m := re.FindStringSubmatch(string(r[offset:]))
	if m == nil {
		return null.Null, nil
	}

	if len(m) > 1 {
		m = m[1:]
	}

	vs := make([]cell.I, len(m))
	for i, g := range m {
		vs[i] = str.New(g)
	}

	return table.From(vs...), nil
}

func pad(name string, left bool) task.Function {
	return func(_ *task.T, args []cell.I) (cell.I, error) {
		s, err := validate.String(name, args, 0)
		if err != nil {
			return nil, err
		}

		width, err := validate.Number(name, args, 1)
		if err != nil {
			return nil, err
		}

		fill, err := validate.OptionalString(name, args, 2, " ")
		if err != nil {
			return nil, err
		}

		missing := int(width) - len([]rune(s))
		if missing <= 0 || fill == "" {
			return str.New(s), nil
		}

		padding := []rune(strings.Repeat(fill, missing))[:missing]

		if left {
			return str.New(string(padding) + s), nil
		}

		return str.New(s + string(padding)), nil
	}
}

func predicate(name string, fn func(s, t string) bool) task.Function {
	return func(_ *task.T, args []cell.I) (cell.I, error) {
		s, err := validate.String(name, args, 0)
		if err != nil {
			return nil, err
		}

		t, err := validate.String(name, args, 1)
		if err != nil {
			return nil, err
		}

		return boolean.Bool(fn(s, t)), nil
	}
}

func rep(_ *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.String("rep", args, 0)
	if err != nil {
		return nil, err
	}

	n, err := validate.Number("rep", args, 1)
	if err != nil {
		return nil, err
	}

	if n < 0 {
		return nil, fault.New(fault.Unknown, nil, "rep: invalid count %s", num.New(n))
	}

	return str.New(strings.Repeat(s, int(n))), nil
}

func replaceFirst(_ *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.String("replaceFirst", args, 0)
	if err != nil {
		return nil, err
	}

	old, err := validate.String("replaceFirst", args, 1)
	if err != nil {
		return nil, err
	}

	replacement, err := validate.OptionalString("replaceFirst", args, 2, "")
	if err != nil {
		return nil, err
	}

	return str.New(strings.Replace(s, old, replacement, 1)), nil
}

func sbyte(_ *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.String("byte", args, 0)
	if err != nil {
		return nil, err
	}

	i, err := validate.OptionalNumber("byte", args, 1, 0)
	if err != nil {
		return nil, err
	}

	r := []rune(s)
	if i < 0 || int(i) >= len(r) {
		return num.New(math.NaN()), nil
	}

	return num.Int(int(r[int(i)])), nil
}

func slength(_ *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.String("len", args, 0)
	if err != nil {
		return nil, err
	}

	return num.Int(len([]rune(s))), nil
}

// split splits s around each occurrence of sep, or around runs of white
// space when sep is absent or empty.
func split(_ *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.String("split", args, 0)
	if err != nil {
		return nil, err
	}

	sep, err := validate.OptionalString("split", args, 1, "")
	if err != nil {
		return nil, err
	}

	var parts []string
	if sep == "" {
		parts = strings.Fields(s)
	} else {
		parts = strings.Split(s, sep)
	}

	vs := make([]cell.I, len(parts))
	for i, p := range parts {
		vs[i] = str.New(p)
	}

	return table.From(vs...), nil
}

// sub returns the characters of s from i to j inclusive. Negative
// positions count from the end.
func sub(_ *task.T, args []cell.I) (cell.I, error) {
	s, err := validate.String("sub", args, 0)
	if err != nil {
		return nil, err
	}

	r := []rune(s)

	i, err := validate.OptionalNumber("sub", args, 1, 0)
	if err != nil {
		return nil, err
	}

	j, err := validate.OptionalNumber("sub", args, 2, float64(len(r)))
	if err != nil {
		return nil, err
	}

	first, last := bounds(len(r), i, j+1)
	if j < 0 {
		first, last = bounds(len(r), i, float64(len(r))+j+1)
	}

	if first >= last {
		return str.New(""), nil
	}

	return str.New(string(r[first:last])), nil
}

func transform(name string, fn func(string) string) task.Function {
	return func(_ *task.T, args []cell.I) (cell.I, error) {
		s, err := validate.String(name, args, 0)
		if err != nil {
			return nil, err
		}

		return str.New(fn(s)), nil
	}
}

// bounds clamps the half-open range [i, j) to a sequence of length n.
// A negative i counts from the end.
func bounds(n int, i, j float64) (int, int) {
	if i < 0 {
		i += float64(n)
	}

	first := int(math.Min(math.Max(i, 0), float64(n)))
	last := int(math.Min(math.Max(j, 0), float64(n)))

	if last < first {
		last = first
	}

	return first, last
}

func compile(name, pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fault.New(fault.Unknown, nil, "%s: invalid pattern: %v", name, err)
	}

	return re, nil
}

//nolint:gochecknoglobals
var reference = regexp.MustCompile(`%(\d+)`)

func expand(repl string, groups []cell.I) string {
	return reference.ReplaceAllStringFunc(repl, func(m string) string {
		i, _ := strconv.Atoi(m[1:])
		if i < len(groups) && !null.Is(groups[i]) {
			return common.String(groups[i])
		}

		return m
	})
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}

	return string(r)
}
