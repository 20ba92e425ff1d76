// Released under an MIT license. See LICENSE.

package commands

import (
	"errors"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/struct/fault"
	"github.com/xylo-lang/xylo/internal/common/type/null"
	"github.com/xylo-lang/xylo/internal/common/type/num"
	"github.com/xylo-lang/xylo/internal/common/type/str"
	"github.com/xylo-lang/xylo/internal/common/type/table"
	"github.com/xylo-lang/xylo/internal/common/validate"
	"github.com/xylo-lang/xylo/internal/engine/task"
	"github.com/xylo-lang/xylo/internal/system/process"
)

//nolint:gochecknoglobals
var started = time.Now()

// OS returns a new os library.
func (c *commands) OS() *table.T {
	return library(map[string]task.Function{
		"clock":    clock,
		"date":     date,
		"difftime": difftime,
		"execute":  execute,
		"exit":     c.exit,
		"getenv":   getenv,
		"hostname": hostname,
		"pid":      constant(func() cell.I { return num.Int(process.ID()) }),
		"platform": constant(func() cell.I { return str.New(process.Platform) }),
		"ppid":     constant(func() cell.I { return num.Int(process.Parent()) }),
		"setenv":   setenv,
		"sleep":    sleep,
		"time":     constant(func() cell.I { return num.Int(int(time.Now().UnixMilli())) }),
		"tmpname":  tmpname,
		"umask":    umask,
	})
}

func (c *commands) exit(_ *task.T, args []cell.I) (cell.I, error) {
	code, err := validate.OptionalNumber("exit", args, 0, 0)
	if err != nil {
		return nil, err
	}

	c.Exit(int(code))

	return null.Null, nil
}

// clock returns the seconds elapsed since the interpreter started.
func clock(*task.T, []cell.I) (cell.I, error) {
	return num.New(time.Since(started).Seconds()), nil
}

func constant(fn func() cell.I) task.Function {
	return func(*task.T, []cell.I) (cell.I, error) {
		return fn(), nil
	}
}

// date formats the time t, given in seconds since the epoch, or now.
// It understands %Y %m %d %H %M %S %w %j %c %x %X. Other directives
// are copied unchanged.
func date(_ *task.T, args []cell.I) (cell.I, error) {
	layout, err := validate.OptionalString("date", args, 0, "%c")
	if err != nil {
		return nil, err
	}

	when := time.Now()

	if len(args) > 1 && !null.Is(args[1]) {
		secs, err := validate.Number("date", args, 1)
		if err != nil {
			return nil, err
		}

		when = time.UnixMilli(int64(secs * 1000))
	}

	replacements := map[byte]string{
		'Y': strconv.Itoa(when.Year()),
		'm': when.Format("01"),
		'd': when.Format("02"),
		'H': when.Format("15"),
		'M': when.Format("04"),
		'S': when.Format("05"),
		'w': strconv.Itoa(int(when.Weekday())),
		'j': strconv.Itoa(when.YearDay()),
		'c': when.Format("Mon Jan _2 15:04:05 2006"),
		'x': when.Format("01/02/06"),
		'X': when.Format("15:04:05"),
	}

	var b strings.Builder

	for i := 0; i < len(layout); i++ {
		if layout[i] == '%' && i+1 < len(layout) {
			if s, ok := replacements[layout[i+1]]; ok {
				b.WriteString(s)
				i++

				continue
			}
		}

		b.WriteByte(layout[i])
	}

	return str.New(b.String()), nil
}

func difftime(_ *task.T, args []cell.I) (cell.I, error) {
	a, err := validate.Number("difftime", args, 0)
	if err != nil {
		return nil, err
	}

	b, err := validate.OptionalNumber("difftime", args, 1, 0)
	if err != nil {
		return nil, err
	}

	return num.New(a - b), nil
}

// execute runs command with the shell and returns {status, output}.
func execute(_ *task.T, args []cell.I) (cell.I, error) {
	command, err := validate.String("execute", args, 0)
	if err != nil {
		return nil, err
	}

	out, err := exec.Command("/bin/sh", "-c", command).CombinedOutput()

	status := 0

	if err != nil {
		var exit *exec.ExitError
		if !errors.As(err, &exit) {
			return table.From(null.Null, str.New(err.Error())), nil
		}

		status = exit.ExitCode()
	}

	return table.From(num.Int(status), str.New(string(out))), nil
}

func getenv(_ *task.T, args []cell.I) (cell.I, error) {
	name, err := validate.String("getenv", args, 0)
	if err != nil {
		return nil, err
	}

	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return null.Null, nil
	}

	return str.New(v), nil
}

func hostname(*task.T, []cell.I) (cell.I, error) {
	name, err := process.Hostname()
	if err != nil {
		return nil, fault.New(fault.Unknown, nil, "hostname: %v", err)
	}

	return str.New(name), nil
}

func setenv(_ *task.T, args []cell.I) (cell.I, error) {
	name, err := validate.String("setenv", args, 0)
	if err != nil {
		return nil, err
	}

	if len(args) < 2 || null.Is(args[1]) {
		return null.Null, os.Unsetenv(name)
	}

	value, err := validate.String("setenv", args, 1)
	if err != nil {
		return nil, err
	}

	return null.Null, os.Setenv(name, value)
}

// sleep blocks the calling task for the given number of milliseconds.
func sleep(_ *task.T, args []cell.I) (cell.I, error) {
	ms, err := validate.OptionalNumber("sleep", args, 0, 0)
	if err != nil {
		return nil, err
	}

	time.Sleep(time.Duration(ms * float64(time.Millisecond)))

	return null.Null, nil
}

func tmpname(*task.T, []cell.I) (cell.I, error) {
	name := "tmp_" + strconv.FormatUint(rand.Uint64(), 36) //nolint:gosec

	return str.New(filepath.Join(os.TempDir(), name)), nil
}

// umask sets the file mode creation mask and returns the previous one.
// Without an argument the mask is left unchanged.
func umask(_ *task.T, args []cell.I) (cell.I, error) {
	if len(args) == 0 || null.Is(args[0]) {
		old := process.Umask(0)
		process.Umask(old)

		return num.Int(old), nil
	}

	mask, err := validate.Number("umask", args, 0)
	if err != nil {
		return nil, err
	}

	return num.Int(process.Umask(int(mask))), nil
}
