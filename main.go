// Released under an MIT license. See LICENSE.

/*
Xylo is a small dynamically typed scripting language with tables,
classes, optional type annotations, modules and asynchronous functions.

	local greeting = "hello"
	function shout(s: string) return string.upper(s) .. "!" end
	print(shout(greeting))

Run a script with `xylo script.xylo`, a command with `xylo -c 'print(1)'`,
or start an interactive session with `xylo`. Settings are read from
xylo.yml beside the script.
*/
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xylo-lang/xylo/internal/engine"
	"github.com/xylo-lang/xylo/internal/engine/task"
	"github.com/xylo-lang/xylo/internal/system/config"
	"github.com/xylo-lang/xylo/internal/system/options"
	"github.com/xylo-lang/xylo/internal/ui"
)

func main() {
	options.Parse(engine.Version)

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	c, err := settings()
	if err != nil {
		return err
	}

	level := c.Level()
	if options.Debug() {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if c.File() != "" {
		logger.Debug("manifest loaded", "path", c.File())
	}

	params := task.ParamsAlways
	if c.Once() {
		params = task.ParamsOnce
	}

	e, err := engine.New(engine.Config{
		Args:         options.Args(),
		Capabilities: c.Capabilities,
		Logger:       logger,
		Params:       params,
		Roots:        c.Path,
	})
	if err != nil {
		return err
	}

	defer e.Wait()

	switch {
	case options.Script() != "":
		_, err = e.RunFile(options.Script())
	case options.Command() != "":
		_, err = e.Run(options.Command(), "command")
	case options.Interactive():
		s := e.Session()
		defer s.Close()

		err = ui.Run(s, os.Stdout, os.Stderr)
	default:
		err = stdin(e)
	}

	return err
}

// settings reads the manifest named on the command line or, failing
// that, the one beside the script or in the working directory.
func settings() (*config.T, error) {
	path := options.Config()
	if path == "" {
		dir := "."
		if options.Script() != "" {
			dir = filepath.Dir(options.Script())
		}

		path = config.Find(dir)
	}

	if path == "" {
		return config.Default(), nil
	}

	c, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	return c, c.Require(engine.Version)
}

func stdin(e *engine.T) error {
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}

	_, err = e.Run(string(b), "stdin")

	return err
}
