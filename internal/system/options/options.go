// Released under an MIT license. See LICENSE.

// Package options parses xylo's command line.
package options

import (
	"os"

	"github.com/docopt/docopt-go"
	"github.com/mattn/go-isatty"
)

//nolint:gochecknoglobals
var (
	args        []string
	command     string
	config      string
	debug       bool
	interactive bool
	script      string
	usage       = `xylo

Usage:
  xylo [-d] [--config=FILE] SCRIPT [ARGUMENTS...]
  xylo [-d] [--config=FILE] -c COMMAND [ARGUMENTS...]
  xylo [-d] [--config=FILE] [-i]
  xylo -h
  xylo -v

Arguments:
  ARGUMENTS  Values for the global table arg, from arg[1].
  SCRIPT     Path to xylo script. Also used as the value for arg[0].

Options:
  -c, --command=COMMAND  Run the specified command.
  --config=FILE          Read settings from FILE instead of xylo.yml.
  -d, --debug            Log debugging information.
  -i, --interactive      Force interactive mode.
  -h, --help             Display this help.
  -v, --version          Print xylo version.

If xylo's stdin is a TTY and there is no script or command, xylo reads
commands interactively. Otherwise, commands are read from stdin.
`
)

// Args returns the values for arg. The first is the script's name.
func Args() []string {
	return args
}

// Command returns the source given with -c, if any.
func Command() string {
	return command
}

// Config returns the manifest named with --config, if any.
func Config() string {
	return config
}

// Debug returns true if debug logging was requested.
func Debug() bool {
	return debug
}

// Interactive returns true if commands should be read with a line editor.
func Interactive() bool {
	return interactive
}

// Parse parses the command line. It exits after -h or -v.
func Parse(version string) {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], version)
	if err != nil {
		// Error in the usage doc. This should never happen.
		panic(err.Error())
	}

	apply(opts, isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()))
}

// Script returns the path of the script to run, if any.
func Script() string {
	return script
}

func apply(opts docopt.Opts, terminal bool) {
	command, _ = opts.String("--command")
	config, _ = opts.String("--config")
	debug, _ = opts.Bool("--debug")
	script, _ = opts.String("SCRIPT")

	name := os.Args[0]
	if script != "" {
		name = script
	}

	args, _ = opts["ARGUMENTS"].([]string)
	args = append([]string{name}, args...)

	forced, _ := opts.Bool("--interactive")
	interactive = forced || (script == "" && command == "" && terminal)
}
