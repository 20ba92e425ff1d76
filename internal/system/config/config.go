// Released under an MIT license. See LICENSE.

// Package config reads xylo.yml, the manifest that configures the
// interpreter for the scripts beside it.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// Name is the file name of a manifest.
const Name = "xylo.yml"

// Parameter check policies.
const (
	ParamsAlways = "always"
	ParamsOnce   = "once"
)

// Log configures logging.
type Log struct {
	Level string `yaml:"level"`
}

// T (config) is a parsed manifest.
type T struct {
	// Capabilities lists the host capabilities granted. Nil grants all.
	Capabilities []string `yaml:"capabilities"`

	Log    Log    `yaml:"log"`
	Params string `yaml:"params"`

	// Path lists module search roots. Relative roots are resolved
	// against the manifest's directory.
	Path []string `yaml:"path"`

	// Xylo is the minimum interpreter version the scripts need.
	Xylo string `yaml:"xylo"`

	file string
}

type config = T

// ValidationError collects every problem found in a manifest.
type ValidationError struct {
	File   string
	Issues []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder

	b.WriteString(e.File)
	b.WriteString(": invalid manifest:")

	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}

	return b.String()
}

// Default returns the configuration used when there is no manifest.
func Default() *config {
	return &config{Params: ParamsAlways}
}

// Find returns the path of the manifest in dir, or "" if there is none.
func Find(dir string) string {
	path := filepath.Join(dir, Name)

	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		return path
	}

	return ""
}

// Load parses and validates the manifest at path. An empty manifest
// yields the default configuration.
func Load(path string) (*config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	return parse(f, abs)
}

// File returns the path the configuration was read from, if any.
func (c *config) File() string {
	return c.file
}

// Level returns the configured log level. The default is info.
func (c *config) Level() slog.Level {
	var l slog.Level

	_ = l.UnmarshalText([]byte(c.Log.Level))

	return l
}

// Once returns true if parameter annotations are checked only on the
// first call of each function.
func (c *config) Once() bool {
	return c.Params == ParamsOnce
}

// Require fails if the interpreter version is older than the manifest's
// minimum.
func (c *config) Require(version string) error {
	if c.Xylo == "" {
		return nil
	}

	if semver.Compare(canonical(version), canonical(c.Xylo)) < 0 {
		return fmt.Errorf("%s: requires xylo %s or later, this is %s", c.file, c.Xylo, version)
	}

	return nil
}

func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}

	return v
}

func parse(r io.Reader, file string) (*config, error) {
	d := yaml.NewDecoder(r)
	d.KnownFields(true)

	c := Default()

	if err := d.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", file, err)
	}

	c.file = file

	if c.Params == "" {
		c.Params = ParamsAlways
	}

	for i, p := range c.Path {
		if !filepath.IsAbs(p) {
			c.Path[i] = filepath.Join(filepath.Dir(file), p)
		}
	}

	return c, c.validate()
}

func (c *config) validate() error {
	e := &ValidationError{File: c.file}

	if c.Xylo != "" && !semver.IsValid(canonical(c.Xylo)) {
		e.Issues = append(e.Issues, fmt.Sprintf("xylo: %q is not a semantic version", c.Xylo))
	}

	if c.Params != ParamsAlways && c.Params != ParamsOnce {
		e.Issues = append(e.Issues, fmt.Sprintf("params: expected %s or %s, got %q", ParamsAlways, ParamsOnce, c.Params))
	}

	if c.Log.Level != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
			e.Issues = append(e.Issues, fmt.Sprintf("log.level: %q is not a level", c.Log.Level))
		}
	}

	for i, k := range c.Capabilities {
		if k == "" {
			e.Issues = append(e.Issues, fmt.Sprintf("capabilities[%d] must not be empty", i))
		}
	}

	if len(e.Issues) > 0 {
		return e
	}

	return nil
}
