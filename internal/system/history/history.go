// Released under an MIT license. See LICENSE.

// Package history persists the interactive command history.
package history

import (
	"io"
	"os"
	"path/filepath"
)

// Name is the history file's name in the user's home directory.
const Name = ".xylo_history"

// Load passes the saved history to read. A missing file is not an error.
func Load(read func(r io.Reader) (int, error)) error {
	f, err := file(os.Open)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return err
	}

	_, err = read(f)
	if err != nil {
		f.Close()

		return err
	}

	return f.Close()
}

// Save replaces the saved history with what write produces.
func Save(write func(w io.Writer) (int, error)) error {
	f, err := file(os.Create)
	if err != nil {
		return err
	}

	_, err = write(f)
	if err != nil {
		f.Close()

		return err
	}

	return f.Close()
}

// Path returns the location of the history file.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, Name), nil
}

func file(op func(string) (*os.File, error)) (*os.File, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	return op(path)
}
