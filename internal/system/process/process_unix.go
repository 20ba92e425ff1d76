// Released under an MIT license. See LICENSE.

//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

// Package process reports facts about the running interpreter process.
package process

import (
	"runtime"

	"golang.org/x/sys/unix"
)

//nolint:gochecknoglobals
var (
	Platform = runtime.GOOS

	id     = unix.Getpid()
	parent = unix.Getppid()
)

// Hostname returns the node name reported by uname.
func Hostname() (string, error) {
	var u unix.Utsname

	if err := unix.Uname(&u); err != nil {
		return "", err
	}

	return unix.ByteSliceToString(u.Nodename[:]), nil
}

// ID returns the process ID for the current process.
func ID() int {
	return id
}

// Parent returns the process ID of the parent of the current process.
func Parent() int {
	return parent
}

// Umask sets the file mode creation mask and returns the previous one.
func Umask(mask int) int {
	return unix.Umask(mask)
}
