// Released under an MIT license. See LICENSE.

//go:build !(aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris)

package process

import (
	"os"
	"runtime"
)

//nolint:gochecknoglobals
var Platform = runtime.GOOS

// Hostname returns the host name reported by the operating system.
func Hostname() (string, error) {
	return os.Hostname()
}

// ID returns the process ID for the current process.
func ID() int {
	return os.Getpid()
}

// Parent returns the process ID of the parent of the current process.
func Parent() int {
	return os.Getppid()
}

// Umask is not supported on this platform. It returns mask unchanged.
func Umask(mask int) int {
	return mask
}
