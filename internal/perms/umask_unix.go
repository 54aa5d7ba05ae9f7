//go:build !windows

package perms

import "golang.org/x/sys/unix"

// processUmask reads the process umask. The only portable way to read it is
// to set it and immediately restore it.
func processUmask() int {
	old := unix.Umask(0)
	unix.Umask(old)
	return old
}
