//go:build windows

package perms

// processUmask returns 0 on Windows: there is no umask, so moderation is the
// identity and the permission layer decides separately whether to apply bits.
func processUmask() int {
	return 0
}
