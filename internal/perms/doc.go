// Package perms computes effective file permissions by narrowing a
// requested permission class (read-only or executable, for the owning user
// or for everyone) through the process umask. The umask is queried once and
// memoized for the process lifetime.
package perms
