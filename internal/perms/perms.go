package perms

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Mode is the requested permission class for a file.
type Mode int

const (
	// ModeReadOnly requests read/write for the owner, read for wider scopes.
	ModeReadOnly Mode = iota
	// ModeExec additionally requests the execute bit (also used for directories).
	ModeExec
)

// Scope selects who the permission applies to.
type Scope int

const (
	// ScopeUser grants access to the owning user only.
	ScopeUser Scope = iota
	// ScopeAll grants read (and execute, for ModeExec) to group and others.
	ScopeAll
)

// String returns the config-file spelling of the mode.
func (m Mode) String() string {
	if m == ModeExec {
		return "exec"
	}
	return "read"
}

// String returns the config-file spelling of the scope.
func (s Scope) String() string {
	if s == ScopeAll {
		return "all"
	}
	return "user"
}

// ParseMode converts a string to a Mode, returning false if invalid.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "read", "read-only":
		return ModeReadOnly, true
	case "exec", "executable":
		return ModeExec, true
	default:
		return 0, false
	}
}

// ParseScope converts a string to a Scope, returning false if invalid.
func ParseScope(s string) (Scope, bool) {
	switch s {
	case "user", "owner":
		return ScopeUser, true
	case "all", "everyone":
		return ScopeAll, true
	default:
		return 0, false
	}
}

// basePerm returns the unmoderated octal triple for a (mode, scope) pair.
func basePerm(mode Mode, scope Scope) (int, error) {
	switch {
	case mode == ModeReadOnly && scope == ScopeUser:
		return 0o600, nil
	case mode == ModeExec && scope == ScopeUser:
		return 0o700, nil
	case mode == ModeReadOnly && scope == ScopeAll:
		return 0o644, nil
	case mode == ModeExec && scope == ScopeAll:
		return 0o755, nil
	}
	return 0, fmt.Errorf("unknown permission request (mode %d, scope %d)", mode, scope)
}

// Moderator narrows requested permissions by the process umask. The umask
// is queried on first use and never re-queried, so a umask change mid-process
// is not observed. Construct test instances with NewModerator.
type Moderator struct {
	query func() int
	once  sync.Once
	umask int
}

// NewModerator returns a Moderator using the given umask query function.
func NewModerator(query func() int) *Moderator {
	return &Moderator{query: query}
}

// Default moderates against the real process umask.
var Default = NewModerator(processUmask)

// Umask returns the memoized umask as an octal triple (owner, group, other).
func (m *Moderator) Umask() int {
	m.once.Do(func() {
		m.umask = m.query() & 0o777
	})
	return m.umask
}

// Moderate returns the effective permission string for a request: per
// principal (owner, group, other), a bit is granted iff the base permission
// has it set and the umask does not deny it (moderated = base AND NOT umask).
func (m *Moderator) Moderate(mode Mode, scope Scope) (string, error) {
	base, err := basePerm(mode, scope)
	if err != nil {
		return "", err
	}
	umask := m.Umask()

	var b strings.Builder
	for shift := 6; shift >= 0; shift -= 3 {
		baseDigit := (base >> shift) & 0o7
		maskDigit := (umask >> shift) & 0o7
		b.WriteByte('0' + byte(baseDigit&^maskDigit))
	}
	return b.String(), nil
}

// FileMode returns the moderated permission as an os.FileMode, for callers
// that apply permissions natively rather than through an external tool. Both
// paths start from the same moderated triple, so the resulting bits on disk
// are identical regardless of which primitive performs the write.
func (m *Moderator) FileMode(mode Mode, scope Scope) (os.FileMode, error) {
	s, err := m.Moderate(mode, scope)
	if err != nil {
		return 0, err
	}
	var bits os.FileMode
	for i := 0; i < 3; i++ {
		bits = bits<<3 | os.FileMode(s[i]-'0')
	}
	return bits, nil
}
