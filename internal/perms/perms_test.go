package perms

import (
	"strings"
	"testing"
)

func fixedUmask(v int) func() int {
	return func() int { return v }
}

func TestModerate_ZeroUmask(t *testing.T) {
	m := NewModerator(fixedUmask(0o000))

	tests := []struct {
		mode  Mode
		scope Scope
		want  string
	}{
		{ModeReadOnly, ScopeUser, "600"},
		{ModeExec, ScopeUser, "700"},
		{ModeReadOnly, ScopeAll, "644"},
		{ModeExec, ScopeAll, "755"},
	}

	for _, tt := range tests {
		got, err := m.Moderate(tt.mode, tt.scope)
		if err != nil {
			t.Fatalf("Moderate(%v, %v) failed: %v", tt.mode, tt.scope, err)
		}
		if got != tt.want {
			t.Errorf("Moderate(%v, %v) = %q, want %q", tt.mode, tt.scope, got, tt.want)
		}
	}
}

func TestModerate_RestrictiveUmask(t *testing.T) {
	// 077 masks every group/other bit: world-readable becomes owner-only.
	m := NewModerator(fixedUmask(0o077))
	got, err := m.Moderate(ModeReadOnly, ScopeAll)
	if err != nil {
		t.Fatalf("Moderate failed: %v", err)
	}
	if got != "600" {
		t.Errorf("Moderate(read, all) with umask 077 = %q, want %q", got, "600")
	}
}

func TestModerate_TypicalUmask(t *testing.T) {
	// 022 only denies write bits 755 already lacks for group/other.
	m := NewModerator(fixedUmask(0o022))
	got, err := m.Moderate(ModeExec, ScopeAll)
	if err != nil {
		t.Fatalf("Moderate failed: %v", err)
	}
	if got != "755" {
		t.Errorf("Moderate(exec, all) with umask 022 = %q, want %q", got, "755")
	}
}

func TestUmask_QueriedOnce(t *testing.T) {
	calls := 0
	m := NewModerator(func() int {
		calls++
		return 0o022
	})

	for i := 0; i < 5; i++ {
		if _, err := m.Moderate(ModeReadOnly, ScopeAll); err != nil {
			t.Fatalf("Moderate failed: %v", err)
		}
	}
	m.Umask()

	if calls != 1 {
		t.Errorf("umask queried %d times, want exactly 1", calls)
	}
}

// digitChars is the character-table formulation the moderation logic
// replaced: an octal digit as the set of permission letters it grants.
var digitChars = [8]string{"", "x", "w", "wx", "r", "rx", "rw", "rwx"}

// moderateDigitByChars keeps each letter of the base digit that the mask
// digit does not contain, then maps the surviving set back to a digit.
func moderateDigitByChars(base, mask int) int {
	var kept strings.Builder
	for _, c := range digitChars[base] {
		if !strings.ContainsRune(digitChars[mask], c) {
			kept.WriteRune(c)
		}
	}
	for d, s := range digitChars {
		if s == kept.String() {
			return d
		}
	}
	return 0
}

func TestModerate_MatchesCharacterTableOracle(t *testing.T) {
	for base := 0; base < 8; base++ {
		for mask := 0; mask < 8; mask++ {
			got := base &^ mask
			want := moderateDigitByChars(base, mask)
			if got != want {
				t.Errorf("digit %o under mask %o: bitwise = %o, char table = %o", base, mask, got, want)
			}
		}
	}
}

func TestFileMode(t *testing.T) {
	m := NewModerator(fixedUmask(0o027))
	got, err := m.FileMode(ModeExec, ScopeAll)
	if err != nil {
		t.Fatalf("FileMode failed: %v", err)
	}
	// 755 under umask 027 → 750.
	if got != 0o750 {
		t.Errorf("FileMode(exec, all) = %o, want %o", got, 0o750)
	}
}

func TestParseModeScope(t *testing.T) {
	if m, ok := ParseMode("exec"); !ok || m != ModeExec {
		t.Errorf("ParseMode(exec) = %v, %v", m, ok)
	}
	if _, ok := ParseMode("sticky"); ok {
		t.Error("ParseMode(sticky) should fail")
	}
	if s, ok := ParseScope("all"); !ok || s != ScopeAll {
		t.Errorf("ParseScope(all) = %v, %v", s, ok)
	}
	if _, ok := ParseScope("nobody"); ok {
		t.Error("ParseScope(nobody) should fail")
	}
}
