package platform

import (
	"os/exec"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// toolCache memoizes external tool probes for the process lifetime. Each
// tool is probed at most once regardless of call count, and a missing tool
// is logged exactly once; the memo deliberately survives re-resolution.
type toolCache struct {
	probes   map[string]toolStatus
	versions map[string]*semver.Version
}

type toolStatus struct {
	path string
	ok   bool
}

func newToolCache() *toolCache {
	return &toolCache{
		probes:   make(map[string]toolStatus),
		versions: make(map[string]*semver.Version),
	}
}

// LookupTool resolves a tool name through the configured tool-path variables
// and PATH. The result is memoized; a tool found absent stays absent for the
// process lifetime. Satisfies fetch.Runner.
func (r *Registry) LookupTool(name string) (string, bool) {
	if st, probed := r.tools.probes[name]; probed {
		return st.path, st.ok
	}

	cmd := r.settings.Tools[name]
	if cmd == "" {
		cmd = name
	}
	path, err := exec.LookPath(cmd)
	st := toolStatus{path: path, ok: err == nil}
	r.tools.probes[name] = st

	if err != nil {
		r.logger.Debug("external tool unavailable", "tool", name, "command", cmd)
	}
	return st.path, st.ok
}

// versionPattern extracts the first dotted version number from a tool's
// --version banner (e.g. "GNU Wget 1.21.3 built on linux-gnu").
var versionPattern = regexp.MustCompile(`\d+\.\d+(\.\d+)?`)

// ToolVersion probes the tool's reported version, memoized like LookupTool.
// Returns false when the tool is missing or its banner has no parseable
// version.
func (r *Registry) ToolVersion(name string) (*semver.Version, bool) {
	if v, probed := r.tools.versions[name]; probed {
		return v, v != nil
	}

	path, ok := r.LookupTool(name)
	if !ok {
		r.tools.versions[name] = nil
		return nil, false
	}

	res, err := r.spawnLogged("probe", runCommand, path, "--version")
	if err != nil || res.ExitCode != 0 {
		r.tools.versions[name] = nil
		return nil, false
	}

	banner := res.Stdout
	if strings.TrimSpace(banner) == "" {
		banner = res.Stderr
	}
	match := versionPattern.FindString(banner)
	if match == "" {
		r.tools.versions[name] = nil
		return nil, false
	}
	v, err := semver.NewVersion(match)
	if err != nil {
		r.tools.versions[name] = nil
		return nil, false
	}
	r.tools.versions[name] = v
	return v, true
}

// ToolAtLeast reports whether the tool exists and reports at least the given
// version.
func (r *Registry) ToolAtLeast(name, min string) bool {
	v, ok := r.ToolVersion(name)
	if !ok {
		return false
	}
	minVersion, err := semver.NewVersion(min)
	if err != nil {
		return false
	}
	return !v.LessThan(minVersion)
}
