package platform

import (
	"fmt"
	"strings"

	"github.com/ferrite-labs/ferrite/internal/fetch"
	"github.com/ferrite-labs/ferrite/internal/perms"
)

// toolsUnix is the Unix external-tool fallback: filesystem mutation through
// the classic coreutils, honoring the configured tool-path variables. It
// only takes effect for names the native layers left unbound.
type toolsUnix struct{}

func (l *toolsUnix) Name() string        { return "tools.unix" }
func (l *toolsUnix) Kind() LayerKind     { return KindTools }
func (l *toolsUnix) Platforms() []string { return []string{"unix"} }

func (l *toolsUnix) Available(r *Registry) error {
	for _, tool := range []string{"cp", "chmod", "mkdir", "rm"} {
		if _, ok := r.LookupTool(tool); !ok {
			return fmt.Errorf("tool %q not found", tool)
		}
	}
	return nil
}

func (l *toolsUnix) Contribute(b *Binder) {
	r := b.Registry()

	b.BindMakeDir(func(path string) error {
		return l.run(r, "mkdir", "-p", path)
	})

	b.BindRemove(func(path string) error {
		return l.run(r, "rm", "-rf", path)
	})

	b.BindCopy(func(src, dst string) error {
		return l.run(r, "cp", "-p", src, dst)
	})

	b.BindList(func(path string) ([]string, error) {
		tool, ok := r.LookupTool("ls")
		if !ok {
			return nil, fmt.Errorf("tool %q not found", "ls")
		}
		res, err := r.Execute(tool, "-1A", path)
		if err != nil {
			return nil, err
		}
		if res.ExitCode != 0 {
			return nil, fmt.Errorf("ls %s: exit status %d: %s", path, res.ExitCode, res.Stderr)
		}
		var names []string
		for _, line := range strings.Split(res.Stdout, "\n") {
			if line != "" {
				names = append(names, line)
			}
		}
		return names, nil
	})

	b.BindSetPermissions(func(path string, mode perms.Mode, scope perms.Scope) error {
		moderated, err := r.Moderator().Moderate(mode, scope)
		if err != nil {
			return err
		}
		return l.run(r, "chmod", moderated, path)
	})
}

func (l *toolsUnix) run(r *Registry, tool string, args ...string) error {
	path, ok := r.LookupTool(tool)
	if !ok {
		return fmt.Errorf("tool %q not found", tool)
	}
	res, err := r.Execute(path, args...)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("%s %v: exit status %d: %s", tool, args, res.ExitCode, res.Stderr)
	}
	return nil
}

// toolsAll is the generic fallback: downloads through an external tool when
// no native download capability was bound.
type toolsAll struct{}

func (l *toolsAll) Name() string        { return "tools" }
func (l *toolsAll) Kind() LayerKind     { return KindTools }
func (l *toolsAll) Platforms() []string { return nil }

func (l *toolsAll) Available(r *Registry) error {
	if _, ok := r.LookupTool("wget"); ok {
		return nil
	}
	// Old curl lacks the flags the downloader arguments rely on.
	if r.ToolAtLeast("curl", "7.19.0") {
		return nil
	}
	return fmt.Errorf("no usable downloader tool (wget or curl >= 7.19) found")
}

func (l *toolsAll) Contribute(b *Binder) {
	r := b.Registry()
	client := fetch.New(r.Settings(), fetch.WithRunner(r), fetch.WithLogger(r.logger), fetch.WithForceTool())
	b.BindDownload(client.Fetch)
}

// Init warms the downloader probes so a missing tool is logged during
// resolution rather than on the first fetch.
func (l *toolsAll) Init(r *Registry) error {
	r.LookupTool("wget")
	r.LookupTool("curl")
	return nil
}
