package platform

import (
	"fmt"
	"io"
	"os"

	"github.com/ferrite-labs/ferrite/internal/config"
	"github.com/ferrite-labs/ferrite/internal/fetch"
	"github.com/ferrite-labs/ferrite/internal/perms"
)

// nativeAll is the cross-platform native layer: in-process implementations
// of the filesystem, process, and download capabilities.
type nativeAll struct{}

func (l *nativeAll) Name() string               { return "native" }
func (l *nativeAll) Kind() LayerKind            { return KindNative }
func (l *nativeAll) Platforms() []string        { return nil }
func (l *nativeAll) Available(*Registry) error  { return nil }

func (l *nativeAll) Contribute(b *Binder) {
	r := b.Registry()

	b.BindExists(func(path string) (bool, error) {
		_, err := os.Stat(path)
		if os.IsNotExist(err) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("checking %s: %w", path, err)
		}
		return true, nil
	})

	b.BindIsDir(func(path string) (bool, error) {
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("checking %s: %w", path, err)
		}
		return info.IsDir(), nil
	})

	b.BindIsFile(func(path string) (bool, error) {
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("checking %s: %w", path, err)
		}
		return info.Mode().IsRegular(), nil
	})

	b.BindMakeDir(func(path string) error {
		dirMode, err := r.Moderator().FileMode(perms.ModeExec, perms.ScopeAll)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(path, dirMode); err != nil {
			return fmt.Errorf("creating directory %s: %w", path, err)
		}
		return nil
	})

	b.BindRemove(func(path string) error {
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("removing %s: %w", path, err)
		}
		return nil
	})

	b.BindCopy(copyFileNative)

	b.BindList(func(path string) ([]string, error) {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", path, err)
		}
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		return names, nil
	})

	b.BindCurrentDir(os.Getwd)

	b.BindChangeDir(func(path string) error {
		if err := os.Chdir(path); err != nil {
			return fmt.Errorf("changing directory to %s: %w", path, err)
		}
		return nil
	})

	b.BindTempDir(config.TempDir)

	b.BindExecute(runCommand)

	client := fetch.New(r.Settings(), fetch.WithRunner(r), fetch.WithLogger(r.logger))
	b.BindDownload(client.Fetch)
}

// Init makes sure the scratch directory exists; an overridden FERRITE_TMPDIR
// may point somewhere not yet created.
func (l *nativeAll) Init(r *Registry) error {
	dir := config.TempDir()
	dirMode, err := r.Moderator().FileMode(perms.ModeExec, perms.ScopeAll)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("creating scratch directory %s: %w", dir, err)
	}
	return nil
}

// copyFileNative copies a regular file, carrying over its permission bits.
func copyFileNative(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("checking %s: %w", src, err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dst, err)
	}

	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return fmt.Errorf("preserving permissions on %s: %w", dst, err)
	}
	return nil
}

// nativeUnix applies moderated permissions with the native chmod.
type nativeUnix struct{}

func (l *nativeUnix) Name() string               { return "native.unix" }
func (l *nativeUnix) Kind() LayerKind            { return KindNative }
func (l *nativeUnix) Platforms() []string        { return []string{"unix"} }
func (l *nativeUnix) Available(*Registry) error  { return nil }

func (l *nativeUnix) Contribute(b *Binder) {
	r := b.Registry()
	b.BindSetPermissions(func(path string, mode perms.Mode, scope perms.Scope) error {
		bits, err := r.Moderator().FileMode(mode, scope)
		if err != nil {
			return err
		}
		if err := os.Chmod(path, bits); err != nil {
			return fmt.Errorf("setting permissions on %s: %w", path, err)
		}
		return nil
	})
}

// nativeWindows binds set_permissions as a no-op: Windows has no Unix-style
// permission bits.
type nativeWindows struct{}

func (l *nativeWindows) Name() string               { return "native.windows" }
func (l *nativeWindows) Kind() LayerKind            { return KindNative }
func (l *nativeWindows) Platforms() []string        { return []string{"windows"} }
func (l *nativeWindows) Available(*Registry) error  { return nil }

func (l *nativeWindows) Contribute(b *Binder) {
	b.BindSetPermissions(func(string, perms.Mode, perms.Scope) error {
		return nil
	})
}
