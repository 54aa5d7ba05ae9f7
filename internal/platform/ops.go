package platform

import (
	"github.com/ferrite-labs/ferrite/internal/fetch"
	"github.com/ferrite-labs/ferrite/internal/perms"
)

// The public operation surface. Every method delegates to whichever layer
// bound the name; an unbound name returns UnsupportedError. In verbose mode
// each invocation is logged with its arguments before delegating.

// Exists reports whether path exists.
func (r *Registry) Exists(path string) (bool, error) {
	if r.ops.exists == nil {
		return false, &UnsupportedError{Name: OpExists}
	}
	r.audit(OpExists, path)
	return r.ops.exists(path)
}

// IsDir reports whether path exists and is a directory.
func (r *Registry) IsDir(path string) (bool, error) {
	if r.ops.isDir == nil {
		return false, &UnsupportedError{Name: OpIsDir}
	}
	r.audit(OpIsDir, path)
	return r.ops.isDir(path)
}

// IsFile reports whether path exists and is a regular file.
func (r *Registry) IsFile(path string) (bool, error) {
	if r.ops.isFile == nil {
		return false, &UnsupportedError{Name: OpIsFile}
	}
	r.audit(OpIsFile, path)
	return r.ops.isFile(path)
}

// MakeDir creates path and any missing parents.
func (r *Registry) MakeDir(path string) error {
	if r.ops.makeDir == nil {
		return &UnsupportedError{Name: OpMakeDir}
	}
	r.audit(OpMakeDir, path)
	return r.ops.makeDir(path)
}

// Remove deletes path; directories are removed recursively.
func (r *Registry) Remove(path string) error {
	if r.ops.remove == nil {
		return &UnsupportedError{Name: OpRemove}
	}
	r.audit(OpRemove, path)
	return r.ops.remove(path)
}

// Copy copies the regular file src to dst, preserving its permission bits.
func (r *Registry) Copy(src, dst string) error {
	if r.ops.copyFile == nil {
		return &UnsupportedError{Name: OpCopy}
	}
	r.audit(OpCopy, src, dst)
	return r.ops.copyFile(src, dst)
}

// List returns the names of the entries directly under the directory path.
func (r *Registry) List(path string) ([]string, error) {
	if r.ops.list == nil {
		return nil, &UnsupportedError{Name: OpList}
	}
	r.audit(OpList, path)
	return r.ops.list(path)
}

// SetPermissions applies the moderated permission for (mode, scope) to path.
// Every layer moderates through the same model, so the bits on disk do not
// depend on which layer performs the write.
func (r *Registry) SetPermissions(path string, mode perms.Mode, scope perms.Scope) error {
	if r.ops.setPermissions == nil {
		return &UnsupportedError{Name: OpSetPermissions}
	}
	r.audit(OpSetPermissions, path, mode.String(), scope.String())
	return r.ops.setPermissions(path, mode, scope)
}

// CurrentDir returns the working directory.
func (r *Registry) CurrentDir() (string, error) {
	if r.ops.currentDir == nil {
		return "", &UnsupportedError{Name: OpCurrentDir}
	}
	r.audit(OpCurrentDir)
	return r.ops.currentDir()
}

// ChangeDir changes the working directory.
func (r *Registry) ChangeDir(path string) error {
	if r.ops.changeDir == nil {
		return &UnsupportedError{Name: OpChangeDir}
	}
	r.audit(OpChangeDir, path)
	return r.ops.changeDir(path)
}

// TempDir returns the scratch directory for downloads and unpacking.
func (r *Registry) TempDir() (string, error) {
	if r.ops.tempDir == nil {
		return "", &UnsupportedError{Name: OpTempDir}
	}
	r.audit(OpTempDir)
	return r.ops.tempDir(), nil
}

// Execute spawns an external command and returns its captured result. In
// verbose mode the full command line is logged — with credential-bearing URL
// arguments redacted — together with the complete raw result.
func (r *Registry) Execute(name string, args ...string) (ExecResult, error) {
	if r.ops.execute == nil {
		return ExecResult{}, &UnsupportedError{Name: OpExecute}
	}
	return r.spawnLogged(r.bound[OpExecute], r.ops.execute, name, args...)
}

// spawnLogged wraps a spawning function with the verbose audit logging:
// the full command line — credential-bearing URL arguments redacted — before
// the spawn, the complete raw result after. Every spawn path goes through
// here, including probes that run before any execute slot is bound.
func (r *Registry) spawnLogged(origin string, fn func(string, ...string) (ExecResult, error), name string, args ...string) (ExecResult, error) {
	if r.verbose {
		r.logger.Info("exec", "layer", origin, "cmd", redactCommand(name, args))
	}
	res, err := fn(name, args...)
	if r.verbose {
		r.logger.Info("exec result",
			"cmd", redactCommand(name, nil),
			"exit", res.ExitCode,
			"stdout", res.Stdout,
			"stderr", res.Stderr,
			"error", err)
	}
	return res, err
}

// Download fetches a remote artifact through the resolved download client.
func (r *Registry) Download(req fetch.Request) (fetch.Result, error) {
	if r.ops.download == nil {
		return fetch.Result{}, &UnsupportedError{Name: OpDownload}
	}
	r.audit(OpDownload, req.URL, req.Dest)
	return r.ops.download(req)
}

// RunTool satisfies fetch.Runner: it spawns a downloader tool through the
// resolved execute capability and reports the exit status.
func (r *Registry) RunTool(name string, args ...string) (int, error) {
	res, err := r.Execute(name, args...)
	if err != nil {
		return -1, err
	}
	return res.ExitCode, nil
}
