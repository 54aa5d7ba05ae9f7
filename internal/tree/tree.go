package tree

import (
	"fmt"
	"iter"
	"path/filepath"
	"sort"

	"github.com/ferrite-labs/ferrite/internal/perms"
)

// System is the subset of resolved platform operations the recursive
// helpers are built on. *platform.Registry satisfies it.
type System interface {
	Exists(path string) (bool, error)
	IsDir(path string) (bool, error)
	List(path string) ([]string, error)
	MakeDir(path string) error
	Copy(src, dst string) error
	Remove(path string) error
	SetPermissions(path string, mode perms.Mode, scope perms.Scope) error
}

// Entry is one node reached during a walk.
type Entry struct {
	Path string
	Dir  bool
}

// Walk traverses the tree under root depth-first, parents before their
// contents. The sequence is lazy: directories are listed only as the
// consumer pulls, so breaking out early leaves deeper levels unread.
// Iterate once; the sequence is not restartable. The root itself is not
// yielded.
func Walk(sys System, root string) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		walk(sys, root, yield)
	}
}

func walk(sys System, dir string, yield func(Entry, error) bool) bool {
	names, err := sys.List(dir)
	if err != nil {
		return yield(Entry{Path: dir, Dir: true}, err)
	}
	sort.Strings(names)
	for _, name := range names {
		path := filepath.Join(dir, name)
		isDir, err := sys.IsDir(path)
		if err != nil {
			return yield(Entry{Path: path}, err)
		}
		if !yield(Entry{Path: path, Dir: isDir}, nil) {
			return false
		}
		if isDir && !walk(sys, path, yield) {
			return false
		}
	}
	return true
}

// CopyTree replicates src under dst. A regular-file src becomes a plain
// copy; a directory src is recreated entry by entry, file permission
// bits carried by the copy primitive and directory modes by the bound
// make_dir.
func CopyTree(sys System, src, dst string) error {
	ok, err := sys.Exists(src)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("copying %s: no such path", src)
	}
	isDir, err := sys.IsDir(src)
	if err != nil {
		return err
	}
	if !isDir {
		return sys.Copy(src, dst)
	}

	if err := sys.MakeDir(dst); err != nil {
		return err
	}
	for entry, err := range Walk(sys, src) {
		if err != nil {
			return err
		}
		rel, rerr := filepath.Rel(src, entry.Path)
		if rerr != nil {
			return fmt.Errorf("resolving %s under %s: %w", entry.Path, src, rerr)
		}
		target := filepath.Join(dst, rel)
		if entry.Dir {
			if err := sys.MakeDir(target); err != nil {
				return err
			}
		} else if err := sys.Copy(entry.Path, target); err != nil {
			return err
		}
	}
	return nil
}

// Find returns the path of every entry under root, relative to root, in
// walk order.
func Find(sys System, root string) ([]string, error) {
	var found []string
	for entry, err := range Walk(sys, root) {
		if err != nil {
			return nil, err
		}
		rel, rerr := filepath.Rel(root, entry.Path)
		if rerr != nil {
			return nil, fmt.Errorf("resolving %s under %s: %w", entry.Path, root, rerr)
		}
		found = append(found, rel)
	}
	return found, nil
}

// Delete removes root and everything below it. A missing root is not an
// error.
func Delete(sys System, root string) error {
	ok, err := sys.Exists(root)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return sys.Remove(root)
}

// ApplyPermissions applies the moderated permission for (mode, scope) to
// root and every entry below it.
func ApplyPermissions(sys System, root string, mode perms.Mode, scope perms.Scope) error {
	if err := sys.SetPermissions(root, mode, scope); err != nil {
		return err
	}
	isDir, err := sys.IsDir(root)
	if err != nil || !isDir {
		return err
	}
	for entry, err := range Walk(sys, root) {
		if err != nil {
			return err
		}
		if err := sys.SetPermissions(entry.Path, mode, scope); err != nil {
			return err
		}
	}
	return nil
}
