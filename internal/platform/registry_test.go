package platform

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/ferrite-labs/ferrite/internal/config"
	"github.com/ferrite-labs/ferrite/internal/perms"
)

func testRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	opts = append(opts, WithModerator(perms.NewModerator(func() int { return 0 })))
	r := New(config.Defaults(), opts...)
	if err := r.Resolve(); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	return r
}

func TestRegistry_UnresolvedIsUnsupported(t *testing.T) {
	r := New(config.Defaults())

	_, err := r.Exists("/tmp")
	var unsupported *UnsupportedError
	if !errors.As(err, &unsupported) {
		t.Fatalf("error = %v, want UnsupportedError", err)
	}
	if unsupported.Name != OpExists {
		t.Errorf("Name = %q, want %q", unsupported.Name, OpExists)
	}
}

func TestRegistry_NativeFilesystemOps(t *testing.T) {
	r := testRegistry(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "pkg.txt")
	if err := os.WriteFile(file, []byte("content"), 0644); err != nil {
		t.Fatal(err)
	}

	if ok, err := r.Exists(file); err != nil || !ok {
		t.Errorf("Exists(%s) = %v, %v, want true", file, ok, err)
	}
	if ok, err := r.Exists(filepath.Join(dir, "missing")); err != nil || ok {
		t.Errorf("Exists(missing) = %v, %v, want false", ok, err)
	}
	if ok, err := r.IsDir(dir); err != nil || !ok {
		t.Errorf("IsDir(%s) = %v, %v, want true", dir, ok, err)
	}
	if ok, err := r.IsFile(file); err != nil || !ok {
		t.Errorf("IsFile(%s) = %v, %v, want true", file, ok, err)
	}
	if ok, err := r.IsFile(dir); err != nil || ok {
		t.Errorf("IsFile(dir) = %v, %v, want false", ok, err)
	}

	nested := filepath.Join(dir, "a", "b", "c")
	if err := r.MakeDir(nested); err != nil {
		t.Fatalf("MakeDir failed: %v", err)
	}
	if ok, _ := r.IsDir(nested); !ok {
		t.Error("MakeDir did not create the nested directory")
	}

	dst := filepath.Join(nested, "copy.txt")
	if err := r.Copy(file, dst); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil || string(got) != "content" {
		t.Errorf("copied content = %q, %v", got, err)
	}

	names, err := r.List(nested)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != 1 || names[0] != "copy.txt" {
		t.Errorf("List(%s) = %v, want [copy.txt]", nested, names)
	}

	if err := r.Remove(filepath.Join(dir, "a")); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if ok, _ := r.Exists(dst); ok {
		t.Error("Remove left the tree behind")
	}
}

func TestRegistry_SetPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are a no-op on windows")
	}
	r := testRegistry(t)
	file := filepath.Join(t.TempDir(), "script.sh")
	if err := os.WriteFile(file, []byte("#!/bin/sh\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := r.SetPermissions(file, perms.ModeExec, perms.ScopeAll); err != nil {
		t.Fatalf("SetPermissions failed: %v", err)
	}
	info, err := os.Stat(file)
	if err != nil {
		t.Fatal(err)
	}
	// Moderator was built with umask 000, so the full base applies.
	if got := info.Mode().Perm(); got != 0o755 {
		t.Errorf("mode = %o, want 755", got)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	r := testRegistry(t)

	first := r.BoundNames()
	firstInit := r.InitOrder()

	if err := r.Resolve(); err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}
	second := r.BoundNames()
	secondInit := r.InitOrder()

	if len(first) != len(second) {
		t.Fatalf("bound name count changed: %d vs %d", len(first), len(second))
	}
	for name, layer := range first {
		if second[name] != layer {
			t.Errorf("capability %q: layer %q then %q", name, layer, second[name])
		}
	}
	if len(firstInit) != len(secondInit) {
		t.Fatalf("init order length changed: %v vs %v", firstInit, secondInit)
	}
	for i := range firstInit {
		if firstInit[i] != secondInit[i] {
			t.Errorf("init order[%d]: %q then %q", i, firstInit[i], secondInit[i])
		}
	}
}

// fakeLayer contributes a recognizable exists implementation.
type fakeLayer struct {
	name      string
	kind      LayerKind
	platforms []string
	missing   bool
	inited    *[]string
}

func (l *fakeLayer) Name() string        { return l.name }
func (l *fakeLayer) Kind() LayerKind     { return l.kind }
func (l *fakeLayer) Platforms() []string { return l.platforms }

func (l *fakeLayer) Available(*Registry) error {
	if l.missing {
		return errors.New("optional dependency missing")
	}
	return nil
}

func (l *fakeLayer) Contribute(b *Binder) {
	b.BindExists(func(string) (bool, error) { return true, nil })
}

func (l *fakeLayer) Init(*Registry) error {
	if l.inited != nil {
		*l.inited = append(*l.inited, l.name)
	}
	return nil
}

func TestResolve_PlatformSpecificNativeWins(t *testing.T) {
	settings := config.Defaults()
	settings.Platforms = []string{"testos", "unix"}
	r := New(settings)

	r.RegisterLayer(&fakeLayer{name: "native.testos", kind: KindNative, platforms: []string{"testos"}})
	if err := r.Resolve(); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if got := r.BoundNames()[OpExists]; got != "native.testos" {
		t.Errorf("exists bound by %q, want the platform-specific native layer", got)
	}
}

func TestResolve_UnavailableLayerSkippedSilently(t *testing.T) {
	settings := config.Defaults()
	settings.Platforms = []string{"testos", "unix"}
	r := New(settings)

	r.RegisterLayer(&fakeLayer{name: "native.testos", kind: KindNative, platforms: []string{"testos"}, missing: true})
	if err := r.Resolve(); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if got := r.BoundNames()[OpExists]; got != "native" {
		t.Errorf("exists bound by %q, want the cross-platform native layer", got)
	}
}

func TestResolve_NewLayerTakesPartAfterReResolve(t *testing.T) {
	settings := config.Defaults()
	settings.Platforms = []string{"testos", "unix"}
	r := New(settings)

	if err := r.Resolve(); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got := r.BoundNames()[OpExists]; got != "native" {
		t.Fatalf("exists bound by %q before registration", got)
	}

	// The layer only takes part once the table is rebuilt from scratch.
	r.RegisterLayer(&fakeLayer{name: "native.testos", kind: KindNative, platforms: []string{"testos"}})
	if got := r.BoundNames()[OpExists]; got != "native" {
		t.Fatalf("registration alone must not rebind, got %q", got)
	}

	if err := r.Resolve(); err != nil {
		t.Fatalf("re-Resolve failed: %v", err)
	}
	if got := r.BoundNames()[OpExists]; got != "native.testos" {
		t.Errorf("exists bound by %q after re-resolve, want native.testos", got)
	}
}

func TestResolve_InitHooksRunInBindOrder(t *testing.T) {
	settings := config.Defaults()
	settings.Platforms = []string{"testos"}
	r := New(settings)
	r.layers = nil // only the fakes, to observe ordering exactly

	var ran []string
	r.RegisterLayer(&fakeLayer{name: "tools.testos", kind: KindTools, platforms: []string{"testos"}, inited: &ran})
	r.RegisterLayer(&fakeLayer{name: "native.testos", kind: KindNative, platforms: []string{"testos"}, inited: &ran})

	if err := r.Resolve(); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	// Native precedes tools regardless of registration order.
	want := []string{"native.testos", "tools.testos"}
	if len(ran) != len(want) {
		t.Fatalf("init hooks ran = %v, want %v", ran, want)
	}
	for i := range want {
		if ran[i] != want[i] {
			t.Errorf("init order[%d] = %q, want %q", i, ran[i], want[i])
		}
	}
}

func TestResolve_ScratchDirModerated(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are a no-op on windows")
	}
	scratch := filepath.Join(t.TempDir(), "scratch")
	t.Setenv("FERRITE_TMPDIR", scratch)

	r := New(config.Defaults(), WithModerator(perms.NewModerator(func() int { return 0o027 })))
	if err := r.Resolve(); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	info, err := os.Stat(scratch)
	if err != nil {
		t.Fatalf("scratch directory not created: %v", err)
	}
	// exec/all moderated by umask 027.
	if got := info.Mode().Perm(); got != 0o750 {
		t.Errorf("scratch mode = %o, want 750", got)
	}
}

func TestResolve_MultiPlatformLayerInitsOnce(t *testing.T) {
	settings := config.Defaults()
	settings.Platforms = []string{"linux", "unix"}
	r := New(settings)
	r.layers = nil

	var ran []string
	// An OS-plus-family declaration matches two platform-list entries.
	r.RegisterLayer(&fakeLayer{name: "native.multi", kind: KindNative, platforms: []string{"linux", "unix"}, inited: &ran})

	if err := r.Resolve(); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(ran) != 1 {
		t.Fatalf("init hook ran %d times, want 1 (order: %v)", len(ran), ran)
	}
	if got := r.InitOrder(); len(got) != 1 || got[0] != "native.multi" {
		t.Errorf("InitOrder = %v, want [native.multi]", got)
	}
}

func TestVerbose_SurvivesResolveAndPreservesResults(t *testing.T) {
	r := testRegistry(t, WithLogger(slog.New(slog.DiscardHandler)))
	dir := t.TempDir()

	quiet, err := r.Exists(dir)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}

	r.SetVerbose(true)
	if err := r.Resolve(); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !r.Verbose() {
		t.Error("verbose toggle must survive re-resolution")
	}

	loud, err := r.Exists(dir)
	if err != nil {
		t.Fatalf("Exists failed with verbose on: %v", err)
	}
	if quiet != loud {
		t.Errorf("verbose mode changed the result: %v vs %v", quiet, loud)
	}
}

func TestExecute_CapturesRawResult(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on sh")
	}
	r := testRegistry(t)

	res, err := r.Execute("sh", "-c", "echo out; echo err >&2; exit 3")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
	if res.Stdout != "out\n" {
		t.Errorf("Stdout = %q", res.Stdout)
	}
	if res.Stderr != "err\n" {
		t.Errorf("Stderr = %q", res.Stderr)
	}
}

func TestExecute_SpawnFailure(t *testing.T) {
	r := testRegistry(t)
	if _, err := r.Execute("/nonexistent/tool-xyz"); err == nil {
		t.Error("expected error for unspawnable command")
	}
}

// execLayer binds only the spawn primitive, leaving every filesystem
// capability for the tool fallbacks.
type execLayer struct{}

func (l *execLayer) Name() string              { return "exec-only" }
func (l *execLayer) Kind() LayerKind           { return KindNative }
func (l *execLayer) Platforms() []string       { return nil }
func (l *execLayer) Available(*Registry) error { return nil }

func (l *execLayer) Contribute(b *Binder) {
	b.BindExecute(runCommand)
}

func TestToolsUnix_FilesystemOps(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on coreutils")
	}
	settings := config.Defaults()
	settings.Platforms = []string{"unix"}
	r := New(settings, WithModerator(perms.NewModerator(func() int { return 0o027 })))
	r.layers = []Layer{&execLayer{}, &toolsUnix{}}

	if err := r.Resolve(); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	for _, op := range []Capability{OpMakeDir, OpRemove, OpCopy, OpList, OpSetPermissions} {
		if got := r.BoundNames()[op]; got != "tools.unix" {
			t.Fatalf("%s bound by %q, want tools.unix", op, got)
		}
	}

	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	if err := r.MakeDir(nested); err != nil {
		t.Fatalf("MakeDir failed: %v", err)
	}

	src := filepath.Join(dir, "src.txt")
	if err := os.WriteFile(src, []byte("payload"), 0644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(nested, "dst.txt")
	if err := r.Copy(src, dst); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil || string(got) != "payload" {
		t.Errorf("copied content = %q, %v", got, err)
	}

	names, err := r.List(nested)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != 1 || names[0] != "dst.txt" {
		t.Errorf("List = %v, want [dst.txt]", names)
	}

	// The tool chmod goes through the same moderation model as the native
	// path, so both end up with identical bits on disk.
	if err := r.SetPermissions(dst, perms.ModeExec, perms.ScopeAll); err != nil {
		t.Fatalf("SetPermissions failed: %v", err)
	}
	want, err := r.Moderator().FileMode(perms.ModeExec, perms.ScopeAll)
	if err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != want {
		t.Errorf("tool chmod mode = %o, moderation model wants %o", info.Mode().Perm(), want)
	}

	if err := r.Remove(filepath.Join(dir, "a")); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("Remove left the tree behind")
	}
}

func TestLookupTool_Memoized(t *testing.T) {
	dir := t.TempDir()
	toolPath := filepath.Join(dir, "faketool")
	if err := os.WriteFile(toolPath, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}

	settings := config.Defaults()
	settings.Tools = map[string]string{"faketool": toolPath}
	r := New(settings)

	path, ok := r.LookupTool("faketool")
	if !ok || path != toolPath {
		t.Fatalf("LookupTool = %q, %v", path, ok)
	}

	// The probe ran once; removing the binary must not change the answer.
	os.Remove(toolPath)
	path, ok = r.LookupTool("faketool")
	if !ok || path != toolPath {
		t.Errorf("memoized LookupTool = %q, %v, want the first probe's result", path, ok)
	}
}

func TestLookupTool_AbsentStaysAbsent(t *testing.T) {
	settings := config.Defaults()
	settings.Tools = map[string]string{"ghost": "/nonexistent/ghost-tool"}
	r := New(settings)

	if _, ok := r.LookupTool("ghost"); ok {
		t.Fatal("ghost tool should be absent")
	}
	if _, ok := r.LookupTool("ghost"); ok {
		t.Fatal("ghost tool should stay absent")
	}
}
