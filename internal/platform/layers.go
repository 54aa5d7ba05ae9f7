package platform

import (
	"github.com/ferrite-labs/ferrite/internal/fetch"
	"github.com/ferrite-labs/ferrite/internal/perms"
)

// LayerKind separates native implementations from external-tool fallbacks.
type LayerKind int

const (
	// KindNative layers implement operations in-process.
	KindNative LayerKind = iota
	// KindTools layers shell out to external command-line tools.
	KindTools
)

// Layer is one candidate module contributing capability implementations.
type Layer interface {
	Name() string
	Kind() LayerKind
	// Platforms lists the platform identifiers the layer serves; empty
	// means any platform (a cross-platform layer).
	Platforms() []string
	// Available probes the layer's optional dependencies. A non-nil error
	// skips the layer silently; it is the designed degradation mechanism,
	// not a failure.
	Available(r *Registry) error
	// Contribute binds implementations for capability names no
	// higher-precedence layer has bound yet.
	Contribute(b *Binder)
}

// Initializer is implemented by layers needing a hook after composition.
// Hooks run once per Resolve, in layer-bind order, after all names are bound.
type Initializer interface {
	Init(r *Registry) error
}

// Binder records which layer is contributing and enforces the precedence
// rule: a name bound by an earlier layer is never rebound.
type Binder struct {
	registry *Registry
	layer    string
}

// Registry returns the registry being resolved, for implementations that
// need configuration or the moderator at bind time.
func (b *Binder) Registry() *Registry {
	return b.registry
}

func (b *Binder) claim(name Capability) bool {
	if _, taken := b.registry.bound[name]; taken {
		return false
	}
	b.registry.bound[name] = b.layer
	return true
}

func (b *Binder) BindExists(fn func(path string) (bool, error)) {
	if b.claim(OpExists) {
		b.registry.ops.exists = fn
	}
}

func (b *Binder) BindIsDir(fn func(path string) (bool, error)) {
	if b.claim(OpIsDir) {
		b.registry.ops.isDir = fn
	}
}

func (b *Binder) BindIsFile(fn func(path string) (bool, error)) {
	if b.claim(OpIsFile) {
		b.registry.ops.isFile = fn
	}
}

func (b *Binder) BindMakeDir(fn func(path string) error) {
	if b.claim(OpMakeDir) {
		b.registry.ops.makeDir = fn
	}
}

func (b *Binder) BindRemove(fn func(path string) error) {
	if b.claim(OpRemove) {
		b.registry.ops.remove = fn
	}
}

func (b *Binder) BindCopy(fn func(src, dst string) error) {
	if b.claim(OpCopy) {
		b.registry.ops.copyFile = fn
	}
}

func (b *Binder) BindList(fn func(path string) ([]string, error)) {
	if b.claim(OpList) {
		b.registry.ops.list = fn
	}
}

func (b *Binder) BindSetPermissions(fn func(path string, mode perms.Mode, scope perms.Scope) error) {
	if b.claim(OpSetPermissions) {
		b.registry.ops.setPermissions = fn
	}
}

func (b *Binder) BindCurrentDir(fn func() (string, error)) {
	if b.claim(OpCurrentDir) {
		b.registry.ops.currentDir = fn
	}
}

func (b *Binder) BindChangeDir(fn func(path string) error) {
	if b.claim(OpChangeDir) {
		b.registry.ops.changeDir = fn
	}
}

func (b *Binder) BindTempDir(fn func() string) {
	if b.claim(OpTempDir) {
		b.registry.ops.tempDir = fn
	}
}

func (b *Binder) BindExecute(fn func(name string, args ...string) (ExecResult, error)) {
	if b.claim(OpExecute) {
		b.registry.ops.execute = fn
	}
}

func (b *Binder) BindDownload(fn func(req fetch.Request) (fetch.Result, error)) {
	if b.claim(OpDownload) {
		b.registry.ops.download = fn
	}
}

// builtinLayers returns the stock candidate modules in registration order.
func builtinLayers() []Layer {
	return []Layer{
		&nativeUnix{},
		&nativeWindows{},
		&nativeAll{},
		&toolsUnix{},
		&toolsAll{},
	}
}
