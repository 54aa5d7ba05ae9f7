package platform

import (
	"fmt"
	"log/slog"

	"github.com/ferrite-labs/ferrite/internal/config"
	"github.com/ferrite-labs/ferrite/internal/fetch"
	"github.com/ferrite-labs/ferrite/internal/perms"
)

// Capability names a single resolved operation.
type Capability string

const (
	OpExists         Capability = "exists"
	OpIsDir          Capability = "is_dir"
	OpIsFile         Capability = "is_file"
	OpMakeDir        Capability = "make_dir"
	OpRemove         Capability = "remove"
	OpCopy           Capability = "copy"
	OpList           Capability = "list"
	OpSetPermissions Capability = "set_permissions"
	OpCurrentDir     Capability = "current_dir"
	OpChangeDir      Capability = "change_dir"
	OpTempDir        Capability = "temp_dir"
	OpExecute        Capability = "execute"
	OpDownload       Capability = "download"
)

// UnsupportedError reports an invocation of a capability no layer bound.
type UnsupportedError struct {
	Name Capability
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("operation %q is not supported on this platform", e.Name)
}

// opTable holds the resolved implementations, one slot per capability name.
// A nil slot means no layer bound the name; the public Registry methods turn
// that into an UnsupportedError.
type opTable struct {
	exists         func(path string) (bool, error)
	isDir          func(path string) (bool, error)
	isFile         func(path string) (bool, error)
	makeDir        func(path string) error
	remove         func(path string) error
	copyFile       func(src, dst string) error
	list           func(path string) ([]string, error)
	setPermissions func(path string, mode perms.Mode, scope perms.Scope) error
	currentDir     func() (string, error)
	changeDir      func(path string) error
	tempDir        func() string
	execute        func(name string, args ...string) (ExecResult, error)
	download       func(req fetch.Request) (fetch.Result, error)
}

type initHook struct {
	layer string
	fn    func(*Registry) error
}

// Registry is the long-lived capability table owner. It is built once,
// resolved against a platform list, and handed to callers for the process
// lifetime; Resolve may be called again if the layer set changed. Not safe
// for concurrent use: hosts serialize resolution and calls.
type Registry struct {
	settings  config.Settings
	logger    *slog.Logger
	verbose   bool
	moderator *perms.Moderator

	layers    []Layer
	ops       opTable
	bound     map[Capability]string
	inits     []initHook
	initOrder []string

	tools *toolCache // process-wide probe memo; survives re-resolution
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the audit logger. Defaults to a discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithModerator overrides the permission moderator (tests inject a fixed
// umask this way).
func WithModerator(m *perms.Moderator) Option {
	return func(r *Registry) { r.moderator = m }
}

// New creates an unresolved Registry with the built-in layers registered.
// Call Resolve before invoking operations.
func New(settings config.Settings, opts ...Option) *Registry {
	r := &Registry{
		settings:  settings,
		logger:    slog.New(slog.DiscardHandler),
		verbose:   settings.Verbose,
		moderator: perms.Default,
		bound:     make(map[Capability]string),
		tools:     newToolCache(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.layers = builtinLayers()
	return r
}

// RegisterLayer adds a candidate layer. It takes part on the next Resolve.
func (r *Registry) RegisterLayer(l Layer) {
	r.layers = append(r.layers, l)
}

// SetVerbose toggles audit logging of every resolved operation call and
// every spawned command. The toggle survives re-resolution and never alters
// the delegated calls' results.
func (r *Registry) SetVerbose(v bool) {
	r.verbose = v
}

// Verbose reports the audit toggle state.
func (r *Registry) Verbose() bool {
	return r.verbose
}

// Settings returns the configuration the Registry was built with.
func (r *Registry) Settings() config.Settings {
	return r.settings
}

// Moderator returns the permission moderator used by the bound layers.
func (r *Registry) Moderator() *perms.Moderator {
	return r.moderator
}

// Resolve discards all previously bound capabilities (the Registry itself
// and the verbose toggle survive) and rebuilds the table from the candidate
// layers, so layers registered since the last call can take part. Collected
// init hooks run once, in layer-bind order, after all names are bound.
func (r *Registry) Resolve() error {
	r.ops = opTable{}
	r.bound = make(map[Capability]string)
	r.inits = nil
	r.initOrder = nil

	for _, l := range r.orderedLayers() {
		if err := l.Available(r); err != nil {
			// Missing optional dependencies degrade silently to the next
			// layer in precedence order.
			r.logger.Debug("skipping unavailable layer", "layer", l.Name(), "reason", err)
			continue
		}
		before := len(r.bound)
		l.Contribute(&Binder{registry: r, layer: l.Name()})
		r.logger.Debug("layer contributed", "layer", l.Name(), "bound", len(r.bound)-before)

		if init, ok := l.(Initializer); ok {
			r.inits = append(r.inits, initHook{layer: l.Name(), fn: init.Init})
		}
	}

	for _, h := range r.inits {
		if err := h.fn(r); err != nil {
			return fmt.Errorf("initializing layer %s: %w", h.layer, err)
		}
		r.initOrder = append(r.initOrder, h.layer)
	}
	return nil
}

// orderedLayers arranges candidates by precedence: platform-specific native
// layers in platform-list order (most specific platform first), then the
// cross-platform native layers, then platform-specific tool fallbacks, then
// generic tool fallbacks. Registration order breaks ties.
func (r *Registry) orderedLayers() []Layer {
	var ordered []Layer
	for _, kind := range []LayerKind{KindNative, KindTools} {
		// A layer declaring several identifiers from the platform list
		// (an OS plus its family) takes its most specific slot only.
		seen := make(map[Layer]bool)
		for _, platform := range r.settings.Platforms {
			for _, l := range r.layers {
				if l.Kind() == kind && matchesPlatform(l, platform) && !seen[l] {
					seen[l] = true
					ordered = append(ordered, l)
				}
			}
		}
		for _, l := range r.layers {
			if l.Kind() == kind && len(l.Platforms()) == 0 {
				ordered = append(ordered, l)
			}
		}
	}
	return ordered
}

func matchesPlatform(l Layer, platform string) bool {
	for _, p := range l.Platforms() {
		if p == platform {
			return true
		}
	}
	return false
}

// BoundNames returns, per capability name, the layer that bound it.
func (r *Registry) BoundNames() map[Capability]string {
	out := make(map[Capability]string, len(r.bound))
	for name, layer := range r.bound {
		out[name] = layer
	}
	return out
}

// InitOrder returns the layer names whose init hooks ran, in execution order.
func (r *Registry) InitOrder() []string {
	return append([]string(nil), r.initOrder...)
}

// audit logs one resolved-operation invocation when verbose mode is on.
func (r *Registry) audit(name Capability, args ...any) {
	if r.verbose {
		r.logger.Info("op", "name", string(name), "layer", r.bound[name], "args", args)
	}
}
