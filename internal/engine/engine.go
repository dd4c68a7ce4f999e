// Package engine defines the boundary to the embedded terminal engine.
//
// The engine owns terminal emulation, input decoding, rendering, PTY and
// process management, and terminal-configuration parsing. This package only
// describes the handles and callbacks the host shell exchanges with it. A
// concrete binding adapter registers itself via RegisterRuntime at init time,
// in the style of database/sql drivers; the shell never links the engine
// directly.
package engine

import (
	"errors"
	"fmt"
	"sync"
)

// Runtime is the process-level entry point into the engine library.
type Runtime interface {
	// Init performs one-time global engine initialization. It must be called
	// exactly once, before any other Runtime method.
	Init() error

	// NewConfig creates an empty configuration object. The returned handle is
	// owned by the caller and must be released with Close.
	NewConfig() (Config, error)

	// NewInstance creates one engine instance wired to the given callback
	// table. A nil instance with a nil error is treated as creation failure
	// by callers.
	NewInstance(callbacks Callbacks) (Instance, error)

	// BuildInfo reports how the linked engine was built.
	BuildInfo() BuildInfo
}

// Config is an opaque engine configuration handle.
//
// Handles are never mutated in place after Finalize; a reload produces a new
// handle that replaces the old one wholesale.
type Config interface {
	// LoadDefaultFiles loads configuration from the engine's default
	// locations.
	LoadDefaultFiles() error

	// LoadCLIArgs applies configuration overrides from the process command
	// line.
	LoadCLIArgs() error

	// LoadRecursiveFiles loads files discovered recursively from already
	// loaded configuration (include-style directives).
	LoadRecursiveFiles() error

	// Finalize seals the configuration. After Finalize the handle is
	// read-only and Diagnostics reports accumulated validation errors.
	Finalize() error

	// Diagnostics returns validation error messages collected during load
	// and finalize. A finalized config with diagnostics is still usable.
	Diagnostics() []string

	// Paths returns the file paths consulted while loading, in load order.
	// Used by the host to watch for changes.
	Paths() []string

	// WindowDecorations reports whether window decorations are enabled.
	WindowDecorations() bool

	// WindowTheme returns the configured window theme name, or "" when no
	// theme is set.
	WindowTheme() string

	// BackgroundOpacity returns the configured background opacity in [0, 1].
	BackgroundOpacity() float64

	// Close releases the handle. The handle must not be used afterwards.
	Close()
}

// Instance is an opaque engine application-instance handle.
type Instance interface {
	// Tick advances engine-internal scheduling. It must only be called on
	// the owner goroutine. It reports whether the engine requests process
	// exit.
	Tick() (exitRequested bool)

	// ReplaceConfig points the instance at a newly loaded configuration
	// handle. The engine reads the new handle from the next Tick onward.
	ReplaceConfig(cfg Config)

	// KeyboardLayoutChanged informs the engine that the host keyboard layout
	// changed.
	KeyboardLayoutChanged()

	// NeedsConfirmQuit reports whether the engine wants the host to confirm
	// before quitting (e.g. running child processes).
	NeedsConfirmQuit() bool

	// Close releases the instance. The handle must not be used afterwards.
	Close()
}

// Surface is an opaque handle to a single terminal pane managed by the
// engine.
type Surface interface {
	// PerformAction forwards a textual action identifier to the engine for
	// execution against this surface.
	PerformAction(action string) error

	// Split creates a new split adjacent to this surface.
	Split(direction SplitDirection) error

	// FocusSplit moves focus from this surface to a neighboring split.
	FocusSplit(direction SplitFocusDirection) error
}

// BuildInfo describes the linked engine build.
type BuildInfo struct {
	Mode    string `json:"mode"` // "debug" or "release"
	Version string `json:"version"`
}

// ErrNoRuntime is returned by NewRuntime when no engine adapter registered
// itself. Session initialization treats this as fatal.
var ErrNoRuntime = errors.New("engine: no runtime adapter registered")

var runtimeRegistry struct {
	mu      sync.Mutex
	name    string
	factory func() (Runtime, error)
}

// RegisterRuntime registers the engine binding adapter. It is intended to be
// called from an adapter package's init function. Registering twice panics:
// two linked engine bindings is a build error, not a runtime condition.
func RegisterRuntime(name string, factory func() (Runtime, error)) {
	if factory == nil {
		panic("engine: RegisterRuntime with nil factory")
	}
	runtimeRegistry.mu.Lock()
	defer runtimeRegistry.mu.Unlock()
	if runtimeRegistry.factory != nil {
		panic(fmt.Sprintf("engine: runtime %q already registered, cannot register %q", runtimeRegistry.name, name))
	}
	runtimeRegistry.name = name
	runtimeRegistry.factory = factory
}

// NewRuntime constructs the registered engine runtime, or ErrNoRuntime when
// no adapter is linked into the binary.
func NewRuntime() (Runtime, error) {
	runtimeRegistry.mu.Lock()
	name, factory := runtimeRegistry.name, runtimeRegistry.factory
	runtimeRegistry.mu.Unlock()
	if factory == nil {
		return nil, ErrNoRuntime
	}
	rt, err := factory()
	if err != nil {
		return nil, fmt.Errorf("engine: runtime %q: %w", name, err)
	}
	return rt, nil
}

// resetRuntimeRegistry clears the adapter registration. Test-only.
func resetRuntimeRegistry() {
	runtimeRegistry.mu.Lock()
	runtimeRegistry.name = ""
	runtimeRegistry.factory = nil
	runtimeRegistry.mu.Unlock()
}
