// Package session implements the engine session shell: the single
// process-scoped object that owns one engine instance and one engine
// configuration handle, translates engine callbacks into typed host events,
// and exposes read-only configuration projections.
package session

import (
	"errors"
	"log/slog"
	"sync"

	"embershell/internal/engine"
	"embershell/internal/events"

	"github.com/google/uuid"
)

// Readiness reflects whether engine and configuration initialization
// succeeded. It is terminal: once Ready or Error is reached it never changes
// for the session lifetime.
type Readiness int

const (
	ReadinessLoading Readiness = iota
	ReadinessReady
	ReadinessError
)

// String returns the readiness name.
func (r Readiness) String() string {
	switch r {
	case ReadinessLoading:
		return "loading"
	case ReadinessReady:
		return "ready"
	case ReadinessError:
		return "error"
	default:
		return "unknown"
	}
}

// Clipboard abstracts the host's standard clipboard. Non-standard clipboard
// locations are never bridged, so the interface carries no location.
type Clipboard interface {
	ReadText() (string, error)
	WriteText(text string) error
}

// Delegate receives session-level notifications that need a direct callee
// rather than a bus observer.
type Delegate interface {
	// ConfigDidReload is called after a successful configuration reload,
	// once the new handle is active.
	ConfigDidReload(s *Session)
}

// LayoutNotifier delivers host keyboard-layout-change notifications. The
// cancel function detaches the subscription.
type LayoutNotifier interface {
	Subscribe(onChange func()) (cancel func(), err error)
}

// Options configures a Session. Runtime is required; everything else has a
// working zero value.
type Options struct {
	Runtime engine.Runtime

	// Bus receives all published host events. When nil a private bus is
	// created.
	Bus *events.Bus

	// Clipboard services read/write-clipboard callbacks for the standard
	// location. When nil, reads complete with an empty string and writes
	// are dropped.
	Clipboard Clipboard

	// RequestQuit is invoked on the owner goroutine when the engine signals
	// exit-requested from a tick. When nil only the QuitRequested event is
	// published.
	RequestQuit func()

	// KeyboardLayout, when non-nil, is subscribed during Initialize and
	// forwarded to the engine instance.
	KeyboardLayout LayoutNotifier
}

// Session is the engine session shell. Exactly one exists per process; it is
// constructed explicitly and handed to whatever owns the application
// lifecycle rather than living in package state.
//
// Lock ordering: mu guards cfg/inst/readiness and is never held while
// calling into the engine, the bus, or the delegate. delegateMu is
// independent of mu.
type Session struct {
	runtime   engine.Runtime
	bus       *events.Bus
	clipboard Clipboard
	quit      func()
	layout    LayoutNotifier

	registry *engine.Registry
	token    uint64 // session's own registry token, 0 until Initialize

	mu        sync.RWMutex
	cfg       engine.Config
	inst      engine.Instance
	readiness Readiness

	delegateMu sync.RWMutex
	delegate   Delegate

	// wake coalesces engine wakeup requests; the owner loop drains it.
	// Buffered size 1: every burst of wakeups collapses into one tick.
	wake chan struct{}
	done chan struct{}

	layoutCancel func()
	closeOnce    sync.Once
}

// New creates an uninitialized session. Call Initialize before use.
func New(opts Options) (*Session, error) {
	if opts.Runtime == nil {
		return nil, errors.New("session: engine runtime is required")
	}
	bus := opts.Bus
	if bus == nil {
		bus = events.NewBus()
	}
	return &Session{
		runtime:   opts.Runtime,
		bus:       bus,
		clipboard: opts.Clipboard,
		quit:      opts.RequestQuit,
		layout:    opts.KeyboardLayout,
		registry:  engine.NewRegistry(),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// Bus returns the event bus this session publishes on.
func (s *Session) Bus() *events.Bus { return s.bus }

// Readiness returns the current readiness state.
func (s *Session) Readiness() Readiness {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readiness
}

// SetDelegate registers the reload delegate. Passing nil clears it.
func (s *Session) SetDelegate(d Delegate) {
	s.delegateMu.Lock()
	s.delegate = d
	s.delegateMu.Unlock()
}

// BuildInfo reports the linked engine build.
func (s *Session) BuildInfo() engine.BuildInfo {
	return s.runtime.BuildInfo()
}

// NeedsConfirmQuit reports whether the engine wants quit confirmation.
// Returns false when no instance exists.
func (s *Session) NeedsConfirmQuit() bool {
	inst := s.instance()
	if inst == nil {
		return false
	}
	return inst.NeedsConfirmQuit()
}

// KeyboardLayoutChanged forwards a host keyboard-layout change to the
// engine. Safe to call before initialization completes; it is then a no-op.
func (s *Session) KeyboardLayoutChanged() {
	inst := s.instance()
	if inst == nil {
		slog.Debug("[session] keyboard layout change dropped: no engine instance")
		return
	}
	inst.KeyboardLayoutChanged()
}

// config returns the current configuration handle without transferring
// ownership. May be nil before initialization or after shutdown.
func (s *Session) config() engine.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *Session) instance() engine.Instance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inst
}

func (s *Session) setReadiness(r Readiness) {
	s.mu.Lock()
	s.readiness = r
	s.mu.Unlock()
}

// Surface is the host-side object paired with one engine surface handle. It
// carries the UI-visible mutable state the engine pushes through callbacks
// (title, mouse shape, mouse visibility).
type Surface struct {
	id     string
	token  uint64
	handle engine.Surface

	mu           sync.Mutex
	title        string
	mouseShape   engine.MouseShape
	mouseVisible bool
}

// ID returns the surface's stable public identifier.
func (sf *Surface) ID() string { return sf.id }

// Token returns the registry token engine callbacks use for this surface.
func (sf *Surface) Token() uint64 { return sf.token }

// Title returns the last title the engine set.
func (sf *Surface) Title() string {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return sf.title
}

// MouseShape returns the last pointer shape the engine set.
func (sf *Surface) MouseShape() engine.MouseShape {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return sf.mouseShape
}

// MouseVisible reports whether the pointer is visible over this surface.
func (sf *Surface) MouseVisible() bool {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return sf.mouseVisible
}

func (sf *Surface) setTitle(title string) {
	sf.mu.Lock()
	sf.title = title
	sf.mu.Unlock()
}

func (sf *Surface) setMouseShape(shape engine.MouseShape) {
	sf.mu.Lock()
	sf.mouseShape = shape
	sf.mu.Unlock()
}

func (sf *Surface) setMouseVisible(visible bool) {
	sf.mu.Lock()
	sf.mouseVisible = visible
	sf.mu.Unlock()
}

// AttachSurface pairs an engine surface handle with a host surface object
// and registers it for callback resolution. The returned surface stays valid
// until DetachSurface.
func (s *Session) AttachSurface(handle engine.Surface) *Surface {
	sf := &Surface{
		id:           uuid.NewString(),
		handle:       handle,
		mouseVisible: true,
	}
	sf.token = s.registry.Register(sf)
	slog.Debug("[session] surface attached", "surfaceId", sf.id, "token", sf.token)
	return sf
}

// DetachSurface deregisters a surface. Callbacks carrying its token resolve
// to nothing afterwards.
func (s *Session) DetachSurface(sf *Surface) {
	if sf == nil {
		return
	}
	s.registry.Deregister(sf.token)
	slog.Debug("[session] surface detached", "surfaceId", sf.id, "token", sf.token)
}

// resolveSurface maps a callback token to its host surface. Unknown tokens
// return nil after a warning; callers must treat nil as "drop the side
// effect" (clipboard completion excepted, which never depends on the
// surface).
func (s *Session) resolveSurface(token uint64) *Surface {
	owner, ok := s.registry.Resolve(token)
	if !ok {
		slog.Warn("[session] callback for unknown surface token", "token", token)
		return nil
	}
	sf, ok := owner.(*Surface)
	if !ok {
		slog.Warn("[session] callback token does not identify a surface", "token", token)
		return nil
	}
	return sf
}
