package engine

// ClipboardRequest is the completion handle the engine attaches to a
// read-clipboard callback. Complete must be called exactly once for every
// request, including empty or failed reads; an unacknowledged request leaves
// the engine holding caller state forever. Because completion travels on the
// request itself rather than on the resolved surface, an unresolvable
// callback token can no longer strand a request.
type ClipboardRequest interface {
	Complete(text string)
}

// Callbacks is the table of host functions supplied to the engine at
// instance creation. Surface-scoped callbacks identify their surface with a
// registry token (see Registry) instead of an unchecked pointer.
//
// Wakeup may be invoked from any engine thread; every other callback arrives
// on the goroutine that called Instance.Tick. Nil fields are treated as
// no-ops by conforming engine adapters.
type Callbacks struct {
	// Wakeup asks the host to schedule a Tick on the owner goroutine. It is
	// the only callback that may arrive off-thread and must not touch shared
	// state directly.
	Wakeup func()

	// ReloadConfig asks the host to load a fresh configuration. On success
	// the new finalized handle is returned with ok=true and the engine
	// adopts it; on failure ok=false and the engine keeps its current
	// handle.
	ReloadConfig func() (cfg Config, ok bool)

	SetTitle           func(token uint64, title string)
	SetMouseShape      func(token uint64, shape MouseShape)
	SetMouseVisibility func(token uint64, visible bool)

	ReadClipboard  func(token uint64, location ClipboardLocation, req ClipboardRequest)
	WriteClipboard func(token uint64, location ClipboardLocation, text string)

	NewSplit     func(token uint64, direction SplitDirection)
	NewTab       func(token uint64)
	NewWindow    func(token uint64)
	CloseSurface func(token uint64, processAlive bool)
	FocusSplit   func(token uint64, direction SplitFocusDirection)

	ToggleSplitZoom  func(token uint64)
	GotoTab          func(token uint64, target TabTarget)
	ToggleFullscreen func(token uint64, mode FullscreenMode)

	SetInitialWindowSize func(token uint64, width, height uint32)
}
