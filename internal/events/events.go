// Package events defines the typed host events the session shell publishes
// for UI-layer observers, and the bus that delivers them.
//
// Event names are stable strings ("surface:split-created", "app:quit") so
// that bridges to string-keyed transports (WebView runtime events, the
// WebSocket event stream) need no mapping tables.
package events

import "embershell/internal/engine"

// Event is implemented by every published payload type.
type Event interface {
	// Name returns the stable event name.
	Name() string
}

// SplitCreated reports that the engine created a new split next to a
// surface.
type SplitCreated struct {
	SurfaceID string                `json:"surfaceId"`
	Direction engine.SplitDirection `json:"direction"`
}

// Name implements Event.
func (SplitCreated) Name() string { return "surface:split-created" }

// TabCreated reports an engine request for a new tab hosting a surface.
type TabCreated struct {
	SurfaceID string `json:"surfaceId"`
}

// Name implements Event.
func (TabCreated) Name() string { return "surface:tab-created" }

// WindowCreated reports an engine request for a new window.
type WindowCreated struct {
	SurfaceID string `json:"surfaceId"`
}

// Name implements Event.
func (WindowCreated) Name() string { return "surface:window-created" }

// SurfaceClosed reports that a surface should close. ProcessAlive is true
// when the surface's child process is still running, so the UI may want to
// confirm before tearing the view down.
type SurfaceClosed struct {
	SurfaceID    string `json:"surfaceId"`
	ProcessAlive bool   `json:"processAlive"`
}

// Name implements Event.
func (SurfaceClosed) Name() string { return "surface:closed" }

// SplitFocusRequested reports an engine request to move focus between
// splits.
type SplitFocusRequested struct {
	SurfaceID string                     `json:"surfaceId"`
	Direction engine.SplitFocusDirection `json:"direction"`
}

// Name implements Event.
func (SplitFocusRequested) Name() string { return "surface:focus-split" }

// SplitZoomToggled reports a split zoom toggle on a surface.
type SplitZoomToggled struct {
	SurfaceID string `json:"surfaceId"`
}

// Name implements Event.
func (SplitZoomToggled) Name() string { return "surface:zoom-toggled" }

// TabNavigated reports an engine request to switch tabs.
type TabNavigated struct {
	SurfaceID string           `json:"surfaceId"`
	Target    engine.TabTarget `json:"target"`
}

// Name implements Event.
func (TabNavigated) Name() string { return "surface:tab-navigated" }

// FullscreenToggled reports a fullscreen toggle request.
type FullscreenToggled struct {
	SurfaceID string                `json:"surfaceId"`
	Mode      engine.FullscreenMode `json:"mode"`
}

// Name implements Event.
func (FullscreenToggled) Name() string { return "surface:fullscreen-toggled" }

// TitleChanged reports a surface title update.
type TitleChanged struct {
	SurfaceID string `json:"surfaceId"`
	Title     string `json:"title"`
}

// Name implements Event.
func (TitleChanged) Name() string { return "surface:title-changed" }

// MouseShapeChanged reports a pointer shape update over a surface.
type MouseShapeChanged struct {
	SurfaceID string            `json:"surfaceId"`
	Shape     engine.MouseShape `json:"shape"`
}

// Name implements Event.
func (MouseShapeChanged) Name() string { return "surface:mouse-shape" }

// MouseVisibilityChanged reports a pointer visibility update over a surface.
type MouseVisibilityChanged struct {
	SurfaceID string `json:"surfaceId"`
	Visible   bool   `json:"visible"`
}

// Name implements Event.
func (MouseVisibilityChanged) Name() string { return "surface:mouse-visibility" }

// InitialWindowSize carries the engine's requested initial window size for a
// surface's window, in pixels.
type InitialWindowSize struct {
	SurfaceID string `json:"surfaceId"`
	Width     uint32 `json:"width"`
	Height    uint32 `json:"height"`
}

// Name implements Event.
func (InitialWindowSize) Name() string { return "surface:initial-window-size" }

// ConfigReloaded reports that a configuration reload completed and the new
// handle is active.
type ConfigReloaded struct{}

// Name implements Event.
func (ConfigReloaded) Name() string { return "config:reloaded" }

// QuitRequested reports that the engine asked the host process to
// terminate.
type QuitRequested struct{}

// Name implements Event.
func (QuitRequested) Name() string { return "app:quit" }

// ActionRejected reports a surface action the shell refused to dispatch,
// with a user-facing reason.
type ActionRejected struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// Name implements Event.
func (ActionRejected) Name() string { return "app:action-rejected" }
