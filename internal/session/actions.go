package session

import (
	"errors"
	"log/slog"

	"embershell/internal/engine"
	"embershell/internal/events"
)

// newTabRejectedReason is the user-facing warning for tab requests while
// window decorations are disabled: without decorations there is no tab bar
// to host the tab.
const newTabRejectedReason = "Tabs are unavailable while window decorations are disabled."

// NewTab asks the engine to open a new tab next to sf. Rejected without
// dispatch when the active configuration disables window decorations.
func (s *Session) NewTab(sf *Surface) {
	if !s.WindowDecorations() {
		s.rejectAction(engine.ActionNewTab, newTabRejectedReason)
		return
	}
	s.dispatchAction(sf, engine.ActionNewTab)
}

// NewWindow asks the engine to open a new window.
func (s *Session) NewWindow(sf *Surface) {
	s.dispatchAction(sf, engine.ActionNewWindow)
}

// NewSplit asks the engine to split sf in the given direction.
func (s *Session) NewSplit(sf *Surface, direction engine.SplitDirection) {
	s.dispatchAction(sf, engine.SplitAction(direction))
}

// MoveSplitFocus asks the engine to move split focus from sf.
func (s *Session) MoveSplitFocus(sf *Surface, direction engine.SplitFocusDirection) {
	s.dispatchAction(sf, engine.FocusSplitAction(direction))
}

// ToggleSplitZoom asks the engine to toggle zoom on sf's split.
func (s *Session) ToggleSplitZoom(sf *Surface) {
	s.dispatchAction(sf, engine.ActionToggleSplitZoom)
}

// ToggleFullscreen asks the engine to toggle fullscreen for sf's window.
func (s *Session) ToggleFullscreen(sf *Surface) {
	s.dispatchAction(sf, engine.ActionToggleFullscreen)
}

// AdjustFontSize changes sf's font size by delta points; zero resets it.
func (s *Session) AdjustFontSize(sf *Surface, delta int) {
	s.dispatchAction(sf, engine.FontSizeAction(delta))
}

// dispatchAction forwards a textual action identifier to the engine.
// Dispatch failure is logged, never escalated: a failed action leaves all
// shell state unchanged.
func (s *Session) dispatchAction(sf *Surface, action string) {
	if sf == nil || sf.handle == nil {
		slog.Warn("[session] action dropped: no target surface", "action", action)
		return
	}
	if err := sf.handle.PerformAction(action); err != nil {
		slog.Warn("[session] action dispatch failed",
			"action", action,
			"surfaceId", sf.id,
			"error", err)
	}
}

func (s *Session) rejectAction(action, reason string) {
	slog.Warn("[session] action rejected", "action", action, "reason", reason)
	s.bus.Publish(events.ActionRejected{Action: action, Reason: reason})
}

// ErrNoSurface is returned by Split and FocusSplit when the surface carries
// no engine handle.
var ErrNoSurface = errors.New("session: surface has no engine handle")

// Split creates a split via the surface's dedicated engine entry point,
// bypassing textual action dispatch.
func (s *Session) Split(sf *Surface, direction engine.SplitDirection) error {
	if sf == nil || sf.handle == nil {
		return ErrNoSurface
	}
	return sf.handle.Split(direction)
}

// FocusSplit moves split focus via the surface's dedicated engine entry
// point.
func (s *Session) FocusSplit(sf *Surface, direction engine.SplitFocusDirection) error {
	if sf == nil || sf.handle == nil {
		return ErrNoSurface
	}
	return sf.handle.FocusSplit(direction)
}
