package session

import (
	"log/slog"

	"embershell/internal/engine"
	"embershell/internal/events"
)

// callbacks builds the table handed to the engine at instance creation. All
// trampolines resolve their surface through the token registry; none of them
// recover raw pointers from the engine boundary.
func (s *Session) callbacks() engine.Callbacks {
	return engine.Callbacks{
		Wakeup:       s.requestTick,
		ReloadConfig: s.reloadForEngine,

		SetTitle:           s.onSetTitle,
		SetMouseShape:      s.onSetMouseShape,
		SetMouseVisibility: s.onSetMouseVisibility,

		ReadClipboard:  s.onReadClipboard,
		WriteClipboard: s.onWriteClipboard,

		NewSplit:     s.onNewSplit,
		NewTab:       s.onNewTab,
		NewWindow:    s.onNewWindow,
		CloseSurface: s.onCloseSurface,
		FocusSplit:   s.onFocusSplit,

		ToggleSplitZoom:  s.onToggleSplitZoom,
		GotoTab:          s.onGotoTab,
		ToggleFullscreen: s.onToggleFullscreen,

		SetInitialWindowSize: s.onSetInitialWindowSize,
	}
}

func (s *Session) onSetTitle(token uint64, title string) {
	sf := s.resolveSurface(token)
	if sf == nil {
		return
	}
	sf.setTitle(title)
	s.bus.Publish(events.TitleChanged{SurfaceID: sf.id, Title: title})
}

func (s *Session) onSetMouseShape(token uint64, shape engine.MouseShape) {
	sf := s.resolveSurface(token)
	if sf == nil {
		return
	}
	sf.setMouseShape(shape)
	s.bus.Publish(events.MouseShapeChanged{SurfaceID: sf.id, Shape: shape})
}

func (s *Session) onSetMouseVisibility(token uint64, visible bool) {
	sf := s.resolveSurface(token)
	if sf == nil {
		return
	}
	sf.setMouseVisible(visible)
	s.bus.Publish(events.MouseVisibilityChanged{SurfaceID: sf.id, Visible: visible})
}

// onReadClipboard services engine clipboard reads. Only the standard
// location is bridged; any other location completes with an empty string.
// The request is acknowledged on every path, including unresolvable tokens
// and read errors, so the engine never holds request state forever.
func (s *Session) onReadClipboard(token uint64, location engine.ClipboardLocation, req engine.ClipboardRequest) {
	if req == nil {
		slog.Warn("[session] clipboard read without completion handle", "token", token)
		return
	}
	if location != engine.ClipboardStandard {
		req.Complete("")
		return
	}
	if s.clipboard == nil {
		slog.Debug("[session] clipboard read with no provider")
		req.Complete("")
		return
	}
	text, err := s.clipboard.ReadText()
	if err != nil {
		slog.Warn("[session] clipboard read failed", "error", err)
		req.Complete("")
		return
	}
	req.Complete(text)
}

// onWriteClipboard honors only the standard clipboard location; other
// locations are silently ignored.
func (s *Session) onWriteClipboard(token uint64, location engine.ClipboardLocation, text string) {
	if location != engine.ClipboardStandard {
		slog.Debug("[session] clipboard write ignored", "location", location.String())
		return
	}
	if s.clipboard == nil {
		slog.Debug("[session] clipboard write with no provider")
		return
	}
	if err := s.clipboard.WriteText(text); err != nil {
		slog.Warn("[session] clipboard write failed", "error", err)
	}
}

func (s *Session) onNewSplit(token uint64, direction engine.SplitDirection) {
	sf := s.resolveSurface(token)
	if sf == nil {
		return
	}
	s.bus.Publish(events.SplitCreated{SurfaceID: sf.id, Direction: direction})
}

// onNewTab gates tab creation on window decorations: without decorations
// there is no tab bar, so the request produces a warning instead of an
// event.
func (s *Session) onNewTab(token uint64) {
	sf := s.resolveSurface(token)
	if sf == nil {
		return
	}
	if !s.WindowDecorations() {
		s.rejectAction(engine.ActionNewTab, newTabRejectedReason)
		return
	}
	s.bus.Publish(events.TabCreated{SurfaceID: sf.id})
}

func (s *Session) onNewWindow(token uint64) {
	sf := s.resolveSurface(token)
	if sf == nil {
		return
	}
	s.bus.Publish(events.WindowCreated{SurfaceID: sf.id})
}

func (s *Session) onCloseSurface(token uint64, processAlive bool) {
	sf := s.resolveSurface(token)
	if sf == nil {
		return
	}
	s.bus.Publish(events.SurfaceClosed{SurfaceID: sf.id, ProcessAlive: processAlive})
}

func (s *Session) onFocusSplit(token uint64, direction engine.SplitFocusDirection) {
	sf := s.resolveSurface(token)
	if sf == nil {
		return
	}
	s.bus.Publish(events.SplitFocusRequested{SurfaceID: sf.id, Direction: direction})
}

func (s *Session) onToggleSplitZoom(token uint64) {
	sf := s.resolveSurface(token)
	if sf == nil {
		return
	}
	s.bus.Publish(events.SplitZoomToggled{SurfaceID: sf.id})
}

func (s *Session) onGotoTab(token uint64, target engine.TabTarget) {
	sf := s.resolveSurface(token)
	if sf == nil {
		return
	}
	s.bus.Publish(events.TabNavigated{SurfaceID: sf.id, Target: target})
}

func (s *Session) onToggleFullscreen(token uint64, mode engine.FullscreenMode) {
	sf := s.resolveSurface(token)
	if sf == nil {
		return
	}
	s.bus.Publish(events.FullscreenToggled{SurfaceID: sf.id, Mode: mode})
}

func (s *Session) onSetInitialWindowSize(token uint64, width, height uint32) {
	sf := s.resolveSurface(token)
	if sf == nil {
		return
	}
	s.bus.Publish(events.InitialWindowSize{SurfaceID: sf.id, Width: width, Height: height})
}
