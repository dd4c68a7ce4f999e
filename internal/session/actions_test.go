package session

import (
	"errors"
	"testing"

	"embershell/internal/engine"
	"embershell/internal/engine/enginetest"
	"embershell/internal/events"
)

func TestActionsDispatchToSurfaceHandle(t *testing.T) {
	rt := enginetest.NewRuntime()
	rt.ConfigTemplate = &enginetest.Config{Decorations: true, Opacity: 1.0}
	s := newReadySession(t, rt)
	handle := &enginetest.Surface{}
	sf := s.AttachSurface(handle)

	s.NewTab(sf)
	s.NewWindow(sf)
	s.NewSplit(sf, engine.SplitRight)
	s.MoveSplitFocus(sf, engine.SplitFocusUp)
	s.ToggleSplitZoom(sf)
	s.ToggleFullscreen(sf)
	s.AdjustFontSize(sf, 2)
	s.AdjustFontSize(sf, -1)
	s.AdjustFontSize(sf, 0)

	want := []string{
		"new_tab",
		"new_window",
		"new_split:right",
		"goto_split:up",
		"toggle_split_zoom",
		"toggle_fullscreen",
		"increase_font_size:2",
		"decrease_font_size:1",
		"reset_font_size",
	}
	got := handle.PerformedActions()
	if len(got) != len(want) {
		t.Fatalf("dispatched %d actions, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("action[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNewTabRejectedWithoutDecorations(t *testing.T) {
	rt := enginetest.NewRuntime()
	rt.ConfigTemplate = &enginetest.Config{Decorations: false, Opacity: 1.0}
	s := newReadySession(t, rt)
	received := collectEvents(t, s)
	handle := &enginetest.Surface{}
	sf := s.AttachSurface(handle)

	s.NewTab(sf)

	if n := len(handle.PerformedActions()); n != 0 {
		t.Fatalf("rejected new-tab must not reach the engine, got %d actions", n)
	}
	if len(*received) != 1 {
		t.Fatalf("expected 1 event, got %d", len(*received))
	}
	if _, ok := (*received)[0].(events.ActionRejected); !ok {
		t.Fatalf("expected ActionRejected, got %T", (*received)[0])
	}
}

func TestDispatchFailureIsNotEscalated(t *testing.T) {
	rt := enginetest.NewRuntime()
	s := newReadySession(t, rt)
	handle := &enginetest.Surface{FailActions: true}
	sf := s.AttachSurface(handle)

	// Must not panic or publish anything; failure only logs.
	received := collectEvents(t, s)
	s.NewWindow(sf)
	s.ToggleSplitZoom(sf)

	if len(*received) != 0 {
		t.Fatalf("dispatch failures must stay silent on the bus, got %d events", len(*received))
	}
}

func TestDispatchWithoutSurfaceIsDropped(t *testing.T) {
	rt := enginetest.NewRuntime()
	s := newReadySession(t, rt)

	s.NewWindow(nil)
	s.NewWindow(&Surface{})
}

func TestSplitEntryPoints(t *testing.T) {
	rt := enginetest.NewRuntime()
	s := newReadySession(t, rt)
	handle := &enginetest.Surface{}
	sf := s.AttachSurface(handle)

	if err := s.Split(sf, engine.SplitDown); err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if err := s.FocusSplit(sf, engine.SplitFocusNext); err != nil {
		t.Fatalf("FocusSplit failed: %v", err)
	}
	if len(handle.Splits) != 1 || handle.Splits[0] != engine.SplitDown {
		t.Fatalf("unexpected splits %v", handle.Splits)
	}
	if len(handle.FocusedMoves) != 1 || handle.FocusedMoves[0] != engine.SplitFocusNext {
		t.Fatalf("unexpected focus moves %v", handle.FocusedMoves)
	}

	if err := s.Split(nil, engine.SplitDown); !errors.Is(err, ErrNoSurface) {
		t.Fatalf("Split(nil) error = %v, want ErrNoSurface", err)
	}
	if err := s.FocusSplit(&Surface{}, engine.SplitFocusNext); !errors.Is(err, ErrNoSurface) {
		t.Fatalf("FocusSplit without handle error = %v, want ErrNoSurface", err)
	}
}
