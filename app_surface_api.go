package main

import (
	"fmt"
	"sort"

	"embershell/internal/engine"
	"embershell/internal/session"
)

// SurfaceState is the frontend-visible snapshot of one attached surface.
type SurfaceState struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	MouseShape   string `json:"mouseShape"`
	MouseVisible bool   `json:"mouseVisible"`
}

// AttachEngineSurface pairs an engine surface handle with a host surface and
// registers it for the frontend. Called by the engine adapter layer, not by
// the WebView.
func (a *App) AttachEngineSurface(handle engine.Surface) (*session.Surface, error) {
	sess, err := a.requireSession()
	if err != nil {
		return nil, err
	}
	sf := sess.AttachSurface(handle)
	a.surfacesMu.Lock()
	a.surfaces[sf.ID()] = sf
	a.surfacesMu.Unlock()
	a.emitRuntimeEvent("surface:attached", SurfaceState{ID: sf.ID(), MouseVisible: true})
	return sf, nil
}

// DetachSurface unregisters the surface and releases its callback routing.
// Late engine callbacks for this surface are dropped.
func (a *App) DetachSurface(surfaceID string) error {
	sess, err := a.requireSession()
	if err != nil {
		return err
	}
	a.surfacesMu.Lock()
	sf := a.surfaces[surfaceID]
	delete(a.surfaces, surfaceID)
	a.surfacesMu.Unlock()
	if sf == nil {
		return fmt.Errorf("unknown surface: %s", surfaceID)
	}
	sess.DetachSurface(sf)
	a.emitRuntimeEvent("surface:detached", map[string]string{"id": surfaceID})
	return nil
}

// ListSurfaces returns the attached surfaces ordered by ID.
func (a *App) ListSurfaces() []SurfaceState {
	a.surfacesMu.RLock()
	states := make([]SurfaceState, 0, len(a.surfaces))
	for _, sf := range a.surfaces {
		states = append(states, surfaceState(sf))
	}
	a.surfacesMu.RUnlock()
	sort.Slice(states, func(i, j int) bool { return states[i].ID < states[j].ID })
	return states
}

// GetSurfaceState returns the current state of one surface.
func (a *App) GetSurfaceState(surfaceID string) (SurfaceState, error) {
	sf, err := a.requireSurface(surfaceID)
	if err != nil {
		return SurfaceState{}, err
	}
	return surfaceState(sf), nil
}

func surfaceState(sf *session.Surface) SurfaceState {
	return SurfaceState{
		ID:           sf.ID(),
		Title:        sf.Title(),
		MouseShape:   sf.MouseShape().String(),
		MouseVisible: sf.MouseVisible(),
	}
}

// NewTab requests a new tab from the originating surface. Rejected when
// window decorations are disabled; the rejection reason is published as an
// app:action-rejected event.
func (a *App) NewTab(surfaceID string) error {
	sess, sf, err := a.requireSessionAndSurface(surfaceID)
	if err != nil {
		return err
	}
	sess.NewTab(sf)
	return nil
}

// NewWindow requests a new top-level window from the originating surface.
func (a *App) NewWindow(surfaceID string) error {
	sess, sf, err := a.requireSessionAndSurface(surfaceID)
	if err != nil {
		return err
	}
	sess.NewWindow(sf)
	return nil
}

// NewSplit creates a split next to the surface. Direction is one of
// "right", "left", "down", "up".
func (a *App) NewSplit(surfaceID string, direction string) error {
	sess, sf, err := a.requireSessionAndSurface(surfaceID)
	if err != nil {
		return err
	}
	dir, err := parseSplitDirection(direction)
	if err != nil {
		return err
	}
	sess.NewSplit(sf, dir)
	return nil
}

// FocusSplit moves split focus from the surface. Direction is one of
// "previous", "next", "left", "right", "up", "down".
func (a *App) FocusSplit(surfaceID string, direction string) error {
	sess, sf, err := a.requireSessionAndSurface(surfaceID)
	if err != nil {
		return err
	}
	dir, err := parseSplitFocusDirection(direction)
	if err != nil {
		return err
	}
	sess.MoveSplitFocus(sf, dir)
	return nil
}

// ToggleSplitZoom toggles zoom on the surface's split.
func (a *App) ToggleSplitZoom(surfaceID string) error {
	sess, sf, err := a.requireSessionAndSurface(surfaceID)
	if err != nil {
		return err
	}
	sess.ToggleSplitZoom(sf)
	return nil
}

// ToggleFullscreen toggles fullscreen for the surface's window.
func (a *App) ToggleFullscreen(surfaceID string) error {
	sess, sf, err := a.requireSessionAndSurface(surfaceID)
	if err != nil {
		return err
	}
	sess.ToggleFullscreen(sf)
	return nil
}

// AdjustFontSize changes the font size by delta points. Zero resets to the
// configured size.
func (a *App) AdjustFontSize(surfaceID string, delta int) error {
	sess, sf, err := a.requireSessionAndSurface(surfaceID)
	if err != nil {
		return err
	}
	sess.AdjustFontSize(sf, delta)
	return nil
}

func (a *App) requireSessionAndSurface(surfaceID string) (*session.Session, *session.Surface, error) {
	sess, err := a.requireSession()
	if err != nil {
		return nil, nil, err
	}
	sf, err := a.requireSurface(surfaceID)
	if err != nil {
		return nil, nil, err
	}
	return sess, sf, nil
}

func parseSplitDirection(direction string) (engine.SplitDirection, error) {
	switch direction {
	case "right":
		return engine.SplitRight, nil
	case "left":
		return engine.SplitLeft, nil
	case "down":
		return engine.SplitDown, nil
	case "up":
		return engine.SplitUp, nil
	default:
		return 0, fmt.Errorf("unknown split direction: %q", direction)
	}
}

func parseSplitFocusDirection(direction string) (engine.SplitFocusDirection, error) {
	switch direction {
	case "previous":
		return engine.SplitFocusPrevious, nil
	case "next":
		return engine.SplitFocusNext, nil
	case "left":
		return engine.SplitFocusLeft, nil
	case "right":
		return engine.SplitFocusRight, nil
	case "up":
		return engine.SplitFocusUp, nil
	case "down":
		return engine.SplitFocusDown, nil
	default:
		return 0, fmt.Errorf("unknown focus direction: %q", direction)
	}
}
