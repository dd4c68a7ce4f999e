package main

import (
	"errors"

	"embershell/internal/session"
)

func (a *App) requireSession() (*session.Session, error) {
	if a.sess == nil {
		return nil, errors.New("terminal session is unavailable")
	}
	return a.sess, nil
}

func (a *App) requireSurface(surfaceID string) (*session.Surface, error) {
	a.surfacesMu.RLock()
	sf := a.surfaces[surfaceID]
	a.surfacesMu.RUnlock()
	if sf == nil {
		return nil, errors.New("unknown surface: " + surfaceID)
	}
	return sf, nil
}
