package main

import (
	"time"

	"embershell/internal/engine"
	"embershell/internal/hostprefs"
)

// ConfigProjections is the read-only engine configuration surface exposed to
// the frontend. Only these three values cross the boundary; everything else
// stays behind the opaque engine handle.
type ConfigProjections struct {
	Decorations bool    `json:"decorations"`
	Theme       *string `json:"theme"`
	Opacity     float64 `json:"opacity"`
}

type prefsUpdatedEvent struct {
	Prefs              hostprefs.Prefs `json:"prefs"`
	Version            uint64          `json:"version"`
	UpdatedAtUnixMilli int64           `json:"updated_at_unix_milli"`
}

// GetConfigProjections returns the current configuration projections.
// Safe before initialization: each projection falls back to its default.
func (a *App) GetConfigProjections() ConfigProjections {
	sess, err := a.requireSession()
	if err != nil {
		return ConfigProjections{Decorations: true, Opacity: 1.0}
	}
	return ConfigProjections{
		Decorations: sess.WindowDecorations(),
		Theme:       sess.WindowTheme(),
		Opacity:     sess.BackgroundOpacity(),
	}
}

// GetReadiness returns "loading", "ready", or "error".
func (a *App) GetReadiness() string {
	sess, err := a.requireSession()
	if err != nil {
		return "error"
	}
	return sess.Readiness().String()
}

// GetBuildInfo reports the linked engine build.
func (a *App) GetBuildInfo() engine.BuildInfo {
	sess, err := a.requireSession()
	if err != nil {
		return engine.BuildInfo{}
	}
	return sess.BuildInfo()
}

// ReloadConfig triggers a manual configuration reload. On failure the active
// configuration is kept and the error is returned to the caller.
func (a *App) ReloadConfig() error {
	sess, err := a.requireSession()
	if err != nil {
		return err
	}
	return sess.Reload()
}

// NeedsConfirmQuit reports whether quitting should be confirmed with the user.
func (a *App) NeedsConfirmQuit() bool {
	sess, err := a.requireSession()
	if err != nil {
		return false
	}
	return sess.NeedsConfirmQuit()
}

// NotifyKeyboardLayoutChanged forwards a host keyboard layout change to the
// engine.
func (a *App) NotifyKeyboardLayoutChanged() {
	sess, err := a.requireSession()
	if err != nil {
		return
	}
	sess.KeyboardLayoutChanged()
}

// GetPrefs returns the loaded host preferences.
func (a *App) GetPrefs() hostprefs.Prefs {
	return a.getPrefsSnapshot()
}

// GetPrefsAndFlushWarnings returns host preferences and emits any pending
// startup warnings.
func (a *App) GetPrefsAndFlushWarnings() hostprefs.Prefs {
	a.flushStartupWarnings()
	return a.getPrefsSnapshot()
}

// SavePrefs validates and persists prefs to disk, then updates the in-memory
// snapshot. The prefs:updated event carries the normalized preferences (with
// defaults filled).
func (a *App) SavePrefs(prefs hostprefs.Prefs) error {
	event, err := a.savePrefsWithLock(prefs)
	if err != nil {
		return err
	}
	// Event emission intentionally happens outside prefsSaveMu.
	// Concurrent saves are ordered by Version, and frontend consumers must
	// treat the highest version as authoritative.
	a.emitRuntimeEvent("prefs:updated", event)
	return nil
}

// savePrefsWithLock persists prefs, updates the in-memory snapshot, and bumps
// the event version under prefsSaveMu.
func (a *App) savePrefsWithLock(prefs hostprefs.Prefs) (prefsUpdatedEvent, error) {
	a.prefsSaveMu.Lock()
	defer a.prefsSaveMu.Unlock()

	normalized, err := hostprefs.Save(a.prefsPath, prefs)
	if err != nil {
		return prefsUpdatedEvent{}, err
	}
	a.setPrefsSnapshot(normalized)
	version := a.prefsEventVersion.Add(1)

	return prefsUpdatedEvent{
		Prefs:              hostprefs.Clone(normalized),
		Version:            version,
		UpdatedAtUnixMilli: time.Now().UnixMilli(),
	}, nil
}
