package main

import "embershell/internal/hostprefs"

// getPrefsSnapshot returns a deep-copied preferences value protected by prefsMu.
// All read access to App.prefs should go through this helper.
func (a *App) getPrefsSnapshot() hostprefs.Prefs {
	a.prefsMu.RLock()
	defer a.prefsMu.RUnlock()
	return hostprefs.Clone(a.prefs)
}

// setPrefsSnapshot stores a deep-copied preferences value protected by prefsMu.
// All write access to App.prefs should go through this helper.
func (a *App) setPrefsSnapshot(prefs hostprefs.Prefs) {
	a.prefsMu.Lock()
	a.prefs = hostprefs.Clone(prefs)
	a.prefsMu.Unlock()
}
