package session

import (
	"fmt"
	"log/slog"

	"embershell/internal/engine"
	"embershell/internal/events"
)

// loadConfig creates, populates, and finalizes a new configuration handle:
// default locations first, then command-line overrides, then recursively
// discovered files. Validation diagnostics are logged and do not fail the
// load; only handle creation or a load/finalize error does.
func (s *Session) loadConfig() (engine.Config, error) {
	cfg, err := s.runtime.NewConfig()
	if err == nil && cfg == nil {
		err = fmt.Errorf("engine returned no config handle")
	}
	if err != nil {
		return nil, fmt.Errorf("create config: %w", err)
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"default files", cfg.LoadDefaultFiles},
		{"cli args", cfg.LoadCLIArgs},
		{"recursive files", cfg.LoadRecursiveFiles},
		{"finalize", cfg.Finalize},
	}
	for _, step := range steps {
		if stepErr := step.run(); stepErr != nil {
			cfg.Close()
			return nil, fmt.Errorf("%s: %w", step.name, stepErr)
		}
	}

	for _, message := range cfg.Diagnostics() {
		slog.Warn("[config] validation error", "message", message)
	}
	return cfg, nil
}

// Reload loads a fresh configuration and makes it active. On success the
// prior handle is closed immediately after replacement and observers are
// notified; on failure the active configuration is left untouched and the
// error is returned.
func (s *Session) Reload() error {
	_, err := s.reload()
	return err
}

// reload is the single reload path shared by Reload and the engine's
// reload-config callback. It returns the newly active handle so the
// trampoline can hand it back to the engine.
func (s *Session) reload() (engine.Config, error) {
	cfg, err := s.loadConfig()
	if err != nil {
		slog.Warn("[config] reload failed, keeping active configuration", "error", err)
		return nil, err
	}

	s.mu.Lock()
	old := s.cfg
	s.cfg = cfg
	inst := s.inst
	s.mu.Unlock()

	// The engine must observe the new handle before the old one is
	// released; no reader sees an intermediate state.
	if inst != nil {
		inst.ReplaceConfig(cfg)
	}
	if old != nil {
		old.Close()
	}

	slog.Info("[config] reloaded", "paths", len(cfg.Paths()))
	s.bus.Publish(events.ConfigReloaded{})

	s.delegateMu.RLock()
	delegate := s.delegate
	s.delegateMu.RUnlock()
	if delegate != nil {
		delegate.ConfigDidReload(s)
	}
	return cfg, nil
}

// reloadForEngine adapts reload to the engine callback contract: ok=false
// tells the engine to keep its current handle.
func (s *Session) reloadForEngine() (engine.Config, bool) {
	cfg, err := s.reload()
	if err != nil {
		return nil, false
	}
	return cfg, true
}

// ConfigPaths returns the file paths the active configuration was loaded
// from, or nil when no configuration is loaded.
func (s *Session) ConfigPaths() []string {
	cfg := s.config()
	if cfg == nil {
		return nil
	}
	return cfg.Paths()
}

// WindowDecorations reports whether window decorations are enabled.
// Defaults to true when no configuration is loaded.
func (s *Session) WindowDecorations() bool {
	cfg := s.config()
	if cfg == nil {
		return true
	}
	return cfg.WindowDecorations()
}

// WindowTheme returns the configured window theme name, or nil when no
// configuration is loaded or no theme is set.
func (s *Session) WindowTheme() *string {
	cfg := s.config()
	if cfg == nil {
		return nil
	}
	theme := cfg.WindowTheme()
	if theme == "" {
		return nil
	}
	return &theme
}

// BackgroundOpacity returns the configured background opacity. Defaults to
// 1.0 when no configuration is loaded.
func (s *Session) BackgroundOpacity() float64 {
	cfg := s.config()
	if cfg == nil {
		return 1.0
	}
	return cfg.BackgroundOpacity()
}
