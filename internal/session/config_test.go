package session

import (
	"testing"

	"embershell/internal/engine/enginetest"
	"embershell/internal/events"
)

func TestProjectionDefaultsWithoutConfig(t *testing.T) {
	rt := enginetest.NewRuntime()
	s, err := New(Options{Runtime: rt})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	// Not initialized: no configuration handle exists.
	if got := s.WindowDecorations(); got != true {
		t.Fatalf("WindowDecorations default = %v, want true", got)
	}
	if got := s.WindowTheme(); got != nil {
		t.Fatalf("WindowTheme default = %v, want nil", *got)
	}
	if got := s.BackgroundOpacity(); got != 1.0 {
		t.Fatalf("BackgroundOpacity default = %v, want 1.0", got)
	}
	if got := s.ConfigPaths(); got != nil {
		t.Fatalf("ConfigPaths default = %v, want nil", got)
	}
}

func TestProjectionsReflectLoadedConfig(t *testing.T) {
	rt := enginetest.NewRuntime()
	rt.ConfigTemplate = &enginetest.Config{
		Decorations: false,
		Theme:       "midnight",
		Opacity:     0.85,
		FilePaths:   []string{"/tmp/a.conf", "/tmp/b.conf"},
	}
	s := newReadySession(t, rt)

	if s.WindowDecorations() {
		t.Fatal("expected decorations disabled")
	}
	theme := s.WindowTheme()
	if theme == nil || *theme != "midnight" {
		t.Fatalf("WindowTheme = %v, want midnight", theme)
	}
	if got := s.BackgroundOpacity(); got != 0.85 {
		t.Fatalf("BackgroundOpacity = %v, want 0.85", got)
	}
	if got := len(s.ConfigPaths()); got != 2 {
		t.Fatalf("ConfigPaths length = %d, want 2", got)
	}
}

func TestWindowThemeEmptyStringIsNil(t *testing.T) {
	rt := enginetest.NewRuntime()
	rt.ConfigTemplate = &enginetest.Config{Theme: "", Opacity: 1.0}
	s := newReadySession(t, rt)

	if got := s.WindowTheme(); got != nil {
		t.Fatalf("empty theme must project as nil, got %q", *got)
	}
}

func TestReloadReplacesAndReleasesOldHandle(t *testing.T) {
	rt := enginetest.NewRuntime()
	s := newReadySession(t, rt)
	received := collectEvents(t, s)

	if err := s.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	if len(rt.Configs) != 2 {
		t.Fatalf("expected 2 config handles, got %d", len(rt.Configs))
	}
	old, current := rt.Configs[0], rt.Configs[1]
	if !old.IsClosed() {
		t.Fatal("prior handle must be released after replacement")
	}
	if current.IsClosed() {
		t.Fatal("new handle must stay open")
	}
	if got := rt.Instance().CurrentConfig(); got != current {
		t.Fatal("engine instance must reference the newest handle")
	}

	reloaded := false
	for _, e := range *received {
		if _, ok := e.(events.ConfigReloaded); ok {
			reloaded = true
		}
	}
	if !reloaded {
		t.Fatal("ConfigReloaded event was not published")
	}
}

func TestFailedReloadKeepsActiveConfig(t *testing.T) {
	rt := enginetest.NewRuntime()
	rt.ConfigTemplate = &enginetest.Config{Decorations: true, Opacity: 0.5}
	s := newReadySession(t, rt)
	received := collectEvents(t, s)

	// All subsequent loads fail at finalize.
	rt.ConfigTemplate = &enginetest.Config{FailFinalize: true}

	if err := s.Reload(); err == nil {
		t.Fatal("expected Reload to fail")
	}

	active := rt.Configs[0]
	if active.IsClosed() {
		t.Fatal("active handle must remain open after failed reload")
	}
	if got := s.BackgroundOpacity(); got != 0.5 {
		t.Fatalf("active config changed after failed reload, opacity = %v", got)
	}
	if got := rt.Instance().CurrentConfig(); got != active {
		t.Fatal("engine must still reference the pre-reload handle")
	}
	if failed := rt.Configs[1]; !failed.IsClosed() {
		t.Fatal("partially loaded handle must be released on failure")
	}
	for _, e := range *received {
		if _, ok := e.(events.ConfigReloaded); ok {
			t.Fatal("ConfigReloaded must not be published on failure")
		}
	}
	if got := s.Readiness(); got != ReadinessReady {
		t.Fatalf("failed reload must not alter readiness, got %v", got)
	}
}

func TestEngineReloadCallbackContract(t *testing.T) {
	rt := enginetest.NewRuntime()
	s := newReadySession(t, rt)

	cfg, ok := s.reloadForEngine()
	if !ok || cfg == nil {
		t.Fatal("expected successful engine reload")
	}

	rt.ConfigTemplate = &enginetest.Config{FailDefaults: true}
	cfg, ok = s.reloadForEngine()
	if ok || cfg != nil {
		t.Fatal("failed reload must report ok=false with no handle")
	}
}
