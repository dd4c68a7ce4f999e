package main

import (
	"context"
	"testing"

	"embershell/internal/engine/enginetest"
	"embershell/internal/hostprefs"
)

func TestGetConfigProjectionsWithoutSession(t *testing.T) {
	app := NewApp()
	proj := app.GetConfigProjections()
	if !proj.Decorations {
		t.Error("decorations should default to true")
	}
	if proj.Theme != nil {
		t.Errorf("theme = %v, want nil", *proj.Theme)
	}
	if proj.Opacity != 1.0 {
		t.Errorf("opacity = %v, want 1.0", proj.Opacity)
	}
	if got := app.GetReadiness(); got != "error" {
		t.Errorf("readiness = %q, want %q", got, "error")
	}
}

func TestGetConfigProjectionsFromActiveConfig(t *testing.T) {
	installEventRecorder(t)
	rt := enginetest.NewRuntime()
	rt.ConfigTemplate = &enginetest.Config{Decorations: false, Theme: "ember-dark", Opacity: 0.92}
	app := newTestApp(t, rt)

	proj := app.GetConfigProjections()
	if proj.Decorations {
		t.Error("decorations should reflect the active config")
	}
	if proj.Theme == nil || *proj.Theme != "ember-dark" {
		t.Errorf("theme = %v, want ember-dark", proj.Theme)
	}
	if proj.Opacity != 0.92 {
		t.Errorf("opacity = %v, want 0.92", proj.Opacity)
	}
	if got := app.GetReadiness(); got != "ready" {
		t.Errorf("readiness = %q, want %q", got, "ready")
	}
	if info := app.GetBuildInfo(); info.Mode != "release" {
		t.Errorf("build mode = %q, want release", info.Mode)
	}
}

func TestReloadConfigFailureKeepsProjections(t *testing.T) {
	installEventRecorder(t)
	rt := enginetest.NewRuntime()
	rt.ConfigTemplate = &enginetest.Config{Decorations: true, Theme: "first", Opacity: 1.0}
	app := newTestApp(t, rt)

	rt.ConfigTemplate = &enginetest.Config{FailFinalize: true}
	if err := app.ReloadConfig(); err == nil {
		t.Fatal("expected reload failure")
	}

	proj := app.GetConfigProjections()
	if proj.Theme == nil || *proj.Theme != "first" {
		t.Errorf("failed reload must keep the active config, theme = %v", proj.Theme)
	}
}

func TestReloadConfigWithoutSession(t *testing.T) {
	app := NewApp()
	if err := app.ReloadConfig(); err == nil {
		t.Error("expected error without session")
	}
}

func TestSavePrefsEmitsVersionedEvent(t *testing.T) {
	t.Setenv("LOCALAPPDATA", t.TempDir())
	recorder := installEventRecorder(t)

	app := NewApp()
	app.setRuntimeContext(context.Background())
	app.prefsPath = hostprefs.DefaultPath()

	prefs := hostprefs.DefaultPrefs()
	prefs.WindowWidth = 1600
	if err := app.SavePrefs(prefs); err != nil {
		t.Fatalf("first SavePrefs failed: %v", err)
	}
	prefs.WindowWidth = 1720
	if err := app.SavePrefs(prefs); err != nil {
		t.Fatalf("second SavePrefs failed: %v", err)
	}

	updates := recorder.byName("prefs:updated")
	if len(updates) != 2 {
		t.Fatalf("prefs:updated emitted %d times, want 2", len(updates))
	}
	first, ok := updates[0].payload.(prefsUpdatedEvent)
	if !ok {
		t.Fatalf("payload type = %T", updates[0].payload)
	}
	second := updates[1].payload.(prefsUpdatedEvent)
	if first.Version != 1 || second.Version != 2 {
		t.Errorf("versions = %d, %d, want 1, 2", first.Version, second.Version)
	}
	if second.Prefs.WindowWidth != 1720 {
		t.Errorf("event prefs width = %d, want 1720", second.Prefs.WindowWidth)
	}
	if got := app.GetPrefs().WindowWidth; got != 1720 {
		t.Errorf("snapshot width = %d, want 1720", got)
	}
}

func TestSavePrefsRejectsForeignPath(t *testing.T) {
	t.Setenv("LOCALAPPDATA", t.TempDir())
	installEventRecorder(t)

	app := NewApp()
	app.setRuntimeContext(context.Background())
	app.prefsPath = "/somewhere/else/prefs.yaml"

	if err := app.SavePrefs(hostprefs.DefaultPrefs()); err == nil {
		t.Error("expected save failure for a path outside the prefs dir")
	}
}

func TestNeedsConfirmQuit(t *testing.T) {
	installEventRecorder(t)
	rt := decoratedRuntime()
	app := newTestApp(t, rt)

	if app.NeedsConfirmQuit() {
		t.Error("fake engine should not require confirmation by default")
	}
	inst := rt.Instance()
	if inst == nil {
		t.Fatal("fake runtime has no instance")
	}
	inst.ConfirmQuit = true
	if !app.NeedsConfirmQuit() {
		t.Error("expected confirmation required")
	}
}
