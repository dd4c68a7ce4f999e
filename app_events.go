package main

import (
	"context"
	"log/slog"

	"embershell/internal/events"
)

// emitRuntimeEvent emits via the app context and delegates to emitRuntimeEventWithContext.
func (a *App) emitRuntimeEvent(name string, payload any) {
	a.emitRuntimeEventWithContext(a.runtimeContext(), name, payload)
}

// emitRuntimeEventWithContext emits a runtime event only when ctx is non-nil.
// Prefer this helper for best-effort contexts that may not be initialized yet.
func (a *App) emitRuntimeEventWithContext(ctx context.Context, name string, payload any) {
	if ctx == nil {
		slog.Warn("[app] runtime event dropped because app context is nil", "event", name)
		return
	}
	runtimeEventsEmitFn(ctx, name, payload)
}

// startEventBridge forwards every session bus event to the WebView and to
// the external event-stream hub. A handful of events additionally drive host
// side effects (window geometry persistence).
func (a *App) startEventBridge() {
	if a.sess == nil {
		return
	}
	a.sess.Bus().Subscribe(a.handleBusEvent)
}

func (a *App) handleBusEvent(event events.Event) {
	switch evt := event.(type) {
	case events.InitialWindowSize:
		a.applyInitialWindowSize(evt)
	case events.FullscreenToggled:
		a.recordFullscreenToggle()
	}

	a.emitRuntimeEvent(event.Name(), event)
	if a.wsHub != nil {
		a.wsHub.BroadcastEvent(event.Name(), event)
	}
}

// applyInitialWindowSize resizes the window to the engine-requested geometry
// and persists it for the next run.
func (a *App) applyInitialWindowSize(evt events.InitialWindowSize) {
	width := int(evt.Width)
	height := int(evt.Height)
	if width <= 0 || height <= 0 {
		slog.Debug("[app] ignoring non-positive initial window size", "width", width, "height", height)
		return
	}
	if ctx := a.runtimeContext(); ctx != nil {
		runtimeWindowSetSizeFn(ctx, width, height)
	}

	a.windowStateMu.Lock()
	a.windowState.Width = width
	a.windowState.Height = height
	state := a.windowState
	a.windowStateMu.Unlock()
	a.persistWindowState(state)
}

func (a *App) recordFullscreenToggle() {
	a.windowStateMu.Lock()
	a.windowState.Fullscreen = !a.windowState.Fullscreen
	state := a.windowState
	a.windowStateMu.Unlock()
	a.persistWindowState(state)
}
