package main

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"embershell/internal/configwatch"
	"embershell/internal/hostprefs"
	"embershell/internal/ipc"
	"embershell/internal/session"
	"embershell/internal/statestore"
	"embershell/internal/wsserver"
)

// App is the Wails-bound application service. It owns the engine session
// shell and every host-side service around it: preferences, the config
// watcher, the window-state store, the activation IPC server, and the
// event-stream hub.
type App struct {
	// Runtime context lifecycle.
	ctx   context.Context
	ctxMu sync.RWMutex

	// Host preferences state and startup warnings.
	// Lock ordering (outer -> inner):
	//   prefsSaveMu -> prefsMu
	//
	// Independent locks: do not assume ordering across these.
	//   surfacesMu, startupWarnMu, ctxMu, diagMu, windowStateMu
	prefsMu           sync.RWMutex
	prefsSaveMu       sync.Mutex
	prefsEventVersion atomic.Uint64
	prefs             hostprefs.Prefs
	prefsPath         string

	startupWarnMu sync.Mutex
	startupWarns  []string

	// Backend services. Assigned once during startup, stable afterwards.
	sess      *session.Session
	ipcServer *ipc.Server
	watcher   *configwatch.Watcher
	store     *statestore.Store

	// wsHub serves the JSON event stream to observers outside the WebView.
	// Set once during startup (single-goroutine); nil if the hub fails to
	// start. Safe without mutex: written once before any reader goroutine
	// starts, never reassigned.
	wsHub *wsserver.Hub

	// Wails-visible surface registry, keyed by public surface ID.
	surfacesMu sync.RWMutex
	surfaces   map[string]*session.Surface

	// Window geometry persisted across runs. Guarded by windowStateMu;
	// written from bus observers and read by SaveWindowGeometry callers.
	windowStateMu sync.Mutex
	windowState   statestore.WindowState

	// Diagnostics feed state (captures Warn/Error level slog records).
	// Protected by diagMu (RWMutex: write-lock for append, read-lock for get).
	//
	// diagLastEmit: time of last app:diagnostics-updated emission; throttles
	//   high-frequency ping events to prevent Wails IPC saturation.
	// diagSeq: monotonically increasing counter for stable frontend dedup.
	diagMu       sync.RWMutex
	diagEntries  diagRingBuffer
	diagLastEmit time.Time
	diagSeq      uint64

	shuttingDown atomic.Bool // set true at the start of shutdown(); checked by the owner-loop restart guard

	// Background worker cancellation/waits.
	ownerCancel context.CancelFunc
	bgWG        sync.WaitGroup
}

// NewApp creates the app service.
func NewApp() *App {
	return &App{
		surfaces:    map[string]*session.Surface{},
		diagEntries: newDiagRingBuffer(diagMaxEntries),
	}
}

// GetWindowState returns the last persisted window geometry and theme. The
// zero value is returned when nothing has been persisted yet.
func (a *App) GetWindowState() statestore.WindowState {
	a.windowStateMu.Lock()
	defer a.windowStateMu.Unlock()
	return a.windowState
}

// GetEventStreamURL returns the WebSocket endpoint URL for external event
// observers. Returns empty string if the event-stream hub is not available.
func (a *App) GetEventStreamURL() string {
	if a.wsHub == nil {
		slog.Debug("[events-ws] hub is nil, event stream URL unavailable")
		return ""
	}
	return a.wsHub.URL()
}
