package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"embershell/internal/configwatch"
	"embershell/internal/engine"
	"embershell/internal/hostprefs"
	"embershell/internal/ipc"
	"embershell/internal/session"
	"embershell/internal/sessionlog"
	"embershell/internal/statestore"
	"embershell/internal/wsserver"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

type appRuntimeLogger interface {
	Warningf(context.Context, string, ...interface{})
	Infof(context.Context, string, ...interface{})
	Errorf(context.Context, string, ...interface{})
}

type wailsRuntimeLogger struct{}

func formatRuntimeLogMessage(message string, args ...interface{}) string {
	if len(args) == 0 {
		return message
	}
	return fmt.Sprintf(message, args...)
}

func (wailsRuntimeLogger) Warningf(ctx context.Context, message string, args ...interface{}) {
	if ctx == nil {
		slog.Warn(formatRuntimeLogMessage(message, args...))
		return
	}
	runtime.LogWarningf(ctx, message, args...)
}

func (wailsRuntimeLogger) Infof(ctx context.Context, message string, args ...interface{}) {
	if ctx == nil {
		slog.Info(formatRuntimeLogMessage(message, args...))
		return
	}
	runtime.LogInfof(ctx, message, args...)
}

func (wailsRuntimeLogger) Errorf(ctx context.Context, message string, args ...interface{}) {
	if ctx == nil {
		slog.Error(formatRuntimeLogMessage(message, args...))
		return
	}
	runtime.LogErrorf(ctx, message, args...)
}

var (
	runtimeEventsEmitFn                            = runtime.EventsEmit
	runtimeLogger                 appRuntimeLogger = wailsRuntimeLogger{}
	runtimeQuitFn                                  = runtime.Quit
	runtimeWindowShowFn                            = runtime.WindowShow
	runtimeWindowUnminimiseFn                      = runtime.WindowUnminimise
	runtimeWindowSetAlwaysOnTopFn                  = runtime.WindowSetAlwaysOnTop
	runtimeWindowSetSizeFn                         = runtime.WindowSetSize
	newEngineRuntimeFn                             = engine.NewRuntime
	newIPCServerFn                                 = ipc.NewServer
	newConfigWatcherFn                             = func(source configwatch.Source) (*configwatch.Watcher, error) {
		return configwatch.New(source)
	}
	openStateStoreFn = statestore.Open
)

const (
	shutdownWaitTimeout = 10 * time.Second
	windowStateFile     = "state.db"
)

func (a *App) addStartupWarning(message string) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return
	}
	a.startupWarnMu.Lock()
	a.startupWarns = append(a.startupWarns, trimmed)
	a.startupWarnMu.Unlock()
}

func (a *App) consumeStartupWarnings() string {
	a.startupWarnMu.Lock()
	defer a.startupWarnMu.Unlock()
	if len(a.startupWarns) == 0 {
		return ""
	}
	message := strings.Join(a.startupWarns, "\n")
	a.startupWarns = nil
	return message
}

func (a *App) flushStartupWarnings() {
	ctx := a.runtimeContext()
	if ctx == nil {
		return
	}
	if warning := a.consumeStartupWarnings(); warning != "" {
		a.emitRuntimeEventWithContext(ctx, "prefs:load-failed", map[string]string{
			"message": warning,
		})
	}
}

func (a *App) startup(ctx context.Context) {
	setConsoleUTF8()

	a.setRuntimeContext(ctx)

	a.prefsPath = hostprefs.DefaultPath()
	for _, message := range hostprefs.ConsumeDefaultPathWarnings() {
		a.addStartupWarning(message)
	}

	prefs, err := hostprefs.EnsureFile(a.prefsPath)
	if err != nil {
		// Preference load/parse failures are non-fatal. Continue startup
		// with defaults and surface a warning to the user.
		prefs = hostprefs.DefaultPrefs()
		a.addStartupWarning(
			"Failed to load preferences at startup. Running with defaults. Error: " + err.Error(),
		)
		runtimeLogger.Warningf(ctx, "failed to load preferences from %s: %v", a.prefsPath, err)
	}
	a.setPrefsSnapshot(prefs)
	a.installDiagnosticsTee(prefs.SlogLevel())

	a.openWindowStateStore(ctx)
	a.startSession(ctx)
	a.startEventStreamHub(ctx, prefs)
	a.startEventBridge()
	a.startActivationServer(ctx)
	a.startConfigWatcher(ctx, prefs)
	a.startOwnerLoop(ctx)
	a.flushStartupWarnings()
}

// openWindowStateStore opens the SQLite window-state store next to the
// preferences file and restores the persisted geometry. All failures are
// non-fatal; the app simply runs with default geometry.
func (a *App) openWindowStateStore(ctx context.Context) {
	path := filepath.Join(filepath.Dir(a.prefsPath), windowStateFile)
	store, err := openStateStoreFn(path)
	if err != nil {
		runtimeLogger.Warningf(ctx, "window state store unavailable: %v", err)
		return
	}
	a.store = store

	state, found, err := store.Load()
	if err != nil {
		runtimeLogger.Warningf(ctx, "window state load failed: %v", err)
		return
	}
	if !found {
		return
	}
	a.windowStateMu.Lock()
	a.windowState = state
	a.windowStateMu.Unlock()
	runtimeWindowSetSizeFn(ctx, state.Width, state.Height)
}

// startSession resolves the engine adapter and initializes the session
// shell. A missing adapter is fatal for terminal functionality: the session
// is left nil and every surface API reports unavailability.
func (a *App) startSession(ctx context.Context) {
	engineRuntime, err := newEngineRuntimeFn()
	if err != nil {
		runtimeLogger.Errorf(ctx, "engine runtime unavailable: %v", err)
		a.addStartupWarning("No terminal engine is linked into this build. Error: " + err.Error())
		return
	}

	sess, err := session.New(session.Options{
		Runtime:     engineRuntime,
		Clipboard:   wailsClipboard{app: a},
		RequestQuit: a.handleEngineQuit,
	})
	if err != nil {
		runtimeLogger.Errorf(ctx, "session construction failed: %v", err)
		a.addStartupWarning("Failed to construct the terminal session. Error: " + err.Error())
		return
	}
	sess.SetDelegate(a)
	a.sess = sess

	if err := sess.Initialize(); err != nil {
		runtimeLogger.Errorf(ctx, "session initialization failed: %v", err)
		a.addStartupWarning("Terminal engine initialization failed. Error: " + err.Error())
	}
}

func (a *App) startEventStreamHub(ctx context.Context, prefs hostprefs.Prefs) {
	if !prefs.EventStreamEnabled {
		slog.Debug("[events-ws] event stream disabled by preference")
		return
	}
	hub := wsserver.NewHub(wsserver.HubOptions{
		Addr: fmt.Sprintf("127.0.0.1:%d", prefs.EventStreamPort),
	})
	if err := hub.Start(ctx); err != nil {
		runtimeLogger.Warningf(ctx, "event stream hub failed to start: %v", err)
		return
	}
	a.wsHub = hub
	runtimeLogger.Infof(ctx, "event stream listening: %s", hub.URL())
}

func (a *App) startActivationServer(ctx context.Context) {
	server := newIPCServerFn("", ipc.HandlerFunc(a.handleActivation))
	if err := server.Start(); err != nil {
		runtimeLogger.Warningf(ctx, "activation server failed to start: %v", err)
		return
	}
	a.ipcServer = server
	runtimeLogger.Infof(ctx, "activation endpoint listening: %s", server.Endpoint())
}

func (a *App) handleActivation(req ipc.Request) ipc.Response {
	switch req.Action {
	case ipc.ActionPing:
		return ipc.Response{OK: true}
	case ipc.ActionActivate:
		a.bringWindowToFront()
		return ipc.Response{OK: true}
	default:
		return ipc.Response{OK: false, Message: "unknown action: " + req.Action}
	}
}

func (a *App) startConfigWatcher(ctx context.Context, prefs hostprefs.Prefs) {
	if !prefs.WatchConfig {
		slog.Debug("[configwatch] disabled by preference")
		return
	}
	if a.sess == nil || a.sess.Readiness() != session.ReadinessReady {
		slog.Debug("[configwatch] skipped: session not ready")
		return
	}
	watcher, err := newConfigWatcherFn(a.sess)
	if err != nil {
		runtimeLogger.Warningf(ctx, "config watcher failed to start: %v", err)
		return
	}
	a.watcher = watcher
}

// startOwnerLoop runs the session owner loop on a dedicated goroutine with
// panic recovery and capped exponential restart backoff.
func (a *App) startOwnerLoop(parent context.Context) {
	if a.sess == nil {
		return
	}

	ctx, cancel := context.WithCancel(parent)
	a.ownerCancel = cancel

	a.bgWG.Add(1)
	go func() {
		defer a.bgWG.Done()
		restartDelay := initialPanicRestartBackoff
		for attempt := 0; attempt < maxPanicRestartRetries; attempt++ {
			panicked := false
			func() {
				defer func() {
					if recoverBackgroundPanic("owner-loop", recover()) {
						panicked = true
					}
				}()
				a.sess.Run(ctx)
			}()
			if !panicked || ctx.Err() != nil {
				return
			}
			if a.shuttingDown.Load() {
				slog.Info("[worker] owner-loop: shutdown in progress, stopping restart")
				return
			}
			slog.Warn("[worker] restarting owner loop after panic",
				"restartDelay", restartDelay,
				"attempt", attempt+1,
			)
			a.emitRuntimeEventWithContext(a.runtimeContext(), "app:worker-panic", map[string]any{
				"worker": "owner-loop",
			})
			restartTimer := time.NewTimer(restartDelay)
			select {
			case <-ctx.Done():
				if !restartTimer.Stop() {
					<-restartTimer.C
				}
				return
			case <-restartTimer.C:
			}
			restartDelay = nextPanicRestartBackoff(restartDelay)
		}
		slog.Error("[worker] owner loop exceeded max restart retries, giving up",
			"maxRetries", maxPanicRestartRetries)
	}()
}

// handleEngineQuit runs on the owner goroutine when the engine requests
// process exit from a tick.
func (a *App) handleEngineQuit() {
	ctx := a.runtimeContext()
	if ctx == nil {
		slog.Warn("[app] engine quit request dropped because runtime context is nil")
		return
	}
	runtimeQuitFn(ctx)
}

// ConfigDidReload implements session.Delegate. The stored window theme is
// refreshed so the next run restores the current appearance.
func (a *App) ConfigDidReload(s *session.Session) {
	theme := ""
	if t := s.WindowTheme(); t != nil {
		theme = *t
	}
	a.windowStateMu.Lock()
	a.windowState.Theme = theme
	state := a.windowState
	a.windowStateMu.Unlock()
	a.persistWindowState(state)
}

func (a *App) persistWindowState(state statestore.WindowState) {
	if a.store == nil {
		return
	}
	if err := a.store.Save(state); err != nil {
		slog.Warn("[app] window state save failed", "error", err)
	}
}

func (a *App) shutdown(_ context.Context) {
	a.shuttingDown.Store(true)
	logCtx := a.runtimeContext()

	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			runtimeLogger.Warningf(logCtx, "config watcher close failed: %v", err)
		}
	}
	if a.ipcServer != nil {
		if err := a.ipcServer.Stop(); err != nil {
			runtimeLogger.Warningf(logCtx, "activation server stop failed: %v", err)
		}
	}
	if a.wsHub != nil {
		if err := a.wsHub.Stop(); err != nil {
			runtimeLogger.Warningf(logCtx, "event stream hub stop failed: %v", err)
		}
	}

	if a.ownerCancel != nil {
		a.ownerCancel()
		a.ownerCancel = nil
	}
	if a.sess != nil {
		a.sess.Shutdown()
	}
	if !waitWithTimeout(a.bgWG.Wait, shutdownWaitTimeout) {
		runtimeLogger.Warningf(logCtx, "timed out waiting for background workers during shutdown")
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			runtimeLogger.Warningf(logCtx, "window state store close failed: %v", err)
		}
	}
}

func waitWithTimeout(waitFn func(), timeout time.Duration) bool {
	// Best effort timeout guard for shutdown paths. The waiting goroutine may
	// outlive timeout when waitFn blocks indefinitely, but this function is only
	// used during process shutdown where eventual completion is expected.
	done := make(chan struct{})
	go func() {
		waitFn()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

// bringWindowToFront shows and raises the application window.
// Used when a second instance signals the first to activate.
func (a *App) bringWindowToFront() {
	ctx := a.runtimeContext()
	if ctx == nil {
		slog.Warn("[ipc] activation dropped because runtime context is nil")
		return
	}
	runtimeWindowShowFn(ctx)
	runtimeWindowUnminimiseFn(ctx)
	runtimeWindowSetAlwaysOnTopFn(ctx, true)
	runtimeWindowSetAlwaysOnTopFn(ctx, false)
}

// installDiagnosticsTee replaces the default slog handler with a tee that
// forwards Warn+ records into the in-app diagnostics ring buffer.
func (a *App) installDiagnosticsTee(level slog.Level) {
	base := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(sessionlog.NewTeeHandler(base, slog.LevelWarn, a.appendDiagnostic)))
}
