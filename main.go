package main

import (
	"embed"
	"errors"
	"log/slog"

	"embershell/internal/hostprefs"
	"embershell/internal/ipc"
	"embershell/internal/singleinstance"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	// Single-instance check BEFORE any Wails/WebView initialization. A
	// second instance hands its activation over to the running one.
	instanceLock, err := singleinstance.TryLock(singleinstance.DefaultLockName())
	if errors.Is(err, singleinstance.ErrAlreadyRunning) {
		slog.Info("[app] another instance is already running, signaling activation")
		if _, sendErr := ipc.Send("", ipc.Request{Action: ipc.ActionActivate}); sendErr != nil {
			slog.Warn("[app] failed to signal existing instance", "error", sendErr)
		}
		return
	}
	if err != nil {
		// Lock acquisition failed for an unexpected reason. Continue startup;
		// the activation endpoint still detects a live duplicate.
		slog.Warn("[app] instance lock failed, proceeding without single-instance guard", "error", err)
	}
	if instanceLock != nil {
		defer func() {
			if releaseErr := instanceLock.Release(); releaseErr != nil {
				slog.Warn("[app] instance lock release failed", "error", releaseErr)
			}
		}()
	}

	prefs, prefsErr := hostprefs.Load(hostprefs.DefaultPath())
	if prefsErr != nil {
		slog.Warn("[app] preferences unavailable for window sizing, using defaults", "error", prefsErr)
		prefs = hostprefs.DefaultPrefs()
	}

	app := NewApp()

	err = wails.Run(&options.App{
		Title:     "Embershell",
		Width:     prefs.WindowWidth,
		Height:    prefs.WindowHeight,
		MinWidth:  640,
		MinHeight: 400,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 16, G: 16, B: 20, A: 1},
		OnStartup:        app.startup,
		OnShutdown:       app.shutdown,
		Bind: []any{
			app,
		},
	})

	if err != nil {
		slog.Error("[app] wails run failed", "error", err)
	}
}
