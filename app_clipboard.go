package main

import (
	"errors"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

var (
	runtimeClipboardGetTextFn = runtime.ClipboardGetText
	runtimeClipboardSetTextFn = runtime.ClipboardSetText
)

// wailsClipboard bridges the session's standard-clipboard callbacks to the
// Wails runtime clipboard. Only the standard location exists here; the
// session never routes selection or primary clipboards to the host.
type wailsClipboard struct {
	app *App
}

func (c wailsClipboard) ReadText() (string, error) {
	ctx := c.app.runtimeContext()
	if ctx == nil {
		return "", errors.New("clipboard unavailable before startup")
	}
	return runtimeClipboardGetTextFn(ctx)
}

func (c wailsClipboard) WriteText(text string) error {
	ctx := c.app.runtimeContext()
	if ctx == nil {
		return errors.New("clipboard unavailable before startup")
	}
	return runtimeClipboardSetTextFn(ctx, text)
}
