// Package hostprefs loads and saves shell-level preferences. These are
// host-application settings (window geometry defaults, log level, feature
// toggles); terminal configuration belongs to the engine and never appears
// here.
package hostprefs

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.yaml.in/yaml/v3"
)

const (
	maxPrefsFileBytes int64 = 1 << 20 // 1MB
	maxRenameRetry          = 10
	// Windows file lock releases (antivirus/indexing) typically settle
	// quickly. Use a short linear backoff: baseDelay * (1..maxRenameRetry).
	renameRetryBaseDelay = 10 * time.Millisecond

	// maxValidPort is the highest TCP/UDP port number (2^16 - 1).
	// Port 0 is valid and means "OS auto-assign".
	maxValidPort = 65535

	minWindowDimension = 200
	maxWindowDimension = 16384
)

// defaultPrefsDirFn is a test seam; tests override it to simulate
// directory-resolution failures in validatePrefsPath.
var defaultPrefsDirFn = defaultPrefsDir
var userHomeDirFn = os.UserHomeDir

var defaultPathWarningState struct {
	mu       sync.Mutex
	messages []string
}

func recordDefaultPathWarning(message string) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return
	}
	defaultPathWarningState.mu.Lock()
	defaultPathWarningState.messages = append(defaultPathWarningState.messages, trimmed)
	defaultPathWarningState.mu.Unlock()
}

// ConsumeDefaultPathWarnings returns and clears path-resolution warnings
// accumulated during DefaultPath() calls.
func ConsumeDefaultPathWarnings() []string {
	defaultPathWarningState.mu.Lock()
	defer defaultPathWarningState.mu.Unlock()
	if len(defaultPathWarningState.messages) == 0 {
		return nil
	}
	out := make([]string, len(defaultPathWarningState.messages))
	copy(out, defaultPathWarningState.messages)
	defaultPathWarningState.messages = nil
	return out
}

// Prefs is the on-disk shell preference set.
type Prefs struct {
	// WindowWidth and WindowHeight are the default window size used when the
	// state store has no saved geometry.
	WindowWidth  int `yaml:"window_width" json:"window_width"`
	WindowHeight int `yaml:"window_height" json:"window_height"`

	// LogLevel selects the slog level: debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// WatchConfig enables the file watcher that reloads the engine
	// configuration when its source files change.
	WatchConfig bool `yaml:"watch_config" json:"watch_config"`

	// EventStreamEnabled enables the local WebSocket event stream.
	EventStreamEnabled bool `yaml:"event_stream_enabled" json:"event_stream_enabled"`
	// EventStreamPort is the port for the local WebSocket event stream.
	// 0 (default) lets the OS assign an available port, which is
	// recommended to avoid port conflicts.
	EventStreamPort int `yaml:"event_stream_port" json:"event_stream_port"`
}

// allowedLogLevels maps preference strings to slog levels.
var allowedLogLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// DefaultPrefs returns the default preference set.
func DefaultPrefs() Prefs {
	return Prefs{
		WindowWidth:        1280,
		WindowHeight:       800,
		LogLevel:           "info",
		WatchConfig:        true,
		EventStreamEnabled: true,
		EventStreamPort:    0,
	}
}

// SlogLevel returns the slog level for p.LogLevel. Unknown values fall back
// to info.
func (p Prefs) SlogLevel() slog.Level {
	if level, ok := allowedLogLevels[strings.ToLower(strings.TrimSpace(p.LogLevel))]; ok {
		return level
	}
	return slog.LevelInfo
}

// Clone returns a copy of p. Prefs currently holds only value fields, but
// callers share snapshots across goroutines and must not rely on that.
func Clone(src Prefs) Prefs {
	return src
}

// DefaultPath resolves the preferences file path, preferring LOCALAPPDATA
// over APPDATA, falling back to ~/.config when both are unset, and then to
// os.TempDir() if the home directory cannot be resolved.
// The temp-dir fallback is not a stable persistence location and may vary
// between sessions depending on environment configuration.
func DefaultPath() string {
	base := strings.TrimSpace(os.Getenv("LOCALAPPDATA"))
	if base == "" {
		base = strings.TrimSpace(os.Getenv("APPDATA"))
	}
	if base == "" {
		home, err := userHomeDirFn()
		if err != nil {
			// Keep the path resolvable even in restricted environments.
			slog.Warn("[prefs] using temp dir as preferences path fallback", "error", err)
			recordDefaultPathWarning(
				"Preferences path fallback: failed to resolve LOCALAPPDATA/APPDATA/home directory. Using temp directory; settings persistence may be limited.",
			)
			base = os.TempDir()
		} else {
			base = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(base, "embershell", "prefs.yaml")
}

// Load reads the preferences file. A missing file yields defaults without
// error; a malformed file yields defaults with the parse error.
func Load(path string) (Prefs, error) {
	prefs := DefaultPrefs()
	if path == "" {
		return prefs, errors.New("preferences path required")
	}

	raw, err := readLimitedFile(path, maxPrefsFileBytes)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, err
	}
	if len(raw) == 0 {
		return prefs, nil
	}
	if err := yaml.Unmarshal(raw, &prefs); err != nil {
		slog.Warn("[prefs] failed to parse preferences, using defaults", "path", path, "error", err)
		return DefaultPrefs(), err
	}

	applyDefaultsAndValidate(&prefs)
	return prefs, nil
}

// EnsureFile writes default preferences if missing and returns the loaded
// set.
func EnsureFile(path string) (Prefs, error) {
	prefs, err := Load(path)
	if err != nil {
		return prefs, err
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		if _, err := Save(path, prefs); err != nil {
			return prefs, err
		}
	}
	return prefs, nil
}

// Save normalizes prefs and atomically writes them to path. Returns the
// normalized preferences that were actually written to disk.
func Save(path string, prefs Prefs) (Prefs, error) {
	normalizedPath, err := validatePrefsPath(path)
	if err != nil {
		return prefs, err
	}
	applyDefaultsAndValidate(&prefs)

	raw, err := yaml.Marshal(prefs)
	if err != nil {
		return prefs, fmt.Errorf("save prefs: marshal: %w", err)
	}
	if err := atomicWrite(normalizedPath, raw); err != nil {
		return prefs, err
	}
	slog.Debug("[prefs] preferences saved", "path", path)
	return prefs, nil
}

// applyDefaultsAndValidate fills missing defaults and normalizes prefs
// in-place. All corrections are non-fatal: a misconfigured file must never
// prevent startup.
func applyDefaultsAndValidate(prefs *Prefs) {
	defaults := DefaultPrefs()

	if prefs.WindowWidth < minWindowDimension || prefs.WindowWidth > maxWindowDimension {
		if prefs.WindowWidth != 0 {
			slog.Warn("[prefs] window_width out of range, using default",
				"configured", prefs.WindowWidth, "default", defaults.WindowWidth)
		}
		prefs.WindowWidth = defaults.WindowWidth
	}
	if prefs.WindowHeight < minWindowDimension || prefs.WindowHeight > maxWindowDimension {
		if prefs.WindowHeight != 0 {
			slog.Warn("[prefs] window_height out of range, using default",
				"configured", prefs.WindowHeight, "default", defaults.WindowHeight)
		}
		prefs.WindowHeight = defaults.WindowHeight
	}

	level := strings.ToLower(strings.TrimSpace(prefs.LogLevel))
	if _, ok := allowedLogLevels[level]; !ok {
		if level != "" {
			slog.Warn("[prefs] unknown log_level, using default",
				"configured", prefs.LogLevel, "default", defaults.LogLevel)
		}
		level = defaults.LogLevel
	}
	prefs.LogLevel = level

	if prefs.EventStreamPort < 0 || prefs.EventStreamPort > maxValidPort {
		slog.Warn("[prefs] event_stream_port out of valid range (0-65535), falling back to 0 (auto-assign)",
			"configured", prefs.EventStreamPort, "max", maxValidPort)
		prefs.EventStreamPort = 0
	}
}

// atomicWrite writes preference data using temp-file + rename to avoid
// partial writes and retries rename on Windows to tolerate transient file
// locks.
func atomicWrite(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("save prefs: mkdir: %w", err)
	}

	// Atomic write: temp file + rename in same directory ensures
	// same-filesystem rename and prevents partial writes on crash.
	tmpFile, err := os.CreateTemp(dir, ".prefs.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("save prefs: create temp: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			if closeErr := tmpFile.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
				slog.Warn("[prefs] failed to close temp file", "path", tmpPath, "error", closeErr)
			}
		}
		if err != nil {
			if removeErr := os.Remove(tmpPath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
				slog.Warn("[prefs] failed to remove temp file", "path", tmpPath, "error", removeErr)
			}
		}
	}()

	if err = tmpFile.Chmod(0o600); err != nil {
		return fmt.Errorf("save prefs: chmod temp: %w", err)
	}
	if _, err = tmpFile.Write(data); err != nil {
		return fmt.Errorf("save prefs: write: %w", err)
	}
	if err = tmpFile.Sync(); err != nil {
		return fmt.Errorf("save prefs: sync: %w", err)
	}
	err = tmpFile.Close()
	tmpFile = nil
	if err != nil {
		return fmt.Errorf("save prefs: close: %w", err)
	}

	if err = renameFileWithRetry(tmpPath, path); err != nil {
		return fmt.Errorf("save prefs: rename: %w", err)
	}
	return nil
}

// validatePrefsPath normalizes path and enforces that preference writes stay
// inside the default preferences directory when that directory is
// resolvable.
func validatePrefsPath(path string) (string, error) {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return "", errors.New("preferences path required")
	}
	absolutePath, err := filepath.Abs(trimmedPath)
	if err != nil {
		return "", fmt.Errorf("save prefs: resolve path: %w", err)
	}

	expectedDir, err := defaultPrefsDirFn()
	if err != nil {
		return "", fmt.Errorf("save prefs: resolve prefs dir: %w", err)
	}
	absoluteExpectedDir, err := filepath.Abs(expectedDir)
	if err != nil {
		return "", fmt.Errorf("save prefs: resolve prefs dir: %w", err)
	}
	if !pathWithinDir(absolutePath, absoluteExpectedDir) {
		return "", fmt.Errorf("save prefs: path outside preferences directory: %q", absolutePath)
	}

	return absolutePath, nil
}

func defaultPrefsDir() (string, error) {
	return filepath.Dir(DefaultPath()), nil
}

// pathWithinDir blocks directory traversal by ensuring path is under dir.
// It also rejects Windows cross-drive escapes because filepath.Rel returns
// an absolute path when roots differ.
func pathWithinDir(path string, dir string) bool {
	relativePath, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	if relativePath == "." {
		return true
	}
	if relativePath == ".." || strings.HasPrefix(relativePath, ".."+string(os.PathSeparator)) {
		return false
	}
	return !filepath.IsAbs(relativePath)
}

func readLimitedFile(path string, maxBytes int64) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	limited := io.LimitReader(file, maxBytes+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > maxBytes {
		return nil, fmt.Errorf("preferences file exceeds %d bytes", maxBytes)
	}
	return raw, nil
}

func renameFileWithRetry(sourcePath string, targetPath string) error {
	var lastErr error
	for attempt := range maxRenameRetry {
		err := os.Rename(sourcePath, targetPath)
		if err == nil {
			return nil
		}
		lastErr = err
		if runtime.GOOS != "windows" {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * renameRetryBaseDelay)
	}
	return lastErr
}
