//go:build !windows

package ipc

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const stalenessProbeTimeout = 250 * time.Millisecond

// DefaultEndpoint returns the per-user activation socket path. The
// EMBERSHELL_ACTIVATION_ENDPOINT environment variable overrides it when the
// value is an absolute path.
func DefaultEndpoint() string {
	if override := strings.TrimSpace(os.Getenv("EMBERSHELL_ACTIVATION_ENDPOINT")); override != "" {
		if filepath.IsAbs(override) {
			return override
		}
		slog.Warn("[ipc] ignoring non-absolute EMBERSHELL_ACTIVATION_ENDPOINT override", "value", override)
	}
	dir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "embershell-"+currentUsername()+".sock")
}

func dialEndpoint(endpoint string) (net.Conn, error) {
	return net.DialTimeout("unix", endpoint, defaultDialTimeout)
}

// listenEndpoint creates a Unix domain socket listener. A socket file left
// behind by a crashed process would otherwise block listening, so the
// endpoint is probed first and removed only when nothing answers.
func listenEndpoint(endpoint string) (net.Listener, error) {
	if conn, err := net.DialTimeout("unix", endpoint, stalenessProbeTimeout); err == nil {
		conn.Close()
		return nil, fmt.Errorf("endpoint %s is already in use", endpoint)
	}
	if err := os.Remove(endpoint); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}

	listener, err := net.Listen("unix", endpoint)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(endpoint, 0o600); err != nil {
		slog.Warn("[ipc] failed to restrict socket permissions", "path", endpoint, "error", err)
	}
	return listener, nil
}
