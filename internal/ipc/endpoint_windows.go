//go:build windows

package ipc

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/user"
	"regexp"
	"strings"

	"github.com/Microsoft/go-winio"
)

var pipeNamePattern = regexp.MustCompile(`(?i)^\\\\\.\\pipe\\embershell-[a-z0-9._-]{1,128}$`)

const defaultPipePrefix = `\\.\pipe\embershell-`

// DefaultEndpoint returns the per-user activation pipe name. The
// EMBERSHELL_ACTIVATION_ENDPOINT environment variable overrides it when the
// value matches the expected pipe name shape.
func DefaultEndpoint() string {
	if override := strings.TrimSpace(os.Getenv("EMBERSHELL_ACTIVATION_ENDPOINT")); override != "" {
		if pipeNamePattern.MatchString(override) {
			return override
		}
		slog.Warn("[ipc] ignoring invalid EMBERSHELL_ACTIVATION_ENDPOINT override", "value", override)
	}
	return defaultPipePrefix + currentUsername()
}

func dialEndpoint(endpoint string) (net.Conn, error) {
	dialTimeout := defaultDialTimeout
	return winio.DialPipe(endpoint, &dialTimeout)
}

// listenEndpoint creates a Named Pipe listener restricted to the current
// user. The DACL grants full access only to SYSTEM and the current user's
// SID, preventing other local users from connecting.
func listenEndpoint(endpoint string) (net.Listener, error) {
	securityDescriptor, err := pipeSecurityDescriptor()
	if err != nil {
		return nil, err
	}
	return winio.ListenPipe(endpoint, &winio.PipeConfig{
		SecurityDescriptor: securityDescriptor,
		MessageMode:        false,
		InputBufferSize:    int32(maxRequestBytes),
		OutputBufferSize:   int32(maxResponseBytes),
	})
}

var validSIDPattern = regexp.MustCompile(`^S-1(-\d+)+$`)

func pipeSecurityDescriptor() (string, error) {
	current, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("resolve current user: %w", err)
	}
	sid := strings.TrimSpace(current.Uid)
	if sid == "" {
		return "", errors.New("current user SID is unavailable")
	}
	if !validSIDPattern.MatchString(sid) {
		return "", fmt.Errorf("current user SID has unexpected format: %s", sid)
	}
	// SDDL: D:P = protected DACL (no inheritance)
	// (A;;GA;;;SY) = full access for SYSTEM
	// (A;;GA;;;%s) = full access for current user SID
	return fmt.Sprintf("D:P(A;;GA;;;SY)(A;;GA;;;%s)", sid), nil
}
