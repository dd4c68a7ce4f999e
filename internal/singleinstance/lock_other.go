//go:build !windows

package singleinstance

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"embershell/internal/userutil"

	"golang.org/x/sys/unix"
)

// ErrAlreadyRunning is returned by TryLock when another instance holds the lock.
var ErrAlreadyRunning = errors.New("another instance is already running")

// Lock holds an advisory file lock for single-instance enforcement.
// The kernel drops the lock automatically when the owning process exits.
type Lock struct {
	file *os.File
}

// TryLock attempts to acquire an exclusive flock on the named lock file.
// Returns ErrAlreadyRunning if another process already holds it.
func TryLock(name string) (*Lock, error) {
	if name == "" {
		return nil, errors.New("lock name is required")
	}
	file, err := os.OpenFile(name, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", name, err)
	}
	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("flock %s: %w", name, err)
	}
	return &Lock{file: file}, nil
}

// Release drops the lock and closes the file. Safe to call on nil receiver
// and idempotent. The lock file itself is left in place so concurrent
// starters always flock the same inode.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	if err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN); err != nil {
		l.file.Close()
		l.file = nil
		return fmt.Errorf("unlock: %w", err)
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// DefaultLockName returns the lock file path for single-instance enforcement.
// The name mirrors the per-user convention of ipc.DefaultEndpoint().
func DefaultLockName() string {
	username := strings.TrimSpace(os.Getenv("USERNAME"))
	if username == "" {
		if current, err := user.Current(); err == nil {
			username = current.Username
		}
	}
	dir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "embershell-"+userutil.SanitizeUsername(username)+".lock")
}
