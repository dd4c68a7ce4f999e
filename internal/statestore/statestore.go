// Package statestore persists window state across launches in a small
// SQLite database. Losing this data only costs the user their last window
// geometry, so every caller treats store failures as non-fatal.
package statestore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS window_state (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	width INTEGER NOT NULL,
	height INTEGER NOT NULL,
	fullscreen INTEGER NOT NULL DEFAULT 0,
	theme TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)
`

// WindowState is the persisted window geometry and appearance.
type WindowState struct {
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Fullscreen bool      `json:"fullscreen"`
	Theme      string    `json:"theme"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Store is a SQLite-backed single-row window-state store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the store at path and applies the
// schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("statestore: path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("statestore: mkdir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("statestore: open: %w", err)
	}
	// The store serves one process; a single connection sidesteps SQLite
	// write contention.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("statestore: ping: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("statestore: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Load returns the saved window state. The second result reports whether a
// state row exists.
func (s *Store) Load() (WindowState, bool, error) {
	var state WindowState
	var fullscreen int
	err := s.db.QueryRow(
		"SELECT width, height, fullscreen, theme, updated_at FROM window_state WHERE id = 1",
	).Scan(&state.Width, &state.Height, &fullscreen, &state.Theme, &state.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return WindowState{}, false, nil
	}
	if err != nil {
		return WindowState{}, false, fmt.Errorf("statestore: load: %w", err)
	}
	state.Fullscreen = fullscreen != 0
	return state, true, nil
}

// Save upserts the window state. UpdatedAt is set by the store.
func (s *Store) Save(state WindowState) error {
	if state.Width <= 0 || state.Height <= 0 {
		return fmt.Errorf("statestore: invalid geometry %dx%d", state.Width, state.Height)
	}
	fullscreen := 0
	if state.Fullscreen {
		fullscreen = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO window_state (id, width, height, fullscreen, theme, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			width = excluded.width,
			height = excluded.height,
			fullscreen = excluded.fullscreen,
			theme = excluded.theme,
			updated_at = excluded.updated_at`,
		state.Width, state.Height, fullscreen, state.Theme, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("statestore: save: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
