package statestore

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestLoadEmptyStore(t *testing.T) {
	store := openTestStore(t)

	_, found, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if found {
		t.Fatal("empty store reported a saved state")
	}
}

func TestSaveAndLoad(t *testing.T) {
	store := openTestStore(t)

	in := WindowState{Width: 1440, Height: 860, Fullscreen: true, Theme: "dark"}
	if err := store.Save(in); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	out, found, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !found {
		t.Fatal("saved state not found")
	}
	if out.Width != 1440 || out.Height != 860 || !out.Fullscreen || out.Theme != "dark" {
		t.Fatalf("loaded state = %+v", out)
	}
	if out.UpdatedAt.IsZero() {
		t.Fatal("updated-at was not set")
	}
}

func TestSaveOverwritesSingleRow(t *testing.T) {
	store := openTestStore(t)

	if err := store.Save(WindowState{Width: 800, Height: 600}); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	if err := store.Save(WindowState{Width: 1024, Height: 768, Theme: "light"}); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	out, found, err := store.Load()
	if err != nil || !found {
		t.Fatalf("Load = (%v, %v)", found, err)
	}
	if out.Width != 1024 || out.Height != 768 || out.Theme != "light" || out.Fullscreen {
		t.Fatalf("loaded state = %+v", out)
	}
}

func TestSaveRejectsInvalidGeometry(t *testing.T) {
	store := openTestStore(t)

	if err := store.Save(WindowState{Width: 0, Height: 600}); err == nil {
		t.Fatal("expected error for zero width")
	}
	if err := store.Save(WindowState{Width: 800, Height: -1}); err == nil {
		t.Fatal("expected error for negative height")
	}
}

func TestStateSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := store.Save(WindowState{Width: 1280, Height: 720}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	out, found, err := reopened.Load()
	if err != nil || !found {
		t.Fatalf("Load after reopen = (%v, %v)", found, err)
	}
	if out.Width != 1280 || out.Height != 720 {
		t.Fatalf("loaded state = %+v", out)
	}
	if time.Since(out.UpdatedAt) > time.Hour {
		t.Fatalf("updated-at stale: %v", out.UpdatedAt)
	}
}
