package runlock_test

import (
	"errors"
	"path/filepath"
	"testing"

	"dailies/internal/runlock"
)

func TestAcquireIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "dailies.lock")
	first, err := runlock.Acquire(path)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if first.Path() != path {
		t.Fatalf("Path = %q", first.Path())
	}

	if _, err := runlock.Acquire(path); !errors.Is(err, runlock.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	second, err := runlock.Acquire(path)
	if err != nil {
		t.Fatalf("re-Acquire after release: %v", err)
	}
	if err := second.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestReleaseNilLock(t *testing.T) {
	var l *runlock.Lock
	if err := l.Release(); err != nil {
		t.Fatalf("Release on nil lock: %v", err)
	}
}
