package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := min(int64(chunkSize), remaining)
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// MediaDir creates a directory populated with small placeholder clips and
// returns its path. Names are created in the order given.
func MediaDir(t testing.TB, names ...string) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "card")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir media dir: %v", err)
	}
	for _, name := range names {
		WriteFile(t, filepath.Join(dir, name), 64)
	}
	return dir
}
