package mediasource_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"dailies/internal/mediasource"
	"dailies/internal/prompt"
	"dailies/internal/testsupport"
)

func TestEnumerateTopLevelFilesOnly(t *testing.T) {
	dir := testsupport.MediaDir(t, "b.mov", "a.mov")
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	testsupport.WriteFile(t, filepath.Join(dir, "sub", "nested.mov"), 8)

	files, err := mediasource.Enumerate(dir)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	want := []string{filepath.Join(dir, "a.mov"), filepath.Join(dir, "b.mov")}
	if !slices.Equal(files, want) {
		t.Fatalf("Enumerate = %v, want %v", files, want)
	}
}

func TestEnumerateFollowsFileSymlinks(t *testing.T) {
	dir := testsupport.MediaDir(t, "a.mov")
	target := filepath.Join(t.TempDir(), "elsewhere.wav")
	testsupport.WriteFile(t, target, 8)
	if err := os.Symlink(target, filepath.Join(dir, "link.wav")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := os.Symlink(t.TempDir(), filepath.Join(dir, "linkdir")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(dir, "missing"), filepath.Join(dir, "dangling")); err != nil {
		t.Fatal(err)
	}

	files, err := mediasource.Enumerate(dir)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	want := []string{filepath.Join(dir, "a.mov"), filepath.Join(dir, "link.wav")}
	if !slices.Equal(files, want) {
		t.Fatalf("Enumerate = %v, want %v", files, want)
	}
}

func TestEnumerateMissingDirectory(t *testing.T) {
	if _, err := mediasource.Enumerate(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestLocateRepromptsUntilDirectory(t *testing.T) {
	dir := testsupport.MediaDir(t, "a.mov")
	file := filepath.Join(dir, "a.mov")
	input := strings.Join([]string{"", "/definitely/not/here", file, "  " + dir + "  "}, "\n") + "\n"

	var out bytes.Buffer
	src, err := mediasource.Locate(context.Background(), prompt.New(strings.NewReader(input), &out), mediasource.Options{ExportsDirName: "resolve_exports"})
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if src.Dir != dir {
		t.Fatalf("Dir = %q, want %q", src.Dir, dir)
	}
	if src.ExportsDir != filepath.Join(dir, "resolve_exports") {
		t.Fatalf("ExportsDir = %q", src.ExportsDir)
	}
	if info, err := os.Stat(src.ExportsDir); err != nil || !info.IsDir() {
		t.Fatalf("exports dir not created: %v", err)
	}
	if got := strings.Count(out.String(), "Not a valid path, please try again."); got != 3 {
		t.Fatalf("expected 3 rejections, got %d in %q", got, out.String())
	}
}

func TestLocateExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if err := os.MkdirAll(filepath.Join(home, "card"), 0o755); err != nil {
		t.Fatal(err)
	}
	src, err := mediasource.Locate(context.Background(), prompt.New(strings.NewReader("~/card\n"), nil), mediasource.Options{})
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if src.Dir != filepath.Join(home, "card") {
		t.Fatalf("Dir = %q", src.Dir)
	}
}

func TestLocateInputClosed(t *testing.T) {
	_, err := mediasource.Locate(context.Background(), prompt.New(strings.NewReader("/nope\n"), nil), mediasource.Options{})
	if !errors.Is(err, prompt.ErrInputClosed) {
		t.Fatalf("expected ErrInputClosed, got %v", err)
	}
}
