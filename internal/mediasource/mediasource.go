package mediasource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"dailies/internal/config"
	"dailies/internal/logging"
	"dailies/internal/prompt"
)

const (
	pathQuestion = "Please enter the filepath for your media files: "
	invalidPath  = "Not a valid path, please try again."
)

// Source is a validated media directory and the export directory under it.
type Source struct {
	Dir        string
	ExportsDir string
}

// Options tune Locate.
type Options struct {
	// ExportsDirName is created inside the media directory.
	ExportsDirName string
	Logger         *slog.Logger
}

// Locate prompts until the operator names an existing directory, then makes
// sure its export directory exists.
func Locate(ctx context.Context, p prompt.Prompter, opts Options) (Source, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	for {
		raw, err := p.Ask(ctx, pathQuestion)
		if err != nil {
			return Source{}, err
		}
		dir, ok := resolveDir(raw)
		if !ok {
			logger.Debug("rejected media path", logging.String("input", raw))
			p.Say(invalidPath)
			continue
		}
		return Prepare(dir, opts.ExportsDirName)
	}
}

// Prepare validates dir and creates its export directory.
func Prepare(dir, exportsDirName string) (Source, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return Source{}, fmt.Errorf("media directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return Source{}, fmt.Errorf("media directory %q is not a directory", dir)
	}
	if exportsDirName == "" {
		exportsDirName = "resolve_exports"
	}
	exports := filepath.Join(dir, exportsDirName)
	if err := os.MkdirAll(exports, 0o755); err != nil {
		return Source{}, fmt.Errorf("create exports directory: %w", err)
	}
	return Source{Dir: dir, ExportsDir: exports}, nil
}

// Enumerate returns the absolute paths of the regular files directly inside
// dir, in lexical order. The export directory and other subdirectories are
// excluded.
func Enumerate(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read media directory: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		regular, err := isRegular(entry, path)
		if err != nil {
			return nil, err
		}
		if regular {
			files = append(files, path)
		}
	}
	return files, nil
}

func isRegular(entry fs.DirEntry, path string) (bool, error) {
	if entry.Type().IsRegular() {
		return true, nil
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.Mode().IsRegular(), nil
}

func resolveDir(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	expanded, err := config.ExpandPath(raw)
	if err != nil {
		return "", false
	}
	info, err := os.Stat(expanded)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return expanded, true
}
