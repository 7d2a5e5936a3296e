// Package scan enumerates the local files eligible for upload.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound is returned when the source directory does not exist.
	ErrNotFound = errors.New("directory not found")

	// ErrNotADirectory is returned when the source path is not a directory.
	ErrNotADirectory = errors.New("path is not a directory")
)

// listLimit caps how many discovered files are listed individually in the log.
const listLimit = 50

// Supported document extensions (lowercase, with leading dot).
var supportedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".ppt":  true,
	".pptx": true,
	".xls":  true,
	".xlsx": true,
	".csv":  true,
	".html": true,
	".htm":  true,
	".json": true,
	".xml":  true,
	".rtf":  true,
}

// File is a local file selected for upload. Its content is read lazily.
type File struct {
	// Path is the file's location on disk.
	Path string

	// Name is the base name, used as the remote display name and dedup key.
	Name string
}

// Read returns the full content of the file.
func (f File) Read() ([]byte, error) {
	return os.ReadFile(f.Path)
}

// IsSupported reports whether path has a supported extension (case-insensitive).
func IsSupported(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Scan walks root recursively and returns every regular file with a
// supported extension, in walk order. Unsupported files are skipped
// silently. A symlinked root and symlinks to regular files are followed;
// subdirectories that cannot be read are logged and skipped.
//
// Scanning stops with ctx's error as soon as ctx is cancelled.
func Scan(ctx context.Context, root string, logger *slog.Logger) ([]File, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Info("Scanning directory", "dir", root)

	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, root)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotADirectory, root)
	}

	// WalkDir does not descend into a symlinked root.
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	var (
		files   []File
		scanned int
	)
	err = filepath.WalkDir(resolved, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == resolved {
				return err
			}
			logger.Warn("Skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !isRegular(path, d, logger) {
			return nil
		}

		if rel, relErr := filepath.Rel(resolved, path); relErr == nil {
			path = filepath.Join(root, rel)
		}
		scanned++
		if !IsSupported(path) {
			logger.Debug("Skipping unsupported file", "path", path)
			return nil
		}
		logger.Debug("Found supported file", "path", path)
		files = append(files, File{Path: path, Name: d.Name()})
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("scan of %s interrupted: %w", root, ctxErr)
		}
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	logger.Info("Scan complete", "scanned", scanned, "supported", len(files))
	if len(files) <= listLimit {
		for _, f := range files {
			logger.Debug("Pending upload", "path", f.Path)
		}
	} else {
		logger.Info("Too many files to list individually", "count", len(files))
	}

	return files, nil
}

// isRegular reports whether d is a regular file or a symlink to one.
func isRegular(path string, d fs.DirEntry, logger *slog.Logger) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	target, err := os.Stat(path)
	if err != nil {
		logger.Debug("Skipping broken symlink", "path", path, "error", err)
		return false
	}
	return target.Mode().IsRegular()
}
