// Package fileutil locates files by name without regard to case.
package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// ErrNotFound is returned when none of the candidate names exist.
var ErrNotFound = errors.New("file not found")

// FindFileCaseInsensitive searches dir in fsys for a regular file whose
// name matches filename ignoring case, and returns its path within fsys.
//
// Example:
//
//	p, err := FindFileCaseInsensitive(os.DirFS("."), ".", "MathJIT.YAML")
//	// finds "mathjit.yaml", "MATHJIT.yaml", ...
func FindFileCaseInsensitive(fsys fs.FS, dir, filename string) (string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(entry.Name(), filename) {
			return path.Join(dir, entry.Name()), nil
		}
	}

	return "", fmt.Errorf("%w: %s (searched in %s)", ErrNotFound, filename, dir)
}

// FindFirst returns the first of names present in dir. Earlier names win.
func FindFirst(fsys fs.FS, dir string, names ...string) (string, error) {
	for _, name := range names {
		p, err := FindFileCaseInsensitive(fsys, dir, name)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %s (searched in %s)", ErrNotFound, strings.Join(names, ", "), dir)
}
