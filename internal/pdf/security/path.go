package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideDirectory is returned for paths that escape the document directory
var ErrOutsideDirectory = errors.New("path is outside configured directory")

// PathValidator confines file access to a document directory
type PathValidator struct {
	directory string
}

// NewPathValidator creates a new path validator for the given directory.
// The directory does not have to exist yet.
func NewPathValidator(directory string) (*PathValidator, error) {
	if directory == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}

	abs, err := filepath.Abs(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configured directory: %w", err)
	}

	return &PathValidator{directory: filepath.Clean(abs)}, nil
}

// Directory returns the absolute document directory
func (v *PathValidator) Directory() string {
	return v.directory
}

// Resolve turns path into an absolute path inside the document directory.
// Relative paths are taken relative to the directory; NUL bytes are dropped.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.directory, path)
	}
	path = filepath.Clean(path)

	if err := v.ValidatePath(path); err != nil {
		return "", err
	}
	return path, nil
}

// ValidatePath checks that an absolute path, and its symlink target if it
// has one, lie within the document directory
func (v *PathValidator) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	abs = filepath.Clean(abs)

	roots := []string{v.directory}
	if real, err := filepath.EvalSymlinks(v.directory); err == nil && real != v.directory {
		roots = append(roots, real)
	}

	if !within(abs, roots) {
		return fmt.Errorf("%w: %s", ErrOutsideDirectory, path)
	}

	if info, err := os.Lstat(abs); err == nil && info.Mode()&os.ModeSymlink != 0 {
		real, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return fmt.Errorf("failed to resolve symlink: %w", err)
		}
		if !within(real, roots) {
			return fmt.Errorf("%w: %s -> %s", ErrOutsideDirectory, path, real)
		}
	}

	return nil
}

func within(path string, roots []string) bool {
	for _, root := range roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
