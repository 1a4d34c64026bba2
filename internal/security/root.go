// Package security keeps the secret files the CLI reads and writes inside a
// single directory, using os.Root.
package security

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var (
	ErrPathEscapes  = errors.New("path escapes working directory")
	ErrAbsolutePath = errors.New("absolute paths are not allowed")
	ErrEmptyPath    = errors.New("empty path not allowed")
	ErrFileExists   = errors.New("file already exists")
)

// SecretFileMode is the permission of every file written by Root
const SecretFileMode os.FileMode = 0600

// Root confines file access to one directory. Symlinks that leave the
// directory are refused by os.Root.
type Root struct {
	root *os.Root
	dir  string
}

// Open opens a Root over dir
func Open(dir string) (*Root, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	root, err := os.OpenRoot(absDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open root directory: %w", err)
	}

	return &Root{root: root, dir: absDir}, nil
}

// Close releases the directory handle
func (r *Root) Close() error {
	return r.root.Close()
}

// Dir returns the absolute confined directory
func (r *Root) Dir() string {
	return r.dir
}

// Normalize validates a user supplied path and returns it cleaned and
// relative to the root. It rejects empty, absolute and escaping paths.
func (r *Root) Normalize(userPath string) (string, error) {
	if userPath == "" {
		return "", ErrEmptyPath
	}
	if filepath.IsAbs(userPath) {
		return "", fmt.Errorf("%w: %s", ErrAbsolutePath, userPath)
	}

	clean := filepath.Clean(userPath)
	if !filepath.IsLocal(clean) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, userPath)
	}
	return clean, nil
}

// ReadFile reads a file inside the root
func (r *Root) ReadFile(path string) ([]byte, error) {
	clean, err := r.Normalize(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	f, err := r.root.Open(clean)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

// WriteSecret writes data to a file inside the root with SecretFileMode.
// An existing file is only replaced when overwrite is set.
func (r *Root) WriteSecret(path string, data []byte, overwrite bool) error {
	clean, err := r.Normalize(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}

	f, err := r.root.OpenFile(clean, flags, SecretFileMode)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: %s", ErrFileExists, path)
	}
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
