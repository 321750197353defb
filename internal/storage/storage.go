// Package storage provides writable per-plugin directories.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// AppName names the default cache directory.
const AppName = "mpvnode"

// lockFileName is the advisory lock file inside a plugin directory.
const lockFileName = ".lock"

// ErrLocked is returned by Lock when another instance holds the directory.
var ErrLocked = errors.New("directory is locked by another process")

// Provider hands out a private directory per plugin.
type Provider interface {
	// ForPlugin returns the directory for name, creating it if create is set.
	ForPlugin(name string, create bool) (string, error)
}

// Dir is a Provider rooted at a single directory.
type Dir struct {
	Root string
}

// NewDir returns a Provider rooted at root, or at the user cache directory
// when root is empty.
func NewDir(root string) (*Dir, error) {
	if root == "" {
		cache, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("locate cache directory: %w", err)
		}
		root = filepath.Join(cache, AppName)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}
	return &Dir{Root: abs}, nil
}

// ForPlugin implements Provider.
func (d *Dir) ForPlugin(name string, create bool) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid plugin name %q", name)
	}

	dir := filepath.Join(d.Root, name)
	if create {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", fmt.Errorf("create plugin directory: %w", err)
		}
		return dir, nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", dir)
	}
	return dir, nil
}

// Lock takes the advisory lock of dir without blocking.
// It returns ErrLocked if another process holds it.
func Lock(dir string) (*flock.Flock, error) {
	lock := flock.New(filepath.Join(dir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}
	return lock, nil
}

// RemoveMatching deletes regular files in dir whose names match pattern
// and returns how many were removed.
func RemoveMatching(dir, pattern string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return 0, err
	}

	var errs []error
	removed := 0
	for _, path := range matches {
		info, statErr := os.Lstat(path)
		if statErr != nil || !info.Mode().IsRegular() {
			continue
		}
		if rmErr := os.Remove(path); rmErr != nil {
			errs = append(errs, rmErr)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
