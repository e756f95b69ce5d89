package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const fileSuffix = ".item"

// File stores each key in its own file under a directory. Keys are
// path-escaped, so any string is a valid key.
type File struct {
	dir  string
	perm fs.FileMode

	mu sync.Mutex
}

// FileOption configures File.
type FileOption func(*File)

// WithFileMode sets the permission bits of written files. Default: 0o600.
func WithFileMode(perm fs.FileMode) FileOption {
	return func(f *File) {
		f.perm = perm
	}
}

// NewFile creates a File storage rooted at dir, creating it if needed.
func NewFile(dir string, opts ...FileOption) (*File, error) {
	f := &File{dir: dir, perm: 0o600}
	for _, opt := range opts {
		opt(f)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", dir, err)
	}
	return f, nil
}

// Dir returns the root directory.
func (f *File) Dir() string {
	return f.dir
}

// Path returns the file that holds key.
func (f *File) Path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+fileSuffix)
}

// GetItem implements Storage.
func (f *File) GetItem(key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrInvalidKey
	}
	data, err := os.ReadFile(f.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("storage: read %q: %w", key, err)
	}
	return string(data), true, nil
}

// SetItem implements Storage. The value is written to a temporary file and
// renamed into place.
func (f *File) SetItem(key, value string) error {
	if key == "" {
		return ErrInvalidKey
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	target := f.Path(key)
	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("storage: write %q: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: write %q: %w", key, err)
	}
	if err := tmp.Chmod(f.perm); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: write %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: write %q: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("storage: write %q: %w", key, err)
	}
	return nil
}

// RemoveItem implements Remover.
func (f *File) RemoveItem(key string) error {
	err := os.Remove(f.Path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: remove %q: %w", key, err)
	}
	return nil
}

// Keys implements Lister. Keys are sorted.
func (f *File) Keys() ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", f.dir, err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, fileSuffix))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// KeyForPath maps a file inside Dir back to its key. ok is false for files
// that do not hold an item.
func (f *File) KeyForPath(path string) (string, bool) {
	name := filepath.Base(path)
	if filepath.Dir(path) != filepath.Clean(f.dir) || !strings.HasSuffix(name, fileSuffix) {
		return "", false
	}
	key, err := url.PathUnescape(strings.TrimSuffix(name, fileSuffix))
	if err != nil {
		return "", false
	}
	return key, true
}
