package webfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"reflect"
)

// ErrUnsupported is returned before any traversal when the root cannot be
// walked: it is nil, it is not a directory, or no root was given and no
// picker is configured.
var ErrUnsupported = errors.New("webfs: unsupported")

// Kind is the kind of a handle.
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Handle is an entry in a tree.
type Handle interface {
	Kind() Kind
	Name() string
}

// asDir returns h as a directory, or false when h is nil, holds a nil
// pointer or is not a directory.
func asDir(h Handle) (DirectoryHandle, bool) {
	if h == nil {
		return nil, false
	}
	if v := reflect.ValueOf(h); v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, false
	}
	dir, ok := h.(DirectoryHandle)
	if !ok || h.Kind() != KindDirectory {
		return nil, false
	}
	return dir, true
}

// DirectoryHandle lists its entries.
type DirectoryHandle interface {
	Handle
	Entries(ctx context.Context) ([]Handle, error)
}

// FileHandle reads a file's metadata and content.
type FileHandle interface {
	Handle
	Stat(ctx context.Context) (fs.FileInfo, error)
	Open(ctx context.Context) (io.ReadCloser, error)
}

// OpenFS returns a handle for dir inside fsys.
func OpenFS(fsys fs.FS, dir string) (DirectoryHandle, error) {
	dir = path.Clean(dir)
	info, err := fs.Stat(fsys, dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrUnsupported, dir)
	}
	name := path.Base(dir)
	if dir == "." {
		name = "."
	}
	return &fsDir{fsys: fsys, path: dir, name: name}, nil
}

// OpenDir returns a handle for a local directory. Its name is the base name
// of the absolute path.
func OpenDir(dir string) (DirectoryHandle, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	h, err := OpenFS(os.DirFS(abs), ".")
	if err != nil {
		return nil, err
	}
	h.(*fsDir).name = filepath.Base(abs)
	return h, nil
}

type fsDir struct {
	fsys fs.FS
	path string
	name string
}

func (d *fsDir) Kind() Kind   { return KindDirectory }
func (d *fsDir) Name() string { return d.name }

func (d *fsDir) Entries(ctx context.Context) ([]Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := fs.ReadDir(d.fsys, d.path)
	if err != nil {
		return nil, err
	}
	out := make([]Handle, 0, len(entries))
	for _, e := range entries {
		p := path.Join(d.path, e.Name())
		if e.IsDir() {
			out = append(out, &fsDir{fsys: d.fsys, path: p, name: e.Name()})
		} else {
			out = append(out, &fsFile{fsys: d.fsys, path: p, name: e.Name()})
		}
	}
	return out, nil
}

type fsFile struct {
	fsys fs.FS
	path string
	name string
}

func (f *fsFile) Kind() Kind   { return KindFile }
func (f *fsFile) Name() string { return f.name }

func (f *fsFile) Stat(ctx context.Context) (fs.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fs.Stat(f.fsys, f.path)
}

func (f *fsFile) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.fsys.Open(f.path)
}
