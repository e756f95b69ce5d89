package webfs

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/vango-dev/sugar/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// File is a file found by a walk.
type File struct {
	// Dir is the slash-separated directory relative to the root, "" for
	// files directly under it.
	Dir string `json:"dir"`

	// Name is the file name without its extension.
	Name string `json:"name"`

	// Ext is the extension including the dot, or "".
	Ext string `json:"ext"`

	// Size is 0 when the metadata could not be read.
	Size int64 `json:"size"`

	// AddTime is set by WithAddTime.
	AddTime *time.Time `json:"addTime,omitempty"`

	// ModifiedTime is the walk time when the metadata could not be read.
	ModifiedTime time.Time `json:"modifiedTime"`

	Handle FileHandle `json:"-"`
}

// Path returns the slash-separated path of f relative to the root.
func (f File) Path() string {
	return path.Join(f.Dir, f.Name+f.Ext)
}

// splitName splits a file name into base and extension. A leading dot does
// not start an extension, so ".env" has none.
func splitName(name string) (base, ext string) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return name, ""
	}
	return name[:i], name[i:]
}

// Result is the outcome of Walk.
type Result struct {
	Tree    *Node
	Files   []File
	Handles map[string]Handle
}

// Walk builds the tree under root and lists its files. Files appear in
// breadth-first order, and within a directory in entry order. It returns
// ErrUnsupported without reading anything when root is not a directory.
func Walk(ctx context.Context, root Handle, opts ...Option) (*Result, error) {
	dir, ok := asDir(root)
	if !ok {
		return nil, ErrUnsupported
	}
	c := newConfig(opts)

	ctx, span := telemetry.StartSpan(ctx, "webfs.walk", attribute.String("webfs.root", root.Name()))
	start := c.now()

	tree, err := buildTree(ctx, dir, &c)
	if err != nil {
		telemetry.EndSpan(span, err)
		return nil, err
	}
	handles := make(map[string]Handle)
	files := walkTree(ctx, tree, handles, &c)

	c.metrics.WalkDuration.Observe(c.now().Sub(start).Seconds())
	c.metrics.WalkFiles.Add(float64(len(files)))
	span.SetAttributes(attribute.Int("webfs.files", len(files)))
	telemetry.EndSpan(span, nil)

	return &Result{Tree: tree, Files: files, Handles: handles}, nil
}

// WalkTree lists the files of an already built tree and records every node
// in handles under its Key. Existing entries in handles are kept.
func WalkTree(ctx context.Context, tree *Node, handles map[string]Handle, opts ...Option) []File {
	c := newConfig(opts)
	files := walkTree(ctx, tree, handles, &c)
	c.metrics.WalkFiles.Add(float64(len(files)))
	return files
}

func walkTree(ctx context.Context, tree *Node, handles map[string]Handle, c *config) []File {
	var files []File
	queue := []*Node{tree}

	for len(queue) > 0 {
		n := min(BatchSize, len(queue))
		batch := queue[:n]
		queue = queue[n:]

		parsed := make([]*File, len(batch))
		var g errgroup.Group
		for i, node := range batch {
			key := node.Key()
			if _, ok := handles[key]; !ok {
				handles[key] = node.Handle
			}

			fh, ok := node.Handle.(FileHandle)
			if !ok {
				queue = append(queue, node.Children...)
				continue
			}
			g.Go(func() error {
				parsed[i] = parseFile(ctx, node, fh, c)
				return nil
			})
		}
		_ = g.Wait()

		for _, f := range parsed {
			if f != nil {
				files = append(files, *f)
			}
		}
	}
	return files
}

func parseFile(ctx context.Context, node *Node, fh FileHandle, c *config) *File {
	now := c.now()
	base, ext := splitName(fh.Name())
	var dir string
	if len(node.Path) > 1 {
		dir = path.Join(node.Path[:len(node.Path)-1]...)
	}
	f := &File{
		Dir:          dir,
		Name:         base,
		Ext:          ext,
		ModifiedTime: now,
		Handle:       fh,
	}
	if c.addTime {
		f.AddTime = &now
	}

	info, err := fh.Stat(ctx)
	if err != nil || info == nil {
		c.metrics.WalkStatFailures.Inc()
		return f
	}
	f.Size = info.Size()
	if mod := info.ModTime(); !mod.IsZero() {
		f.ModifiedTime = mod
	}
	return f
}
