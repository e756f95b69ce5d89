package webfs

import (
	"context"
	"maps"
	"sync/atomic"

	"github.com/vango-dev/sugar/pkg/signal"
	"github.com/vango-dev/sugar/pkg/vango"
)

// Picker asks for a root directory, for example by prompting the user.
type Picker func(ctx context.Context) (DirectoryHandle, error)

// Explorer keeps the result of the last walk in reactive values.
//
// Root and Files are signals. Handles accumulates every handle seen across
// walks; a path keeps the first handle recorded for it.
type Explorer struct {
	Root    *signal.Object[DirectoryHandle]
	Files   *signal.Object[[]File]
	Handles *vango.MapSignal[string, Handle]

	opts []Option
	tree atomic.Pointer[Node]
}

// NewExplorer creates an Explorer. opts are the defaults for every
// FetchTree.
func NewExplorer(opts ...Option) *Explorer {
	return &Explorer{
		Root:    signal.Empty[DirectoryHandle](),
		Files:   signal.Empty[[]File](),
		Handles: vango.NewMapSignal[string, Handle](nil),
		opts:    opts,
	}
}

// Tree returns the tree built by the last FetchTree, or nil.
func (e *Explorer) Tree() *Node {
	return e.tree.Load()
}

// FetchTree walks root and publishes the result. A nil root reuses the
// current Root, or asks the picker when there is none. opts are applied
// after the Explorer's defaults. It returns the walked root.
func (e *Explorer) FetchTree(ctx context.Context, root Handle, opts ...Option) (DirectoryHandle, error) {
	all := append(e.opts[:len(e.opts):len(e.opts)], opts...)
	c := newConfig(all)

	var dir DirectoryHandle
	switch {
	case root != nil:
		d, ok := asDir(root)
		if !ok {
			return nil, ErrUnsupported
		}
		dir = d
	case e.Root.Peek() != nil:
		dir = e.Root.Peek()
	case c.picker != nil:
		d, err := c.picker(ctx)
		if err != nil {
			return nil, err
		}
		if _, ok := asDir(d); !ok {
			return nil, ErrUnsupported
		}
		dir = d
	default:
		return nil, ErrUnsupported
	}
	e.Root.Set(dir)

	res, err := Walk(ctx, dir, all...)
	if err != nil {
		return dir, err
	}
	e.tree.Store(res.Tree)

	vango.Batch(func() {
		e.Handles.Update(func(m map[string]Handle) map[string]Handle {
			next := maps.Clone(m)
			if next == nil {
				next = make(map[string]Handle, len(res.Handles))
			}
			for key, h := range res.Handles {
				if _, ok := next[key]; !ok {
					next[key] = h
				}
			}
			return next
		})
		e.Files.Set(res.Files)
	})
	return dir, nil
}
