package webfs

import (
	"context"
	"fmt"
	"path"

	"golang.org/x/sync/errgroup"
)

// Node is a handle in a built tree. Path holds the segments from the root,
// excluding the root's own name; the root's Path is empty.
type Node struct {
	Path     []string
	Handle   Handle
	Children []*Node
}

// Key returns the slash-separated path of n relative to the root, or "."
// for the root.
func (n *Node) Key() string {
	if len(n.Path) == 0 {
		return "."
	}
	return path.Join(n.Path...)
}

// BuildTree reads every directory under root. Files that do not pass the
// filters are left out; directories are kept even when they end up empty,
// unless SkipDirs names them.
// A directory that cannot be read fails the build once its batch has
// finished.
func BuildTree(ctx context.Context, root Handle, opts ...Option) (*Node, error) {
	dir, ok := asDir(root)
	if !ok {
		return nil, ErrUnsupported
	}
	c := newConfig(opts)
	return buildTree(ctx, dir, &c)
}

func buildTree(ctx context.Context, root DirectoryHandle, c *config) (*Node, error) {
	tree := &Node{Handle: root}
	queue := []*Node{tree}

	for len(queue) > 0 {
		n := min(BatchSize, len(queue))
		batch := queue[:n]
		queue = queue[n:]

		var g errgroup.Group
		for _, node := range batch {
			dir, ok := node.Handle.(DirectoryHandle)
			if !ok {
				continue
			}
			g.Go(func() error {
				entries, err := dir.Entries(ctx)
				if err != nil {
					return fmt.Errorf("webfs: read %s: %w", node.Key(), err)
				}
				for _, e := range entries {
					if !c.keep(e) {
						continue
					}
					node.Children = append(node.Children, &Node{
						Path:   append(append([]string(nil), node.Path...), e.Name()),
						Handle: e,
					})
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		for _, node := range batch {
			queue = append(queue, node.Children...)
		}
	}
	return tree, nil
}
