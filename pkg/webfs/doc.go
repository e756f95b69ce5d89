// Package webfs enumerates a directory handle into a flat file list and a
// path to handle map.
//
// Handles abstract the directory and file capabilities the walker needs, so
// any tree can be walked: an io/fs.FS through OpenFS, a local directory
// through OpenDir, or a remote listing behind a custom DirectoryHandle.
//
//	root, err := webfs.OpenDir("./src")
//	if err != nil {
//	    return err
//	}
//	res, err := webfs.Walk(ctx, root, webfs.Extensions("go"))
//	for _, f := range res.Files {
//	    fmt.Println(f.Path(), f.Size)
//	}
//
// Traversal is breadth first in batches of BatchSize concurrent handle
// reads. A file whose metadata cannot be read is still listed, with size 0
// and the walk time as its modification time.
package webfs
