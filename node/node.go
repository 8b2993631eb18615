// Package node implements the L3 layer: path resolution, globbing, tree
// construction and the structural mutations (mkdir, link, rename, ...)
// built on top of the L2 block interpreter.
package node

import (
	"github.com/amigados/goados/block"
	"github.com/amigados/goados/fs"
)

// Node is a lightweight, immutable handle: a file system plus a block
// number. It carries no cached state of its own — every method
// re-fetches and re-validates the underlying block, so a Node stays
// safe to hold across mutations that might change or invalidate what it
// points to (per spec.md §5's single-threaded, no-back-pointer design).
type Node struct {
	FS *fs.FileSystem
	Nr uint32
}

// Root returns a Node for fsys's root directory.
func Root(fsys *fs.FileSystem) Node {
	return Node{FS: fsys, Nr: fsys.Layout.RootNr}
}

// block fetches and validates the underlying block, rejecting any kind
// that isn't a directory or file entry.
func (n Node) block() (*block.Block, error) {
	blk, err := n.FS.Cache.Fetch(n.Nr)
	if err != nil {
		return nil, err
	}
	switch blk.Kind {
	case block.Root, block.UserDir, block.FileHeader:
		return blk, nil
	default:
		return nil, &fs.Error{Code: fs.WrongBlockType, Message: "node does not refer to a directory or file entry"}
	}
}

// Kind returns the node's current block kind (Root, UserDir or
// FileHeader).
func (n Node) Kind() (block.Kind, error) {
	blk, err := n.block()
	if err != nil {
		return block.Unknown, err
	}
	return blk.Kind, nil
}

// IsDir reports whether n currently refers to Root or UserDir.
func (n Node) IsDir() bool {
	k, err := n.Kind()
	return err == nil && (k == block.Root || k == block.UserDir)
}

// IsFile reports whether n currently refers to a FileHeader.
func (n Node) IsFile() bool {
	k, err := n.Kind()
	return err == nil && k == block.FileHeader
}

// Name returns the node's stored name. Root's name is the volume name.
func (n Node) Name() (string, error) {
	blk, err := n.block()
	if err != nil {
		return "", err
	}
	return fs.Name(blk.Kind, blk.Bytes), nil
}

// Parent returns n's parent directory. The root's parent is itself.
func (n Node) Parent() (Node, error) {
	blk, err := n.block()
	if err != nil {
		return Node{}, err
	}
	if blk.Kind == block.Root {
		return n, nil
	}
	parentNr := fs.ParentDir(blk.Kind, blk.Bytes)
	return Node{FS: n.FS, Nr: parentNr}, nil
}

// Size returns a file's byte size. 0 for directories.
func (n Node) Size() (uint32, error) {
	blk, err := n.block()
	if err != nil {
		return 0, err
	}
	return fs.ByteSize(blk.Kind, blk.Bytes), nil
}

// Protection returns the node's native AmigaDOS protection-bits word.
func (n Node) Protection() (uint32, error) {
	blk, err := n.block()
	if err != nil {
		return 0, err
	}
	return fs.Protection(blk.Kind, blk.Bytes), nil
}

// Equal reports whether two nodes refer to the same block of the same
// file system.
func (n Node) Equal(o Node) bool {
	return n.FS == o.FS && n.Nr == o.Nr
}
