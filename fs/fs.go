package fs

import "github.com/amigados/goados/block"

// FileSystem ties Layout, the block cache, the free bitmap and the
// allocator into the single handle the node package builds path
// operations on top of.
type FileSystem struct {
	Layout    Layout
	Cache     *block.Cache
	Bitmap    *Bitmap
	Allocator *Allocator
}

// New opens an already-formatted volume: it wires a block.Cache over
// dev using layout's kind-inference and checksum policy, then loads
// the existing bitmap and allocator. Use Format to initialize a brand
// new, empty volume instead.
func New(dev block.Device, layout Layout) (*FileSystem, error) {
	fsys, err := newUnloaded(dev, layout)
	if err != nil {
		return nil, err
	}
	if err := fsys.Bitmap.Load(); err != nil {
		return nil, err
	}
	fsys.Allocator = NewAllocator(fsys.Bitmap, layout)
	return fsys, nil
}

// Doctor returns a Doctor bound to this file system's cache, layout and
// bitmap.
func (f *FileSystem) Doctor() *Doctor { return NewDoctor(f.Cache, f.Layout, f.Bitmap) }
