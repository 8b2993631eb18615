package fs

import "github.com/amigados/goados/block"

// Format initializes a brand new, empty volume on dev: the boot block
// pair, an empty Root directory, and a fully-free bitmap covering every
// block outside the reserved/root/bitmap blocks themselves (which are
// marked allocated). Returns the FileSystem ready for use.
func Format(dev block.Device, layout Layout, volumeName string, created Date) (*FileSystem, error) {
	fsys, err := newUnloaded(dev, layout)
	if err != nil {
		return nil, err
	}

	boot0, err := fsys.Cache.Modify(0)
	if err != nil {
		return nil, err
	}
	for i := range boot0.Bytes {
		boot0.Bytes[i] = 0
	}
	boot0.Bytes[0] = 'D'
	boot0.Bytes[1] = 'O'
	boot0.Bytes[2] = 'S'
	boot0.Bytes[3] = layout.Dos.FlavorByte()
	fsys.Cache.RecomputeKind(0)

	for nr := uint32(1); nr < layout.Reserved; nr++ {
		blk, err := fsys.Cache.Modify(nr)
		if err != nil {
			return nil, err
		}
		for i := range blk.Bytes {
			blk.Bytes[i] = 0
		}
	}

	rootBlk, err := fsys.Cache.Modify(layout.RootNr)
	if err != nil {
		return nil, err
	}
	for i := range rootBlk.Bytes {
		rootBlk.Bytes[i] = 0
	}
	setWordSigned(rootBlk.Bytes, 0, typePrimary)
	setWordSigned(rootBlk.Bytes, -1, subtypeRoot)
	setWord(rootBlk.Bytes, 3, uint32(layout.HashTableSize()))
	SetName(block.Root, rootBlk.Bytes, volumeName)
	SetCreationDate(block.Root, rootBlk.Bytes, created)
	SetVolumeAlterationDate(block.Root, rootBlk.Bytes, created)
	SetBitmapValid(block.Root, rootBlk.Bytes, true)
	for i, nr := range layout.BmBlocks {
		if i >= maxRootBitmapRefs {
			break
		}
		SetBitmapBlockRef(block.Root, rootBlk.Bytes, i, nr)
	}
	if len(layout.BmExtBlocks) > 0 {
		SetBitmapExtBlockRef(block.Root, rootBlk.Bytes, layout.BmExtBlocks[0])
	}
	fsys.Cache.RecomputeKind(layout.RootNr)

	for _, nr := range layout.BmBlocks {
		blk, err := fsys.Cache.Modify(nr)
		if err != nil {
			return nil, err
		}
		for i := range blk.Bytes {
			blk.Bytes[i] = 0xFF
		}
	}
	for i, nr := range layout.BmExtBlocks {
		blk, err := fsys.Cache.Modify(nr)
		if err != nil {
			return nil, err
		}
		for j := range blk.Bytes {
			blk.Bytes[j] = 0
		}
		n := len(blk.Bytes)/4 - 1
		overflow := layout.BmBlocks[maxRootBitmapRefs:]
		for j := 0; j < n && j < len(overflow); j++ {
			setWord(blk.Bytes, j, overflow[j])
		}
		if i+1 < len(layout.BmExtBlocks) {
			setWord(blk.Bytes, n, layout.BmExtBlocks[i+1])
		}
	}

	if err := fsys.Bitmap.Load(); err != nil {
		return nil, err
	}
	if err := fsys.Bitmap.MarkAllocated(layout.RootNr); err != nil {
		return nil, err
	}
	for _, nr := range layout.BmBlocks {
		if err := fsys.Bitmap.MarkAllocated(nr); err != nil {
			return nil, err
		}
	}
	for _, nr := range layout.BmExtBlocks {
		if err := fsys.Bitmap.MarkAllocated(nr); err != nil {
			return nil, err
		}
	}

	fsys.Allocator = NewAllocator(fsys.Bitmap, layout)

	if err := fsys.Cache.FlushAll(); err != nil {
		return nil, err
	}
	return fsys, nil
}

// newUnloaded wires a cache the same way New does, but skips loading the
// bitmap (which doesn't exist yet on an unformatted device).
func newUnloaded(dev block.Device, layout Layout) (*FileSystem, error) {
	var cache *block.Cache
	kindFn := KindFunc(layout)
	checksumFn := func(nr uint32, b []byte) {
		kind := kindFn(nr, b)
		if kind == block.Boot && nr == 0 {
			var b1 []byte
			if blk1, err := cache.Fetch(1); err == nil {
				b1 = blk1.Bytes
			}
			UpdateChecksum(kind, nr, b, b1)
			return
		}
		UpdateChecksum(kind, nr, b, nil)
	}
	cache = block.NewCache(dev, kindFn, checksumFn)
	bm := NewBitmap(cache, layout)
	return &FileSystem{Layout: layout, Cache: cache, Bitmap: bm}, nil
}
