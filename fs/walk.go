package fs

import "github.com/amigados/goados/block"

// The walkers in this file implement §4.4's traversal primitives: hash
// chains (directory lookup), file-list chains (a file's ref tables
// spilling across FileList blocks), OFS data chains (the legacy
// block-to-block pointer chain), and bitmap-extension chains. Every
// walker tracks visited block numbers and raises HasCycles the moment a
// number repeats, rather than looping forever on a corrupted volume.

// WalkHashChain follows a NextHash chain starting at startNr (typically
// a Root/UserDir hash-table slot), calling visit for every block in the
// chain. Traversal stops when visit returns false, the chain reaches
// block 0, or a cycle is detected.
func WalkHashChain(cache *block.Cache, startNr uint32, visit func(nr uint32, kind block.Kind) bool) error {
	visited := map[uint32]bool{}
	nr := startNr
	for nr != 0 {
		if visited[nr] {
			return &Error{Code: HasCycles, Message: "hash chain revisits a block"}
		}
		visited[nr] = true

		blk, err := cache.Fetch(nr)
		if err != nil {
			return wrapErr(Io, "walk hash chain", err)
		}
		if !isHashable(blk.Kind) {
			return newErr(WrongBlockType, "hash chain entry is neither FileHeader nor UserDir")
		}
		if !visit(nr, blk.Kind) {
			return nil
		}
		nr = NextHash(blk.Kind, blk.Bytes)
	}
	return nil
}

// FindInDir resolves a single path component inside a directory block
// (Root or UserDir), returning the matched entry's block number and
// kind. Returns a NotFound *Error when no match exists.
func FindInDir(cache *block.Cache, layout Layout, dirNr uint32, name string) (uint32, block.Kind, error) {
	dirBlk, err := cache.Fetch(dirNr)
	if err != nil {
		return 0, block.Unknown, wrapErr(Io, "fetch directory block", err)
	}
	if dirBlk.Kind != block.Root && dirBlk.Kind != block.UserDir {
		return 0, block.Unknown, newErr(NotADirectory, "block is not a directory")
	}

	htSize := layout.HashTableSize()
	bucket := HashBucket(name, layout.Dos.IsIntl(), htSize)
	start := HashSlot(dirBlk.Kind, dirBlk.Bytes, htSize, bucket)

	var foundNr uint32
	var foundKind block.Kind
	err = WalkHashChain(cache, start, func(nr uint32, kind block.Kind) bool {
		entryBlk, ferr := cache.Fetch(nr)
		if ferr != nil {
			return true
		}
		if EqualFold(Name(kind, entryBlk.Bytes), name, layout.Dos.IsIntl()) {
			foundNr, foundKind = nr, kind
			return false
		}
		return true
	})
	if err != nil {
		return 0, block.Unknown, err
	}
	if foundNr == 0 {
		return 0, block.Unknown, newErr(NotFound, "no entry named "+name)
	}
	return foundNr, foundKind, nil
}

// FileListEntry is one block's contribution to a file's data-block-ref
// table, yielded by WalkFileListChain.
type FileListEntry struct {
	Nr   uint32
	Kind block.Kind
	Refs []uint32
}

// WalkFileListChain follows the FileHeader -> FileList -> FileList...
// chain, yielding each block's populated ref-table slots (0..HighSeq).
// Traversal stops when visit returns false.
func WalkFileListChain(cache *block.Cache, layout Layout, headerNr uint32, visit func(FileListEntry) bool) error {
	visited := map[uint32]bool{}
	nr := headerNr
	refsPerBlock := layout.RefsPerBlock()

	for nr != 0 {
		if visited[nr] {
			return &Error{Code: HasCycles, Message: "file-list chain revisits a block"}
		}
		visited[nr] = true

		blk, err := cache.Fetch(nr)
		if err != nil {
			return wrapErr(Io, "walk file-list chain", err)
		}
		if blk.Kind != block.FileHeader && blk.Kind != block.FileList {
			return newErr(WrongBlockType, "file-list chain entry is neither FileHeader nor FileList")
		}

		n := int(HighSeq(blk.Kind, blk.Bytes))
		if n > refsPerBlock {
			n = refsPerBlock
		}
		refs := make([]uint32, n)
		for i := 0; i < n; i++ {
			refs[i] = DataBlockRef(blk.Kind, blk.Bytes, refsPerBlock, i)
		}

		if !visit(FileListEntry{Nr: nr, Kind: blk.Kind, Refs: refs}) {
			return nil
		}
		nr = NextList(blk.Kind, blk.Bytes)
	}
	return nil
}

// WalkDataChainOFS follows an OFS file's NextDataBlock pointer chain
// starting at its first data block, calling visit for each block
// number in order. Traversal stops when visit returns false.
func WalkDataChainOFS(cache *block.Cache, firstDataNr uint32, visit func(nr uint32) bool) error {
	visited := map[uint32]bool{}
	nr := firstDataNr
	for nr != 0 {
		if visited[nr] {
			return &Error{Code: HasCycles, Message: "OFS data chain revisits a block"}
		}
		visited[nr] = true

		blk, err := cache.FetchTyped(nr, block.DataOFS)
		if err != nil {
			return wrapErr(Io, "walk OFS data chain", err)
		}
		if blk == nil {
			return newErr(WrongBlockType, "OFS data chain entry is not a data block")
		}
		if !visit(nr) {
			return nil
		}
		nr = NextDataBlock(blk.Kind, blk.Bytes)
	}
	return nil
}

// CollectReachable walks the whole directory/file graph starting at
// rootNr and returns the set of block numbers it can reach: directory
// blocks, file header blocks, file-list continuation blocks, and data
// blocks. It is the traversal XRayBitmap compares against the
// allocation bitmap (§4.5.2), mirroring
// original_source/Core/Storage/FileSystems/FSWalker.cpp's
// getBlockUsage, which walks the tree once into a used-block set
// rather than re-walking per candidate block.
func CollectReachable(cache *block.Cache, layout Layout, rootNr uint32) (map[uint32]bool, error) {
	reachable := map[uint32]bool{}
	if err := collectDir(cache, layout, rootNr, reachable); err != nil {
		return nil, err
	}
	return reachable, nil
}

func collectDir(cache *block.Cache, layout Layout, dirNr uint32, reachable map[uint32]bool) error {
	if reachable[dirNr] {
		return nil
	}
	reachable[dirNr] = true

	dirBlk, err := cache.Fetch(dirNr)
	if err != nil {
		return wrapErr(Io, "fetch directory block", err)
	}
	htSize := layout.HashTableSize()
	for i := 0; i < htSize; i++ {
		start := HashSlot(dirBlk.Kind, dirBlk.Bytes, htSize, i)
		var inner error
		err := WalkHashChain(cache, start, func(entryNr uint32, kind block.Kind) bool {
			reachable[entryNr] = true
			switch kind {
			case block.UserDir:
				inner = collectDir(cache, layout, entryNr, reachable)
			case block.FileHeader:
				inner = collectFile(cache, layout, entryNr, reachable)
			}
			return inner == nil
		})
		if err != nil {
			return err
		}
		if inner != nil {
			return inner
		}
	}
	return nil
}

func collectFile(cache *block.Cache, layout Layout, headerNr uint32, reachable map[uint32]bool) error {
	return WalkFileListChain(cache, layout, headerNr, func(entry FileListEntry) bool {
		reachable[entry.Nr] = true
		for _, ref := range entry.Refs {
			if ref != 0 {
				reachable[ref] = true
			}
		}
		return true
	})
}

// BitmapExtEntry is one bitmap-extension block's contribution,
// yielded by WalkBitmapExtChain.
type BitmapExtEntry struct {
	Nr   uint32
	Ptrs []uint32
	Next uint32
}

// WalkBitmapExtChain follows the Root's bitmap-extension chain. Each
// extension block holds bitmap-block pointers in every word but the
// last, which points to the next extension block (0 if none).
func WalkBitmapExtChain(cache *block.Cache, firstExtNr uint32, visit func(BitmapExtEntry) bool) error {
	visited := map[uint32]bool{}
	nr := firstExtNr
	for nr != 0 {
		if visited[nr] {
			return &Error{Code: HasCycles, Message: "bitmap extension chain revisits a block"}
		}
		visited[nr] = true

		blk, err := cache.FetchTyped(nr, block.BitmapExt)
		if err != nil {
			return wrapErr(Io, "walk bitmap extension chain", err)
		}
		if blk == nil {
			return newErr(WrongBlockType, "bitmap extension chain entry has the wrong kind")
		}

		n := len(blk.Bytes)/4 - 1
		ptrs := make([]uint32, n)
		for i := 0; i < n; i++ {
			ptrs[i] = getWord(blk.Bytes, i)
		}
		next := getWord(blk.Bytes, n)

		if !visit(BitmapExtEntry{Nr: nr, Ptrs: ptrs, Next: next}) {
			return nil
		}
		nr = next
	}
	return nil
}
