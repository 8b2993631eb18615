package fs

import "github.com/amigados/goados/block"

// Bitmap tracks free/allocated state for every block past the reserved
// boot area, backed by the volume's Bitmap and BitmapExt blocks. One bit
// per block; a set bit means free (AmigaDOS convention). Bit
// addressing within a longword is byte-swapped (see bitByte below),
// grounded on original_source/Core/FileSystems/FileSystem.cpp's
// locateAllocationBit.
type Bitmap struct {
	cache     *block.Cache
	layout    Layout
	blockNrs  []uint32 // flattened, in bit order: BmBlocks then any chained via BmExtBlocks
	freeCount int
	loaded    bool
}

// NewBitmap constructs a Bitmap view over cache using layout's bitmap
// block list. It does not itself read any blocks; call Load first.
func NewBitmap(cache *block.Cache, layout Layout) *Bitmap {
	return &Bitmap{cache: cache, layout: layout}
}

func (bm *Bitmap) bitsPerBlock() int { return (int(bm.layout.BSize) - 4) * 8 }

// bitPosition maps an absolute block number to (bitmap block index
// within bm.blockNrs, bit index within that block), or ok=false if nr
// is outside the tracked range (e.g. a reserved boot block).
func (bm *Bitmap) bitPosition(nr uint32) (blockIdx, bitIdx int, ok bool) {
	if nr < bm.layout.Reserved {
		return 0, 0, false
	}
	rel := int(nr - bm.layout.Reserved)
	bpb := bm.bitsPerBlock()
	blockIdx = rel / bpb
	bitIdx = rel % bpb
	if blockIdx >= len(bm.blockNrs) {
		return 0, 0, false
	}
	return blockIdx, bitIdx, true
}

// bitByte returns the byte offset (past the 4-byte checksum) and bit
// mask for bitIdx within a bitmap block. AmigaDOS stores the bits of
// each 32-bit longword byte-swapped: byte index b within the longword
// is stored at b^3, equivalent to the original's four-way switch
// (+3/+1/-1/-3 depending on b mod 4).
func bitByte(bitIdx int) (off int, mask byte) {
	longword := bitIdx / 32
	bitInLongword := bitIdx % 32
	byteInLongword := bitInLongword / 8
	swapped := byteInLongword ^ 0b11
	off = 4 + longword*4 + swapped
	mask = 1 << uint(bitInLongword%8)
	return off, mask
}

// Load takes the bitmap block list from the layout's BmBlocks, reads
// every one of those blocks and recomputes freeCount. Call it again
// whenever the underlying blocks may have changed out from under this
// view.
func (bm *Bitmap) Load() error {
	bm.blockNrs = append([]uint32(nil), bm.layout.BmBlocks...)
	bm.freeCount = 0
	for _, nr := range bm.blockNrs {
		blk, err := bm.cache.FetchTyped(nr, block.Bitmap)
		if err != nil {
			return wrapErr(Io, "load bitmap block", err)
		}
		if blk == nil {
			return newErr(WrongBlockType, "bitmap block list entry has the wrong kind")
		}
	}
	bpb := bm.bitsPerBlock()
	for idx, nr := range bm.blockNrs {
		blk, _ := bm.cache.FetchTyped(nr, block.Bitmap)
		limit := bpb
		if idx == len(bm.blockNrs)-1 {
			maxBit := int(bm.layout.Capacity) - int(bm.layout.Reserved) - idx*bpb
			if maxBit < limit {
				limit = maxBit
			}
		}
		for i := 0; i < limit; i++ {
			off, mask := bitByte(i)
			if off+1 > len(blk.Bytes) {
				continue
			}
			if blk.Bytes[off]&mask != 0 {
				bm.freeCount++
			}
		}
	}
	bm.loaded = true
	return nil
}

// IsFree reports whether block nr is marked free. Blocks outside the
// tracked range (reserved boot blocks, or nr >= capacity) are never
// free.
func (bm *Bitmap) IsFree(nr uint32) bool {
	blockIdx, bitIdx, ok := bm.bitPosition(nr)
	if !ok {
		return false
	}
	blk, err := bm.cache.FetchTyped(bm.blockNrs[blockIdx], block.Bitmap)
	if err != nil || blk == nil {
		return false
	}
	off, mask := bitByte(bitIdx)
	if off+1 > len(blk.Bytes) {
		return false
	}
	return blk.Bytes[off]&mask != 0
}

func (bm *Bitmap) IsAllocated(nr uint32) bool {
	_, _, ok := bm.bitPosition(nr)
	return ok && !bm.IsFree(nr)
}

// setBit marks nr free or allocated, maintaining freeCount.
func (bm *Bitmap) setBit(nr uint32, free bool) error {
	blockIdx, bitIdx, ok := bm.bitPosition(nr)
	if !ok {
		return newErr(OutOfRange, "block number is outside the tracked bitmap range")
	}
	blk, err := bm.cache.Modify(bm.blockNrs[blockIdx])
	if err != nil {
		return wrapErr(Io, "modify bitmap block", err)
	}
	off, mask := bitByte(bitIdx)
	if off+1 > len(blk.Bytes) {
		return newErr(OutOfRange, "bit offset outside block")
	}
	wasFree := blk.Bytes[off]&mask != 0
	if free {
		blk.Bytes[off] |= mask
	} else {
		blk.Bytes[off] &^= mask
	}
	if free && !wasFree {
		bm.freeCount++
	} else if !free && wasFree {
		bm.freeCount--
	}
	return nil
}

// MarkAllocated clears nr's free bit.
func (bm *Bitmap) MarkAllocated(nr uint32) error { return bm.setBit(nr, false) }

// MarkFree sets nr's free bit.
func (bm *Bitmap) MarkFree(nr uint32) error { return bm.setBit(nr, true) }

// FreeCount returns the number of blocks currently marked free,
// maintained incrementally since Load rather than rescanned on every
// call (grounded on original_source's FSAllocator bookkeeping).
func (bm *Bitmap) FreeCount() int { return bm.freeCount }

// Allocatable reports whether the volume's bitmap has been loaded and
// is ready to serve allocation requests.
func (bm *Bitmap) Allocatable() bool { return bm.loaded }

// UsageMap divides the tracked block range into len(dst) equal buckets
// and fills each entry with the fraction of allocated blocks in that
// bucket, scaled to 0-255. A zero-length dst is a no-op.
func (bm *Bitmap) UsageMap(dst []byte) {
	n := len(dst)
	if n == 0 {
		return
	}
	total := int(bm.layout.Capacity) - int(bm.layout.Reserved)
	if total <= 0 {
		return
	}
	for i := 0; i < n; i++ {
		lo := i * total / n
		hi := (i + 1) * total / n
		if hi <= lo {
			dst[i] = 0
			continue
		}
		used := 0
		for rel := lo; rel < hi; rel++ {
			nr := bm.layout.Reserved + uint32(rel)
			if bm.IsAllocated(nr) {
				used++
			}
		}
		dst[i] = byte(used * 255 / (hi - lo))
	}
}
