// Package fs implements the L2 layer of the stack: block interpretation
// (typed field access, checksums, hash/list walkers), the free-bitmap
// allocator, and the structural doctor, all over an *block.Cache.
package fs

// DOSType is the on-disk volume flavor, stored as a single byte at
// offset 3 of boot block 0 (§3.2).
type DOSType int

const (
	NODOS DOSType = iota - 1
	OFS
	FFS
	OFSIntl
	FFSIntl
	OFSIntlDircache
	FFSIntlDircache
)

func (d DOSType) String() string {
	switch d {
	case OFS:
		return "OFS"
	case FFS:
		return "FFS"
	case OFSIntl:
		return "OFS_INTL"
	case FFSIntl:
		return "FFS_INTL"
	case OFSIntlDircache:
		return "OFS_INTL_DIRCACHE"
	case FFSIntlDircache:
		return "FFS_INTL_DIRCACHE"
	default:
		return "NODOS"
	}
}

// IsFFS reports whether data blocks of this flavor carry no OFS header.
func (d DOSType) IsFFS() bool {
	return d == FFS || d == FFSIntl || d == FFSIntlDircache
}

// IsOFS reports whether data blocks of this flavor carry a 24-byte OFS
// header (chain number, byte count, next-data ref, checksum).
func (d DOSType) IsOFS() bool {
	return d == OFS || d == OFSIntl || d == OFSIntlDircache
}

// IsIntl reports whether name comparison/hashing uses the extended
// (high-ASCII) uppercasing rule.
func (d DOSType) IsIntl() bool {
	return d == OFSIntl || d == FFSIntl || d == OFSIntlDircache || d == FFSIntlDircache
}

// IsDircache reports the directory-cache variant bit. Dircache changes
// nothing about hashing or block layout at the level this package
// models; it only affects whether the original file system additionally
// maintains a redundant directory-entry cache, which is out of scope
// (§1 Non-goals: no caching policy beyond lazy materialization).
func (d DOSType) IsDircache() bool {
	return d == OFSIntlDircache || d == FFSIntlDircache
}

// FlavorByte is the value stored at byte 3 of boot block 0.
func (d DOSType) FlavorByte() byte {
	switch d {
	case OFS:
		return 0
	case FFS:
		return 1
	case OFSIntl:
		return 2
	case FFSIntl:
		return 3
	case OFSIntlDircache:
		return 4
	case FFSIntlDircache:
		return 5
	default:
		return 0xFF
	}
}

// DOSTypeFromFlavorByte decodes byte 3 of boot block 0, or an error if
// the value names no known flavor.
func DOSTypeFromFlavorByte(b byte) (DOSType, error) {
	switch b {
	case 0:
		return OFS, nil
	case 1:
		return FFS, nil
	case 2:
		return OFSIntl, nil
	case 3:
		return FFSIntl, nil
	case 4:
		return OFSIntlDircache, nil
	case 5:
		return FFSIntlDircache, nil
	default:
		return NODOS, &Error{Code: WrongDOSType}
	}
}

// Layout is the fixed, never-mutated volume geometry (§3.3): block
// count, block size, flavor, and the positions of the structural
// blocks. The free bitmap's own contents are not part of Layout; they
// live in the Bitmap/BitmapExt blocks themselves (§4.4).
type Layout struct {
	Capacity    uint32
	BSize       uint32
	Dos         DOSType
	RootNr      uint32
	BmBlocks    []uint32
	BmExtBlocks []uint32
	Reserved    uint32 // number of leading boot blocks, normally 2
}

// HashTableSize is the number of hash buckets embedded in Root/UserDir
// blocks, and also the per-block data-ref table size (both are
// bsize/4 - 56; 72 for 512-byte blocks).
func (l Layout) HashTableSize() int { return int(l.BSize)/4 - 56 }

// RefsPerBlock is the number of data-block references a FileHeader or
// FileList block can hold.
func (l Layout) RefsPerBlock() int { return l.HashTableSize() }

// DataSize is the usable payload size of a data block: bsize for FFS,
// bsize-24 for OFS (24-byte in-block header).
func (l Layout) DataSize() int {
	if l.Dos.IsOFS() {
		return int(l.BSize) - 24
	}
	return int(l.BSize)
}

func (l Layout) isBitmapBlock(nr uint32) bool {
	for _, b := range l.BmBlocks {
		if b == nr {
			return true
		}
	}
	return false
}

func (l Layout) isBitmapExtBlock(nr uint32) bool {
	for _, b := range l.BmExtBlocks {
		if b == nr {
			return true
		}
	}
	return false
}

// NewDDFloppyLayout returns the boundary-scenario-1 layout (§8.3#1): a
// 3.5" DD floppy, 1760 512-byte blocks, root at 880, a single bitmap
// block at 881.
func NewDDFloppyLayout(dos DOSType) Layout {
	return Layout{
		Capacity: 1760,
		BSize:    512,
		Dos:      dos,
		RootNr:   880,
		BmBlocks: []uint32{881},
		Reserved: 2,
	}
}

// NewLayout computes a root-in-the-middle layout for an arbitrary
// capacity, mirroring how AmigaDOS centers the root block and allocates
// bitmap blocks immediately afterward.
func NewLayout(dos DOSType, capacity, bsize uint32) Layout {
	root := capacity / 2
	bitsPerBlock := uint32((bsize-4)*8)
	nBitmap := (capacity - 2 + bitsPerBlock - 1) / bitsPerBlock
	if nBitmap == 0 {
		nBitmap = 1
	}
	l := Layout{Capacity: capacity, BSize: bsize, Dos: dos, RootNr: root, Reserved: 2}
	const maxInRoot = 25
	nr := root + 1
	direct := nBitmap
	if direct > maxInRoot {
		direct = maxInRoot
	}
	for i := uint32(0); i < direct; i++ {
		l.BmBlocks = append(l.BmBlocks, nr)
		nr++
	}
	// Overflow needs at least one bitmap-extension block: a block of
	// pointers to further Bitmap blocks, chained from the Root (§4.4).
	// The extension block itself carries no allocation bits, so its
	// number is tracked separately in BmExtBlocks, not BmBlocks.
	if nBitmap > maxInRoot {
		l.BmExtBlocks = append(l.BmExtBlocks, nr)
		nr++
		for i := maxInRoot; i < nBitmap; i++ {
			l.BmBlocks = append(l.BmBlocks, nr)
			nr++
		}
	}
	return l
}
