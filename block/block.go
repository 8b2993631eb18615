// Package block implements the L0/L1 layers of the file system stack: a
// byte-addressable block device contract and a sparse, lazily populated
// cache of typed blocks on top of it.
package block

import (
	"golang.org/x/xerrors"
)

// Kind tags the inferred variant of a block's contents. Kind is never
// stored on disk as a single field; it is recomputed from a block's
// position and leading/trailing words every time the block is
// materialized (see the KindFunc passed to NewCache).
type Kind int

const (
	Unknown Kind = iota
	Empty
	Boot
	Root
	Bitmap
	BitmapExt
	UserDir
	FileHeader
	FileList
	DataOFS
	DataFFS
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "Empty"
	case Boot:
		return "Boot"
	case Root:
		return "Root"
	case Bitmap:
		return "Bitmap"
	case BitmapExt:
		return "BitmapExt"
	case UserDir:
		return "UserDir"
	case FileHeader:
		return "FileHeader"
	case FileList:
		return "FileList"
	case DataOFS:
		return "DataOFS"
	case DataFFS:
		return "DataFFS"
	default:
		return "Unknown"
	}
}

// Priority orders kinds for the visualization maps (§6.5): higher wins
// when multiple blocks are bucketed together.
func (k Kind) Priority() int {
	switch k {
	case Root:
		return 9
	case Boot:
		return 8
	case Bitmap:
		return 7
	case BitmapExt:
		return 6
	case UserDir:
		return 5
	case FileHeader:
		return 3
	case FileList, DataOFS, DataFFS:
		return 2
	case Empty:
		return 1
	default:
		return 0
	}
}

// Block is a single addressable unit of a volume. Nr identifies its
// position; Bytes is the owned, materialized buffer (always exactly
// Bsize long once materialized). Kind is inferred, see Kind.
type Block struct {
	Nr    uint32
	Bytes []byte
	Kind  Kind
}

// Error is the block-device/cache error taxonomy, a small slice of the
// full §6.6 taxonomy that this package can raise on its own.
type Error struct {
	Code string
	Nr   uint32
}

func (e *Error) Error() string {
	return xerrors.Errorf("block %d: %s", e.Nr, e.Code).Error()
}

func outOfRange(nr uint32) error { return &Error{Code: "OutOfRange", Nr: nr} }

// Device is the L0 contract: raw, fixed-size block I/O. Implementations
// must treat reads and writes as whole-block, idempotent operations; no
// partial reads or internal caching is permitted (caching is layer L1's
// job, see Cache).
type Device interface {
	Capacity() uint32
	BlockSize() uint32
	ReadBlock(nr uint32, dst []byte) error
	WriteBlock(nr uint32, src []byte) error
}
