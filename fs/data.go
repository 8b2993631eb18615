package fs

import "github.com/amigados/goados/block"

// OFS data blocks carry a small header (type, owning FileHeader ref,
// sequence number, byte count, next-block ref, checksum) before their
// payload; FFS data blocks have no header at all, trading the 24-byte
// overhead for simplicity and relying on the FileHeader's byte count
// and ref-table order alone.

// FileHeaderRef reads the owning FileHeader's block number (word 1),
// DataOFS only.
func FileHeaderRef(kind block.Kind, b []byte) uint32 {
	if kind != block.DataOFS {
		return 0
	}
	return getWord(b, 1)
}

func SetFileHeaderRef(kind block.Kind, b []byte, v uint32) {
	if kind != block.DataOFS {
		return
	}
	setWord(b, 1, v)
}

// SeqNum reads the 1-based position of this block within the file's
// data-block chain (word 2), DataOFS only.
func SeqNum(kind block.Kind, b []byte) uint32 {
	if kind != block.DataOFS {
		return 0
	}
	return getWord(b, 2)
}

func SetSeqNum(kind block.Kind, b []byte, v uint32) {
	if kind != block.DataOFS {
		return
	}
	setWord(b, 2, v)
}

// DataByteCount reads the number of payload bytes actually used in this
// block (word 3), DataOFS only. FFS blocks have no such field; callers
// must track byte counts via the FileHeader's ByteSize instead.
func DataByteCount(kind block.Kind, b []byte) uint32 {
	if kind != block.DataOFS {
		return 0
	}
	return getWord(b, 3)
}

func SetDataByteCount(kind block.Kind, b []byte, v uint32) {
	if kind != block.DataOFS {
		return
	}
	setWord(b, 3, v)
}

// NextDataBlock reads the chain pointer to the next data block (word
// 4), DataOFS only. FFS files have no chain; their block order is
// defined entirely by the FileHeader/FileList ref table.
func NextDataBlock(kind block.Kind, b []byte) uint32 {
	if kind != block.DataOFS {
		return 0
	}
	return getWord(b, 4)
}

func SetNextDataBlock(kind block.Kind, b []byte, v uint32) {
	if kind != block.DataOFS {
		return
	}
	setWord(b, 4, v)
}

// Payload returns the slice of b holding file content: bytes 24..bsize
// for DataOFS (after the 6-word header), the whole block for DataFFS.
func Payload(kind block.Kind, b []byte) []byte {
	switch kind {
	case block.DataOFS:
		return b[24:]
	case block.DataFFS:
		return b
	default:
		return nil
	}
}

// InitDataOFS zeroes b and writes the fixed OFS data-block header
// fields. seq is 1-based.
func InitDataOFS(b []byte, headerRef uint32, seq uint32) {
	for i := range b {
		b[i] = 0
	}
	setWordSigned(b, 0, typeDataOFS)
	SetFileHeaderRef(block.DataOFS, b, headerRef)
	SetSeqNum(block.DataOFS, b, seq)
}
