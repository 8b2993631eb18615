package fs

import "github.com/amigados/goados/block"

const maxRefsPerFileHeaderBlock = 72 // (512/4)-56, the DD-floppy case; larger blocks hold more

// ByteSize reads the file's total size in bytes (word -47). Present on
// FileHeader only.
func ByteSize(kind block.Kind, b []byte) uint32 {
	if kind != block.FileHeader {
		return 0
	}
	return getWord(b, -47)
}

func SetByteSize(kind block.Kind, b []byte, v uint32) {
	if kind != block.FileHeader {
		return
	}
	setWord(b, -47, v)
}

// HighSeq reads word 2, the count of valid data-block references stored
// in this FileHeader or FileList block's ref table.
func HighSeq(kind block.Kind, b []byte) uint32 {
	if kind != block.FileHeader && kind != block.FileList {
		return 0
	}
	return getWord(b, 2)
}

func SetHighSeq(kind block.Kind, b []byte, v uint32) {
	if kind != block.FileHeader && kind != block.FileList {
		return
	}
	setWord(b, 2, v)
}

// FirstDataBlock reads word 4, a convenience copy of ref table slot 0
// kept for compatibility with tools that don't walk the table.
func FirstDataBlock(kind block.Kind, b []byte) uint32 {
	if kind != block.FileHeader {
		return 0
	}
	return getWord(b, 4)
}

func SetFirstDataBlock(kind block.Kind, b []byte, v uint32) {
	if kind != block.FileHeader {
		return
	}
	setWord(b, 4, v)
}

// DataBlockRef reads ref-table slot i (0-based; slot 0 holds the first
// data block covered by this block's table, later slots follow in file
// order) of a FileHeader or FileList block. refsPerBlock bounds i to the table's capacity for the
// volume's block size.
func DataBlockRef(kind block.Kind, b []byte, refsPerBlock, i int) uint32 {
	if (kind != block.FileHeader && kind != block.FileList) || i < 0 || i >= refsPerBlock {
		return 0
	}
	return getWord(b, refTableWord(i))
}

func SetDataBlockRef(kind block.Kind, b []byte, refsPerBlock, i int, v uint32) {
	if (kind != block.FileHeader && kind != block.FileList) || i < 0 || i >= refsPerBlock {
		return
	}
	setWord(b, refTableWord(i), v)
}

// InitFileHeader zeroes b and writes the fields that make it a valid,
// empty (zero-length) file: type/subtype words, self-ref, parent, name
// and creation date. Data block references and byte size are filled in
// as the file grows.
func InitFileHeader(b []byte, nr, parent uint32, name string, created Date) {
	for i := range b {
		b[i] = 0
	}
	setWordSigned(b, 0, typePrimary)
	setWordSigned(b, -1, subtypeFile)
	SetSelfRef(block.FileHeader, b, nr)
	SetParentDir(block.FileHeader, b, parent)
	SetName(block.FileHeader, b, name)
	SetCreationDate(block.FileHeader, b, created)
}
