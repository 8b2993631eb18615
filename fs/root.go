package fs

import "github.com/amigados/goados/block"

// Root-only fields occupy the region between the hash table and the
// shared name/date fields handled by common.go: the bitmap-validity
// flag, up to 25 bitmap block pointers, one bitmap-extension pointer,
// and the volume's last-alteration date.

const maxRootBitmapRefs = 25

// BitmapValid reports the Root block's bitmap-validity flag (word -50):
// 0xFFFFFFFF means the bitmap reflects the volume's true allocation
// state, any other value means it must be rebuilt before use.
func BitmapValid(kind block.Kind, b []byte) bool {
	if kind != block.Root {
		return false
	}
	return getWord(b, -50) == 0xFFFFFFFF
}

func SetBitmapValid(kind block.Kind, b []byte, valid bool) {
	if kind != block.Root {
		return
	}
	if valid {
		setWord(b, -50, 0xFFFFFFFF)
	} else {
		setWord(b, -50, 0)
	}
}

// BitmapBlockRef reads bitmap pointer slot i (0..24) of the Root block.
// 0 marks an unused slot.
func BitmapBlockRef(kind block.Kind, b []byte, i int) uint32 {
	if kind != block.Root || i < 0 || i >= maxRootBitmapRefs {
		return 0
	}
	return getWord(b, -49+i)
}

func SetBitmapBlockRef(kind block.Kind, b []byte, i int, v uint32) {
	if kind != block.Root || i < 0 || i >= maxRootBitmapRefs {
		return
	}
	setWord(b, -49+i, v)
}

// BitmapExtBlockRef reads the pointer to the first bitmap-extension
// block (word -24), 0 if none.
func BitmapExtBlockRef(kind block.Kind, b []byte) uint32 {
	if kind != block.Root {
		return 0
	}
	return getWord(b, -24)
}

func SetBitmapExtBlockRef(kind block.Kind, b []byte, v uint32) {
	if kind != block.Root {
		return
	}
	setWord(b, -24, v)
}

// VolumeAlterationDate reads the volume's last-modification date (words
// -23..-21), distinct from CreationDate (words -7..-5, the volume's
// creation date).
func VolumeAlterationDate(kind block.Kind, b []byte) Date {
	if kind != block.Root {
		return Date{}
	}
	return getDate(b, -23)
}

func SetVolumeAlterationDate(kind block.Kind, b []byte, d Date) {
	if kind != block.Root {
		return
	}
	setDate(b, -23, d)
}

// StoredHashTableSize reads word 3, the on-disk hash-table size. Used by
// the doctor to cross-check against the size the Layout expects.
func StoredHashTableSize(kind block.Kind, b []byte) uint32 {
	if kind != block.Root && kind != block.UserDir {
		return 0
	}
	return getWord(b, 3)
}

func SetStoredHashTableSize(kind block.Kind, b []byte, v uint32) {
	if kind != block.Root && kind != block.UserDir {
		return
	}
	setWord(b, 3, v)
}
