package fs

import "encoding/binary"

// wordOffset centralizes the dual-indexing rule from spec.md §3.2/§9:
// a non-negative word index w counts from the start of the block, a
// negative index counts from the end (-1 is the last word). Every field
// accessor in this package goes through getWord/setWord so the
// conversion is defined in exactly one place.
func wordOffset(bsize, w int) int {
	if w >= 0 {
		return w * 4
	}
	return bsize + w*4
}

func getWord(b []byte, w int) uint32 {
	off := wordOffset(len(b), w)
	if off < 0 || off+4 > len(b) {
		return 0
	}
	return binary.BigEndian.Uint32(b[off : off+4])
}

func getWordSigned(b []byte, w int) int32 { return int32(getWord(b, w)) }

func setWord(b []byte, w int, v uint32) {
	off := wordOffset(len(b), w)
	if off < 0 || off+4 > len(b) {
		return
	}
	binary.BigEndian.PutUint32(b[off:off+4], v)
}

func setWordSigned(b []byte, w int, v int32) { setWord(b, w, uint32(v)) }

// refTableWord returns the word index of data-block reference slot i of
// a FileHeader/FileList block. Per §3.2 the table is
// read from the top, in reverse order, starting at word -51 (which
// holds ref index 0) down through word 6.
func refTableWord(i int) int { return -51 - i }

// hashSlotWord returns the word index of hash bucket i, starting at
// word 6 and counting up. For a 512-byte block (hashTableSize 72) this
// spans words 6..77; word 78 (word -50) immediately follows and holds
// the bitmap-validity flag, confirming the table's extent.
func hashSlotWord(i int) int { return 6 + i }
