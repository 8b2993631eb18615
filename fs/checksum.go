package fs

import "github.com/amigados/goados/block"

// checksumLocation returns the word index of the checksum field for
// kind, or false if the kind carries no checksum (§4.3.3).
func checksumLocation(kind block.Kind, nr uint32) (int, bool) {
	switch kind {
	case block.Boot:
		if nr == 0 {
			return 1, true
		}
		return 0, false
	case block.Bitmap:
		return 0, true
	case block.Root, block.UserDir, block.FileHeader, block.FileList, block.DataOFS:
		return 5, true
	default:
		return 0, false
	}
}

// addOnesComplement adds v to sum using end-around-carry ones'
// complement arithmetic, as AmigaDOS's boot-block checksum does.
func addOnesComplement(sum, v uint32) uint32 {
	prev := sum
	sum += v
	if sum < prev {
		sum++
	}
	return sum
}

// standardChecksum computes the two's-complement word-sum checksum
// (§4.3.3) used by Root/UserDir/FileHeader/FileList/DataOFS/Bitmap: sum
// every word of the block as if the checksum word were zero, then
// negate.
func standardChecksum(b []byte, pos int) uint32 {
	old := getWord(b, pos)
	setWord(b, pos, 0)
	var sum uint32
	for i := 0; i < len(b)/4; i++ {
		sum += getWord(b, i)
	}
	setWord(b, pos, old)
	return ^sum + 1
}

// bootChecksum computes the ones'-complement checksum spanning both
// boot blocks (§4.3.3), written at word 1 of block 0. b0/b1 must each be
// exactly one block long; the checksum word (word 1 of b0) is skipped
// during summation regardless of its current value.
func bootChecksum(b0, b1 []byte) uint32 {
	n := len(b0) / 4
	result := getWord(b0, 0)
	for i := 2; i < n; i++ {
		result = addOnesComplement(result, getWord(b0, i))
	}
	for i := 0; i < n; i++ {
		result = addOnesComplement(result, getWord(b1, i))
	}
	return ^result
}

// UpdateChecksum recomputes and writes the checksum field of a single
// block, given its inferred kind. For boot block 0 this additionally
// needs block 1's current bytes, supplied by b1 (nil treated as all
// zero, as it would read on an unformatted volume).
func UpdateChecksum(kind block.Kind, nr uint32, b []byte, b1 []byte) {
	pos, ok := checksumLocation(kind, nr)
	if !ok {
		return
	}
	if kind == block.Boot && nr == 0 {
		if b1 == nil {
			b1 = make([]byte, len(b))
		}
		setWord(b, 1, bootChecksum(b, b1))
		return
	}
	setWord(b, pos, standardChecksum(b, pos))
}
