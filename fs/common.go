package fs

import "github.com/amigados/goados/block"

// Hashable kinds are the two kinds a hash bucket can point to.
func isHashable(kind block.Kind) bool {
	return kind == block.FileHeader || kind == block.UserDir
}

// HashSlot reads hash bucket i (0-based) of a Root or UserDir block.
// Total function: returns 0 for any other kind or out-of-range i.
func HashSlot(kind block.Kind, b []byte, hashTableSize, i int) uint32 {
	if (kind != block.Root && kind != block.UserDir) || i < 0 || i >= hashTableSize {
		return 0
	}
	return getWord(b, hashSlotWord(i))
}

// SetHashSlot writes hash bucket i. No-op for unsupported kinds.
func SetHashSlot(kind block.Kind, b []byte, hashTableSize, i int, v uint32) {
	if (kind != block.Root && kind != block.UserDir) || i < 0 || i >= hashTableSize {
		return
	}
	setWord(b, hashSlotWord(i), v)
}

// SelfRef reads the block's self-reference word. Root blocks store no
// such field on disk (word 1 is reserved and must be 0); callers needing Root's number should use the
// Layout's RootNr instead. This accessor returns 0 for Root, matching
// the "neutral value" contract for kinds where the operation is not
// meaningful.
func SelfRef(kind block.Kind, b []byte) uint32 {
	switch kind {
	case block.UserDir, block.FileHeader, block.FileList:
		return getWord(b, 1)
	default:
		return 0
	}
}

// SetSelfRef writes the self-reference word. No-op for unsupported kinds.
func SetSelfRef(kind block.Kind, b []byte, nr uint32) {
	switch kind {
	case block.UserDir, block.FileHeader, block.FileList:
		setWord(b, 1, nr)
	}
}

// NextHash reads the next-hash-chain pointer (UserDir word -4,
// FileHeader word -4). 0 (end of chain) for unsupported kinds.
func NextHash(kind block.Kind, b []byte) uint32 {
	switch kind {
	case block.UserDir, block.FileHeader:
		return getWord(b, -4)
	default:
		return 0
	}
}

func SetNextHash(kind block.Kind, b []byte, v uint32) {
	switch kind {
	case block.UserDir, block.FileHeader:
		setWord(b, -4, v)
	}
}

// ParentDir reads the parent-directory pointer (UserDir/FileHeader word
// -3).
func ParentDir(kind block.Kind, b []byte) uint32 {
	switch kind {
	case block.UserDir, block.FileHeader:
		return getWord(b, -3)
	default:
		return 0
	}
}

func SetParentDir(kind block.Kind, b []byte, v uint32) {
	switch kind {
	case block.UserDir, block.FileHeader:
		setWord(b, -3, v)
	}
}

// NextList reads the file-list continuation pointer (FileHeader/FileList
// word -2).
func NextList(kind block.Kind, b []byte) uint32 {
	switch kind {
	case block.FileHeader, block.FileList:
		return getWord(b, -2)
	default:
		return 0
	}
}

func SetNextList(kind block.Kind, b []byte, v uint32) {
	switch kind {
	case block.FileHeader, block.FileList:
		setWord(b, -2, v)
	}
}

// Name reads the BCPL name field, present on UserDir/FileHeader (words
// -20..-5, limit 30) and Root (words -20..-8, limit 30).
func Name(kind block.Kind, b []byte) string {
	switch kind {
	case block.Root, block.UserDir, block.FileHeader:
		off := wordOffset(len(b), -20)
		return readBCPL(b, off, 30)
	default:
		return ""
	}
}

func SetName(kind block.Kind, b []byte, name string) {
	switch kind {
	case block.Root, block.UserDir, block.FileHeader:
		off := wordOffset(len(b), -20)
		writeBCPL(b, off, 30, name)
	}
}

// CreationDate reads the creation-date triple, present on
// Root/UserDir/FileHeader at words -7..-5.
func CreationDate(kind block.Kind, b []byte) Date {
	switch kind {
	case block.Root, block.UserDir, block.FileHeader:
		return getDate(b, -7)
	default:
		return Date{}
	}
}

func SetCreationDate(kind block.Kind, b []byte, d Date) {
	switch kind {
	case block.Root, block.UserDir, block.FileHeader:
		setDate(b, -7, d)
	}
}

// Comment reads the BCPL comment field (UserDir/FileHeader only, words
// -46..-24, limit 91).
func Comment(kind block.Kind, b []byte) string {
	switch kind {
	case block.UserDir, block.FileHeader:
		off := wordOffset(len(b), -46)
		return readBCPL(b, off, 91)
	default:
		return ""
	}
}

func SetComment(kind block.Kind, b []byte, comment string) {
	switch kind {
	case block.UserDir, block.FileHeader:
		off := wordOffset(len(b), -46)
		writeBCPL(b, off, 91, comment)
	}
}

// Protection reads the native AmigaDOS protection-bits byte (UserDir
// word -48, low byte; FileHeader word -48).
func Protection(kind block.Kind, b []byte) uint32 {
	switch kind {
	case block.UserDir, block.FileHeader:
		return getWord(b, -48)
	default:
		return 0
	}
}

func SetProtection(kind block.Kind, b []byte, v uint32) {
	switch kind {
	case block.UserDir, block.FileHeader:
		setWord(b, -48, v)
	}
}

// Subtype reads word -1, the kind discriminator.
func Subtype(b []byte) int32 { return getWordSigned(b, -1) }
