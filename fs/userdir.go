package fs

import "github.com/amigados/goados/block"

// Type/subtype discriminators written into word 0 / word -1 of every
// typed block, per §4.3's kind-inference table.
const (
	typePrimary   = 2
	typeFileList  = 16
	subtypeRoot   = 1
	subtypeDir    = 2
	subtypeFile   = -3
	typeDataOFS   = 8
)

// InitUserDir zeroes b and writes the fields that make it a valid,
// empty UserDir block: type/subtype words, self-ref, parent, name and
// creation date. The hash table and checksum are left to the caller
// (the hash table starts empty by construction of a freshly zeroed
// block; the checksum must be recomputed once all fields are set).
func InitUserDir(b []byte, nr, parent uint32, name string, created Date) {
	for i := range b {
		b[i] = 0
	}
	setWordSigned(b, 0, typePrimary)
	setWordSigned(b, -1, subtypeDir)
	SetSelfRef(block.UserDir, b, nr)
	SetParentDir(block.UserDir, b, parent)
	SetName(block.UserDir, b, name)
	SetCreationDate(block.UserDir, b, created)
}
