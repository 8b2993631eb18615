package fs

import "github.com/amigados/goados/block"

// FileList blocks extend a FileHeader's data-block-ref table when a
// file outgrows a single block's capacity. They reuse SelfRef,
// NextList and DataBlockRef/HighSeq from common.go and fileheader.go;
// this file holds only FileList's own initializer, since it carries no
// fields beyond those already shared.

// InitFileList zeroes b and writes the fields common to every FileList
// block: type/subtype words and self-ref. The owning file's header
// pointer is not stored on FileList blocks (only reachable by walking
// the NextList chain back from the FileHeader).
func InitFileList(b []byte, nr uint32) {
	for i := range b {
		b[i] = 0
	}
	setWordSigned(b, 0, typeFileList)
	setWordSigned(b, -1, subtypeFile)
	SetSelfRef(block.FileList, b, nr)
}
