package fs

import "github.com/amigados/goados/block"

// kindOf implements the §4.3 kind-inference rules. It is bound to a
// Layout and handed to block.NewCache as a block.KindFunc, keeping the
// policy in this package (L2) while the cache (L1) stays ignorant of
// it, per spec.md §9's "global mutable state" redesign note.
func kindOf(layout Layout, nr uint32, b []byte) block.Kind {
	if nr < layout.Reserved {
		return block.Boot
	}
	if layout.isBitmapBlock(nr) {
		return block.Bitmap
	}
	if layout.isBitmapExtBlock(nr) {
		return block.BitmapExt
	}

	typ := getWordSigned(b, 0)
	subtype := getWordSigned(b, -1)

	switch {
	case typ == 2 && subtype == 1:
		return block.Root
	case typ == 2 && subtype == 2:
		return block.UserDir
	case typ == 2 && subtype == -3:
		return block.FileHeader
	case typ == 16 && subtype == -3:
		return block.FileList
	}

	if layout.Dos.IsOFS() && typ == 8 {
		return block.DataOFS
	}
	if layout.Dos.IsFFS() {
		for _, c := range b {
			if c != 0 {
				return block.DataFFS
			}
		}
	}
	return block.Empty
}

// KindFunc returns a block.KindFunc bound to layout, suitable for
// block.NewCache.
func KindFunc(layout Layout) block.KindFunc {
	return func(nr uint32, b []byte) block.Kind { return kindOf(layout, nr, b) }
}
