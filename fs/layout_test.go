package fs

import "testing"

func TestDOSTypeFlavorByteRoundTrip(t *testing.T) {
	for _, d := range []DOSType{OFS, FFS, OFSIntl, FFSIntl, OFSIntlDircache, FFSIntlDircache} {
		got, err := DOSTypeFromFlavorByte(d.FlavorByte())
		if err != nil {
			t.Fatalf("DOSTypeFromFlavorByte(%v.FlavorByte()) error: %v", d, err)
		}
		if got != d {
			t.Errorf("round trip for %v: got %v", d, got)
		}
	}
}

func TestDOSTypeFromFlavorByteUnknown(t *testing.T) {
	if _, err := DOSTypeFromFlavorByte(0x7F); err == nil {
		t.Error("expected an error for an unrecognized flavor byte")
	}
}

func TestDOSTypeClassifiers(t *testing.T) {
	if !FFS.IsFFS() || OFS.IsFFS() {
		t.Error("IsFFS classification wrong")
	}
	if !OFS.IsOFS() || FFS.IsOFS() {
		t.Error("IsOFS classification wrong")
	}
	if !OFSIntl.IsIntl() || OFS.IsIntl() {
		t.Error("IsIntl classification wrong")
	}
	if !FFSIntlDircache.IsDircache() || FFSIntl.IsDircache() {
		t.Error("IsDircache classification wrong")
	}
}

func TestHashTableSizeFor512ByteBlock(t *testing.T) {
	l := Layout{BSize: 512}
	if got := l.HashTableSize(); got != 72 {
		t.Errorf("HashTableSize = %d, want 72", got)
	}
	if got := l.RefsPerBlock(); got != 72 {
		t.Errorf("RefsPerBlock = %d, want 72", got)
	}
}

func TestDataSizeByFlavor(t *testing.T) {
	ofs := Layout{BSize: 512, Dos: OFS}
	ffs := Layout{BSize: 512, Dos: FFS}
	if got := ofs.DataSize(); got != 488 {
		t.Errorf("OFS DataSize = %d, want 488", got)
	}
	if got := ffs.DataSize(); got != 512 {
		t.Errorf("FFS DataSize = %d, want 512", got)
	}
}

func TestNewDDFloppyLayout(t *testing.T) {
	l := NewDDFloppyLayout(OFS)
	if l.Capacity != 1760 || l.BSize != 512 || l.RootNr != 880 {
		t.Errorf("unexpected DD floppy layout: %+v", l)
	}
	if len(l.BmBlocks) != 1 || l.BmBlocks[0] != 881 {
		t.Errorf("BmBlocks = %v, want [881]", l.BmBlocks)
	}
	if len(l.BmExtBlocks) != 0 {
		t.Errorf("BmExtBlocks = %v, want empty for a DD floppy", l.BmExtBlocks)
	}
}

func TestNewLayoutSingleBitmapBlockNoExt(t *testing.T) {
	l := NewLayout(FFS, 1760, 512)
	if len(l.BmExtBlocks) != 0 {
		t.Errorf("small volume should need no bitmap extension block, got %v", l.BmExtBlocks)
	}
	if len(l.BmBlocks) == 0 {
		t.Error("expected at least one bitmap block")
	}
	for _, nr := range l.BmBlocks {
		if !l.isBitmapBlock(nr) {
			t.Errorf("block %d not recognized as a bitmap block by isBitmapBlock", nr)
		}
	}
}

// A large capacity needs more bitmap bits than 25 blocks can hold
// directly in the root, so NewLayout must allocate at least one
// extension pointer block, and that block must not also appear in
// BmBlocks (it carries no allocation bits of its own).
func TestNewLayoutOverflowUsesExtensionBlock(t *testing.T) {
	bitsPerBlock := uint32((512 - 4) * 8)
	capacity := 26*bitsPerBlock + 2
	l := NewLayout(FFS, capacity, 512)

	if len(l.BmExtBlocks) == 0 {
		t.Fatal("expected a bitmap extension block for a volume this large")
	}
	if len(l.BmBlocks) <= 25 {
		t.Errorf("expected more than 25 bitmap blocks, got %d", len(l.BmBlocks))
	}
	for _, ext := range l.BmExtBlocks {
		if l.isBitmapBlock(ext) {
			t.Errorf("extension block %d must not also be classified as a bitmap block", ext)
		}
		for _, bm := range l.BmBlocks {
			if bm == ext {
				t.Errorf("extension block %d appears in BmBlocks", ext)
			}
		}
	}
}

func TestNewLayoutBlockNumbersDoNotOverlap(t *testing.T) {
	l := NewLayout(FFS, 4000, 512)
	seen := map[uint32]string{l.RootNr: "root"}
	for _, nr := range l.BmBlocks {
		if other, dup := seen[nr]; dup {
			t.Fatalf("block %d assigned to both %s and a bitmap block", nr, other)
		}
		seen[nr] = "bitmap"
	}
	for _, nr := range l.BmExtBlocks {
		if other, dup := seen[nr]; dup {
			t.Fatalf("block %d assigned to both %s and a bitmap ext block", nr, other)
		}
		seen[nr] = "bitmap-ext"
	}
}
