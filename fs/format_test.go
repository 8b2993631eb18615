package fs

import (
	"testing"
	"time"

	"github.com/amigados/goados/block"
	"github.com/amigados/goados/internal/blockdev"
)

func formatFreshDDFloppy(t *testing.T, dos DOSType) *FileSystem {
	t.Helper()
	layout := NewDDFloppyLayout(dos)
	dev := blockdev.NewMemory(layout.Capacity, layout.BSize)
	created := DateFromTime(time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC))
	fsys, err := Format(dev, layout, "Workbench", created)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	return fsys
}

func TestFormatEmptyDDFloppy(t *testing.T) {
	fsys := formatFreshDDFloppy(t, OFS)

	boot, err := fsys.Cache.Fetch(0)
	if err != nil {
		t.Fatalf("fetch boot block: %v", err)
	}
	if string(boot.Bytes[0:3]) != "DOS" {
		t.Errorf("boot signature = %q, want DOS", boot.Bytes[0:3])
	}
	if boot.Bytes[3] != OFS.FlavorByte() {
		t.Errorf("flavor byte = %d, want %d", boot.Bytes[3], OFS.FlavorByte())
	}

	root, err := fsys.Cache.FetchTyped(fsys.Layout.RootNr, block.Root)
	if err != nil {
		t.Fatalf("fetch root: %v", err)
	}
	if root == nil {
		t.Fatal("root block did not classify as block.Root after Format")
	}
	name := Name(block.Root, root.Bytes)
	if name != "Workbench" {
		t.Errorf("volume name = %q, want Workbench", name)
	}

	if !fsys.Bitmap.Allocatable() {
		t.Fatal("bitmap should be loaded after Format")
	}
	if fsys.Bitmap.IsFree(fsys.Layout.RootNr) {
		t.Error("root block should be marked allocated")
	}
	for _, nr := range fsys.Layout.BmBlocks {
		if fsys.Bitmap.IsFree(nr) {
			t.Errorf("bitmap block %d should be marked allocated", nr)
		}
	}
}

func TestFormatBootChecksumValid(t *testing.T) {
	fsys := formatFreshDDFloppy(t, FFS)
	finding, err := fsys.Doctor().XRayBootChecksum()
	if err != nil {
		t.Fatalf("XRayBootChecksum: %v", err)
	}
	if finding != nil {
		t.Errorf("freshly formatted volume should have a valid boot checksum, got finding: %+v", finding)
	}
}

func TestFormatThenReopen(t *testing.T) {
	layout := NewDDFloppyLayout(FFS)
	dev := blockdev.NewMemory(layout.Capacity, layout.BSize)
	created := DateFromTime(time.Now())
	if _, err := Format(dev, layout, "Reopened", created); err != nil {
		t.Fatalf("Format: %v", err)
	}

	fsys, err := New(dev, layout)
	if err != nil {
		t.Fatalf("New (reopen): %v", err)
	}
	if !fsys.Bitmap.Allocatable() {
		t.Error("reopened volume's bitmap should be loaded")
	}
	free := fsys.Bitmap.FreeCount()
	want := int(layout.Capacity-layout.Reserved) - 1 - len(layout.BmBlocks) - len(layout.BmExtBlocks)
	if free != want {
		t.Errorf("FreeCount = %d, want %d", free, want)
	}
}
