package fs

import (
	"testing"
	"time"

	"github.com/amigados/goados/internal/blockdev"
)

func freshDoctorFS(t *testing.T) *FileSystem {
	t.Helper()
	layout := NewDDFloppyLayout(FFS)
	dev := blockdev.NewMemory(layout.Capacity, layout.BSize)
	created := DateFromTime(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	fsys, err := Format(dev, layout, "Test", created)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	return fsys
}

func TestXRayBlocksCleanOnFreshVolume(t *testing.T) {
	fsys := freshDoctorFS(t)
	findings, err := fsys.Doctor().XRayBlocks()
	if err != nil {
		t.Fatalf("XRayBlocks: %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("fresh volume should have no findings, got %+v", findings)
	}
}

func TestXRayBlocksDetectsCorruptSubtype(t *testing.T) {
	fsys := freshDoctorFS(t)

	blk, err := fsys.Cache.Modify(fsys.Layout.RootNr)
	if err != nil {
		t.Fatalf("Modify root: %v", err)
	}
	setWordSigned(blk.Bytes, -1, 99)

	findings, err := fsys.Doctor().XRayBlocks()
	if err != nil {
		t.Fatalf("XRayBlocks: %v", err)
	}
	found := false
	for _, f := range findings {
		if f.BlockNr == fsys.Layout.RootNr && f.Field == "subtype" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a subtype finding for the corrupted root block, got %+v", findings)
	}
}

func TestRectifyFixesSubtypeAndChecksum(t *testing.T) {
	fsys := freshDoctorFS(t)
	doc := fsys.Doctor()

	blk, err := fsys.Cache.Modify(fsys.Layout.RootNr)
	if err != nil {
		t.Fatalf("Modify root: %v", err)
	}
	setWordSigned(blk.Bytes, -1, 99)

	findings, err := doc.XRayBlocks()
	if err != nil {
		t.Fatalf("XRayBlocks: %v", err)
	}
	if len(findings) == 0 {
		t.Fatal("expected findings before rectify")
	}
	if err := doc.Rectify(findings); err != nil {
		t.Fatalf("Rectify: %v", err)
	}

	after, err := doc.XRayBlocks()
	if err != nil {
		t.Fatalf("XRayBlocks after rectify: %v", err)
	}
	if len(after) != 0 {
		t.Errorf("expected no findings after rectify, got %+v", after)
	}
}

func TestXRayBitmapFlagsReachableButFree(t *testing.T) {
	fsys := freshDoctorFS(t)
	nr, err := fsys.Allocator.Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if err := fsys.Bitmap.MarkFree(nr); err != nil {
		t.Fatalf("MarkFree: %v", err)
	}

	reachable := map[uint32]bool{nr: true}
	findings := fsys.Doctor().XRayBitmap(reachable)

	found := false
	for _, f := range findings {
		if f.BlockNr == nr && f.Severity == Broken {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a Broken finding for reachable-but-free block %d, got %+v", nr, findings)
	}
}

func TestXRayBitmapFlagsLeak(t *testing.T) {
	fsys := freshDoctorFS(t)
	nr, err := fsys.Allocator.Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	findings := fsys.Doctor().XRayBitmap(map[uint32]bool{})

	found := false
	for _, f := range findings {
		if f.BlockNr == nr && f.Severity == Warn {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a Warn leak finding for unreachable allocated block %d, got %+v", nr, findings)
	}
}

func TestRectifyBitmapBitFixesReachableButFree(t *testing.T) {
	fsys := freshDoctorFS(t)
	doc := fsys.Doctor()
	nr, err := fsys.Allocator.Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if err := fsys.Bitmap.MarkFree(nr); err != nil {
		t.Fatalf("MarkFree: %v", err)
	}

	findings := doc.XRayBitmap(map[uint32]bool{nr: true})
	if err := doc.Rectify(findings); err != nil {
		t.Fatalf("Rectify: %v", err)
	}
	if fsys.Bitmap.IsFree(nr) {
		t.Errorf("block %d should be marked allocated after rectify", nr)
	}
}

func TestXRayBootChecksumDetectsCorruption(t *testing.T) {
	fsys := freshDoctorFS(t)
	b0, err := fsys.Cache.Modify(0)
	if err != nil {
		t.Fatalf("Modify boot: %v", err)
	}
	setWord(b0.Bytes, 1, getWord(b0.Bytes, 1)^0xFFFFFFFF)

	finding, err := fsys.Doctor().XRayBootChecksum()
	if err != nil {
		t.Fatalf("XRayBootChecksum: %v", err)
	}
	if finding == nil {
		t.Fatal("expected a finding for a corrupted boot checksum")
	}

	if err := fsys.Doctor().RectifyBootChecksum(); err != nil {
		t.Fatalf("RectifyBootChecksum: %v", err)
	}
	fixed, err := fsys.Doctor().XRayBootChecksum()
	if err != nil {
		t.Fatalf("XRayBootChecksum after rectify: %v", err)
	}
	if fixed != nil {
		t.Errorf("expected no finding after RectifyBootChecksum, got %+v", fixed)
	}
}

func TestSeverityString(t *testing.T) {
	if Info.String() != "info" || Warn.String() != "warn" || Broken.String() != "error" {
		t.Errorf("unexpected Severity strings: %q %q %q", Info, Warn, Broken)
	}
}
