package fs

import (
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/amigados/goados/block"
)

// Severity classifies a doctor Finding, mirroring
// original_source/Core/FileSystems/FSDoctor.cpp's three-level
// reporting (informational / suspicious / broken) rather than a flat
// pass/fail.
type Severity int

const (
	Info Severity = iota
	Warn
	Broken
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Broken:
		return "error"
	default:
		return "unknown"
	}
}

// Finding is one structural discrepancy surfaced by a block or bitmap
// x-ray: which block, which field (if any), what was expected, and how
// severe the mismatch is.
type Finding struct {
	BlockNr  uint32
	Field    string
	Severity Severity
	Expected uint32
	Actual   uint32
	Message  string
}

// Doctor x-rays a file system's blocks and bitmap for structural
// corruption, grounded on original_source's DiskDoctor/FSDoctor split
// between per-block field checks and volume-wide reachability checks.
type Doctor struct {
	cache  *block.Cache
	layout Layout
	bm     *Bitmap
}

func NewDoctor(cache *block.Cache, layout Layout, bm *Bitmap) *Doctor {
	return &Doctor{cache: cache, layout: layout, bm: bm}
}

// XRayBlocks validates every block's fixed per-kind fields (§4.5.1):
// type/subtype words, checksum, and self references where applicable.
// Every block is first materialized into the cache sequentially; the
// per-block checks then run concurrently via an errgroup, since each
// block's validation is independent and only reads the cache.
func (d *Doctor) XRayBlocks() ([]Finding, error) {
	for nr := uint32(0); nr < d.layout.Capacity; nr++ {
		if _, err := d.cache.Fetch(nr); err != nil {
			return nil, wrapErr(Io, "xray fetch block", err)
		}
	}
	var mu sync.Mutex
	var findings []Finding
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))

	for nr := uint32(0); nr < d.layout.Capacity; nr++ {
		nr := nr
		g.Go(func() error {
			fs, err := d.xrayOne(nr)
			if err != nil {
				return err
			}
			if len(fs) > 0 {
				mu.Lock()
				findings = append(findings, fs...)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(findings, func(i, j int) bool { return findings[i].BlockNr < findings[j].BlockNr })
	return findings, nil
}

func (d *Doctor) xrayOne(nr uint32) ([]Finding, error) {
	blk, err := d.cache.Fetch(nr)
	if err != nil {
		return nil, wrapErr(Io, "xray fetch block", err)
	}
	var out []Finding

	switch blk.Kind {
	case block.Boot:
		if nr == 0 {
			// checked separately against block 1 by XRayBootChecksum,
			// since it needs both blocks' bytes at once.
		}
	case block.Root:
		if getWordSigned(blk.Bytes, 0) != typePrimary {
			out = append(out, Finding{BlockNr: nr, Field: "type", Severity: Broken, Expected: typePrimary, Actual: uint32(getWordSigned(blk.Bytes, 0))})
		}
		if Subtype(blk.Bytes) != subtypeRoot {
			out = append(out, Finding{BlockNr: nr, Field: "subtype", Severity: Broken, Expected: uint32(subtypeRoot), Actual: uint32(Subtype(blk.Bytes))})
		}
		if int(StoredHashTableSize(blk.Kind, blk.Bytes)) != d.layout.HashTableSize() {
			out = append(out, Finding{BlockNr: nr, Field: "hashTableSize", Severity: Warn, Expected: uint32(d.layout.HashTableSize()), Actual: StoredHashTableSize(blk.Kind, blk.Bytes)})
		}
		out = append(out, d.checkChecksum(nr, blk)...)

	case block.UserDir:
		if Subtype(blk.Bytes) != subtypeDir {
			out = append(out, Finding{BlockNr: nr, Field: "subtype", Severity: Broken, Expected: uint32(subtypeDir), Actual: uint32(Subtype(blk.Bytes))})
		}
		if SelfRef(blk.Kind, blk.Bytes) != nr {
			out = append(out, Finding{BlockNr: nr, Field: "self", Severity: Broken, Expected: nr, Actual: SelfRef(blk.Kind, blk.Bytes)})
		}
		out = append(out, d.checkChecksum(nr, blk)...)

	case block.FileHeader:
		if Subtype(blk.Bytes) != subtypeFile {
			out = append(out, Finding{BlockNr: nr, Field: "subtype", Severity: Broken, Expected: uint32(subtypeFile), Actual: uint32(Subtype(blk.Bytes))})
		}
		if SelfRef(blk.Kind, blk.Bytes) != nr {
			out = append(out, Finding{BlockNr: nr, Field: "self", Severity: Broken, Expected: nr, Actual: SelfRef(blk.Kind, blk.Bytes)})
		}
		out = append(out, d.checkChecksum(nr, blk)...)

	case block.FileList:
		if Subtype(blk.Bytes) != subtypeFile {
			out = append(out, Finding{BlockNr: nr, Field: "subtype", Severity: Broken, Expected: uint32(subtypeFile), Actual: uint32(Subtype(blk.Bytes))})
		}
		if SelfRef(blk.Kind, blk.Bytes) != nr {
			out = append(out, Finding{BlockNr: nr, Field: "self", Severity: Broken, Expected: nr, Actual: SelfRef(blk.Kind, blk.Bytes)})
		}
		out = append(out, d.checkChecksum(nr, blk)...)

	case block.DataOFS:
		if FileHeaderRef(blk.Kind, blk.Bytes) == 0 {
			out = append(out, Finding{BlockNr: nr, Field: "fileHeader", Severity: Warn, Message: "data block has no owning file header"})
		}
		out = append(out, d.checkChecksum(nr, blk)...)
	}
	return out, nil
}

func (d *Doctor) checkChecksum(nr uint32, blk *block.Block) []Finding {
	pos, ok := checksumLocation(blk.Kind, nr)
	if !ok {
		return nil
	}
	stored := getWord(blk.Bytes, pos)
	cp := append([]byte(nil), blk.Bytes...)
	want := standardChecksum(cp, pos)
	if stored != want {
		return []Finding{{BlockNr: nr, Field: "checksum", Severity: Broken, Expected: want, Actual: stored}}
	}
	return nil
}

// XRayBootChecksum validates the two-block boot checksum, which needs
// both blocks 0 and 1 simultaneously and so is checked outside the
// per-block concurrent pass.
func (d *Doctor) XRayBootChecksum() (*Finding, error) {
	b0, err := d.cache.Fetch(0)
	if err != nil {
		return nil, wrapErr(Io, "xray boot checksum", err)
	}
	b1, err := d.cache.Fetch(1)
	if err != nil {
		return nil, wrapErr(Io, "xray boot checksum", err)
	}
	stored := getWord(b0.Bytes, 1)
	want := bootChecksum(b0.Bytes, b1.Bytes)
	if stored != want {
		return &Finding{BlockNr: 0, Field: "bootChecksum", Severity: Broken, Expected: want, Actual: stored}, nil
	}
	return nil, nil
}

// XRayBitmap validates bitmap-vs-reachability agreement (§4.5.2): a
// block should be marked free in the bitmap if and only if no directory
// or file structure reaches it. Unreachable-but-allocated blocks are a
// leak (Warn); reachable-but-free blocks risk future overwrite
// (Error).
func (d *Doctor) XRayBitmap(reachable map[uint32]bool) []Finding {
	var out []Finding
	for nr := d.layout.Reserved; nr < d.layout.Capacity; nr++ {
		free := d.bm.IsFree(nr)
		r := reachable[nr]
		switch {
		case r && free:
			out = append(out, Finding{BlockNr: nr, Field: "bitmap", Severity: Broken, Message: "block is reachable but marked free"})
		case !r && !free && nr != d.layout.RootNr && !d.layout.isBitmapBlock(nr) && !d.layout.isBitmapExtBlock(nr):
			out = append(out, Finding{BlockNr: nr, Field: "bitmap", Severity: Warn, Message: "block is allocated but unreachable (leaked)"})
		}
	}
	return out
}
