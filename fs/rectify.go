package fs

import "github.com/amigados/goados/block"

// Rectify writes back the corrections implied by a set of Findings
// (§4.5.3): type/subtype/self-ref mismatches are overwritten with their
// expected value and the block's checksum is recomputed; bitmap
// mismatches are resolved in favor of reachability, since a directory
// or file structure that actually points at a block is stronger
// evidence than a stale bitmap bit: a reachable block marked free is
// marked allocated. The leaked-block warning (allocated but unreachable)
// is left for the caller to act on — a leak is not itself inconsistent,
// just wasteful.
func (d *Doctor) Rectify(findings []Finding) error {
	touched := map[uint32]bool{}
	for _, f := range findings {
		switch f.Field {
		case "type":
			blk, err := d.cache.Modify(f.BlockNr)
			if err != nil {
				return wrapErr(Io, "rectify type", err)
			}
			setWordSigned(blk.Bytes, 0, int32(f.Expected))
			touched[f.BlockNr] = true
		case "subtype":
			blk, err := d.cache.Modify(f.BlockNr)
			if err != nil {
				return wrapErr(Io, "rectify subtype", err)
			}
			setWordSigned(blk.Bytes, -1, int32(f.Expected))
			touched[f.BlockNr] = true
		case "self":
			blk, err := d.cache.Modify(f.BlockNr)
			if err != nil {
				return wrapErr(Io, "rectify self ref", err)
			}
			SetSelfRef(blk.Kind, blk.Bytes, f.Expected)
			touched[f.BlockNr] = true
		case "hashTableSize":
			blk, err := d.cache.Modify(f.BlockNr)
			if err != nil {
				return wrapErr(Io, "rectify hash table size", err)
			}
			SetStoredHashTableSize(blk.Kind, blk.Bytes, f.Expected)
			touched[f.BlockNr] = true
		case "checksum":
			touched[f.BlockNr] = true // recomputed below regardless of reason
		case "bitmap":
			if err := d.rectifyBitmapBit(f); err != nil {
				return err
			}
		}
	}
	for nr := range touched {
		blk, err := d.cache.Fetch(nr)
		if err != nil {
			return wrapErr(Io, "rectify checksum refetch", err)
		}
		UpdateChecksum(blk.Kind, nr, blk.Bytes, nil)
		d.cache.RecomputeKind(nr)
	}
	return nil
}

func (d *Doctor) rectifyBitmapBit(f Finding) error {
	if f.Message == "block is reachable but marked free" {
		return d.bm.MarkAllocated(f.BlockNr)
	}
	return nil
}

// RectifyBootChecksum rewrites block 0's boot checksum to match its
// current contents and block 1's.
func (d *Doctor) RectifyBootChecksum() error {
	b0, err := d.cache.Modify(0)
	if err != nil {
		return wrapErr(Io, "rectify boot checksum", err)
	}
	b1, err := d.cache.Fetch(1)
	if err != nil {
		return wrapErr(Io, "rectify boot checksum", err)
	}
	UpdateChecksum(block.Boot, 0, b0.Bytes, b1.Bytes)
	return nil
}
