package block

import (
	"sort"

	"golang.org/x/xerrors"
)

// KindFunc infers a block's Kind from its raw bytes and position. It is
// supplied by the L2 interpreter (package fs) at construction time so
// that the cache never needs to import interpreter logic — see the
// "global mutable state" redesign note in spec.md §9: blocks and the
// cache never hold a back-pointer to the owning file system, context
// flows in through explicit parameters instead.
type KindFunc func(nr uint32, bytes []byte) Kind

// ChecksumFunc recomputes and writes a block's checksum word(s) in
// place, if the block's kind carries one. It is a no-op for kinds
// without a checksum (§4.3.3).
type ChecksumFunc func(nr uint32, bytes []byte)

// Cache is the L1 block cache: a sparse map from block number to
// materialized block, backed by a Device. It lazily reads blocks on
// first access and tracks which blocks have been modified since the
// last flush.
//
// Cache is not safe for concurrent use; per spec.md §5 the whole file
// system stack is single-threaded and non-reentrant.
type Cache struct {
	dev      Device
	kindOf   KindFunc
	checksum ChecksumFunc

	blocks map[uint32]*Block
	dirty  map[uint32]bool
}

// NewCache constructs a Cache over dev. kindOf and checksum are supplied
// by the interpreter layer.
func NewCache(dev Device, kindOf KindFunc, checksum ChecksumFunc) *Cache {
	return &Cache{
		dev:      dev,
		kindOf:   kindOf,
		checksum: checksum,
		blocks:   make(map[uint32]*Block),
		dirty:    make(map[uint32]bool),
	}
}

func (c *Cache) Device() Device { return c.dev }

func (c *Cache) checkRange(nr uint32) error {
	if nr >= c.dev.Capacity() {
		return outOfRange(nr)
	}
	return nil
}

func (c *Cache) materialize(nr uint32) (*Block, error) {
	if b, ok := c.blocks[nr]; ok {
		return b, nil
	}
	if err := c.checkRange(nr); err != nil {
		return nil, err
	}
	buf := make([]byte, c.dev.BlockSize())
	if err := c.dev.ReadBlock(nr, buf); err != nil {
		return nil, xerrors.Errorf("reading block %d: %w", nr, err)
	}
	b := &Block{
		Nr:    nr,
		Bytes: buf,
		Kind:  c.kindOf(nr, buf),
	}
	c.blocks[nr] = b
	return b, nil
}

// Fetch returns a read-only view of block nr, materializing it from the
// device on first access.
func (c *Cache) Fetch(nr uint32) (*Block, error) {
	return c.materialize(nr)
}

// FetchTyped fetches block nr and returns it only if its inferred kind
// matches want; otherwise it returns nil (not an error — kind mismatches
// are expected traffic during tree walks over a possibly corrupt disk).
func (c *Cache) FetchTyped(nr uint32, want Kind) (*Block, error) {
	b, err := c.materialize(nr)
	if err != nil {
		return nil, err
	}
	if b.Kind != want {
		return nil, nil
	}
	return b, nil
}

// Modify returns a mutable view of block nr and marks it dirty. Callers
// must not retain the returned pointer past the next mutating Cache
// call (fetch/modify/erase/flush may reassign or evict the backing
// *Block); see spec.md §3.4.
func (c *Cache) Modify(nr uint32) (*Block, error) {
	b, err := c.materialize(nr)
	if err != nil {
		return nil, err
	}
	c.dirty[nr] = true
	return b, nil
}

// Touch marks an already-materialized block dirty without returning it,
// useful for callers that already hold the pointer from a prior Modify.
func (c *Cache) Touch(nr uint32) {
	c.dirty[nr] = true
}

// Erase drops the cached entry and any dirty marker for nr without
// writing it back. Used by the allocator's reclaim path so that a freed
// block is never flushed with stale contents.
func (c *Cache) Erase(nr uint32) {
	delete(c.blocks, nr)
	delete(c.dirty, nr)
}

// RecomputeKind re-infers and stores the Kind of an already-materialized
// block. Mutations that change a block's type-determining fields (e.g.
// initializing a freshly allocated block) must call this after writing.
func (c *Cache) RecomputeKind(nr uint32) {
	b, ok := c.blocks[nr]
	if !ok {
		return
	}
	b.Kind = c.kindOf(nr, b.Bytes)
}

// IsDirty reports whether nr has unflushed modifications.
func (c *Cache) IsDirty(nr uint32) bool { return c.dirty[nr] }

// Flush writes back a single dirty block, recomputing its checksum
// first. It is a no-op if nr is not dirty.
func (c *Cache) Flush(nr uint32) error {
	if !c.dirty[nr] {
		return nil
	}
	b, ok := c.blocks[nr]
	if !ok {
		return nil
	}
	c.checksum(nr, b.Bytes)
	b.Kind = c.kindOf(nr, b.Bytes)
	if err := c.dev.WriteBlock(nr, b.Bytes); err != nil {
		return xerrors.Errorf("writing block %d: %w", nr, err)
	}
	delete(c.dirty, nr)
	return nil
}

// FlushAll flushes every dirty block. Per spec.md §4.2, bitmap blocks
// are flushed last so that any block whose allocation state they
// describe has already reached the device; the ordering is otherwise
// unspecified, so the remaining blocks are flushed in ascending block
// number for determinism.
func (c *Cache) FlushAll() error {
	var plain, bitmaps []uint32
	for nr := range c.dirty {
		b := c.blocks[nr]
		if b != nil && (b.Kind == Bitmap || b.Kind == BitmapExt) {
			bitmaps = append(bitmaps, nr)
		} else {
			plain = append(plain, nr)
		}
	}
	sort.Slice(plain, func(i, j int) bool { return plain[i] < plain[j] })
	sort.Slice(bitmaps, func(i, j int) bool { return bitmaps[i] < bitmaps[j] })
	for _, nr := range plain {
		if err := c.Flush(nr); err != nil {
			return err
		}
	}
	for _, nr := range bitmaps {
		if err := c.Flush(nr); err != nil {
			return err
		}
	}
	return nil
}

// Materialized reports whether nr currently has a cached entry, i.e.
// whether it has been read or written at least once since the cache was
// constructed.
func (c *Cache) Materialized(nr uint32) bool {
	_, ok := c.blocks[nr]
	return ok
}
