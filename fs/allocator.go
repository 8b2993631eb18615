package fs

// Allocator hands out free blocks from a Bitmap in the scan order
// AmigaDOS uses: forward from the first block past the reserved area,
// wrapping once past capacity. It does not itself touch FileHeader or
// FileList blocks; callers wire allocated numbers into the ref tables
// via DataBlockRef/SetDataBlockRef.
type Allocator struct {
	bm     *Bitmap
	layout Layout
	cursor uint32
}

func NewAllocator(bm *Bitmap, layout Layout) *Allocator {
	return &Allocator{bm: bm, layout: layout, cursor: layout.Reserved}
}

// Allocate returns one free block number, marking it allocated.
// Returns an OutOfSpace *Error if none remain.
func (a *Allocator) Allocate() (uint32, error) {
	start := a.cursor
	for i := uint32(0); i < a.layout.Capacity; i++ {
		nr := a.layout.Reserved + (start-a.layout.Reserved+i)%(a.layout.Capacity-a.layout.Reserved)
		if a.bm.IsFree(nr) {
			if err := a.bm.MarkAllocated(nr); err != nil {
				return 0, err
			}
			a.cursor = nr + 1
			return nr, nil
		}
	}
	return 0, newErr(OutOfSpace, "no free blocks remain")
}

// AllocateMany returns n free block numbers in ascending allocation
// order, rolling back everything allocated so far if space runs out
// partway through.
func (a *Allocator) AllocateMany(n int) ([]uint32, error) {
	out := make([]uint32, 0, n)
	for i := 0; i < n; i++ {
		nr, err := a.Allocate()
		if err != nil {
			for _, prev := range out {
				_ = a.bm.MarkFree(prev)
			}
			return nil, err
		}
		out = append(out, nr)
	}
	return out, nil
}

// Deallocate marks nr free again.
func (a *Allocator) Deallocate(nr uint32) error { return a.bm.MarkFree(nr) }

// DeallocateMany marks every block in nrs free.
func (a *Allocator) DeallocateMany(nrs []uint32) error {
	for _, nr := range nrs {
		if err := a.bm.MarkFree(nr); err != nil {
			return err
		}
	}
	return nil
}

// RequiredBlocks computes how many data blocks and how many FileList
// blocks a file of byteSize bytes needs under layout's flavor and block
// size: OFS data blocks each hold DataSize() bytes, FFS data blocks
// hold a full block; every RefsPerBlock data blocks beyond the first
// FileHeader's table need one more FileList block.
func (l Layout) RequiredBlocks(byteSize int) (dataBlocks, listBlocks int) {
	if byteSize <= 0 {
		return 0, 0
	}
	dataSize := l.DataSize()
	dataBlocks = (byteSize + dataSize - 1) / dataSize
	refsPerBlock := l.RefsPerBlock()
	if dataBlocks <= refsPerBlock {
		return dataBlocks, 0
	}
	remaining := dataBlocks - refsPerBlock
	listBlocks = (remaining + refsPerBlock - 1) / refsPerBlock
	return dataBlocks, listBlocks
}

// AllocateFileBlocks allocates the data blocks (and, if needed,
// FileList blocks) for a file of byteSize bytes. Data block numbers are
// returned in the order they should be written to the ref table (slot 0
// first); list block numbers are returned in chain order (first
// continuation first).
//
// The physical allocation order differs by flavor, to keep the on-disk
// layout sequential: FFS allocates every list block before any data
// block, since FFS data blocks carry no next-pointer and can be
// scattered freely; OFS interleaves header batch, list block, next
// batch, ... so that each FileHeader/FileList's data blocks land next
// to it on disk, matching the NextDataBlock chain a reader walks block
// by block. Allocation is atomic: on failure, everything allocated so
// far in this call is rolled back.
func (a *Allocator) AllocateFileBlocks(byteSize int) (dataBlocks, listBlocks []uint32, err error) {
	nData, nList := a.layout.RequiredBlocks(byteSize)
	total := nData + nList
	if total == 0 {
		return nil, nil, nil
	}

	dataBlocks = make([]uint32, 0, nData)
	listBlocks = make([]uint32, 0, nList)
	var taken []uint32
	rollback := func() {
		for _, nr := range taken {
			_ = a.bm.MarkFree(nr)
		}
	}
	take := func(isData bool) error {
		nr, aerr := a.Allocate()
		if aerr != nil {
			rollback()
			return aerr
		}
		taken = append(taken, nr)
		if isData {
			dataBlocks = append(dataBlocks, nr)
		} else {
			listBlocks = append(listBlocks, nr)
		}
		return nil
	}

	if a.layout.Dos.IsOFS() {
		refsPerBlock := a.layout.RefsPerBlock()
		dataLeft, listLeft := nData, nList
		for dataLeft > 0 {
			batch := refsPerBlock
			if batch > dataLeft {
				batch = dataLeft
			}
			for i := 0; i < batch; i++ {
				if err := take(true); err != nil {
					return nil, nil, err
				}
			}
			dataLeft -= batch
			if listLeft > 0 {
				if err := take(false); err != nil {
					return nil, nil, err
				}
				listLeft--
			}
		}
		for listLeft > 0 {
			if err := take(false); err != nil {
				return nil, nil, err
			}
			listLeft--
		}
	} else {
		for i := 0; i < nList; i++ {
			if err := take(false); err != nil {
				return nil, nil, err
			}
		}
		for i := 0; i < nData; i++ {
			if err := take(true); err != nil {
				return nil, nil, err
			}
		}
	}
	return dataBlocks, listBlocks, nil
}
