package node

import (
	"github.com/amigados/goados/block"
	"github.com/amigados/goados/fs"
)

// Read returns a file's full content, walking its data blocks in the
// ref-table order of the FileHeader and its FileList chain for both
// flavors. The OFS NextDataBlock chain is not consulted; Replace keeps it
// in the same order as the ref table.
func Read(n Node) ([]byte, error) {
	kind, err := n.Kind()
	if err != nil {
		return nil, err
	}
	if kind != block.FileHeader {
		return nil, &fs.Error{Code: fs.NotAFile}
	}
	size, err := n.Size()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, size)

	err = fs.WalkFileListChain(n.FS.Cache, n.FS.Layout, n.Nr, func(e fs.FileListEntry) bool {
		for _, ref := range e.Refs {
			if ref == 0 {
				continue
			}
			blk, ferr := n.FS.Cache.Fetch(ref)
			if ferr != nil {
				err = ferr
				return false
			}
			dataKind := blk.Kind
			if dataKind == block.Empty && n.FS.Layout.Dos.IsFFS() {
				// an all-zero FFS data block infers as Empty
				dataKind = block.DataFFS
			}
			payload := fs.Payload(dataKind, blk.Bytes)
			if blk.Kind == block.DataOFS {
				used := fs.DataByteCount(blk.Kind, blk.Bytes)
				if int(used) <= len(payload) {
					payload = payload[:used]
				}
			}
			out = append(out, payload...)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if uint32(len(out)) > size {
		out = out[:size]
	}
	return out, nil
}

// Replace overwrites a file's entire content with data, freeing any
// previously allocated data/list blocks first.
func Replace(n Node, data []byte) error {
	kind, err := n.Kind()
	if err != nil {
		return err
	}
	if kind != block.FileHeader {
		return &fs.Error{Code: fs.NotAFile}
	}
	if err := freeFileBlocks(n); err != nil {
		return err
	}
	return writeFileBlocks(n, data)
}

// Resize truncates or zero-extends a file to newSize bytes.
func Resize(n Node, newSize uint32) error {
	data, err := Read(n)
	if err != nil {
		return err
	}
	if uint32(len(data)) == newSize {
		return nil
	}
	resized := make([]byte, newSize)
	copy(resized, data)
	return Replace(n, resized)
}

func freeFileBlocks(n Node) error {
	var dataRefs, listRefs []uint32
	err := fs.WalkFileListChain(n.FS.Cache, n.FS.Layout, n.Nr, func(e fs.FileListEntry) bool {
		if e.Nr != n.Nr {
			listRefs = append(listRefs, e.Nr)
		}
		dataRefs = append(dataRefs, e.Refs...)
		return true
	})
	if err != nil {
		return err
	}
	for _, d := range dataRefs {
		if d == 0 {
			continue
		}
		n.FS.Cache.Erase(d)
		if err := n.FS.Allocator.Deallocate(d); err != nil {
			return err
		}
	}
	for _, l := range listRefs {
		n.FS.Cache.Erase(l)
		if err := n.FS.Allocator.Deallocate(l); err != nil {
			return err
		}
	}
	headerBlk, err := n.FS.Cache.Modify(n.Nr)
	if err != nil {
		return err
	}
	fs.SetHighSeq(headerBlk.Kind, headerBlk.Bytes, 0)
	fs.SetFirstDataBlock(headerBlk.Kind, headerBlk.Bytes, 0)
	fs.SetNextList(headerBlk.Kind, headerBlk.Bytes, 0)
	refsPerBlock := n.FS.Layout.RefsPerBlock()
	for i := 0; i < refsPerBlock; i++ {
		fs.SetDataBlockRef(headerBlk.Kind, headerBlk.Bytes, refsPerBlock, i, 0)
	}
	fs.SetByteSize(headerBlk.Kind, headerBlk.Bytes, 0)
	return nil
}

// writeFileBlocks allocates and populates data (and, if needed,
// FileList) blocks for data, threading them into n's ref table.
func writeFileBlocks(n Node, data []byte) error {
	layout := n.FS.Layout
	headerBlk, err := n.FS.Cache.Modify(n.Nr)
	if err != nil {
		return err
	}
	fs.SetByteSize(headerBlk.Kind, headerBlk.Bytes, uint32(len(data)))
	if len(data) == 0 {
		fs.UpdateChecksum(headerBlk.Kind, n.Nr, headerBlk.Bytes, nil)
		return nil
	}

	dataNrs, listNrs, err := n.FS.Allocator.AllocateFileBlocks(len(data))
	if err != nil {
		return err
	}

	dataSize := layout.DataSize()
	refsPerBlock := layout.RefsPerBlock()
	isOFS := layout.Dos.IsOFS()

	// chainBlocks are the FileHeader followed by each FileList block, in
	// order; every chunk of refsPerBlock data refs is written into one.
	chainNrs := append([]uint32{n.Nr}, listNrs...)
	var prevDataNr uint32

	for ci, chainNr := range chainNrs {
		var chainBlk *block.Block
		var err error
		if chainNr == n.Nr {
			chainBlk = headerBlk
		} else {
			chainBlk, err = n.FS.Cache.Modify(chainNr)
			if err != nil {
				return err
			}
			fs.InitFileList(chainBlk.Bytes, chainNr)
		}

		lo := ci * refsPerBlock
		hi := lo + refsPerBlock
		if hi > len(dataNrs) {
			hi = len(dataNrs)
		}
		chunk := dataNrs[lo:hi]

		for i, dataNr := range chunk {
			seq := lo + i + 1
			off := (seq - 1) * dataSize
			end := off + dataSize
			if end > len(data) {
				end = len(data)
			}
			chunkData := data[off:end]

			dblk, err := n.FS.Cache.Modify(dataNr)
			if err != nil {
				return err
			}
			dataKind := block.DataFFS
			if isOFS {
				dataKind = block.DataOFS
				fs.InitDataOFS(dblk.Bytes, n.Nr, uint32(seq))
				fs.SetDataByteCount(block.DataOFS, dblk.Bytes, uint32(len(chunkData)))
				if prevDataNr != 0 {
					prevBlk, _ := n.FS.Cache.Modify(prevDataNr)
					fs.SetNextDataBlock(prevBlk.Kind, prevBlk.Bytes, dataNr)
					n.FS.Cache.RecomputeKind(prevDataNr)
					fs.UpdateChecksum(prevBlk.Kind, prevDataNr, prevBlk.Bytes, nil)
				}
			} else {
				for j := range dblk.Bytes {
					dblk.Bytes[j] = 0
				}
			}
			copy(fs.Payload(dataKind, dblk.Bytes), chunkData)
			n.FS.Cache.RecomputeKind(dataNr)
			if isOFS {
				fs.UpdateChecksum(block.DataOFS, dataNr, dblk.Bytes, nil)
			}
			prevDataNr = dataNr

			// slot 0 holds the first data block of this chunk, matching
			// DataBlockRef/refTableWord's convention and the order Read
			// (via WalkFileListChain) consumes the table in.
			slot := i
			fs.SetDataBlockRef(chainBlk.Kind, chainBlk.Bytes, refsPerBlock, slot, dataNr)
		}
		fs.SetHighSeq(chainBlk.Kind, chainBlk.Bytes, uint32(len(chunk)))
		if ci+1 < len(chainNrs) {
			fs.SetNextList(chainBlk.Kind, chainBlk.Bytes, chainNrs[ci+1])
		}
		if chainNr == n.Nr {
			fs.SetFirstDataBlock(chainBlk.Kind, chainBlk.Bytes, dataNrs[0])
		}
		n.FS.Cache.RecomputeKind(chainNr)
		fs.UpdateChecksum(chainBlk.Kind, chainNr, chainBlk.Bytes, nil)
	}
	return nil
}

// Copy duplicates a file's content into a new file named dstName inside
// dstParent.
func Copy(src Node, dstParent Node, dstName string) (Node, error) {
	kind, err := src.Kind()
	if err != nil {
		return Node{}, err
	}
	if kind != block.FileHeader {
		return Node{}, &fs.Error{Code: fs.NotAFile}
	}
	data, err := Read(src)
	if err != nil {
		return Node{}, err
	}
	dst, err := CreateFile(dstParent, dstName)
	if err != nil {
		return Node{}, err
	}
	if err := Replace(dst, data); err != nil {
		return Node{}, err
	}
	return dst, nil
}
