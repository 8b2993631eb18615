package node

import (
	"time"

	"github.com/amigados/goados/block"
	"github.com/amigados/goados/fs"
)

// Link inserts entryNr (already initialized with its own name/parent
// fields) at the head of parent's hash bucket for name, the fixed
// four-step order every structural mutation uses: read the bucket
// head, point the new entry's next-hash at it, write the entry back as
// the new head, then recompute both blocks' checksums.
func Link(parent Node, entryNr uint32, entryKind block.Kind, name string) error {
	dirBlk, err := parent.FS.Cache.Modify(parent.Nr)
	if err != nil {
		return err
	}
	htSize := parent.FS.Layout.HashTableSize()
	bucket := fs.HashBucket(name, parent.FS.Layout.Dos.IsIntl(), htSize)
	head := fs.HashSlot(dirBlk.Kind, dirBlk.Bytes, htSize, bucket)

	entryBlk, err := parent.FS.Cache.Modify(entryNr)
	if err != nil {
		return err
	}
	fs.SetNextHash(entryKind, entryBlk.Bytes, head)
	fs.SetParentDir(entryKind, entryBlk.Bytes, parent.Nr)
	fs.SetHashSlot(dirBlk.Kind, dirBlk.Bytes, htSize, bucket, entryNr)

	fs.UpdateChecksum(dirBlk.Kind, parent.Nr, dirBlk.Bytes, nil)
	fs.UpdateChecksum(entryKind, entryNr, entryBlk.Bytes, nil)
	return nil
}

// Unlink removes entryNr from parent's hash chain for name, re-threading
// the chain around it.
func Unlink(parent Node, entryNr uint32, name string) error {
	dirBlk, err := parent.FS.Cache.Modify(parent.Nr)
	if err != nil {
		return err
	}
	htSize := parent.FS.Layout.HashTableSize()
	bucket := fs.HashBucket(name, parent.FS.Layout.Dos.IsIntl(), htSize)
	head := fs.HashSlot(dirBlk.Kind, dirBlk.Bytes, htSize, bucket)

	entryBlk, err := parent.FS.Cache.Fetch(entryNr)
	if err != nil {
		return err
	}
	next := fs.NextHash(entryBlk.Kind, entryBlk.Bytes)

	if head == entryNr {
		fs.SetHashSlot(dirBlk.Kind, dirBlk.Bytes, htSize, bucket, next)
		fs.UpdateChecksum(dirBlk.Kind, parent.Nr, dirBlk.Bytes, nil)
		return nil
	}

	prevNr := head
	for prevNr != 0 {
		prevBlk, err := parent.FS.Cache.Fetch(prevNr)
		if err != nil {
			return err
		}
		n := fs.NextHash(prevBlk.Kind, prevBlk.Bytes)
		if n == entryNr {
			mod, err := parent.FS.Cache.Modify(prevNr)
			if err != nil {
				return err
			}
			fs.SetNextHash(mod.Kind, mod.Bytes, next)
			fs.UpdateChecksum(mod.Kind, prevNr, mod.Bytes, nil)
			return nil
		}
		prevNr = n
	}
	return &fs.Error{Code: fs.NotFound, Message: "entry not found in parent's hash chain"}
}

// Mkdir creates an empty subdirectory named name inside parent.
func Mkdir(parent Node, name string) (Node, error) {
	if !parent.IsDir() {
		return Node{}, &fs.Error{Code: fs.NotADirectory}
	}
	if _, _, err := fs.FindInDir(parent.FS.Cache, parent.FS.Layout, parent.Nr, name); err == nil {
		return Node{}, &fs.Error{Code: fs.Exists, Message: name}
	}

	nr, err := parent.FS.Allocator.Allocate()
	if err != nil {
		return Node{}, err
	}
	blk, err := parent.FS.Cache.Modify(nr)
	if err != nil {
		return Node{}, err
	}
	fs.InitUserDir(blk.Bytes, nr, parent.Nr, name, fs.DateFromTime(time.Now()))
	parent.FS.Cache.RecomputeKind(nr)

	if err := Link(parent, nr, block.UserDir, name); err != nil {
		return Node{}, err
	}
	return Node{FS: parent.FS, Nr: nr}, nil
}

// CreateFile creates an empty (zero-length) file named name inside
// parent.
func CreateFile(parent Node, name string) (Node, error) {
	if !parent.IsDir() {
		return Node{}, &fs.Error{Code: fs.NotADirectory}
	}
	if _, _, err := fs.FindInDir(parent.FS.Cache, parent.FS.Layout, parent.Nr, name); err == nil {
		return Node{}, &fs.Error{Code: fs.Exists, Message: name}
	}

	nr, err := parent.FS.Allocator.Allocate()
	if err != nil {
		return Node{}, err
	}
	blk, err := parent.FS.Cache.Modify(nr)
	if err != nil {
		return Node{}, err
	}
	fs.InitFileHeader(blk.Bytes, nr, parent.Nr, name, fs.DateFromTime(time.Now()))
	parent.FS.Cache.RecomputeKind(nr)

	if err := Link(parent, nr, block.FileHeader, name); err != nil {
		return Node{}, err
	}
	return Node{FS: parent.FS, Nr: nr}, nil
}

// Reclaim frees every block owned by n: for a file, its data blocks,
// any FileList continuation blocks, and finally its own FileHeader
// block; for an empty directory, just its own block. It does not
// unlink n from its parent — callers combine Unlink and Reclaim to
// implement Rm.
func Reclaim(n Node) error {
	kind, err := n.Kind()
	if err != nil {
		return err
	}
	switch kind {
	case block.FileHeader:
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
		n.FS.Cache.Erase(n.Nr)
		return n.FS.Allocator.Deallocate(n.Nr)

	case block.UserDir:
		kids, err := Children(n)
		if err != nil {
			return err
		}
		if len(kids) > 0 {
			return &fs.Error{Code: fs.DirNotEmpty}
		}
		n.FS.Cache.Erase(n.Nr)
		return n.FS.Allocator.Deallocate(n.Nr)

	default:
		return &fs.Error{Code: fs.NotAFileOrDirectory}
	}
}

// Rm removes n from its parent and reclaims its blocks.
func Rm(n Node) error {
	name, err := n.Name()
	if err != nil {
		return err
	}
	parent, err := n.Parent()
	if err != nil {
		return err
	}
	if err := Unlink(parent, n.Nr, name); err != nil {
		return err
	}
	return Reclaim(n)
}

// Rename changes n's stored name and re-threads it into its parent's
// hash chain under the new name's bucket (the bucket index depends on
// the name, so a plain in-place rewrite would corrupt the table).
//
// The volume root is its own parent and is never listed in any
// directory's hash table, so renaming it (setting the volume's label,
// distinct from renaming any other entry) is a plain in-place rewrite
// with no relinking, matching how the original FileSystem separates
// setName() on the volume from renaming a child.
func Rename(n Node, newName string) error {
	kind, err := n.Kind()
	if err != nil {
		return err
	}
	if n.Nr == n.FS.Layout.RootNr {
		blk, err := n.FS.Cache.Modify(n.Nr)
		if err != nil {
			return err
		}
		fs.SetName(kind, blk.Bytes, newName)
		fs.UpdateChecksum(kind, n.Nr, blk.Bytes, nil)
		return nil
	}
	oldName, err := n.Name()
	if err != nil {
		return err
	}
	parent, err := n.Parent()
	if err != nil {
		return err
	}
	if _, _, err := fs.FindInDir(n.FS.Cache, n.FS.Layout, parent.Nr, newName); err == nil {
		return &fs.Error{Code: fs.Exists, Message: newName}
	}
	if err := Unlink(parent, n.Nr, oldName); err != nil {
		return err
	}
	blk, err := n.FS.Cache.Modify(n.Nr)
	if err != nil {
		return err
	}
	fs.SetName(kind, blk.Bytes, newName)
	fs.UpdateChecksum(kind, n.Nr, blk.Bytes, nil)
	return Link(parent, n.Nr, kind, newName)
}

// Move relocates n from its current parent to newParent, keeping its
// name.
func Move(n Node, newParent Node) error {
	if !newParent.IsDir() {
		return &fs.Error{Code: fs.NotADirectory}
	}
	kind, err := n.Kind()
	if err != nil {
		return err
	}
	name, err := n.Name()
	if err != nil {
		return err
	}
	oldParent, err := n.Parent()
	if err != nil {
		return err
	}
	if oldParent.Equal(newParent) {
		return nil
	}
	if _, _, err := fs.FindInDir(n.FS.Cache, n.FS.Layout, newParent.Nr, name); err == nil {
		return &fs.Error{Code: fs.Exists, Message: name}
	}
	if err := Unlink(oldParent, n.Nr, name); err != nil {
		return err
	}
	return Link(newParent, n.Nr, kind, name)
}
