// Command adosmount mounts an AmigaDOS volume image read-only via FUSE.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"
	"golang.org/x/sys/unix"

	amigafs "github.com/amigados/goados/fs"
	"github.com/amigados/goados/imagefile"
	"github.com/amigados/goados/node"
)

const help = `adosmount [-flags] <image> <mountpoint>

Mount an AmigaDOS volume image read-only.

Example:
  % adosmount disk.adf /mnt/amiga
`

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, help) }
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(flag.Arg(0), flag.Arg(1)); err != nil {
		log.Fatal(err)
	}
}

func run(image, mountpoint string) error {
	dev, err := imagefile.Load(image, 512)
	if err != nil {
		return err
	}
	buf := make([]byte, 512)
	if err := dev.ReadBlock(0, buf); err != nil {
		return err
	}
	dos, err := amigafs.DOSTypeFromFlavorByte(buf[3])
	if err != nil {
		return err
	}
	layout := amigafs.NewDDFloppyLayout(dos)
	layout.Capacity = dev.Capacity()

	fsys, err := amigafs.New(dev, layout)
	if err != nil {
		return err
	}

	if err := bumpRlimitNOFILE(); err != nil {
		log.Printf("warning: bumping RLIMIT_NOFILE failed: %v", err)
	}

	afs := &adosFS{fsys: fsys}
	server := fuseutil.NewFileSystemServer(afs)

	mfs, err := fuse.Mount(mountpoint, server, &fuse.MountConfig{
		ReadOnly:    true,
		FSName:      "adosfs",
		VolumeName:  "amiga",
		ErrorLogger: log.New(os.Stderr, "fuse: ", 0),
	})
	if err != nil {
		return err
	}
	return mfs.Join(context.Background())
}

// rootInode is the FUSE inode for the volume's root directory; every
// other inode is simply its underlying block number (block numbers
// never collide with 1 since the root block itself maps to rootInode).
const rootInode = fuseops.RootInodeID

type adosFS struct {
	fuseutil.NotImplementedFileSystem

	fsys *amigafs.FileSystem

	mu sync.Mutex
}

func (a *adosFS) toInode(blockNr uint32) fuseops.InodeID {
	if blockNr == a.fsys.Layout.RootNr {
		return rootInode
	}
	return fuseops.InodeID(blockNr)
}

func (a *adosFS) toBlockNr(id fuseops.InodeID) uint32 {
	if id == rootInode {
		return a.fsys.Layout.RootNr
	}
	return uint32(id)
}

var never = time.Now().Add(365 * 24 * time.Hour)

// AmigaDOS protection bits (FSBlock.cpp's FIBB_*): for read/write/execute
// the bit being SET means the permission is DENIED, the inverse of a
// POSIX mode bit. There is no group/owner distinction on the Amiga side,
// so a granted bit is mirrored into the user, group, and other triads.
const (
	fibbExecute = 1
	fibbWrite   = 2
	fibbRead    = 3
)

func protectionMode(bits uint32) os.FileMode {
	var mode os.FileMode
	if bits&(1<<fibbRead) == 0 {
		mode |= unix.S_IRUSR | unix.S_IRGRP | unix.S_IROTH
	}
	if bits&(1<<fibbWrite) == 0 {
		mode |= unix.S_IWUSR | unix.S_IWGRP | unix.S_IWOTH
	}
	if bits&(1<<fibbExecute) == 0 {
		mode |= unix.S_IXUSR | unix.S_IXGRP | unix.S_IXOTH
	}
	return mode
}

func (a *adosFS) attributes(n node.Node) (fuseops.InodeAttributes, error) {
	kind, err := n.Kind()
	if err != nil {
		return fuseops.InodeAttributes{}, err
	}
	prot, err := n.Protection()
	if err != nil {
		return fuseops.InodeAttributes{}, err
	}
	mode := protectionMode(prot)
	var size uint64
	if kind.String() == "Root" || kind.String() == "UserDir" {
		mode |= os.ModeDir
	} else {
		sz, err := n.Size()
		if err != nil {
			return fuseops.InodeAttributes{}, err
		}
		size = uint64(sz)
	}
	return fuseops.InodeAttributes{
		Size:  size,
		Nlink: 1,
		Mode:  mode,
	}, nil
}

func (a *adosFS) StatFS(ctx context.Context, op *fuseops.StatFSOp) error {
	op.BlockSize = a.fsys.Layout.BSize
	op.Blocks = uint64(a.fsys.Layout.Capacity)
	op.BlocksFree = uint64(a.fsys.Bitmap.FreeCount())
	op.BlocksAvailable = op.BlocksFree
	op.IoSize = a.fsys.Layout.BSize
	return nil
}

func (a *adosFS) LookUpInode(ctx context.Context, op *fuseops.LookUpInodeOp) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	parent := node.Node{FS: a.fsys, Nr: a.toBlockNr(op.Parent)}
	child, err := node.Seek(parent, op.Name)
	if err != nil {
		return fuse.ENOENT
	}
	attrs, err := a.attributes(child)
	if err != nil {
		return fuse.EIO
	}
	op.Entry.Child = a.toInode(child.Nr)
	op.Entry.Attributes = attrs
	op.Entry.AttributesExpiration = never
	op.Entry.EntryExpiration = never
	return nil
}

func (a *adosFS) GetInodeAttributes(ctx context.Context, op *fuseops.GetInodeAttributesOp) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := node.Node{FS: a.fsys, Nr: a.toBlockNr(op.Inode)}
	attrs, err := a.attributes(n)
	if err != nil {
		return fuse.EIO
	}
	op.Attributes = attrs
	op.AttributesExpiration = never
	return nil
}

func (a *adosFS) OpenDir(ctx context.Context, op *fuseops.OpenDirOp) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := node.Node{FS: a.fsys, Nr: a.toBlockNr(op.Inode)}
	if !n.IsDir() {
		return fuse.ENOTDIR
	}
	return nil
}

func (a *adosFS) ReadDir(ctx context.Context, op *fuseops.ReadDirOp) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := node.Node{FS: a.fsys, Nr: a.toBlockNr(op.Inode)}
	children, err := node.Children(n)
	if err != nil {
		return fuse.EIO
	}

	var dirents []fuseutil.Dirent
	for i, c := range children {
		name, err := c.Name()
		if err != nil {
			continue
		}
		dt := fuseutil.DT_File
		if c.IsDir() {
			dt = fuseutil.DT_Directory
		}
		dirents = append(dirents, fuseutil.Dirent{
			Offset: fuseops.DirOffset(i + 1),
			Inode:  a.toInode(c.Nr),
			Name:   name,
			Type:   dt,
		})
	}

	if op.Offset > fuseops.DirOffset(len(dirents)) {
		return nil
	}
	n2 := 0
	for _, de := range dirents[op.Offset:] {
		written := fuseutil.WriteDirent(op.Dst[n2:], de)
		if written == 0 {
			break
		}
		n2 += written
	}
	op.BytesRead = n2
	return nil
}

func (a *adosFS) OpenFile(ctx context.Context, op *fuseops.OpenFileOp) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := node.Node{FS: a.fsys, Nr: a.toBlockNr(op.Inode)}
	if !n.IsFile() {
		return fuse.EIO
	}
	return nil
}

func (a *adosFS) ReadFile(ctx context.Context, op *fuseops.ReadFileOp) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := node.Node{FS: a.fsys, Nr: a.toBlockNr(op.Inode)}
	data, err := node.Read(n)
	if err != nil {
		return fuse.EIO
	}
	if op.Offset >= int64(len(data)) {
		op.BytesRead = 0
		return nil
	}
	op.BytesRead = copy(op.Dst, data[op.Offset:])
	return nil
}

// bumpRlimitNOFILE raises the open-file limit to its hard ceiling
// before mounting, since a large volume can hold more open directory
// handles than the default soft limit allows.
func bumpRlimitNOFILE() error {
	var rlimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlimit); err != nil {
		return err
	}
	rlimit.Cur = rlimit.Max
	return unix.Setrlimit(unix.RLIMIT_NOFILE, &rlimit)
}
