package blockdev

import (
	"io"
	"os"

	"github.com/google/renameio"
	"golang.org/x/xerrors"
)

// File is a block.Device backed directly by an *os.File, used when a
// volume image is large enough that loading it wholesale into a Memory
// device isn't worthwhile.
type File struct {
	f        *os.File
	capacity uint32
	bsize    uint32
}

// OpenFile opens path (created if it doesn't exist) as a File device of
// capacity blocks of bsize bytes, growing it to the full image size if
// necessary.
func OpenFile(path string, capacity, bsize uint32) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, xerrors.Errorf("opening %s: %w", path, err)
	}
	size := int64(capacity) * int64(bsize)
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, xerrors.Errorf("truncating %s: %w", path, err)
	}
	return &File{f: f, capacity: capacity, bsize: bsize}, nil
}

func (d *File) Capacity() uint32  { return d.capacity }
func (d *File) BlockSize() uint32 { return d.bsize }

func (d *File) ReadBlock(nr uint32, dst []byte) error {
	if nr >= d.capacity {
		return xerrors.Errorf("block %d: out of range (capacity %d)", nr, d.capacity)
	}
	_, err := d.f.ReadAt(dst[:d.bsize], int64(nr)*int64(d.bsize))
	return err
}

func (d *File) WriteBlock(nr uint32, src []byte) error {
	if nr >= d.capacity {
		return xerrors.Errorf("block %d: out of range (capacity %d)", nr, d.capacity)
	}
	_, err := d.f.WriteAt(src[:d.bsize], int64(nr)*int64(d.bsize))
	return err
}

// Close releases the underlying file handle.
func (d *File) Close() error { return d.f.Close() }

// Export atomically copies the device's on-disk image to path, using
// renameio so a crash or concurrent reader never observes a
// partially-written file.
func (d *File) Export(path string) error {
	t, err := renameio.TempFile("", path)
	if err != nil {
		return xerrors.Errorf("creating temp file for %s: %w", path, err)
	}
	defer t.Cleanup()

	if _, err := d.f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := io.Copy(t, d.f); err != nil {
		return xerrors.Errorf("copying image to %s: %w", path, err)
	}
	return t.CloseAtomicallyReplace()
}
