// Package blockdev provides block.Device implementations backed by
// memory and by regular files, the concrete storage a FileSystem reads
// and writes through.
package blockdev

import (
	"io"

	"github.com/orcaman/writerseeker"
	"golang.org/x/xerrors"
)

// Memory is a block.Device backed entirely by RAM, built on
// writerseeker.WriterSeeker so reads and writes can both be expressed
// as plain io.Writer/io.ReaderAt calls without tracking a growable
// buffer by hand. Useful for formatting a volume in memory before
// exporting it, and for tests.
type Memory struct {
	ws       *writerseeker.WriterSeeker
	capacity uint32
	bsize    uint32
}

// NewMemory allocates a zero-filled in-memory device of capacity blocks
// of bsize bytes each.
func NewMemory(capacity, bsize uint32) *Memory {
	m := &Memory{ws: &writerseeker.WriterSeeker{}, capacity: capacity, bsize: bsize}
	zero := make([]byte, bsize)
	for i := uint32(0); i < capacity; i++ {
		if _, err := m.ws.Write(zero); err != nil {
			panic(err) // writerseeker's in-memory buffer never fails to grow
		}
	}
	return m
}

func (m *Memory) Capacity() uint32  { return m.capacity }
func (m *Memory) BlockSize() uint32 { return m.bsize }

func (m *Memory) ReadBlock(nr uint32, dst []byte) error {
	if nr >= m.capacity {
		return xerrors.Errorf("block %d: out of range (capacity %d)", nr, m.capacity)
	}
	sr := io.NewSectionReader(m.ws.BytesReader(), int64(nr)*int64(m.bsize), int64(m.bsize))
	_, err := io.ReadFull(sr, dst[:m.bsize])
	return err
}

func (m *Memory) WriteBlock(nr uint32, src []byte) error {
	if nr >= m.capacity {
		return xerrors.Errorf("block %d: out of range (capacity %d)", nr, m.capacity)
	}
	if _, err := m.ws.Seek(int64(nr)*int64(m.bsize), io.SeekStart); err != nil {
		return err
	}
	_, err := m.ws.Write(src[:m.bsize])
	return err
}

// Export copies the device's full contents to w, in block order.
func (m *Memory) Export(w io.Writer) error {
	sr := io.NewSectionReader(m.ws.BytesReader(), 0, int64(m.capacity)*int64(m.bsize))
	_, err := io.Copy(w, sr)
	return err
}
