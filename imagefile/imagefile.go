// Package imagefile reads and writes whole-volume image files, with
// optional gzip or zstd compression so archived or distributed images
// don't have to carry their full raw size.
package imagefile

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/google/renameio"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"golang.org/x/xerrors"

	"github.com/amigados/goados/block"
	"github.com/amigados/goados/internal/blockdev"
)

// Codec names a compression format an image file may be stored under.
type Codec int

const (
	Raw Codec = iota
	Gzip
	Zstd
)

// DetectCodec picks a Codec from path's extension: ".gz" for gzip,
// ".zst" for zstd, anything else is treated as raw.
func DetectCodec(path string) Codec {
	switch {
	case strings.HasSuffix(path, ".gz"):
		return Gzip
	case strings.HasSuffix(path, ".zst"):
		return Zstd
	default:
		return Raw
	}
}

// Load reads path (decompressing per DetectCodec(path)) into an
// in-memory block device of the given block size. The device's
// capacity is derived from the decompressed byte length.
func Load(path string, bsize uint32) (*blockdev.Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	raw, err := decompress(f, DetectCodec(path))
	if err != nil {
		return nil, xerrors.Errorf("decompressing %s: %w", path, err)
	}
	if len(raw)%int(bsize) != 0 {
		return nil, xerrors.Errorf("%s: size %d is not a multiple of block size %d", path, len(raw), bsize)
	}

	capacity := uint32(len(raw)) / bsize
	dev := blockdev.NewMemory(capacity, bsize)
	buf := make([]byte, bsize)
	for nr := uint32(0); nr < capacity; nr++ {
		copy(buf, raw[int(nr)*int(bsize):int(nr+1)*int(bsize)])
		if err := dev.WriteBlock(nr, buf); err != nil {
			return nil, err
		}
	}
	return dev, nil
}

func decompress(r io.Reader, codec Codec) ([]byte, error) {
	switch codec {
	case Gzip:
		gz, err := pgzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		return ioutil.ReadAll(gz)
	case Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return ioutil.ReadAll(zr)
	default:
		return ioutil.ReadAll(r)
	}
}

// Save writes dev's full contents to path, compressed per codec,
// replacing any existing file atomically.
func Save(path string, dev block.Device, codec Codec) error {
	var raw bytes.Buffer
	buf := make([]byte, dev.BlockSize())
	for nr := uint32(0); nr < dev.Capacity(); nr++ {
		if err := dev.ReadBlock(nr, buf); err != nil {
			return err
		}
		raw.Write(buf)
	}

	t, err := renameio.TempFile("", path)
	if err != nil {
		return xerrors.Errorf("creating temp file for %s: %w", path, err)
	}
	defer t.Cleanup()

	if err := compress(t, raw.Bytes(), codec); err != nil {
		return xerrors.Errorf("compressing %s: %w", path, err)
	}
	return t.CloseAtomicallyReplace()
}

func compress(w io.Writer, raw []byte, codec Codec) error {
	switch codec {
	case Gzip:
		gz := pgzip.NewWriter(w)
		if _, err := gz.Write(raw); err != nil {
			return err
		}
		return gz.Close()
	case Zstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return err
		}
		if _, err := zw.Write(raw); err != nil {
			return err
		}
		return zw.Close()
	default:
		_, err := w.Write(raw)
		return err
	}
}
