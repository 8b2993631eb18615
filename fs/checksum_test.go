package fs

import (
	"testing"

	"github.com/amigados/goados/block"
)

func TestStandardChecksumRoundTrip(t *testing.T) {
	b := make([]byte, 512)
	setWord(b, 0, 2)
	setWord(b, -1, 1)
	setWord(b, 3, 72)

	UpdateChecksum(block.Root, 880, b, nil)

	var sum uint32
	for i := 0; i < len(b)/4; i++ {
		sum += getWord(b, i)
	}
	if sum != 0 {
		t.Errorf("sum of all words after checksum = %#x, want 0", sum)
	}
}

func TestStandardChecksumUnaffectedByItself(t *testing.T) {
	b := make([]byte, 512)
	setWord(b, 0, 2)
	UpdateChecksum(block.Root, 880, b, nil)
	first := getWord(b, 5)
	UpdateChecksum(block.Root, 880, b, nil)
	second := getWord(b, 5)
	if first != second {
		t.Errorf("recomputing checksum on an unchanged block changed it: %#x != %#x", first, second)
	}
}

func TestChecksumLocationNonChecksummedKinds(t *testing.T) {
	if _, ok := checksumLocation(block.BitmapExt, 10); ok {
		t.Error("BitmapExt should carry no checksum")
	}
	if _, ok := checksumLocation(block.Boot, 1); ok {
		t.Error("boot block 1 (not block 0) should carry no checksum of its own")
	}
}

func TestBootChecksumSpansBothBlocks(t *testing.T) {
	b0 := make([]byte, 512)
	b1 := make([]byte, 512)
	b0[0], b0[1], b0[2] = 'D', 'O', 'S'
	setWord(b1, 10, 0xCAFEBABE)

	UpdateChecksum(block.Boot, 0, b0, b1)

	result := getWord(b0, 0)
	for i := 1; i < len(b0)/4; i++ {
		result = addOnesComplement(result, getWord(b0, i))
	}
	for i := 0; i < len(b1)/4; i++ {
		result = addOnesComplement(result, getWord(b1, i))
	}
	if result != 0xFFFFFFFF {
		t.Errorf("ones'-complement sum including checksum = %#x, want all-ones", result)
	}
}

func TestAddOnesComplementCarries(t *testing.T) {
	got := addOnesComplement(0xFFFFFFFF, 1)
	if got != 1 {
		t.Errorf("addOnesComplement(0xFFFFFFFF, 1) = %#x, want 1 (end-around carry)", got)
	}
}
