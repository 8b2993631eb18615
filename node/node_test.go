package node_test

import (
	"testing"
	"time"

	"github.com/amigados/goados/fs"
	"github.com/amigados/goados/internal/blockdev"
	"github.com/amigados/goados/node"
)

func freshVolume(t *testing.T, dos fs.DOSType) *fs.FileSystem {
	t.Helper()
	layout := fs.NewDDFloppyLayout(dos)
	dev := blockdev.NewMemory(layout.Capacity, layout.BSize)
	created := fs.DateFromTime(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	fsys, err := fs.Format(dev, layout, "Test", created)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	return fsys
}

func TestRootNode(t *testing.T) {
	fsys := freshVolume(t, fs.FFS)
	root := node.Root(fsys)
	if !root.IsDir() {
		t.Error("root should report as a directory")
	}
	name, err := root.Name()
	if err != nil {
		t.Fatalf("Name: %v", err)
	}
	if name != "Test" {
		t.Errorf("root name = %q, want Test", name)
	}
	parent, err := root.Parent()
	if err != nil {
		t.Fatalf("Parent: %v", err)
	}
	if !parent.Equal(root) {
		t.Error("root's parent should be itself")
	}
}

func TestMkdirAndSeek(t *testing.T) {
	fsys := freshVolume(t, fs.FFS)
	root := node.Root(fsys)

	dir, err := node.Mkdir(root, "Documents")
	if err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if !dir.IsDir() {
		t.Error("created entry should be a directory")
	}

	found, err := node.Seek(root, "Documents")
	if err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if !found.Equal(dir) {
		t.Error("Seek did not find the created directory")
	}

	back, err := node.Seek(dir, "..")
	if err != nil {
		t.Fatalf("Seek(..): %v", err)
	}
	if !back.Equal(root) {
		t.Error("Seek('..') from a top-level dir should reach root")
	}
}

func TestMkdirDuplicateNameFails(t *testing.T) {
	fsys := freshVolume(t, fs.FFS)
	root := node.Root(fsys)
	if _, err := node.Mkdir(root, "dup"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if _, err := node.Mkdir(root, "dup"); err == nil {
		t.Error("expected an Exists error creating a duplicate name")
	}
}

func TestCreateFileReadEmpty(t *testing.T) {
	fsys := freshVolume(t, fs.FFS)
	root := node.Root(fsys)

	f, err := node.CreateFile(root, "empty")
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if !f.IsFile() {
		t.Error("created entry should be a file")
	}
	data, err := node.Read(f)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Read of an empty file = %d bytes, want 0", len(data))
	}
}

func TestReplaceAndReadRoundTripFFS(t *testing.T) {
	fsys := freshVolume(t, fs.FFS)
	root := node.Root(fsys)
	f, err := node.CreateFile(root, "hello.txt")
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	want := []byte("hello, amiga world")
	if err := node.Replace(f, want); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	got, err := node.Read(f)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("Read = %q, want %q", got, want)
	}
	size, err := f.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if int(size) != len(want) {
		t.Errorf("Size = %d, want %d", size, len(want))
	}
}

func TestReplaceAndReadRoundTripOFS(t *testing.T) {
	fsys := freshVolume(t, fs.OFS)
	root := node.Root(fsys)
	f, err := node.CreateFile(root, "hello.txt")
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	want := []byte("hello from the old file system")
	if err := node.Replace(f, want); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	got, err := node.Read(f)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("Read = %q, want %q", got, want)
	}
}

func TestLargeFileSpansMultipleDataBlocksAndListBlocks(t *testing.T) {
	fsys := freshVolume(t, fs.FFS)
	root := node.Root(fsys)
	f, err := node.CreateFile(root, "big")
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	refsPerBlock := fsys.Layout.RefsPerBlock()
	dataSize := fsys.Layout.DataSize()
	size := (refsPerBlock+3)*dataSize + 17
	want := make([]byte, size)
	for i := range want {
		want[i] = byte(i % 251)
	}
	if err := node.Replace(f, want); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	got, err := node.Read(f)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Read length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestResizeTruncatesAndExtends(t *testing.T) {
	fsys := freshVolume(t, fs.FFS)
	root := node.Root(fsys)
	f, err := node.CreateFile(root, "r")
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := node.Replace(f, []byte("0123456789")); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := node.Resize(f, 5); err != nil {
		t.Fatalf("Resize shrink: %v", err)
	}
	got, err := node.Read(f)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "01234" {
		t.Errorf("after shrink Read = %q, want %q", got, "01234")
	}
	if err := node.Resize(f, 8); err != nil {
		t.Fatalf("Resize extend: %v", err)
	}
	got, err = node.Read(f)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 8 || string(got[:5]) != "01234" {
		t.Errorf("after extend Read = %q", got)
	}
}

func TestRmFreesBlocks(t *testing.T) {
	fsys := freshVolume(t, fs.FFS)
	root := node.Root(fsys)
	f, err := node.CreateFile(root, "doomed")
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := node.Replace(f, []byte("some content")); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	before := fsys.Bitmap.FreeCount()
	if err := node.Rm(f); err != nil {
		t.Fatalf("Rm: %v", err)
	}
	after := fsys.Bitmap.FreeCount()
	if after <= before {
		t.Errorf("FreeCount after Rm = %d, want more than %d", after, before)
	}
	if _, err := node.Seek(root, "doomed"); err == nil {
		t.Error("removed file should no longer be found")
	}
}

func TestRmNonEmptyDirFails(t *testing.T) {
	fsys := freshVolume(t, fs.FFS)
	root := node.Root(fsys)
	dir, err := node.Mkdir(root, "d")
	if err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if _, err := node.CreateFile(dir, "child"); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := node.Rm(dir); err == nil {
		t.Error("expected DirNotEmpty removing a non-empty directory")
	}
}

func TestRenameRelinksUnderNewBucket(t *testing.T) {
	fsys := freshVolume(t, fs.FFS)
	root := node.Root(fsys)
	f, err := node.CreateFile(root, "old-name")
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := node.Rename(f, "new-name"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if _, err := node.Seek(root, "old-name"); err == nil {
		t.Error("old name should no longer resolve")
	}
	found, err := node.Seek(root, "new-name")
	if err != nil {
		t.Fatalf("Seek(new-name): %v", err)
	}
	if !found.Equal(f) {
		t.Error("renamed entry should resolve to the same node")
	}
}

func TestRenameVolumeRoot(t *testing.T) {
	fsys := freshVolume(t, fs.FFS)
	root := node.Root(fsys)
	if err := node.Rename(root, "NewLabel"); err != nil {
		t.Fatalf("Rename root: %v", err)
	}
	name, err := root.Name()
	if err != nil {
		t.Fatalf("Name: %v", err)
	}
	if name != "NewLabel" {
		t.Errorf("root name after Rename = %q, want NewLabel", name)
	}
	parent, err := root.Parent()
	if err != nil {
		t.Fatalf("Parent: %v", err)
	}
	if !parent.Equal(root) {
		t.Error("root should still be its own parent after renaming")
	}
}

func TestMoveBetweenDirectories(t *testing.T) {
	fsys := freshVolume(t, fs.FFS)
	root := node.Root(fsys)
	a, err := node.Mkdir(root, "a")
	if err != nil {
		t.Fatalf("Mkdir a: %v", err)
	}
	b, err := node.Mkdir(root, "b")
	if err != nil {
		t.Fatalf("Mkdir b: %v", err)
	}
	f, err := node.CreateFile(a, "file")
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := node.Move(f, b); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if _, err := node.Seek(a, "file"); err == nil {
		t.Error("file should no longer be found under its old parent")
	}
	found, err := node.Seek(b, "file")
	if err != nil {
		t.Fatalf("Seek under new parent: %v", err)
	}
	if !found.Equal(f) {
		t.Error("moved entry should resolve to the same node under its new parent")
	}
}

func TestCopyDuplicatesContent(t *testing.T) {
	fsys := freshVolume(t, fs.FFS)
	root := node.Root(fsys)
	src, err := node.CreateFile(root, "src")
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := node.Replace(src, []byte("copy me")); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	dst, err := node.Copy(src, root, "dst")
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	got, err := node.Read(dst)
	if err != nil {
		t.Fatalf("Read dst: %v", err)
	}
	if string(got) != "copy me" {
		t.Errorf("copied content = %q, want %q", got, "copy me")
	}
	srcStillThere, err := node.Read(src)
	if err != nil {
		t.Fatalf("Read src: %v", err)
	}
	if string(srcStillThere) != "copy me" {
		t.Error("source content should be unaffected by Copy")
	}
}

func TestSeekPathAbsoluteAndRelative(t *testing.T) {
	fsys := freshVolume(t, fs.FFS)
	root := node.Root(fsys)
	dir, err := node.Mkdir(root, "sub")
	if err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	f, err := node.CreateFile(dir, "leaf")
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	got, err := node.SeekPath(root, "/sub/leaf")
	if err != nil {
		t.Fatalf("SeekPath absolute: %v", err)
	}
	if !got.Equal(f) {
		t.Error("absolute SeekPath did not resolve to the created file")
	}

	got2, err := node.SeekPath(dir, "leaf")
	if err != nil {
		t.Fatalf("SeekPath relative: %v", err)
	}
	if !got2.Equal(f) {
		t.Error("relative SeekPath did not resolve to the created file")
	}
}

func TestSeekDirAndSeekFileTypeChecks(t *testing.T) {
	fsys := freshVolume(t, fs.FFS)
	root := node.Root(fsys)
	if _, err := node.Mkdir(root, "adir"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if _, err := node.CreateFile(root, "afile"); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if _, err := node.SeekFile(root, "adir"); err == nil {
		t.Error("SeekFile on a directory should fail")
	}
	if _, err := node.SeekDir(root, "afile"); err == nil {
		t.Error("SeekDir on a file should fail")
	}
}
