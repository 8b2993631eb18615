package node

import (
	"strings"

	"github.com/amigados/goados/block"
	"github.com/amigados/goados/fs"
)

// Seek resolves a single path component against dir. "." returns dir
// unchanged, ".." returns dir's parent (root's parent is itself), ""
// and "/" both return the volume root.
func Seek(dir Node, component string) (Node, error) {
	switch component {
	case "", "/":
		return Root(dir.FS), nil
	case ".":
		if !dir.IsDir() {
			return Node{}, &fs.Error{Code: fs.NotADirectory}
		}
		return dir, nil
	case "..":
		return dir.Parent()
	}
	if !dir.IsDir() {
		return Node{}, &fs.Error{Code: fs.NotADirectory}
	}
	nr, _, err := fs.FindInDir(dir.FS.Cache, dir.FS.Layout, dir.Nr, component)
	if err != nil {
		return Node{}, err
	}
	return Node{FS: dir.FS, Nr: nr}, nil
}

// SeekPath resolves a full slash-separated path against start. A
// leading "/" anchors to the root regardless of start.
func SeekPath(start Node, path string) (Node, error) {
	cur := start
	parts := strings.Split(path, "/")
	if strings.HasPrefix(path, "/") {
		cur = Root(start.FS)
	}
	for _, p := range parts {
		if p == "" {
			continue
		}
		next, err := Seek(cur, p)
		if err != nil {
			return Node{}, err
		}
		cur = next
	}
	return cur, nil
}

// SeekDir resolves path and requires the result to be a directory.
func SeekDir(start Node, path string) (Node, error) {
	n, err := SeekPath(start, path)
	if err != nil {
		return Node{}, err
	}
	if !n.IsDir() {
		return Node{}, &fs.Error{Code: fs.NotADirectory, Message: path}
	}
	return n, nil
}

// SeekFile resolves path and requires the result to be a file.
func SeekFile(start Node, path string) (Node, error) {
	n, err := SeekPath(start, path)
	if err != nil {
		return Node{}, err
	}
	if !n.IsFile() {
		return Node{}, &fs.Error{Code: fs.NotAFile, Message: path}
	}
	return n, nil
}

// Children lists every directory entry of dir, in hash-table order
// (bucket 0 upward, each bucket's chain head first).
func Children(dir Node) ([]Node, error) {
	if !dir.IsDir() {
		return nil, &fs.Error{Code: fs.NotADirectory}
	}
	dirBlk, err := dir.FS.Cache.Fetch(dir.Nr)
	if err != nil {
		return nil, err
	}
	htSize := dir.FS.Layout.HashTableSize()
	var out []Node
	for i := 0; i < htSize; i++ {
		start := fs.HashSlot(dirBlk.Kind, dirBlk.Bytes, htSize, i)
		err := fs.WalkHashChain(dir.FS.Cache, start, func(nr uint32, kind block.Kind) bool {
			out = append(out, Node{FS: dir.FS, Nr: nr})
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
