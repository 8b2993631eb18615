package node

import (
	"sort"

	"github.com/amigados/goados/fs"
)

// Tree is a materialized snapshot of a directory subtree.
type Tree struct {
	Node     Node
	Name     string
	Children []*Tree
}

// BuildOptions controls Build's traversal.
type BuildOptions struct {
	// MaxDepth bounds recursion; 0 means unlimited.
	MaxDepth int
	// Accept, if non-nil, filters which entries are included (and, for
	// directories, whether their subtree is descended into at all).
	Accept func(Node) bool
	// Less, if non-nil, orders siblings; otherwise hash-table order is
	// kept.
	Less func(a, b *Tree) bool
}

// Build walks root's subtree into a Tree, detecting cycles along any
// single root-to-leaf path (a corrupted parent/hash pointer looping back
// to an ancestor) and raising HasCycles rather than recursing forever.
func Build(root Node, opts BuildOptions) (*Tree, error) {
	return buildRec(root, opts, map[uint32]bool{}, 0)
}

func buildRec(n Node, opts BuildOptions, ancestors map[uint32]bool, depth int) (*Tree, error) {
	if ancestors[n.Nr] {
		return nil, &fs.Error{Code: fs.HasCycles, Message: "directory tree revisits an ancestor block"}
	}
	name, err := n.Name()
	if err != nil {
		return nil, err
	}
	t := &Tree{Node: n, Name: name}
	if !n.IsDir() {
		return t, nil
	}
	if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
		return t, nil
	}

	ancestors[n.Nr] = true
	defer delete(ancestors, n.Nr)

	kids, err := Children(n)
	if err != nil {
		return nil, err
	}
	for _, k := range kids {
		if opts.Accept != nil && !opts.Accept(k) {
			continue
		}
		ct, err := buildRec(k, opts, ancestors, depth+1)
		if err != nil {
			return nil, err
		}
		t.Children = append(t.Children, ct)
	}
	if opts.Less != nil {
		sort.Slice(t.Children, func(i, j int) bool { return opts.Less(t.Children[i], t.Children[j]) })
	}
	return t, nil
}

// ByName orders Trees by name, case-insensitively, for use as a Less
// function.
func ByName(a, b *Tree) bool {
	return CompareFold(a.Name, b.Name)
}

// CompareFold reports whether a sorts before b under ASCII
// case-insensitive comparison.
func CompareFold(a, b string) bool {
	la, lb := foldLower(a), foldLower(b)
	return la < lb
}

func foldLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return string(b)
}
