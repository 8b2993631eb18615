package node_test

import (
	"sort"
	"testing"

	"github.com/amigados/goados/fs"
	"github.com/amigados/goados/node"
)

func TestCompileGlobStarAndQuestion(t *testing.T) {
	re, err := node.CompileGlob("*.info")
	if err != nil {
		t.Fatalf("CompileGlob: %v", err)
	}
	if !re.MatchString("disk.info") {
		t.Error("*.info should match disk.info")
	}
	if re.MatchString("disk.infox") {
		t.Error("*.info should not match disk.infox (anchored at end)")
	}

	re2, err := node.CompileGlob("a?c")
	if err != nil {
		t.Fatalf("CompileGlob: %v", err)
	}
	if !re2.MatchString("abc") {
		t.Error("a?c should match abc")
	}
	if re2.MatchString("ac") {
		t.Error("a?c should not match ac (? requires exactly one char)")
	}
}

func TestCompileGlobEscapesRegexMetacharacters(t *testing.T) {
	re, err := node.CompileGlob("file(1).txt")
	if err != nil {
		t.Fatalf("CompileGlob: %v", err)
	}
	if !re.MatchString("file(1).txt") {
		t.Error("literal parentheses should be escaped, not treated as a regex group")
	}
}

func TestCompileGlobCaseInsensitive(t *testing.T) {
	re, err := node.CompileGlob("*.TXT")
	if err != nil {
		t.Fatalf("CompileGlob: %v", err)
	}
	if !re.MatchString("readme.txt") {
		t.Error("glob matching should be case-insensitive")
	}
}

func TestGlobListsMatchingChildren(t *testing.T) {
	fsys := freshVolume(t, fs.FFS)
	root := node.Root(fsys)
	for _, name := range []string{"a.txt", "b.txt", "c.dat"} {
		if _, err := node.CreateFile(root, name); err != nil {
			t.Fatalf("CreateFile(%s): %v", name, err)
		}
	}

	matches, err := node.Glob(root, "*.txt")
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	var names []string
	for _, m := range matches {
		n, err := m.Name()
		if err != nil {
			t.Fatalf("Name: %v", err)
		}
		names = append(names, n)
	}
	sort.Strings(names)
	if len(names) != 2 || names[0] != "a.txt" || names[1] != "b.txt" {
		t.Errorf("Glob(*.txt) = %v, want [a.txt b.txt]", names)
	}
}

func TestGlobPathResolvesDirThenGlobs(t *testing.T) {
	fsys := freshVolume(t, fs.FFS)
	root := node.Root(fsys)
	dir, err := node.Mkdir(root, "docs")
	if err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if _, err := node.CreateFile(dir, "readme.txt"); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	matches, err := node.GlobPath(root, "docs/*.txt")
	if err != nil {
		t.Fatalf("GlobPath: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("GlobPath matches = %d, want 1", len(matches))
	}
	name, err := matches[0].Name()
	if err != nil {
		t.Fatalf("Name: %v", err)
	}
	if name != "readme.txt" {
		t.Errorf("matched name = %q, want readme.txt", name)
	}
}
