package node

import (
	"regexp"
	"strings"

	"github.com/amigados/goados/fs"
)

// CompileGlob translates an AmigaDOS-style glob into a case-insensitive
// regular expression: "*" becomes ".*", "?" becomes ".", every other
// character is escaped literally. Matching is always case-insensitive
// regardless of the volume's INTL flavor, since glob patterns are user
// input, not stored names.
func CompileGlob(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("(?i)^")
	for _, r := range pattern {
		switch r {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, &fs.Error{Code: fs.InvalidRegex, Message: pattern, Cause: err}
	}
	return re, nil
}

// Glob lists dir's children whose name matches pattern.
func Glob(dir Node, pattern string) ([]Node, error) {
	re, err := CompileGlob(pattern)
	if err != nil {
		return nil, err
	}
	children, err := Children(dir)
	if err != nil {
		return nil, err
	}
	var out []Node
	for _, c := range children {
		name, err := c.Name()
		if err != nil {
			continue
		}
		if re.MatchString(name) {
			out = append(out, c)
		}
	}
	return out, nil
}

// GlobPath resolves every path component but the last normally, then
// globs the last component against the resulting directory's children.
func GlobPath(start Node, path string) ([]Node, error) {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return Glob(start, path)
	}
	dir, err := SeekDir(start, path[:idx])
	if err != nil {
		return nil, err
	}
	return Glob(dir, path[idx+1:])
}
