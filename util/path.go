package util

import (
	"path"
	"sort"
	"strings"
)

// RelativePath is a slash-separated path relative to the mount root.
// The empty string is not a valid path; use NewRelativePath to build
// one from untrusted input.
type RelativePath string

// NewRelativePath cleans and validates a candidate path. Leading slashes
// are stripped so that FUSE-side absolute-looking paths normalize to the
// mount-relative form the journal stores.
func NewRelativePath(s string) (RelativePath, error) {
	s = strings.TrimPrefix(s, "/")
	if s == "" {
		return "", ErrEmptyPath
	}
	cleaned := path.Clean(s)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrPathEscapesRoot
	}
	return RelativePath(cleaned), nil
}

func (p RelativePath) String() string { return string(p) }

// Dir returns the parent path, or "" for a top-level name.
func (p RelativePath) Dir() RelativePath {
	d := path.Dir(string(p))
	if d == "." {
		return ""
	}
	return RelativePath(d)
}

// Base returns the final element of the path.
func (p RelativePath) Base() string {
	return path.Base(string(p))
}

// PathSet is an unordered set of relative paths.
type PathSet map[RelativePath]struct{}

// NewPathSet builds a set from the given paths.
func NewPathSet(paths ...RelativePath) PathSet {
	s := make(PathSet, len(paths))
	for _, p := range paths {
		s[p] = struct{}{}
	}
	return s
}

func (s PathSet) Add(p RelativePath)      { s[p] = struct{}{} }
func (s PathSet) Remove(p RelativePath)   { delete(s, p) }
func (s PathSet) Contains(p RelativePath) bool {
	_, ok := s[p]
	return ok
}

func (s PathSet) Len() int { return len(s) }

// Clone returns an independent copy of the set.
func (s PathSet) Clone() PathSet {
	c := make(PathSet, len(s))
	for p := range s {
		c[p] = struct{}{}
	}
	return c
}

// Sorted returns the members in lexical order, for stable output.
func (s PathSet) Sorted() []RelativePath {
	out := make([]RelativePath, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the members in lexical order as plain strings.
func (s PathSet) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, p := range sorted {
		out[i] = string(p)
	}
	return out
}
