package tree

import (
	"fmt"
	"strings"
)

const (
	// MaxNameLength is the longest a single path component may be.
	MaxNameLength = 40
	// MaxPathLength is the longest a full path string may be.
	MaxPathLength = 100
)

// Segments splits path into its non-empty components, validating length
// limits along the way. The root path ("" or "/") yields a nil slice.
func Segments(path string) ([]string, error) {
	if len(path) > MaxPathLength {
		return nil, fmt.Errorf("%q: %w", path, ErrInvalidPath)
	}
	trimmed := strings.TrimPrefix(path, "/")
	trimmed = strings.TrimSuffix(trimmed, "/")
	if trimmed == "" {
		return nil, nil
	}
	parts := strings.Split(trimmed, "/")
	for _, part := range parts {
		if part == "" || len(part) > MaxNameLength {
			return nil, fmt.Errorf("%q: %w", path, ErrInvalidPath)
		}
	}
	return parts, nil
}

// SplitParentChild splits path into its parent directory path and final
// component name. It fails for the root path, which has no parent.
func SplitParentChild(path string) (parent string, child string, err error) {
	segs, err := Segments(path)
	if err != nil {
		return "", "", err
	}
	if len(segs) == 0 {
		return "", "", fmt.Errorf("%q: %w", path, ErrInvalidPath)
	}
	child = segs[len(segs)-1]
	if len(segs) == 1 {
		return "/", child, nil
	}
	return "/" + strings.Join(segs[:len(segs)-1], "/"), child, nil
}

// SamePath reports whether a and b resolve to the same sequence of path
// components, independent of leading/trailing slashes.
func SamePath(a, b string) (bool, error) {
	as, err := Segments(a)
	if err != nil {
		return false, err
	}
	bs, err := Segments(b)
	if err != nil {
		return false, err
	}
	if len(as) != len(bs) {
		return false, nil
	}
	for i := range as {
		if as[i] != bs[i] {
			return false, nil
		}
	}
	return true, nil
}

// IsAncestor reports whether descendant names a path strictly inside the
// ancestor subtree (ancestor is a proper, component-wise prefix).
func IsAncestor(ancestor, descendant string) (bool, error) {
	as, err := Segments(ancestor)
	if err != nil {
		return false, err
	}
	ds, err := Segments(descendant)
	if err != nil {
		return false, err
	}
	if len(ds) <= len(as) {
		return false, nil
	}
	for i, s := range as {
		if ds[i] != s {
			return false, nil
		}
	}
	return true, nil
}
