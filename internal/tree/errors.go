// Package tree implements the in-memory hierarchical filesystem: a
// fixed-capacity inode table, per-inode read/write locking, and the
// create/delete/lookup/move tree operations built on top of them.
package tree

import "errors"

var (
	// ErrNotFound is returned when a path component, or a target
	// inumber, does not exist.
	ErrNotFound = errors.New("no such file or directory")

	// ErrExists is returned when create or move would overwrite an
	// existing directory entry.
	ErrExists = errors.New("file or directory already exists")

	// ErrNotDirectory is returned when an operation requires a
	// directory but the resolved inode is a file.
	ErrNotDirectory = errors.New("not a directory")

	// ErrNotEmpty is returned by delete when the target is a
	// non-empty directory.
	ErrNotEmpty = errors.New("directory not empty")

	// ErrTableFull is returned when the inode table has no free
	// slots, or a directory has no free entry slots.
	ErrTableFull = errors.New("inode table full")

	// ErrInvalidPath is returned for malformed paths: empty
	// components, components or paths over the length limit, or
	// attempts to split the root into parent/child.
	ErrInvalidPath = errors.New("invalid path")

	// ErrSamePath is returned by move when source and destination
	// name the same node.
	ErrSamePath = errors.New("source and destination are the same path")

	// ErrSelfNesting is returned by move when the destination lies
	// inside the source subtree.
	ErrSelfNesting = errors.New("destination is nested inside source")
)
