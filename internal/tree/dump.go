package tree

import (
	"fmt"
	"io"
	"sort"
)

// Dump writes a depth-first, human-readable listing of the tree to w:
// each file as "<indent>f <name>" and each directory as "<indent>d
// <name>" followed by its contents indented one level further. The
// root itself is not printed, only its contents. Callers that need a
// consistent snapshot are expected to hold this as a global barrier
// against concurrent mutation (see the transport's print barrier);
// Dump itself only takes the read lock of whichever
// node it is currently visiting.
func (t *Tree) Dump(w io.Writer) error {
	return t.dumpChildren(w, RootInumber, 0)
}

func (t *Tree) dumpChildren(w io.Writer, parent int, depth int) error {
	mu := t.table.Lock(parent)
	mu.RLock()
	kind, entries, err := t.table.Get(parent)
	mu.RUnlock()
	if err != nil {
		return err
	}
	if kind != KindDirectory {
		return nil
	}

	children := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		if e.Inumber != FreeEntry {
			children = append(children, e)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })

	indent := indentFor(depth)
	for _, child := range children {
		childMu := t.table.Lock(child.Inumber)
		childMu.RLock()
		childKind, _, err := t.table.Get(child.Inumber)
		childMu.RUnlock()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s%s %s\n", indent, childKind, child.Name); err != nil {
			return err
		}
		if childKind == KindDirectory {
			if err := t.dumpChildren(w, child.Inumber, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func indentFor(depth int) string {
	indent := make([]byte, depth*2)
	for i := range indent {
		indent[i] = ' '
	}
	return string(indent)
}
