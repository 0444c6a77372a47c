package tree

import "sync"

// RootInumber is the inumber of the filesystem root, which always exists
// and is always a directory.
const RootInumber = 0

// FreeEntry marks an unused directory entry slot.
const FreeEntry = -1

// Kind distinguishes the two inode types tracked by the table.
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
)

func (k Kind) String() string {
	if k == KindDirectory {
		return "d"
	}
	return "f"
}

// DirEntry is one slot of a directory's fixed-size entry table. A slot
// with Inumber == FreeEntry is unused.
type DirEntry struct {
	Inumber int
	Name    string
}

// inode is one slot of the table. Every mutation of inUse, kind or
// entries is expected to happen with the caller already holding mu for
// write (content mutation), or with table.allocMu held (allocation
// bookkeeping on a slot not yet reachable from any directory entry).
type inode struct {
	mu     sync.RWMutex
	inUse  bool
	kind   Kind
	entries []DirEntry
}

// Table is the fixed-capacity inode table described in the filesystem's
// data model: a preallocated array of inodes, each carrying its own
// read/write lock. The table itself holds no lock over inode content;
// allocMu guards only the bookkeeping step of finding and claiming (or
// releasing) a free slot, which is not "mutation of an inode" in the
// sense the per-inode locks exist to serialise — by the time a new
// inode is reachable, the caller has already taken its lock for write.
type Table struct {
	allocMu  sync.Mutex
	capacity int
	slots    []*inode
}

// NewTable allocates a table with the given number of inode slots and
// initialises slot 0 as the (always present) root directory.
func NewTable(capacity int) *Table {
	if capacity < 1 {
		capacity = 1
	}
	t := &Table{capacity: capacity, slots: make([]*inode, capacity)}
	for i := range t.slots {
		t.slots[i] = &inode{}
	}
	root := t.slots[RootInumber]
	root.inUse = true
	root.kind = KindDirectory
	root.entries = freeEntries(capacity)
	return t
}

func freeEntries(n int) []DirEntry {
	entries := make([]DirEntry, n)
	for i := range entries {
		entries[i].Inumber = FreeEntry
	}
	return entries
}

// Capacity returns the total number of inode slots.
func (t *Table) Capacity() int { return t.capacity }

// Lock returns the read/write lock guarding the given inode's content.
// Callers add it to a LockSet before acquiring it; Lock itself never
// blocks.
func (t *Table) Lock(inumber int) *sync.RWMutex {
	return &t.slots[inumber].mu
}

// CreateInode claims the first free slot, marks it in use, and
// initialises it as an empty directory or a file depending on kind. The
// caller is responsible for write-locking the returned inumber and
// linking it into a parent directory before it becomes reachable by
// anyone else.
func (t *Table) CreateInode(kind Kind) (int, error) {
	t.allocMu.Lock()
	defer t.allocMu.Unlock()
	for i, slot := range t.slots {
		if !slot.inUse {
			slot.inUse = true
			slot.kind = kind
			if kind == KindDirectory {
				slot.entries = freeEntries(t.capacity)
			} else {
				slot.entries = nil
			}
			return i, nil
		}
	}
	return 0, ErrTableFull
}

// DeleteInode frees inumber's slot. The caller must already hold
// inumber's lock for write and must have unlinked it from its parent.
func (t *Table) DeleteInode(inumber int) error {
	t.allocMu.Lock()
	defer t.allocMu.Unlock()
	slot := t.slots[inumber]
	if !slot.inUse {
		return ErrNotFound
	}
	slot.inUse = false
	slot.entries = nil
	return nil
}

// Get returns inumber's kind and a copy of its directory entries (nil
// for files). The caller must hold inumber's lock, at least for read.
func (t *Table) Get(inumber int) (Kind, []DirEntry, error) {
	slot := t.slots[inumber]
	if !slot.inUse {
		return 0, nil, ErrNotFound
	}
	entries := append([]DirEntry(nil), slot.entries...)
	return slot.kind, entries, nil
}

// DirAddEntry writes a new (child, name) pair into the first free slot
// of parent's entry table. The caller must hold parent's lock for
// write.
func (t *Table) DirAddEntry(parent, child int, name string) error {
	slot := t.slots[parent]
	if !slot.inUse || slot.kind != KindDirectory {
		return ErrNotDirectory
	}
	for i := range slot.entries {
		if slot.entries[i].Inumber == FreeEntry {
			slot.entries[i] = DirEntry{Inumber: child, Name: name}
			return nil
		}
	}
	return ErrTableFull
}

// DirResetEntry clears the entry pointing at child within parent. The
// caller must hold parent's lock for write.
func (t *Table) DirResetEntry(parent, child int) error {
	slot := t.slots[parent]
	if !slot.inUse || slot.kind != KindDirectory {
		return ErrNotDirectory
	}
	for i := range slot.entries {
		if slot.entries[i].Inumber == child {
			slot.entries[i] = DirEntry{Inumber: FreeEntry}
			return nil
		}
	}
	return ErrNotFound
}

// findEntry looks up name among entries, returning its inumber.
func findEntry(entries []DirEntry, name string) (int, bool) {
	for _, e := range entries {
		if e.Inumber != FreeEntry && e.Name == name {
			return e.Inumber, true
		}
	}
	return 0, false
}

// dirNonEmpty reports whether a directory's entries contain at least
// one live child.
func dirNonEmpty(entries []DirEntry) bool {
	for _, e := range entries {
		if e.Inumber != FreeEntry {
			return true
		}
	}
	return false
}
