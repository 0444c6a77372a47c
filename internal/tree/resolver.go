package tree

import "fmt"

// resolve walks path from the root, adding every node's lock to ls in
// root-to-leaf order. Every ancestor of the terminal is read-locked and
// stays locked until the caller releases ls; an ancestor whose lock ls
// already holds (in either mode, as in move's second walk) is not locked
// again. The terminal itself is locked in terminalMode (or left merely
// added, unlocked, for ModeNone) and its inumber is returned. The caller
// owns ls and is responsible for releasing it.
//
// For an n-component path this adds n+1 locks: the root, plus one for
// each resolved component, the last of which is the terminal.
func resolve(table *Table, ls *LockSet, path string, terminalMode Mode) (int, error) {
	segments, err := Segments(path)
	if err != nil {
		return 0, err
	}

	current := RootInumber
	ls.Add(table.Lock(current))

	for _, seg := range segments {
		last := ls.LastIndex()
		_, heldRead := ls.FindLocked(ls.MuAt(last), ModeRead, last)
		_, heldWrite := ls.FindLocked(ls.MuAt(last), ModeWrite, last)
		if !heldRead && !heldWrite {
			ls.LockLastForMode(ModeRead)
		}
		kind, entries, err := table.Get(current)
		if err != nil {
			return 0, err
		}
		if kind != KindDirectory {
			return 0, fmt.Errorf("%q: %w", path, ErrNotDirectory)
		}
		child, ok := findEntry(entries, seg)
		if !ok {
			return 0, fmt.Errorf("%q: %w", path, ErrNotFound)
		}
		current = child
		ls.Add(table.Lock(current))
	}

	ls.LockLastForMode(terminalMode)
	return current, nil
}
