package tree

import (
	"fmt"
	"time"

	"github.com/jpillora/backoff"

	"github.com/tecnicofs-project/tecnicofs/clock"
)

// Tree is the in-memory hierarchical filesystem: a fixed-capacity inode
// table plus the create/delete/lookup/move operations that keep its
// directory structure consistent under concurrent access.
type Tree struct {
	table *Table
	clock clock.Clock

	// moveBackoffMin/Max bound the randomised, multiplicatively
	// increasing sleep move takes between attempts to acquire both
	// locks it needs without blocking on another operation that
	// might be waiting on one of them in the opposite order.
	moveBackoffMin time.Duration
	moveBackoffMax time.Duration

	// maxMoveRetries bounds how many times move will retry its
	// deadlock-avoidance loop before giving up. Zero means unbounded.
	maxMoveRetries int
}

// Option configures a Tree at construction time.
type Option func(*Tree)

// WithClock overrides the clock used to pace move's retry backoff.
// Tests use this to inject a fake clock instead of sleeping for real.
func WithClock(c clock.Clock) Option {
	return func(t *Tree) { t.clock = c }
}

// WithMoveBackoff overrides the min/max sleep bounds of move's
// deadlock-avoidance retry loop.
func WithMoveBackoff(min, max time.Duration) Option {
	return func(t *Tree) { t.moveBackoffMin, t.moveBackoffMax = min, max }
}

// WithMaxMoveRetries bounds the number of retries move's
// deadlock-avoidance loop will attempt before failing. Zero (the
// default) means unbounded: move keeps trying until it succeeds.
func WithMaxMoveRetries(n int) Option {
	return func(t *Tree) { t.maxMoveRetries = n }
}

// New builds a Tree with a table of the given inode capacity.
func New(capacity int, opts ...Option) *Tree {
	t := &Tree{
		table:          NewTable(capacity),
		clock:          clock.RealClock{},
		moveBackoffMin: 1 * time.Millisecond,
		moveBackoffMax: 20 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Capacity returns the inode table's fixed capacity.
func (t *Tree) Capacity() int { return t.table.Capacity() }

// Create adds a new file or directory at path. The parent must already
// exist and be a directory; the final component must not already be
// taken.
func (t *Tree) Create(path string, kind Kind) error {
	parentPath, childName, err := SplitParentChild(path)
	if err != nil {
		return err
	}

	ls := NewLockSet()
	defer ls.ReleaseAll()

	parentInumber, err := resolve(t.table, ls, parentPath, ModeWrite)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	parentKind, entries, err := t.table.Get(parentInumber)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if parentKind != KindDirectory {
		return fmt.Errorf("create %s: %w", path, ErrNotDirectory)
	}
	if _, exists := findEntry(entries, childName); exists {
		return fmt.Errorf("create %s: %w", path, ErrExists)
	}

	childInumber, err := t.table.CreateInode(kind)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	ls.Add(t.table.Lock(childInumber))
	ls.LockLastForMode(ModeWrite)

	if err := t.table.DirAddEntry(parentInumber, childInumber, childName); err != nil {
		_ = t.table.DeleteInode(childInumber)
		return fmt.Errorf("create %s: %w", path, err)
	}
	return nil
}

// Delete removes the file or empty directory at path.
func (t *Tree) Delete(path string) error {
	parentPath, childName, err := SplitParentChild(path)
	if err != nil {
		return err
	}

	ls := NewLockSet()
	defer ls.ReleaseAll()

	parentInumber, err := resolve(t.table, ls, parentPath, ModeWrite)
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	parentKind, entries, err := t.table.Get(parentInumber)
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	if parentKind != KindDirectory {
		return fmt.Errorf("delete %s: %w", path, ErrNotDirectory)
	}
	childInumber, found := findEntry(entries, childName)
	if !found {
		return fmt.Errorf("delete %s: %w", path, ErrNotFound)
	}

	ls.Add(t.table.Lock(childInumber))
	ls.LockLastForMode(ModeWrite)

	childKind, childEntries, err := t.table.Get(childInumber)
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	if childKind == KindDirectory && dirNonEmpty(childEntries) {
		return fmt.Errorf("delete %s: %w", path, ErrNotEmpty)
	}

	if err := t.table.DirResetEntry(parentInumber, childInumber); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	if err := t.table.DeleteInode(childInumber); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

// Lookup resolves path and returns its inumber, without mutating
// anything.
func (t *Tree) Lookup(path string) (int, error) {
	ls := NewLockSet()
	defer ls.ReleaseAll()

	inumber, err := resolve(t.table, ls, path, ModeRead)
	if err != nil {
		return -1, fmt.Errorf("lookup %s: %w", path, err)
	}
	return inumber, nil
}

// Move relocates the node named by src to dst, which must not already
// exist. Source and destination parents are write-locked in an order
// that avoids deadlocking against a concurrent move in the opposite
// direction: if the destination parent is found to already be a
// read-locked ancestor of the source descent, that read lock is
// released before escalating to a write lock; if a non-blocking write
// acquire of an unrelated destination parent fails, move backs off and
// retries rather than risk acquiring locks out of root-to-leaf order.
func (t *Tree) Move(src, dst string) error {
	if same, err := SamePath(src, dst); err != nil {
		return err
	} else if same {
		return fmt.Errorf("move %s to %s: %w", src, dst, ErrSamePath)
	}
	if nested, err := IsAncestor(src, dst); err != nil {
		return err
	} else if nested {
		return fmt.Errorf("move %s to %s: %w", src, dst, ErrSelfNesting)
	}

	srcParentPath, srcChildName, err := SplitParentChild(src)
	if err != nil {
		return err
	}
	dstParentPath, dstChildName, err := SplitParentChild(dst)
	if err != nil {
		return err
	}

	ls := NewLockSet()
	defer ls.ReleaseAll()

	srcParentInumber, err := resolve(t.table, ls, srcParentPath, ModeWrite)
	if err != nil {
		return fmt.Errorf("move %s: resolve source parent: %w", src, err)
	}
	srcParentKind, srcParentEntries, err := t.table.Get(srcParentInumber)
	if err != nil {
		return fmt.Errorf("move %s: %w", src, err)
	}
	if srcParentKind != KindDirectory {
		return fmt.Errorf("move %s: %w", src, ErrNotDirectory)
	}
	srcChildInumber, found := findEntry(srcParentEntries, srcChildName)
	if !found {
		return fmt.Errorf("move %s: %w", src, ErrNotFound)
	}

	ls.Add(t.table.Lock(srcChildInumber))
	srcChildIdx := ls.LastIndex()
	ls.LockLastForMode(ModeWrite)

	var dstParentInumber int
	if samePrt, err := SamePath(srcParentPath, dstParentPath); err != nil {
		return err
	} else if samePrt {
		// Both sides are already covered by the write lock taken
		// above; no new lock is needed.
		dstParentInumber = srcParentInumber
	} else {
		dstParentInumber, err = t.acquireDestinationParent(ls, dstParentPath, srcChildIdx)
		if err != nil {
			return fmt.Errorf("move %s to %s: %w", src, dst, err)
		}
	}

	// The destination may have changed shape while locks were
	// released and reacquired during backoff; recheck before acting.
	dstParentKind, dstParentEntries, err := t.table.Get(dstParentInumber)
	if err != nil {
		return fmt.Errorf("move %s to %s: %w", src, dst, err)
	}
	if dstParentKind != KindDirectory {
		return fmt.Errorf("move %s to %s: %w", src, dst, ErrNotDirectory)
	}
	if _, exists := findEntry(dstParentEntries, dstChildName); exists {
		return fmt.Errorf("move %s to %s: %w", src, dst, ErrExists)
	}

	if err := t.table.DirAddEntry(dstParentInumber, srcChildInumber, dstChildName); err != nil {
		return fmt.Errorf("move %s to %s: %w", src, dst, err)
	}
	if err := t.table.DirResetEntry(srcParentInumber, srcChildInumber); err != nil {
		return fmt.Errorf("move %s to %s: %w", src, dst, err)
	}
	return nil
}

// acquireDestinationParent resolves dstParentPath into ls (unlocked, as
// ModeNone) and brings it to a write lock, handling both the ancestor
// conflict and independent-lock cases described on Move.
func (t *Tree) acquireDestinationParent(ls *LockSet, dstParentPath string, srcChildIdx int) (int, error) {
	dstParentInumber, err := resolve(t.table, ls, dstParentPath, ModeNone)
	if err != nil {
		return 0, fmt.Errorf("resolve destination parent: %w", err)
	}
	dstIdx := ls.LastIndex()
	dstMu := ls.MuAt(dstIdx)

	// Case A: the destination parent is already a read-locked
	// ancestor of the source descent. Drop that read lock before
	// escalating to a write lock on the same inode.
	if ancestorIdx, ok := ls.FindLocked(dstMu, ModeRead, dstIdx); ok {
		ls.ReleaseAt(ancestorIdx)
	}

	// Case B: try a non-blocking write acquire first.
	if ls.TryLockAtForWrite(dstIdx) {
		return dstParentInumber, nil
	}

	b := &backoff.Backoff{Min: t.moveBackoffMin, Max: t.moveBackoffMax, Factor: 2, Jitter: true}
	for attempt := 1; ; attempt++ {
		if t.maxMoveRetries > 0 && attempt > t.maxMoveRetries {
			return 0, fmt.Errorf("exceeded %d retries acquiring destination parent lock", t.maxMoveRetries)
		}

		// Release our write lock on the source child so a
		// concurrent move descending through the destination
		// parent cannot deadlock waiting on it, then block for
		// the destination parent in the now-safe order.
		ls.ReleaseAt(srcChildIdx)
		ls.LockAtForMode(dstIdx, ModeWrite)

		if ls.TryLockAtForWrite(srcChildIdx) {
			return dstParentInumber, nil
		}

		ls.ReleaseAt(dstIdx)
		<-t.clock.After(b.Duration())
	}
}
