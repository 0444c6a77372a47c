package tree

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockSet_AddAndLockAreIndependent(t *testing.T) {
	var mu sync.RWMutex
	ls := NewLockSet()
	idx := ls.Add(&mu)

	// Adding does not acquire the lock.
	locked := mu.TryLock()
	assert.True(t, locked, "Add must not acquire the lock")
	mu.Unlock()

	ls.LockAtForMode(idx, ModeWrite)
	assert.False(t, mu.TryLock(), "lock should now be held for write")
	ls.ReleaseAt(idx)
	assert.True(t, mu.TryLock())
	mu.Unlock()
}

func TestLockSet_ReleaseAllReleasesEveryLock(t *testing.T) {
	var a, b sync.RWMutex
	ls := NewLockSet()
	ai := ls.Add(&a)
	ls.LockAtForMode(ai, ModeWrite)
	bi := ls.Add(&b)
	ls.LockAtForMode(bi, ModeWrite)

	ls.ReleaseAll()

	assert.True(t, a.TryLock())
	a.Unlock()
	assert.True(t, b.TryLock())
	b.Unlock()
}

func TestLockSet_ReleaseAtIsIdempotent(t *testing.T) {
	var mu sync.RWMutex
	ls := NewLockSet()
	idx := ls.Add(&mu)
	ls.LockAtForMode(idx, ModeWrite)

	ls.ReleaseAt(idx)
	assert.NotPanics(t, func() { ls.ReleaseAt(idx) })
}

func TestLockSet_TryLockAtForWriteFailsWhenHeldElsewhere(t *testing.T) {
	var mu sync.RWMutex
	mu.Lock()
	defer mu.Unlock()

	ls := NewLockSet()
	idx := ls.Add(&mu)
	assert.False(t, ls.TryLockAtForWrite(idx))
}

func TestLockSet_FindLocked(t *testing.T) {
	var mu sync.RWMutex
	ls := NewLockSet()
	idx := ls.Add(&mu)
	ls.LockAtForMode(idx, ModeRead)

	other := ls.Add(&mu)
	found, ok := ls.FindLocked(&mu, ModeRead, other)
	assert.True(t, ok)
	assert.Equal(t, idx, found)

	ls.ReleaseAt(idx)
	_, ok = ls.FindLocked(&mu, ModeRead, other)
	assert.False(t, ok, "a released entry must not be found")

	ls.ReleaseAt(other)
}
