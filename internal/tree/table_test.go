package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTable_RootIsDirectory(t *testing.T) {
	table := NewTable(10)
	kind, entries, err := table.Get(RootInumber)
	require.NoError(t, err)
	assert.Equal(t, KindDirectory, kind)
	assert.Len(t, entries, 10)
}

func TestCreateInode_ExhaustsCapacity(t *testing.T) {
	table := NewTable(2) // slot 0 is root
	inumber, err := table.CreateInode(KindFile)
	require.NoError(t, err)
	assert.Equal(t, 1, inumber)

	_, err = table.CreateInode(KindFile)
	assert.ErrorIs(t, err, ErrTableFull)
}

func TestDeleteInode_FreesSlotForReuse(t *testing.T) {
	table := NewTable(2)
	a, err := table.CreateInode(KindFile)
	require.NoError(t, err)

	require.NoError(t, table.DeleteInode(a))

	b, err := table.CreateInode(KindDirectory)
	require.NoError(t, err)
	assert.Equal(t, a, b, "a freed slot should be reused")
}

func TestDeleteInode_FailsWhenAlreadyFree(t *testing.T) {
	table := NewTable(2)
	err := table.DeleteInode(1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirAddEntryAndReset(t *testing.T) {
	table := NewTable(4)
	child, err := table.CreateInode(KindFile)
	require.NoError(t, err)

	require.NoError(t, table.DirAddEntry(RootInumber, child, "a.txt"))
	_, entries, err := table.Get(RootInumber)
	require.NoError(t, err)
	got, found := findEntry(entries, "a.txt")
	require.True(t, found)
	assert.Equal(t, child, got)

	require.NoError(t, table.DirResetEntry(RootInumber, child))
	_, entries, err = table.Get(RootInumber)
	require.NoError(t, err)
	_, found = findEntry(entries, "a.txt")
	assert.False(t, found)
}

func TestDirAddEntry_RejectsNonDirectoryParent(t *testing.T) {
	table := NewTable(4)
	file, err := table.CreateInode(KindFile)
	require.NoError(t, err)
	child, err := table.CreateInode(KindFile)
	require.NoError(t, err)

	err = table.DirAddEntry(file, child, "x")
	assert.ErrorIs(t, err, ErrNotDirectory)
}
