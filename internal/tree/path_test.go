package tree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegments_RootVariants(t *testing.T) {
	for _, p := range []string{"", "/"} {
		segs, err := Segments(p)
		require.NoError(t, err)
		assert.Nil(t, segs)
	}
}

func TestSegments_StripsLeadingAndTrailingSlash(t *testing.T) {
	segs, err := Segments("/a/b/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, segs)
}

func TestSegments_RejectsEmptyComponent(t *testing.T) {
	_, err := Segments("/a//b")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestSegments_RejectsOverlongName(t *testing.T) {
	_, err := Segments("/" + strings.Repeat("x", MaxNameLength+1))
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestSegments_RejectsOverlongPath(t *testing.T) {
	_, err := Segments("/" + strings.Repeat("a", MaxPathLength))
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestSplitParentChild(t *testing.T) {
	cases := []struct {
		path       string
		wantParent string
		wantChild  string
	}{
		{"/a", "/", "a"},
		{"a", "/", "a"},
		{"/a/b", "/a", "b"},
		{"/a/b/c", "/a/b", "c"},
	}
	for _, tc := range cases {
		parent, child, err := SplitParentChild(tc.path)
		require.NoError(t, err)
		assert.Equal(t, tc.wantParent, parent)
		assert.Equal(t, tc.wantChild, child)
	}
}

func TestSplitParentChild_RootHasNoParent(t *testing.T) {
	_, _, err := SplitParentChild("/")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestSamePath(t *testing.T) {
	same, err := SamePath("/a/b", "a/b/")
	require.NoError(t, err)
	assert.True(t, same)

	same, err = SamePath("/a/b", "/a/c")
	require.NoError(t, err)
	assert.False(t, same)
}

func TestIsAncestor(t *testing.T) {
	is, err := IsAncestor("/a", "/a/b/c")
	require.NoError(t, err)
	assert.True(t, is)

	is, err = IsAncestor("/a/b", "/a/b")
	require.NoError(t, err)
	assert.False(t, is, "a path is not its own ancestor")

	is, err = IsAncestor("/a/bc", "/a/b")
	require.NoError(t, err)
	assert.False(t, is, "a sibling prefix must not be mistaken for an ancestor")
}
