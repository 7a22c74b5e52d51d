package index

import (
	"testing"

	"github.com/ArdxWe/crabtree/storage/page"
	"github.com/ArdxWe/crabtree/types"
	"github.com/stretchr/testify/require"
)

func TestIndexIteratorOnEmptyTreeIsImmediatelyAtEnd(t *testing.T) {
	tree, _ := newTestTree(t, "empty", 4, 4)

	it, err := tree.Begin()
	require.NoError(t, err)
	require.True(t, it.IsEnd())
}

func TestIndexIteratorCrossesLeafBoundary(t *testing.T) {
	tree, _ := newTestTree(t, "cross", 4, 4)

	for i := int64(0); i < 4; i++ {
		_, err := tree.Insert(keyOf(i), page.NewRID(types.PageID(i), 0))
		require.NoError(t, err)
	}
	// Four entries with a max leaf size of 4 still fit in a single leaf;
	// one more forces exactly one split, so the iterator's first
	// Next-past-boundary call crosses a real next_page_id link.
	_, err := tree.Insert(keyOf(4), page.NewRID(types.PageID(4), 0))
	require.NoError(t, err)

	it, err := tree.Begin()
	require.NoError(t, err)

	var got []int64
	for !it.IsEnd() {
		k, _ := it.Item()
		got = append(got, k.ToInteger())
		require.NoError(t, it.Next())
	}
	require.Equal(t, []int64{0, 1, 2, 3, 4}, got)
}

func TestIndexIteratorEqualComparesByLeafIdentity(t *testing.T) {
	tree, _ := newTestTree(t, "eq", 4, 4)
	for i := int64(0); i < 3; i++ {
		_, err := tree.Insert(keyOf(i), page.NewRID(types.PageID(i), 0))
		require.NoError(t, err)
	}

	a, err := tree.Begin()
	require.NoError(t, err)

	require.True(t, a.Equal(a))
	require.False(t, a.Equal(&IndexIterator{}))

	require.NoError(t, a.Next())
	require.NoError(t, a.Next())
	require.NoError(t, a.Next())
	require.True(t, a.IsEnd())
	require.True(t, a.Equal(&IndexIterator{}))
}
