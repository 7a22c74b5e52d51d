package index

import (
	"sync"
	"testing"

	"github.com/ArdxWe/crabtree/storage/buffer"
	"github.com/ArdxWe/crabtree/storage/disk"
	"github.com/ArdxWe/crabtree/storage/page"
	"github.com/ArdxWe/crabtree/types"
	"github.com/stretchr/testify/require"
)

func newTestTree(t *testing.T, name string, leafMax, internalMax int32) (*BPlusTree, *buffer.BufferPoolManager) {
	dm := disk.NewDiskManagerTest()
	t.Cleanup(dm.ShutDown)
	bpm := buffer.NewBufferPoolManager(64, dm)

	headerID, err := CreateHeaderPage(bpm)
	require.NoError(t, err)

	tree, err := NewBPlusTree(name, headerID, bpm, page.IntegerComparator, page.KeySize8, leafMax, internalMax)
	require.NoError(t, err)
	return tree, bpm
}

func keyOf(v int64) page.GenericKey {
	k := page.NewGenericKey(page.KeySize8)
	k.SetFromInteger(v)
	return k
}

func TestBPlusTreeInsertAndLookupForcesMultipleSplits(t *testing.T) {
	tree, _ := newTestTree(t, "idx1", 4, 4)

	const n = 200
	for i := int64(0); i < n; i++ {
		ok, err := tree.Insert(keyOf(i), page.NewRID(types.PageID(i), uint32(i)))
		require.NoError(t, err)
		require.True(t, ok)
	}

	for i := int64(0); i < n; i++ {
		rid, found, err := tree.GetValue(keyOf(i))
		require.NoError(t, err)
		require.True(t, found, "key %d should be present", i)
		require.Equal(t, types.PageID(i), rid.GetPageId())
	}

	_, found, err := tree.GetValue(keyOf(n + 1))
	require.NoError(t, err)
	require.False(t, found)
}

func TestBPlusTreeInsertRejectsDuplicateKey(t *testing.T) {
	tree, _ := newTestTree(t, "idx2", 4, 4)

	ok, err := tree.Insert(keyOf(5), page.NewRID(types.PageID(5), 0))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = tree.Insert(keyOf(5), page.NewRID(types.PageID(99), 0))
	require.NoError(t, err)
	require.False(t, ok)

	rid, found, err := tree.GetValue(keyOf(5))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, types.PageID(5), rid.GetPageId())
}

func TestBPlusTreeRemoveTriggersCoalesceAndRedistribute(t *testing.T) {
	tree, _ := newTestTree(t, "idx3", 4, 4)

	const n = 100
	for i := int64(0); i < n; i++ {
		ok, err := tree.Insert(keyOf(i), page.NewRID(types.PageID(i), 0))
		require.NoError(t, err)
		require.True(t, ok)
	}

	for i := int64(0); i < n; i += 2 {
		require.NoError(t, tree.Remove(keyOf(i)))
	}

	for i := int64(0); i < n; i++ {
		_, found, err := tree.GetValue(keyOf(i))
		require.NoError(t, err)
		if i%2 == 0 {
			require.False(t, found, "key %d should have been removed", i)
		} else {
			require.True(t, found, "key %d should remain", i)
		}
	}
}

func TestBPlusTreeRemoveEverythingEmptiesTheTree(t *testing.T) {
	tree, _ := newTestTree(t, "idx4", 4, 4)

	const n = 50
	for i := int64(0); i < n; i++ {
		_, err := tree.Insert(keyOf(i), page.NewRID(types.PageID(i), 0))
		require.NoError(t, err)
	}
	for i := int64(0); i < n; i++ {
		require.NoError(t, tree.Remove(keyOf(i)))
	}

	ctx := NewOperationContext()
	tree.lockRoot(ctx, false)
	require.True(t, tree.IsEmpty())
	tree.tryUnlockRoot(ctx, false)

	_, found, err := tree.GetValue(keyOf(0))
	require.NoError(t, err)
	require.False(t, found)
}

func TestBPlusTreeForwardIteratorVisitsKeysInOrder(t *testing.T) {
	tree, _ := newTestTree(t, "idx5", 4, 4)

	const n = 60
	inserted := make([]int64, 0, n)
	for i := int64(n - 1); i >= 0; i-- {
		_, err := tree.Insert(keyOf(i), page.NewRID(types.PageID(i), 0))
		require.NoError(t, err)
		inserted = append(inserted, i)
	}

	it, err := tree.Begin()
	require.NoError(t, err)

	var seen []int64
	for !it.IsEnd() {
		k, v := it.Item()
		seen = append(seen, k.ToInteger())
		require.Equal(t, types.PageID(k.ToInteger()), v.GetPageId())
		require.NoError(t, it.Next())
	}

	require.Len(t, seen, n)
	for i := int64(0); i < n; i++ {
		require.Equal(t, i, seen[i])
	}
}

func TestBPlusTreeIteratorBeginAtStartsMidway(t *testing.T) {
	tree, _ := newTestTree(t, "idx6", 4, 4)

	const n = 40
	for i := int64(0); i < n; i++ {
		_, err := tree.Insert(keyOf(i*2), page.NewRID(types.PageID(i), 0))
		require.NoError(t, err)
	}

	it, err := tree.BeginAt(keyOf(15))
	require.NoError(t, err)
	require.False(t, it.IsEnd())

	k, _ := it.Item()
	require.Equal(t, int64(16), k.ToInteger())
	it.Close()
}

func TestBPlusTreeConcurrentDisjointRangeInserts(t *testing.T) {
	tree, _ := newTestTree(t, "idx7", 4, 4)

	var wg sync.WaitGroup
	insertRange := func(lo, hi int64) {
		defer wg.Done()
		for i := lo; i < hi; i++ {
			ok, err := tree.Insert(keyOf(i), page.NewRID(types.PageID(i), 0))
			require.NoError(t, err)
			require.True(t, ok)
		}
	}

	wg.Add(2)
	go insertRange(0, 500)
	go insertRange(500, 1000)
	wg.Wait()

	for i := int64(0); i < 1000; i++ {
		_, found, err := tree.GetValue(keyOf(i))
		require.NoError(t, err)
		require.True(t, found, "key %d missing after concurrent insert", i)
	}
}

func TestBPlusTreeConcurrentIterationDuringInsert(t *testing.T) {
	tree, _ := newTestTree(t, "idx8", 4, 4)

	for i := int64(0); i < 200; i++ {
		_, err := tree.Insert(keyOf(i), page.NewRID(types.PageID(i), 0))
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := int64(200); i < 400; i++ {
			_, err := tree.Insert(keyOf(i), page.NewRID(types.PageID(i), 0))
			require.NoError(t, err)
		}
	}()

	go func() {
		defer wg.Done()
		it, err := tree.Begin()
		require.NoError(t, err)
		prev := int64(-1)
		for !it.IsEnd() {
			k, _ := it.Item()
			require.Greater(t, k.ToInteger(), prev)
			prev = k.ToInteger()
			require.NoError(t, it.Next())
		}
	}()

	wg.Wait()
}

func TestBPlusTreeBulkLoadHelpers(t *testing.T) {
	tree, _ := newTestTree(t, "idx9", 4, 4)

	keys := make([]int64, 30)
	for i := range keys {
		keys[i] = int64(i)
	}
	require.NoError(t, tree.InsertFromFile(keys))

	for _, k := range keys {
		_, found, err := tree.GetValue(keyOf(k))
		require.NoError(t, err)
		require.True(t, found)
	}

	require.NoError(t, tree.RemoveFromFile(keys[:15]))
	for _, k := range keys[:15] {
		_, found, err := tree.GetValue(keyOf(k))
		require.NoError(t, err)
		require.False(t, found)
	}
	for _, k := range keys[15:] {
		_, found, err := tree.GetValue(keyOf(k))
		require.NoError(t, err)
		require.True(t, found)
	}
}
