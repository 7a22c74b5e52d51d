// this code is adapted from the BusTub reference index_iterator.h: a
// forward-only cursor over one leaf at a time, advancing across the leaf
// chain's next_page_id link and holding a read latch on exactly the
// current leaf for the cursor's lifetime. Equality is by leaf identity,
// matching the original's operator== comparing raw leaf pointers.
package index

import (
	"github.com/ArdxWe/crabtree/storage/page"
)

// IndexIterator is a forward range-scan cursor over a BPlusTree's leaves
// in key order. A zero-value IndexIterator (as returned by Begin on an
// empty tree) is already IsEnd.
type IndexIterator struct {
	tree *BPlusTree
	pg   *page.Page
	leaf *page.LeafPage
	index int32
}

// Begin returns a cursor positioned at the tree's first entry in key
// order.
func (t *BPlusTree) Begin() (*IndexIterator, error) {
	return t.seekIterator(page.GenericKey{}, true)
}

// BeginAt returns a cursor positioned at the first entry with a key
// greater than or equal to key.
func (t *BPlusTree) BeginAt(key page.GenericKey) (*IndexIterator, error) {
	return t.seekIterator(key, false)
}

func (t *BPlusTree) seekIterator(key page.GenericKey, leftMost bool) (*IndexIterator, error) {
	ctx := NewOperationContext()
	t.lockRoot(ctx, false)
	if t.IsEmpty() {
		t.tryUnlockRoot(ctx, false)
		return &IndexIterator{tree: t}, nil
	}

	leafPg, err := t.findLeafPage(key, leftMost, OpRead, ctx)
	if err != nil {
		t.freePagesInTransaction(false, ctx)
		return nil, err
	}

	leaf := page.NewLeafPage(leafPg, t.keySize)
	index := int32(0)
	if !leftMost {
		index = leaf.KeyIndex(key, t.comparator)
	}

	// The leaf itself stays latched for the iterator's lifetime; only its
	// now-released ancestors (and the root latch, if still held) need the
	// generic cleanup.
	ctx.RemoveFromPageSet(leafPg.ID())
	t.freePagesInTransaction(false, ctx)

	it := &IndexIterator{tree: t, pg: leafPg, leaf: leaf, index: index}
	if index >= leaf.GetSize() && leaf.GetNextPageId().IsValid() {
		// key is greater than every entry in this leaf, so the first entry
		// at or after it is the next leaf's first entry.
		it.index = leaf.GetSize() - 1
		if err := it.Next(); err != nil {
			return nil, err
		}
	}
	return it, nil
}

// IsEnd reports whether the cursor has advanced past the tree's last
// entry.
func (it *IndexIterator) IsEnd() bool {
	return it.leaf == nil || it.index >= it.leaf.GetSize()
}

// Item returns the (key, value) pair the cursor currently points to.
// Callers must check IsEnd first.
func (it *IndexIterator) Item() (page.GenericKey, page.RID) {
	return it.leaf.GetItem(it.index)
}

// Next advances the cursor by one entry, crossing into the next leaf via
// its next_page_id link and releasing the leaf just left behind.
func (it *IndexIterator) Next() error {
	it.index++
	if it.index < it.leaf.GetSize() {
		return nil
	}

	next := it.leaf.GetNextPageId()
	it.release()

	if !next.IsValid() {
		return nil
	}

	nextPg, err := it.tree.bpm.FetchPage(next)
	if err != nil {
		return err
	}
	nextPg.RLock()

	it.pg = nextPg
	it.leaf = page.NewLeafPage(nextPg, it.tree.keySize)
	it.index = 0
	return nil
}

// Close releases the leaf the cursor currently holds, if any. Callers
// that stop iterating before reaching IsEnd must call this to avoid
// leaking a pin and a latch.
func (it *IndexIterator) Close() {
	it.release()
}

func (it *IndexIterator) release() {
	if it.pg == nil {
		return
	}
	it.pg.RUnlock()
	_ = it.tree.bpm.UnpinPage(it.pg.ID(), false)
	it.pg = nil
	it.leaf = nil
}

// Equal reports whether it and other are positioned on the same leaf
// frame, matching the reference iterator's pointer-identity operator==
// (there, leaf_ is the buffer pool's own Page pointer reinterpreted; the
// Go equivalent of "same pointer" is the shared *page.Page the buffer
// pool hands back for a given page id, not the per-call LeafPage view
// wrapping it).
func (it *IndexIterator) Equal(other *IndexIterator) bool {
	return it.pg == other.pg
}
