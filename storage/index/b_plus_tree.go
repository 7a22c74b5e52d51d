// this code is adapted line-for-line from the BusTub reference
// storage/index/b_plus_tree.cpp: StartNewTree/InsertIntoLeaf/Split/
// InsertIntoParent for insertion, Remove/CoalesceOrRedistribute/Coalesce/
// Redistribute/FindSibling/AdjustRoot for deletion, and the
// CrabingProtocalFetchPage/FreePagesInTransaction pair that implements
// latch crabbing during descent. Two deliberate departures from the
// original are noted inline where they occur: the original mutates a
// split parent or coalesce sibling through a bare FetchPage with no
// latch at all (fine for its single-threaded test harness, not fine for
// genuine concurrent callers here), and it can leave a tree in a
// half-mutated state if an allocation fails partway through a split —
// this version allocates the page each split level needs before mutating
// that level. Pages are allocated one level at a time, though: if a
// parent split or a new root cannot be allocated, the levels below have
// already been split and stay split when ErrOutOfMemory is returned.
package index

import (
	"github.com/ArdxWe/crabtree/common"
	"github.com/ArdxWe/crabtree/storage/buffer"
	"github.com/ArdxWe/crabtree/storage/page"
	"github.com/ArdxWe/crabtree/storageerr"
	"github.com/ArdxWe/crabtree/types"
)

// BPlusTree is a concurrent, disk-backed B+ tree index over a single
// fixed-width key type, fetching and latching its pages through a
// BufferPoolManager and descending with latch crabbing on every
// operation.
type BPlusTree struct {
	indexName       string
	headerPageID    types.PageID
	bpm             *buffer.BufferPoolManager
	comparator      page.KeyComparator
	keySize         page.KeySize
	leafMaxSize     int32
	internalMaxSize int32

	rootPageID types.PageID
	rootLatch  common.ReaderWriterLatch
}

// CreateHeaderPage allocates and initializes a fresh name -> root-page-id
// registry page. Callers construct one header page per buffer pool
// (potentially shared by several trees) and pass its id to NewBPlusTree.
func CreateHeaderPage(bpm *buffer.BufferPoolManager) (types.PageID, error) {
	pg, err := bpm.NewPage()
	if err != nil {
		return types.InvalidPageID, err
	}
	page.NewHeaderPage(pg).Init()
	id := pg.ID()
	if err := bpm.UnpinPage(id, true); err != nil {
		return types.InvalidPageID, err
	}
	return id, nil
}

// NewBPlusTree constructs a tree named indexName, rooted according to
// whatever headerPageID's registry already records for that name (or
// empty, if this is the first time the name has been seen).
func NewBPlusTree(
	indexName string,
	headerPageID types.PageID,
	bpm *buffer.BufferPoolManager,
	comparator page.KeyComparator,
	keySize page.KeySize,
	leafMaxSize, internalMaxSize int32,
) (*BPlusTree, error) {
	t := &BPlusTree{
		indexName:       indexName,
		headerPageID:    headerPageID,
		bpm:             bpm,
		comparator:      comparator,
		keySize:         keySize,
		leafMaxSize:     leafMaxSize,
		internalMaxSize: internalMaxSize,
		rootPageID:      types.InvalidPageID,
		rootLatch:       common.NewRWLatch(),
	}

	headerPg, err := bpm.FetchPage(headerPageID)
	if err != nil {
		return nil, err
	}
	if rootID, ok := page.NewHeaderPage(headerPg).GetRootId(indexName); ok {
		t.rootPageID = rootID
	}
	if err := bpm.UnpinPage(headerPageID, false); err != nil {
		return nil, err
	}
	return t, nil
}

// IsEmpty reports whether the tree currently has no root. Callers must
// hold the root latch.
func (t *BPlusTree) IsEmpty() bool {
	return !t.rootPageID.IsValid()
}

// GetValue returns the record id key maps to, if any.
func (t *BPlusTree) GetValue(key page.GenericKey) (page.RID, bool, error) {
	ctx := NewOperationContext()
	t.lockRoot(ctx, false)
	if t.IsEmpty() {
		t.tryUnlockRoot(ctx, false)
		return page.RID{}, false, nil
	}

	leafPg, err := t.findLeafPage(key, false, OpRead, ctx)
	if err != nil {
		t.freePagesInTransaction(false, ctx)
		return page.RID{}, false, err
	}

	leaf := page.NewLeafPage(leafPg, t.keySize)
	value, found := leaf.Lookup(key, t.comparator)
	t.freePagesInTransaction(false, ctx)
	return value, found, nil
}

// Insert adds (key, value) to the tree. It reports false, with no error,
// if key is already present.
func (t *BPlusTree) Insert(key page.GenericKey, value page.RID) (bool, error) {
	ctx := NewOperationContext()
	t.lockRoot(ctx, true)

	if t.IsEmpty() {
		if err := t.startNewTree(key, value, ctx); err != nil {
			t.tryUnlockRoot(ctx, true)
			return false, err
		}
		t.tryUnlockRoot(ctx, true)
		return true, nil
	}

	ok, err := t.insertIntoLeaf(key, value, ctx)
	t.freePagesInTransaction(true, ctx)
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (t *BPlusTree) startNewTree(key page.GenericKey, value page.RID, ctx *OperationContext) error {
	pg, err := t.bpm.NewPage()
	if err != nil {
		return storageerr.ErrOutOfMemory
	}

	root := page.NewLeafPage(pg, t.keySize)
	root.Init(pg.ID(), types.InvalidPageID, t.leafMaxSize)
	root.Insert(key, value, t.comparator)

	t.rootPageID = pg.ID()
	t.updateRootPageId(true)

	common.Log().Infow("started new tree", "op", ctx.ID(), "index", t.indexName, "rootPageID", t.rootPageID)
	return t.bpm.UnpinPage(pg.ID(), true)
}

func (t *BPlusTree) insertIntoLeaf(key page.GenericKey, value page.RID, ctx *OperationContext) (bool, error) {
	leafPg, err := t.findLeafPage(key, false, OpInsert, ctx)
	if err != nil {
		return false, err
	}
	leaf := page.NewLeafPage(leafPg, t.keySize)

	if _, found := leaf.Lookup(key, t.comparator); found {
		return false, nil
	}

	willSplit := leaf.GetSize() == leaf.GetMaxSize()
	var newPg *page.Page
	if willSplit {
		newPg, err = t.bpm.NewPage()
		if err != nil {
			return false, storageerr.ErrOutOfMemory
		}
		newPg.WLock()
		ctx.AddToPageSet(newPg)
	}

	leaf.Insert(key, value, t.comparator)

	if willSplit {
		newLeaf := t.finishLeafSplit(leaf, newPg)
		if err := t.insertIntoParent(leafPg, newLeaf.KeyAt(0), newPg, ctx); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (t *BPlusTree) finishLeafSplit(leaf *page.LeafPage, newPg *page.Page) *page.LeafPage {
	newLeaf := page.NewLeafPage(newPg, t.keySize)
	newLeaf.Init(newPg.ID(), leaf.GetParentPageId(), t.leafMaxSize)
	leaf.MoveHalfTo(newLeaf)
	return newLeaf
}

func (t *BPlusTree) finishInternalSplit(node *page.InternalPage, newPg *page.Page) *page.InternalPage {
	newInternal := page.NewInternalPage(newPg, t.keySize)
	newInternal.Init(newPg.ID(), node.GetParentPageId(), t.internalMaxSize)
	node.MoveHalfTo(newInternal, t.bpm)
	return newInternal
}

// insertIntoParent links newChildPg into oldPg's parent as the sibling
// immediately following oldPg, splitting the parent (and recursing) if
// that overflows it, or allocating a brand new root if oldPg had none.
func (t *BPlusTree) insertIntoParent(oldPg *page.Page, key page.GenericKey, newChildPg *page.Page, ctx *OperationContext) error {
	oldHdr := page.NewBPlusTreePageHeader(oldPg)

	if oldHdr.IsRootPage() {
		rootPg, err := t.bpm.NewPage()
		if err != nil {
			return storageerr.ErrOutOfMemory
		}
		newRoot := page.NewInternalPage(rootPg, t.keySize)
		newRoot.Init(rootPg.ID(), types.InvalidPageID, t.internalMaxSize)
		newRoot.PopulateNewRoot(oldHdr.GetPageId(), key, page.NewBPlusTreePageHeader(newChildPg).GetPageId())

		oldHdr.SetParentPageId(rootPg.ID())
		page.NewBPlusTreePageHeader(newChildPg).SetParentPageId(rootPg.ID())

		t.rootPageID = rootPg.ID()
		t.updateRootPageId(false)
		common.Log().Infow("grew new root", "op", ctx.ID(), "index", t.indexName, "rootPageID", t.rootPageID)
		return t.bpm.UnpinPage(rootPg.ID(), true)
	}

	parentID := oldHdr.GetParentPageId()
	parentPg, parentOwned, err := t.acquireForMutation(parentID, ctx)
	if err != nil {
		return err
	}
	parent := page.NewInternalPage(parentPg, t.keySize)

	willSplit := parent.GetSize() == parent.GetMaxSize()
	var newInternalPg *page.Page
	if willSplit {
		newInternalPg, err = t.bpm.NewPage()
		if err != nil {
			if parentOwned {
				t.releasePage(parentPg, true, ctx)
			}
			return storageerr.ErrOutOfMemory
		}
		newInternalPg.WLock()
		ctx.AddToPageSet(newInternalPg)
	}

	newChildHdr := page.NewBPlusTreePageHeader(newChildPg)
	newChildHdr.SetParentPageId(parentID)
	parent.InsertNodeAfter(oldHdr.GetPageId(), key, newChildHdr.GetPageId())

	if willSplit {
		newInternal := t.finishInternalSplit(parent, newInternalPg)
		common.Log().Debugw("split internal page", "op", ctx.ID(), "index", t.indexName, "left", parentID, "right", newInternalPg.ID())
		if err := t.insertIntoParent(parentPg, newInternal.KeyAt(0), newInternalPg, ctx); err != nil {
			if parentOwned {
				t.releasePage(parentPg, true, ctx)
			}
			return err
		}
	}

	if parentOwned {
		t.releasePage(parentPg, true, ctx)
	}
	return nil
}

// Remove deletes key from the tree, if present, rebalancing via
// redistribution or coalescing as needed.
func (t *BPlusTree) Remove(key page.GenericKey) error {
	ctx := NewOperationContext()
	t.lockRoot(ctx, true)
	if t.IsEmpty() {
		t.tryUnlockRoot(ctx, true)
		return nil
	}

	leafPg, err := t.findLeafPage(key, false, OpDelete, ctx)
	if err != nil {
		t.freePagesInTransaction(true, ctx)
		return err
	}
	leaf := page.NewLeafPage(leafPg, t.keySize)

	newSize := leaf.RemoveAndDeleteRecord(key, t.comparator)
	if newSize < leaf.GetMinSize() {
		if err := t.coalesceOrRedistributeLeaf(leaf, ctx); err != nil {
			t.freePagesInTransaction(true, ctx)
			return err
		}
	}

	t.freePagesInTransaction(true, ctx)
	return nil
}

func (t *BPlusTree) coalesceOrRedistributeLeaf(node *page.LeafPage, ctx *OperationContext) error {
	if node.IsRootPage() {
		// A leaf root is exempt from the usual minimum-occupancy rule; it
		// is only torn down once it holds nothing at all.
		if node.GetSize() == 0 {
			t.rootPageID = types.InvalidPageID
			t.updateRootPageId(false)
			ctx.MarkPageDeleted(node.GetPageId())
			common.Log().Infow("tree emptied", "op", ctx.ID(), "index", t.indexName)
		}
		return nil
	}

	_, sibling, isLeftmost, err := t.findSiblingLeaf(node, ctx)
	if err != nil {
		return err
	}

	parentID := node.GetParentPageId()
	parentPg, parentOwned, err := t.acquireForMutation(parentID, ctx)
	if err != nil {
		return err
	}
	parent := page.NewInternalPage(parentPg, t.keySize)

	var left, right *page.LeafPage
	if isLeftmost {
		left, right = node, sibling
	} else {
		left, right = sibling, node
	}

	var opErr error
	if left.GetSize()+right.GetSize() <= left.GetMaxSize() {
		removeIndex := parent.ValueIndex(right.GetPageId())
		right.MoveAllTo(left)
		ctx.MarkPageDeleted(right.GetPageId())
		parent.Remove(removeIndex)
		common.Log().Debugw("coalesced leaves", "op", ctx.ID(), "index", t.indexName, "survivor", left.GetPageId(), "removed", right.GetPageId())

		if parent.GetSize() < parent.GetMinSize() {
			opErr = t.coalesceOrRedistributeInternal(parent, ctx)
		}
	} else if isLeftmost {
		sibling.MoveFirstToEndOf(node, t.bpm)
	} else {
		sibling.MoveLastToFrontOf(node, t.bpm)
	}

	if parentOwned {
		t.releasePage(parentPg, true, ctx)
	}
	return opErr
}

func (t *BPlusTree) coalesceOrRedistributeInternal(node *page.InternalPage, ctx *OperationContext) error {
	if node.IsRootPage() {
		if node.GetSize() == 1 {
			onlyChild := node.RemoveAndReturnOnlyChild()
			t.rootPageID = onlyChild
			t.updateRootPageId(false)
			if childPg, err := t.bpm.FetchPage(onlyChild); err == nil {
				page.NewBPlusTreePageHeader(childPg).SetParentPageId(types.InvalidPageID)
				_ = t.bpm.UnpinPage(onlyChild, true)
			}
			ctx.MarkPageDeleted(node.GetPageId())
			common.Log().Infow("collapsed root", "op", ctx.ID(), "index", t.indexName, "newRootPageID", t.rootPageID)
		}
		return nil
	}

	_, sibling, isLeftmost, err := t.findSiblingInternal(node, ctx)
	if err != nil {
		return err
	}

	parentID := node.GetParentPageId()
	parentPg, parentOwned, err := t.acquireForMutation(parentID, ctx)
	if err != nil {
		return err
	}
	parent := page.NewInternalPage(parentPg, t.keySize)

	var left, right *page.InternalPage
	if isLeftmost {
		left, right = node, sibling
	} else {
		left, right = sibling, node
	}

	var opErr error
	if left.GetSize()+right.GetSize() <= left.GetMaxSize() {
		removeIndex := parent.ValueIndex(right.GetPageId())
		separator := parent.KeyAt(removeIndex)
		right.MoveAllTo(left, separator, t.bpm)
		ctx.MarkPageDeleted(right.GetPageId())
		parent.Remove(removeIndex)
		common.Log().Debugw("coalesced internal pages", "op", ctx.ID(), "index", t.indexName, "survivor", left.GetPageId(), "removed", right.GetPageId())

		if parent.GetSize() < parent.GetMinSize() {
			opErr = t.coalesceOrRedistributeInternal(parent, ctx)
		}
	} else if isLeftmost {
		separator := parent.KeyAt(parent.ValueIndex(sibling.GetPageId()))
		sibling.MoveFirstToEndOf(node, separator, t.bpm)
	} else {
		separator := parent.KeyAt(parent.ValueIndex(node.GetPageId()))
		sibling.MoveLastToFrontOf(node, separator, t.bpm)
	}

	if parentOwned {
		t.releasePage(parentPg, true, ctx)
	}
	return opErr
}

// findSiblingLeaf locates node's left sibling, or its right sibling if
// node is its parent's leftmost child, reporting which via isLeftmost.
// The sibling is write-latched and added to ctx's page set without
// triggering any ancestor release; it is freed only when ctx itself is
// freed by the top-level caller.
func (t *BPlusTree) findSiblingLeaf(node *page.LeafPage, ctx *OperationContext) (*page.Page, *page.LeafPage, bool, error) {
	siblingID, isLeftmost, err := t.siblingOf(node.GetParentPageId(), node.GetPageId())
	if err != nil {
		return nil, nil, false, err
	}
	siblingPg, err := t.fetchAndLock(siblingID, true, ctx)
	if err != nil {
		return nil, nil, false, err
	}
	return siblingPg, page.NewLeafPage(siblingPg, t.keySize), isLeftmost, nil
}

func (t *BPlusTree) findSiblingInternal(node *page.InternalPage, ctx *OperationContext) (*page.Page, *page.InternalPage, bool, error) {
	siblingID, isLeftmost, err := t.siblingOf(node.GetParentPageId(), node.GetPageId())
	if err != nil {
		return nil, nil, false, err
	}
	siblingPg, err := t.fetchAndLock(siblingID, true, ctx)
	if err != nil {
		return nil, nil, false, err
	}
	return siblingPg, page.NewInternalPage(siblingPg, t.keySize), isLeftmost, nil
}

// siblingOf looks up which of childID's siblings to rebalance with: the
// previous one, unless childID is already its parent's leftmost child,
// in which case the next one. isLeftmost mirrors which case fired so
// callers can tell which side of the pair childID itself is on.
func (t *BPlusTree) siblingOf(parentID, childID types.PageID) (types.PageID, bool, error) {
	parentPg, err := t.bpm.FetchPage(parentID)
	if err != nil {
		return types.InvalidPageID, false, err
	}
	parent := page.NewInternalPage(parentPg, t.keySize)
	index := parent.ValueIndex(childID)
	isLeftmost := index == 0
	siblingIndex := index - 1
	if isLeftmost {
		siblingIndex = 1
	}
	siblingID := parent.ValueAt(siblingIndex)
	_ = t.bpm.UnpinPage(parentID, false)
	return siblingID, isLeftmost, nil
}

// acquireForMutation returns the page for id, reusing it from ctx's page
// set (retained there from the descent because it was unsafe) when
// present, or fetching and write-latching it fresh otherwise. The bool
// result tells the caller whether it, not the descent, now owns
// releasing it.
func (t *BPlusTree) acquireForMutation(id types.PageID, ctx *OperationContext) (*page.Page, bool, error) {
	if pg := ctx.FindInPageSet(id); pg != nil {
		return pg, false, nil
	}
	pg, err := t.fetchAndLock(id, true, ctx)
	if err != nil {
		return nil, false, err
	}
	return pg, true, nil
}

// releasePage unlatches, unpins, and (if marked) deletes pg, and drops it
// from ctx's page set. Used for pages acquireForMutation fetched fresh
// that the caller is done with before the top-level cleanup runs.
func (t *BPlusTree) releasePage(pg *page.Page, write bool, ctx *OperationContext) {
	if write {
		pg.WUnlock()
	} else {
		pg.RUnlock()
	}
	_ = t.bpm.UnpinPage(pg.ID(), write)
	if ctx.IsPageDeleted(pg.ID()) {
		_ = t.bpm.DeletePage(pg.ID())
	}
	ctx.RemoveFromPageSet(pg.ID())
}

// fetchAndLock fetches id, latches it, and adds it to ctx's page set with
// no ancestor-release side effect.
func (t *BPlusTree) fetchAndLock(id types.PageID, write bool, ctx *OperationContext) (*page.Page, error) {
	pg, err := t.bpm.FetchPage(id)
	if err != nil {
		return nil, err
	}
	if write {
		pg.WLock()
	} else {
		pg.RLock()
	}
	ctx.AddToPageSet(pg)
	return pg, nil
}

// isSafe reports whether a node can absorb op without requiring any
// ancestor to be structurally mutated: always true for a read, true for
// an insert iff there is room for one more entry before a split, true
// for a delete iff removing one entry can't drop below the minimum.
func (t *BPlusTree) isSafe(hdr page.BPlusTreePage, op OpType) bool {
	switch op {
	case OpInsert:
		return hdr.GetSize() < hdr.GetMaxSize()
	case OpDelete:
		return hdr.GetSize() > hdr.GetMinSize()
	default:
		return true
	}
}

// crabingFetch fetches pageID, latches it for op, and — once there is a
// previous page in the descent to compare against — releases every
// ancestor latch held so far (and the root latch, if still held) the
// moment pageID's own page proves safe. previous must be
// types.InvalidPageID for the very first fetch in a descent (the root),
// since there is nothing yet to release.
func (t *BPlusTree) crabingFetch(pageID types.PageID, op OpType, previous types.PageID, ctx *OperationContext) (*page.Page, error) {
	pg, err := t.bpm.FetchPage(pageID)
	if err != nil {
		return nil, err
	}

	write := op.IsWrite()
	if write {
		pg.WLock()
	} else {
		pg.RLock()
	}

	hdr := page.NewBPlusTreePageHeader(pg)
	if previous.IsValid() && (!write || t.isSafe(hdr, op)) {
		t.freePagesInTransaction(write, ctx)
	}

	ctx.AddToPageSet(pg)
	return pg, nil
}

// freePagesInTransaction releases the root latch (if ctx still holds it)
// and every page in ctx's page set, in order, unpinning each with isDirty
// set to write and handing any page marked deleted to the buffer pool
// manager's DeletePage.
func (t *BPlusTree) freePagesInTransaction(write bool, ctx *OperationContext) {
	t.tryUnlockRoot(ctx, write)

	pages := ctx.pageSet
	ctx.pageSet = nil
	for _, pg := range pages {
		if write {
			pg.WUnlock()
		} else {
			pg.RUnlock()
		}
		_ = t.bpm.UnpinPage(pg.ID(), write)
		if ctx.IsPageDeleted(pg.ID()) {
			_ = t.bpm.DeletePage(pg.ID())
		}
	}
}

func (t *BPlusTree) lockRoot(ctx *OperationContext, write bool) {
	if write {
		t.rootLatch.WLock()
	} else {
		t.rootLatch.RLock()
	}
	ctx.rootLockedCnt++
}

func (t *BPlusTree) tryUnlockRoot(ctx *OperationContext, write bool) {
	if ctx.rootLockedCnt == 0 {
		return
	}
	if write {
		t.rootLatch.WUnlock()
	} else {
		t.rootLatch.RUnlock()
	}
	ctx.rootLockedCnt--
}

// findLeafPage descends from the root to the leaf that owns key (or, if
// leftMost, the tree's first leaf) using latch crabbing, returning the
// leaf still latched for op and added to ctx's page set. The caller must
// already hold the root latch (via lockRoot) before calling this.
func (t *BPlusTree) findLeafPage(key page.GenericKey, leftMost bool, op OpType, ctx *OperationContext) (*page.Page, error) {
	cur := t.rootPageID
	pg, err := t.crabingFetch(cur, op, types.InvalidPageID, ctx)
	if err != nil {
		return nil, err
	}

	for {
		hdr := page.NewBPlusTreePageHeader(pg)
		if hdr.IsLeafPage() {
			return pg, nil
		}

		internal := page.NewInternalPage(pg, t.keySize)
		var next types.PageID
		if leftMost {
			next = internal.ValueAt(0)
		} else {
			next = internal.Lookup(key, t.comparator)
		}

		prev := cur
		cur = next
		pg, err = t.crabingFetch(cur, op, prev, ctx)
		if err != nil {
			return nil, err
		}
	}
}

func (t *BPlusTree) updateRootPageId(insertRecord bool) {
	pg, err := t.bpm.FetchPage(t.headerPageID)
	if err != nil {
		common.Log().Errorw("failed to fetch header page", "error", err)
		return
	}
	pg.WLock()
	hp := page.NewHeaderPage(pg)
	if insertRecord {
		hp.InsertRecord(t.indexName, t.rootPageID)
	} else {
		hp.UpdateRecord(t.indexName, t.rootPageID)
	}
	pg.WUnlock()
	_ = t.bpm.UnpinPage(t.headerPageID, true)
}

// InsertFromFile inserts each integer in keys, widened into the tree's
// configured key width, with a RID derived from the integer. It takes the
// keys as a slice and reads no file. Test-only.
func (t *BPlusTree) InsertFromFile(keys []int64) error {
	for _, v := range keys {
		key := page.NewGenericKey(t.keySize)
		key.SetFromInteger(v)
		if _, err := t.Insert(key, page.NewRID(types.PageID(v), uint32(v))); err != nil {
			return err
		}
	}
	return nil
}

// RemoveFromFile removes each integer in keys from the tree. It takes the
// keys as a slice and reads no file. Test-only.
func (t *BPlusTree) RemoveFromFile(keys []int64) error {
	for _, v := range keys {
		key := page.NewGenericKey(t.keySize)
		key.SetFromInteger(v)
		if err := t.Remove(key); err != nil {
			return err
		}
	}
	return nil
}
