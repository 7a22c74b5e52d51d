// this code is adapted line-for-line from the BusTub reference
// b_plus_tree_leaf_page.cpp: KeyIndex's "first index with key >= target"
// binary search, sorted Insert/RemoveAndDeleteRecord, MoveHalfTo's
// leaf-chain relinking, and MoveFirstToEndOf's update of the parent's
// separator key. The source leaves MoveLastToFrontOf/CopyFirstFrom as
// empty stubs; they are filled in here mirroring the internal page's
// implemented versions, since FindSibling can return either a left or a
// right sibling and both redistribution directions are reachable.

package page

import (
	"github.com/ArdxWe/crabtree/types"
)

func leafEntrySize(keySize KeySize) int {
	return int(keySize) + 8 // value is an 8-byte RID (page id + slot)
}

// LeafPage interprets a page's bytes as a B+ tree leaf node: a sorted
// array of (key, RID) pairs plus a next_page_id link to the next leaf in
// key order.
type LeafPage struct {
	BPlusTreePage
	keySize KeySize
}

// NewLeafPage wraps page as a LeafPage view. keySize must match the
// owning tree's configured key width.
func NewLeafPage(pg *Page, keySize KeySize) *LeafPage {
	return &LeafPage{BPlusTreePage: newBPlusTreePage(pg.Data()), keySize: keySize}
}

// Init initializes the page as a fresh, empty leaf node with no next leaf.
func (p *LeafPage) Init(pageID, parentID types.PageID, maxSize int32) {
	p.SetPageType(IndexPageTypeLeaf)
	p.SetPageId(pageID)
	p.SetParentPageId(parentID)
	p.SetNextPageId(types.InvalidPageID)
	p.SetMaxSize(maxSize)
	p.SetSize(0)
}

func (p *LeafPage) GetNextPageId() types.PageID {
	return types.NewPageIDFromBytes(p.data[offsetLeafNextPage : offsetLeafNextPage+4])
}

func (p *LeafPage) SetNextPageId(id types.PageID) {
	copy(p.data[offsetLeafNextPage:offsetLeafNextPage+4], id.Serialize())
}

func (p *LeafPage) slotOffset(i int32) int {
	return leafHeaderSize + int(i)*leafEntrySize(p.keySize)
}

// KeyAt returns the key at slot i.
func (p *LeafPage) KeyAt(i int32) GenericKey {
	off := p.slotOffset(i)
	k := NewGenericKey(p.keySize)
	k.SetFromBytes(p.data[off : off+int(p.keySize)])
	return k
}

func (p *LeafPage) setKeyAt(i int32, key GenericKey) {
	off := p.slotOffset(i)
	copy(p.data[off:off+int(p.keySize)], key.Bytes())
}

// ValueAt returns the RID at slot i.
func (p *LeafPage) ValueAt(i int32) RID {
	off := p.slotOffset(i) + int(p.keySize)
	pageID := types.NewPageIDFromBytes(p.data[off : off+4])
	slot := uint32(p.data[off+4])<<0 | uint32(p.data[off+5])<<8 | uint32(p.data[off+6])<<16 | uint32(p.data[off+7])<<24
	return NewRID(pageID, slot)
}

func (p *LeafPage) setValueAt(i int32, value RID) {
	off := p.slotOffset(i) + int(p.keySize)
	copy(p.data[off:off+4], value.GetPageId().Serialize())
	slot := value.GetSlot()
	p.data[off+4] = byte(slot)
	p.data[off+5] = byte(slot >> 8)
	p.data[off+6] = byte(slot >> 16)
	p.data[off+7] = byte(slot >> 24)
}

// GetItem returns the (key, value) pair at slot i.
func (p *LeafPage) GetItem(i int32) (GenericKey, RID) {
	return p.KeyAt(i), p.ValueAt(i)
}

// KeyIndex returns the first index i such that KeyAt(i) >= key, found by
// binary search. Used both by Lookup and by the iterator's Begin.
func (p *LeafPage) KeyIndex(key GenericKey, cmp KeyComparator) int32 {
	lo, hi := int32(0), p.GetSize()-1
	for lo <= hi {
		mid := (lo + hi) / 2
		if cmp(p.KeyAt(mid), key) >= 0 {
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	return hi + 1
}

// Lookup reports whether key is present and, if it is, returns its value.
func (p *LeafPage) Lookup(key GenericKey, cmp KeyComparator) (RID, bool) {
	idx := p.KeyIndex(key, cmp)
	if idx < p.GetSize() && cmp(p.KeyAt(idx), key) == 0 {
		return p.ValueAt(idx), true
	}
	return RID{}, false
}

// Insert performs a sorted insert of (key, value). Callers must check
// Lookup first: Insert does not reject duplicates. May leave size at
// max+1, which the caller must detect and split on.
func (p *LeafPage) Insert(key GenericKey, value RID, cmp KeyComparator) int32 {
	idx := p.KeyIndex(key, cmp)
	size := p.GetSize()
	for i := size; i > idx; i-- {
		p.setKeyAt(i, p.KeyAt(i-1))
		p.setValueAt(i, p.ValueAt(i-1))
	}
	p.setKeyAt(idx, key)
	p.setValueAt(idx, value)
	p.SetSize(size + 1)
	return size + 1
}

// RemoveAndDeleteRecord deletes key if present, otherwise is a no-op,
// and returns the resulting size.
func (p *LeafPage) RemoveAndDeleteRecord(key GenericKey, cmp KeyComparator) int32 {
	idx := p.KeyIndex(key, cmp)
	size := p.GetSize()
	if idx >= size || cmp(key, p.KeyAt(idx)) != 0 {
		return size
	}
	for i := idx; i < size-1; i++ {
		p.setKeyAt(i, p.KeyAt(i+1))
		p.setValueAt(i, p.ValueAt(i+1))
	}
	p.SetSize(size - 1)
	return size - 1
}

// MoveHalfTo moves the upper total-total/2 entries to recipient and
// relinks the leaf chain so this -> recipient -> (this's old next).
// Invoked only when size == max+1 after an overflowing insert.
func (p *LeafPage) MoveHalfTo(recipient *LeafPage) {
	total := p.GetSize()
	copyIdx := total / 2
	for i := copyIdx; i < total; i++ {
		recipient.setKeyAt(i-copyIdx, p.KeyAt(i))
		recipient.setValueAt(i-copyIdx, p.ValueAt(i))
	}

	recipient.SetNextPageId(p.GetNextPageId())
	p.SetNextPageId(recipient.GetPageId())

	p.SetSize(copyIdx)
	recipient.SetSize(total - copyIdx)
}

// MoveAllTo appends every entry of p onto the end of recipient, transfers
// the next-leaf link, and empties p. Used by Coalesce. Unlike the
// internal variant, a leaf merge is pure concatenation: every leaf entry
// already carries its own real key, so there is no middle/separator key
// to splice in, and doing so would overwrite a live entry with the
// parent's (possibly stale) separator.
func (p *LeafPage) MoveAllTo(recipient *LeafPage) {
	startIdx := recipient.GetSize()
	size := p.GetSize()
	for i := int32(0); i < size; i++ {
		recipient.setKeyAt(startIdx+i, p.KeyAt(i))
		recipient.setValueAt(startIdx+i, p.ValueAt(i))
	}
	recipient.SetNextPageId(p.GetNextPageId())
	recipient.SetSize(startIdx + size)
	p.SetSize(0)
}

// MoveFirstToEndOf pops p's first entry and appends it to recipient, then
// rewrites the parent's separator key for p to p's new first key.
func (p *LeafPage) MoveFirstToEndOf(recipient *LeafPage, bpm internalBPM) {
	firstKey, firstVal := p.GetItem(0)

	size := p.GetSize()
	p.SetSize(size - 1)
	for i := int32(0); i < size-1; i++ {
		p.setKeyAt(i, p.KeyAt(i+1))
		p.setValueAt(i, p.ValueAt(i+1))
	}

	recipient.CopyLastFrom(firstKey, firstVal)
	p.updateParentSeparator(p.KeyAt(0), bpm)
}

// CopyLastFrom appends (key, value) to the end of p.
func (p *LeafPage) CopyLastFrom(key GenericKey, value RID) {
	size := p.GetSize()
	p.setKeyAt(size, key)
	p.setValueAt(size, value)
	p.SetSize(size + 1)
}

// MoveLastToFrontOf pops p's last entry and prepends it to recipient,
// then rewrites the parent's separator key for recipient to the moved
// key. Symmetric with MoveFirstToEndOf; the reference implementation
// leaves this as a stub, filled in here since FindSibling can select
// either redistribution direction.
func (p *LeafPage) MoveLastToFrontOf(recipient *LeafPage, bpm internalBPM) {
	size := p.GetSize()
	lastKey, lastVal := p.GetItem(size - 1)
	p.SetSize(size - 1)

	recipient.CopyFirstFrom(lastKey, lastVal, bpm)
}

// CopyFirstFrom prepends (key, value) to p, shifting existing entries
// right, then rewrites the parent's separator key for p to the newly
// placed first key. Symmetric with CopyLastFrom; also a filled-in stub.
func (p *LeafPage) CopyFirstFrom(key GenericKey, value RID, bpm internalBPM) {
	size := p.GetSize()
	for i := size; i > 0; i-- {
		p.setKeyAt(i, p.KeyAt(i-1))
		p.setValueAt(i, p.ValueAt(i-1))
	}
	p.setKeyAt(0, key)
	p.setValueAt(0, value)
	p.SetSize(size + 1)

	p.updateParentSeparator(key, bpm)
}

func (p *LeafPage) updateParentSeparator(newKey GenericKey, bpm internalBPM) {
	parentPg, err := bpm.FetchPage(p.GetParentPageId())
	if err != nil {
		return
	}
	parent := NewInternalPage(parentPg, p.keySize)
	parent.SetKeyAt(parent.ValueIndex(p.GetPageId()), newKey)
	_ = bpm.UnpinPage(p.GetParentPageId(), true)
}
