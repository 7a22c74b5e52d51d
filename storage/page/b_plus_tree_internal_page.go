// this code is adapted line-for-line from the BusTub reference
// b_plus_tree_internal_page.cpp: dummy slot 0, binary-search Lookup over
// array[1:], PopulateNewRoot/InsertNodeAfter for split propagation, and
// the Move* family used by coalesce/redistribute, each of which also
// updates a moved child's parent_page_id through the buffer pool manager
// since children only reference their parent by page id.

package page

import (
	"github.com/ArdxWe/crabtree/types"
)

// internalBPM is the slice of BufferPoolManager the internal page's
// Move* routines need: enough to fetch a moved child and rewrite its
// parent pointer. Declared locally to avoid an import cycle with the
// buffer package.
type internalBPM interface {
	FetchPage(id types.PageID) (*Page, error)
	UnpinPage(id types.PageID, isDirty bool) error
}

// InternalPage interprets a page's bytes as a B+ tree internal node: a
// sorted array of (key, child-page-id) pairs where slot 0's key is an
// unused dummy.
type InternalPage struct {
	BPlusTreePage
	keySize KeySize
}

func internalEntrySize(keySize KeySize) int {
	return int(keySize) + 4
}

// NewInternalPage wraps page as an InternalPage view. keySize must match
// the owning tree's configured key width.
func NewInternalPage(pg *Page, keySize KeySize) *InternalPage {
	return &InternalPage{BPlusTreePage: newBPlusTreePage(pg.Data()), keySize: keySize}
}

// Init initializes the page as a fresh, empty internal node.
func (p *InternalPage) Init(pageID, parentID types.PageID, maxSize int32) {
	p.SetPageType(IndexPageTypeInternal)
	p.SetPageId(pageID)
	p.SetParentPageId(parentID)
	p.SetMaxSize(maxSize)
	p.SetSize(0)
}

func (p *InternalPage) slotOffset(i int32) int {
	return internalHeaderSize + int(i)*internalEntrySize(p.keySize)
}

// KeyAt returns the key at slot i. Slot 0's key is an unused dummy.
func (p *InternalPage) KeyAt(i int32) GenericKey {
	off := p.slotOffset(i)
	k := NewGenericKey(p.keySize)
	k.SetFromBytes(p.data[off : off+int(p.keySize)])
	return k
}

// SetKeyAt sets the key at slot i.
func (p *InternalPage) SetKeyAt(i int32, key GenericKey) {
	off := p.slotOffset(i)
	copy(p.data[off:off+int(p.keySize)], key.Bytes())
}

// ValueAt returns the child page id at slot i.
func (p *InternalPage) ValueAt(i int32) types.PageID {
	off := p.slotOffset(i) + int(p.keySize)
	return types.NewPageIDFromBytes(p.data[off : off+4])
}

// SetValueAt sets the child page id at slot i.
func (p *InternalPage) SetValueAt(i int32, id types.PageID) {
	off := p.slotOffset(i) + int(p.keySize)
	copy(p.data[off:off+4], id.Serialize())
}

// ValueIndex returns the slot holding childID, or -1 if absent.
func (p *InternalPage) ValueIndex(childID types.PageID) int32 {
	size := p.GetSize()
	for i := int32(0); i < size; i++ {
		if p.ValueAt(i) == childID {
			return i
		}
	}
	return -1
}

// Lookup returns the child page id responsible for key: the value at the
// largest index i>=1 with KeyAt(i) <= key, or array[0]'s value if key is
// smaller than every real separator.
func (p *InternalPage) Lookup(key GenericKey, cmp KeyComparator) types.PageID {
	size := p.GetSize()
	result := int32(0)
	lo, hi := int32(1), size-1
	for lo <= hi {
		mid := (lo + hi) / 2
		if cmp(p.KeyAt(mid), key) <= 0 {
			result = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return p.ValueAt(result)
}

// PopulateNewRoot installs left and right as the only two children of a
// freshly allocated root, with key as the separator.
func (p *InternalPage) PopulateNewRoot(left types.PageID, key GenericKey, right types.PageID) {
	p.SetValueAt(0, left)
	p.SetKeyAt(1, key)
	p.SetValueAt(1, right)
	p.SetSize(2)
}

// InsertNodeAfter inserts (key, newChild) immediately after the slot
// whose child is oldChild, shifting later entries right, and returns the
// new size.
func (p *InternalPage) InsertNodeAfter(oldChild types.PageID, key GenericKey, newChild types.PageID) int32 {
	idx := p.ValueIndex(oldChild)
	size := p.GetSize()
	for i := size; i > idx+1; i-- {
		p.SetKeyAt(i, p.KeyAt(i-1))
		p.SetValueAt(i, p.ValueAt(i-1))
	}
	p.SetKeyAt(idx+1, key)
	p.SetValueAt(idx+1, newChild)
	p.SetSize(size + 1)
	return size + 1
}

// Remove deletes the entry at index, shifting later entries left.
func (p *InternalPage) Remove(index int32) {
	size := p.GetSize()
	for i := index; i < size-1; i++ {
		p.SetKeyAt(i, p.KeyAt(i+1))
		p.SetValueAt(i, p.ValueAt(i+1))
	}
	p.SetSize(size - 1)
}

// RemoveAndReturnOnlyChild returns the sole remaining child's page id and
// empties the page. Called only when size == 1, i.e. the root is
// collapsing.
func (p *InternalPage) RemoveAndReturnOnlyChild() types.PageID {
	child := p.ValueAt(0)
	p.SetSize(0)
	return child
}

func (p *InternalPage) adoptChild(childID types.PageID, bpm internalBPM) {
	childPg, err := bpm.FetchPage(childID)
	if err != nil {
		return
	}
	newBPlusTreePage(childPg.Data()).SetParentPageId(p.GetPageId())
	_ = bpm.UnpinPage(childID, true)
}

// MoveHalfTo moves the upper half of p's entries (including the dummy's
// successor boundary) to recipient, reparenting each moved child.
// Invoked only when size == max+1 after an overflowing insert.
func (p *InternalPage) MoveHalfTo(recipient *InternalPage, bpm internalBPM) {
	total := p.GetSize()
	startIdx := total / 2
	for i := startIdx; i < total; i++ {
		recipient.SetKeyAt(i-startIdx, p.KeyAt(i))
		recipient.SetValueAt(i-startIdx, p.ValueAt(i))
		recipient.adoptChild(p.ValueAt(i), bpm)
	}
	recipient.SetSize(total - startIdx)
	p.SetSize(startIdx)
}

// MoveAllTo appends every entry of p onto the end of recipient, installing
// middleKey as the separator for p's former first child (the receiving
// dummy slot), then empties p. Used by Coalesce.
func (p *InternalPage) MoveAllTo(recipient *InternalPage, middleKey GenericKey, bpm internalBPM) {
	start := recipient.GetSize()
	recipient.SetKeyAt(start, middleKey)
	recipient.SetValueAt(start, p.ValueAt(0))
	recipient.adoptChild(p.ValueAt(0), bpm)

	size := p.GetSize()
	for i := int32(1); i < size; i++ {
		recipient.SetKeyAt(start+i, p.KeyAt(i))
		recipient.SetValueAt(start+i, p.ValueAt(i))
		recipient.adoptChild(p.ValueAt(i), bpm)
	}
	recipient.SetSize(start + size)
	p.SetSize(0)
}

// updateParentSeparator rewrites the separator key p's parent holds for
// p to newKey, since p's own first key just changed.
func (p *InternalPage) updateParentSeparator(newKey GenericKey, bpm internalBPM) {
	parentPg, err := bpm.FetchPage(p.GetParentPageId())
	if err != nil {
		return
	}
	parent := NewInternalPage(parentPg, p.keySize)
	parent.SetKeyAt(parent.ValueIndex(p.GetPageId()), newKey)
	_ = bpm.UnpinPage(p.GetParentPageId(), true)
}

// MoveFirstToEndOf pops p's first child and appends it to recipient as
// recipient's new last entry, reparenting the moved child to recipient.
// p's slot 0 key is an unused dummy, so it cannot supply the key the
// moved child needs inside recipient: parentSeparator — the key the
// grandparent currently holds between recipient and p — is used instead,
// matching what that key already means (the lower bound of p's subtree,
// which is exactly the lower bound of the child now joining recipient).
// p's own separator in the grandparent is then rewritten to p's new
// first key, promoted up from what used to be p's second entry.
func (p *InternalPage) MoveFirstToEndOf(recipient *InternalPage, parentSeparator GenericKey, bpm internalBPM) {
	firstVal := p.ValueAt(0)

	size := p.GetSize()
	p.SetSize(size - 1)
	for i := int32(0); i < size-1; i++ {
		p.SetKeyAt(i, p.KeyAt(i+1))
		p.SetValueAt(i, p.ValueAt(i+1))
	}

	recipient.CopyLastFrom(parentSeparator, firstVal)
	recipient.adoptChild(firstVal, bpm)
	p.updateParentSeparator(p.KeyAt(0), bpm)
}

// CopyLastFrom appends (key, value) to the end of p. Reparenting the
// moved child is the caller's responsibility (MoveFirstToEndOf does it),
// matching the reference implementation exactly.
func (p *InternalPage) CopyLastFrom(key GenericKey, value types.PageID) {
	size := p.GetSize()
	p.SetKeyAt(size, key)
	p.SetValueAt(size, value)
	p.SetSize(size + 1)
}

// MoveLastToFrontOf pops p's last child and prepends it to recipient as
// recipient's new first entry, reparenting the moved child to recipient.
// p's own key at the vacated slot — the lower bound of the child being
// moved — becomes the new separator between p and recipient in the
// grandparent; parentSeparator, the grandparent's separator before this
// rotation, slides down to become the key for recipient's old first
// child (now shifted to recipient's second slot).
func (p *InternalPage) MoveLastToFrontOf(recipient *InternalPage, parentSeparator GenericKey, bpm internalBPM) {
	size := p.GetSize()
	lastVal := p.ValueAt(size - 1)
	newParentSeparator := p.KeyAt(size - 1)
	p.SetSize(size - 1)

	recipient.CopyFirstFrom(parentSeparator, lastVal, bpm)
	recipient.updateParentSeparator(newParentSeparator, bpm)
}

// CopyFirstFrom prepends value to p with parentSeparator as the key for
// p's existing first entry (now shifted to slot 1); p's new slot 0 key
// is the dummy and left untouched. Reparents the moved child to p.
func (p *InternalPage) CopyFirstFrom(parentSeparator GenericKey, value types.PageID, bpm internalBPM) {
	size := p.GetSize()
	for i := size; i > 0; i-- {
		p.SetKeyAt(i, p.KeyAt(i-1))
		p.SetValueAt(i, p.ValueAt(i-1))
	}
	p.SetKeyAt(1, parentSeparator)
	p.SetValueAt(0, value)
	p.SetSize(size + 1)

	p.adoptChild(value, bpm)
}
