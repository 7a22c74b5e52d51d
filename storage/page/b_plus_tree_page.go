// this code is grounded on the BusTub b_plus_tree_page.h/.cpp common
// header (page_type, size, max_size, parent_page_id, page_id) referenced
// throughout b_plus_tree_internal_page.cpp and b_plus_tree_leaf_page.cpp,
// reimplemented in Go as bounds-checked accessors over a raw byte array
// instead of a reinterpreted C struct.

package page

import (
	"encoding/binary"

	"github.com/ArdxWe/crabtree/types"
)

// IndexPageType distinguishes an internal page from a leaf page in a
// B+ tree page's common header.
type IndexPageType int32

const (
	// IndexPageTypeInternal marks a page holding (key, child-page-id) entries.
	IndexPageTypeInternal IndexPageType = 0
	// IndexPageTypeLeaf marks a page holding (key, record-id) entries.
	IndexPageTypeLeaf IndexPageType = 1
)

// Common header layout, little-endian:
//
//	offset 0:  page_type   (4 bytes)
//	offset 4:  lsn         (4 bytes, unused)
//	offset 8:  size        (4 bytes)
//	offset 12: max_size    (4 bytes)
//	offset 16: parent_page_id (4 bytes)
//	offset 20: page_id     (4 bytes)
const (
	offsetPageType      = 0
	offsetLSN           = 4
	offsetSize          = 8
	offsetMaxSize       = 12
	offsetParentPageID  = 16
	offsetPageID        = 20
	commonHeaderSize    = 24
	offsetLeafNextPage  = commonHeaderSize
	leafHeaderSize      = commonHeaderSize + 4
	internalHeaderSize  = commonHeaderSize
)

// BPlusTreePage is the common header shared by internal and leaf pages. It
// wraps a page's backing byte array; all operations are non-latching —
// the caller must hold the owning page's reader/writer latch.
type BPlusTreePage struct {
	data *[PageSize]byte
}

func newBPlusTreePage(data *[PageSize]byte) BPlusTreePage {
	return BPlusTreePage{data: data}
}

// NewBPlusTreePageHeader wraps pg's common header, for callers (like the
// crabbing descent) that only need page_type/size/max_size and don't yet
// know whether pg is a leaf or an internal node.
func NewBPlusTreePageHeader(pg *Page) BPlusTreePage {
	return newBPlusTreePage(pg.Data())
}

func (p BPlusTreePage) GetPageType() IndexPageType {
	return IndexPageType(int32(binary.LittleEndian.Uint32(p.data[offsetPageType:])))
}

func (p BPlusTreePage) SetPageType(t IndexPageType) {
	binary.LittleEndian.PutUint32(p.data[offsetPageType:], uint32(int32(t)))
}

func (p BPlusTreePage) IsLeafPage() bool {
	return p.GetPageType() == IndexPageTypeLeaf
}

func (p BPlusTreePage) GetSize() int32 {
	return int32(binary.LittleEndian.Uint32(p.data[offsetSize:]))
}

func (p BPlusTreePage) SetSize(size int32) {
	binary.LittleEndian.PutUint32(p.data[offsetSize:], uint32(size))
}

func (p BPlusTreePage) IncreaseSize(delta int32) {
	p.SetSize(p.GetSize() + delta)
}

func (p BPlusTreePage) GetMaxSize() int32 {
	return int32(binary.LittleEndian.Uint32(p.data[offsetMaxSize:]))
}

func (p BPlusTreePage) SetMaxSize(size int32) {
	binary.LittleEndian.PutUint32(p.data[offsetMaxSize:], uint32(size))
}

// GetMinSize returns the minimum occupancy before this page violates the
// sizing invariant: ceil(max/2) for leaves, and for internal pages the
// same but counting the unused dummy slot 0 as part of max.
func (p BPlusTreePage) GetMinSize() int32 {
	max := p.GetMaxSize()
	if p.IsLeafPage() {
		return (max + 1) / 2
	}
	return (max + 1) / 2
}

func (p BPlusTreePage) GetParentPageId() types.PageID {
	return types.PageID(int32(binary.LittleEndian.Uint32(p.data[offsetParentPageID:])))
}

func (p BPlusTreePage) SetParentPageId(id types.PageID) {
	binary.LittleEndian.PutUint32(p.data[offsetParentPageID:], uint32(int32(id)))
}

func (p BPlusTreePage) GetPageId() types.PageID {
	return types.PageID(int32(binary.LittleEndian.Uint32(p.data[offsetPageID:])))
}

func (p BPlusTreePage) SetPageId(id types.PageID) {
	binary.LittleEndian.PutUint32(p.data[offsetPageID:], uint32(int32(id)))
}

// IsRootPage reports whether this page has no parent.
func (p BPlusTreePage) IsRootPage() bool {
	return p.GetParentPageId() == types.InvalidPageID
}
