// this code is adapted from https://github.com/brunocalza/go-bustub (see
// licenses/go-bustub), adding the page-level reader/writer latch latch
// crabbing needs and switching the id/size types to the shared common and
// types packages.

package page

import (
	"github.com/ArdxWe/crabtree/common"
	"github.com/ArdxWe/crabtree/types"
)

// PageSize is the fixed size, in bytes, of a page image.
const PageSize = common.PageSize

// Page is an in-memory frame holding one disk page's image plus the
// metadata the buffer pool manager and latch-crabbing callers need: pin
// count, dirty flag, and a reader/writer latch guarding the data array
// itself (distinct from the buffer pool manager's own bookkeeping latch).
type Page struct {
	id       types.PageID
	pinCount int32
	isDirty  bool
	data     *[PageSize]byte
	latch    common.ReaderWriterLatch
}

// IncPinCount increments the pin count.
func (p *Page) IncPinCount() {
	p.pinCount++
}

// DecPinCount decrements the pin count, never going below zero.
func (p *Page) DecPinCount() {
	if p.pinCount > 0 {
		p.pinCount--
	}
}

// PinCount returns the pin count.
func (p *Page) PinCount() int32 {
	return p.pinCount
}

// ID returns the page id.
func (p *Page) ID() types.PageID {
	return p.id
}

// Data returns the backing data array.
func (p *Page) Data() *[PageSize]byte {
	return p.data
}

// Copy overwrites the page's data starting at offset with src.
func (p *Page) Copy(offset int, src []byte) {
	copy(p.data[offset:], src)
}

// SetIsDirty sets the dirty flag.
func (p *Page) SetIsDirty(isDirty bool) {
	p.isDirty = isDirty
}

// IsDirty reports the dirty flag.
func (p *Page) IsDirty() bool {
	return p.isDirty
}

// WLock acquires the page's content write latch.
func (p *Page) WLock() { p.latch.WLock() }

// WUnlock releases the page's content write latch.
func (p *Page) WUnlock() { p.latch.WUnlock() }

// RLock acquires the page's content read latch.
func (p *Page) RLock() { p.latch.RLock() }

// RUnlock releases the page's content read latch.
func (p *Page) RUnlock() { p.latch.RUnlock() }

// New wraps an existing data array as a page frame with pin count 1.
func New(id types.PageID, isDirty bool, data *[PageSize]byte) *Page {
	return &Page{id: id, pinCount: 1, isDirty: isDirty, data: data, latch: common.NewRWLatch()}
}

// NewEmpty returns a fresh zero-filled page frame with pin count 1.
func NewEmpty(id types.PageID) *Page {
	return &Page{id: id, pinCount: 1, isDirty: false, data: &[PageSize]byte{}, latch: common.NewRWLatch()}
}
