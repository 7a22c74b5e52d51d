// this code is grounded on the role BusTub's header_page.h plays (a
// page-zero registry mapping an index's name to its root page id so
// multiple indices can coexist in one file and relocate their root
// across restarts), reimplemented here as bounds-checked accessors over
// a fixed-slot record array rather than a length-prefixed scan.

package page

import (
	"encoding/binary"

	"github.com/ArdxWe/crabtree/types"
)

const (
	maxIndexNameLen = 32
	headerRecordSize = maxIndexNameLen + 4 // name + root page id
	headerCountOffset = 0
	headerRecordsOffset = 4
)

// HeaderPage is the name -> root-page-id registry living at page id 0.
type HeaderPage struct {
	data *[PageSize]byte
}

// NewHeaderPage wraps pg as a HeaderPage view.
func NewHeaderPage(pg *Page) *HeaderPage {
	return &HeaderPage{data: pg.Data()}
}

// Init resets the header page to hold zero records.
func (h *HeaderPage) Init() {
	binary.LittleEndian.PutUint32(h.data[headerCountOffset:], 0)
}

func (h *HeaderPage) recordCount() int32 {
	return int32(binary.LittleEndian.Uint32(h.data[headerCountOffset:]))
}

func (h *HeaderPage) setRecordCount(n int32) {
	binary.LittleEndian.PutUint32(h.data[headerCountOffset:], uint32(n))
}

func (h *HeaderPage) recordOffset(i int32) int {
	return headerRecordsOffset + int(i)*headerRecordSize
}

func (h *HeaderPage) nameAt(i int32) string {
	off := h.recordOffset(i)
	raw := h.data[off : off+maxIndexNameLen]
	n := 0
	for n < len(raw) && raw[n] != 0 {
		n++
	}
	return string(raw[:n])
}

func (h *HeaderPage) rootAt(i int32) types.PageID {
	off := h.recordOffset(i) + maxIndexNameLen
	return types.NewPageIDFromBytes(h.data[off : off+4])
}

func (h *HeaderPage) find(name string) int32 {
	count := h.recordCount()
	for i := int32(0); i < count; i++ {
		if h.nameAt(i) == name {
			return i
		}
	}
	return -1
}

// InsertRecord adds a new (name, rootPageID) record. It reports false if
// name is already registered.
func (h *HeaderPage) InsertRecord(name string, rootPageID types.PageID) bool {
	if h.find(name) >= 0 {
		return false
	}
	count := h.recordCount()
	off := h.recordOffset(count)
	var nameBuf [maxIndexNameLen]byte
	copy(nameBuf[:], name)
	copy(h.data[off:off+maxIndexNameLen], nameBuf[:])
	copy(h.data[off+maxIndexNameLen:off+headerRecordSize], rootPageID.Serialize())
	h.setRecordCount(count + 1)
	return true
}

// UpdateRecord rewrites the root page id for an existing name. It
// reports false if name is not registered.
func (h *HeaderPage) UpdateRecord(name string, rootPageID types.PageID) bool {
	idx := h.find(name)
	if idx < 0 {
		return false
	}
	off := h.recordOffset(idx) + maxIndexNameLen
	copy(h.data[off:off+4], rootPageID.Serialize())
	return true
}

// DeleteRecord removes name's record, shifting later records left. It
// reports false if name is not registered.
func (h *HeaderPage) DeleteRecord(name string) bool {
	idx := h.find(name)
	if idx < 0 {
		return false
	}
	count := h.recordCount()
	for i := idx; i < count-1; i++ {
		srcOff := h.recordOffset(i + 1)
		dstOff := h.recordOffset(i)
		copy(h.data[dstOff:dstOff+headerRecordSize], h.data[srcOff:srcOff+headerRecordSize])
	}
	h.setRecordCount(count - 1)
	return true
}

// GetRootId returns the root page id registered for name.
func (h *HeaderPage) GetRootId(name string) (types.PageID, bool) {
	idx := h.find(name)
	if idx < 0 {
		return types.InvalidPageID, false
	}
	return h.rootAt(idx), true
}
