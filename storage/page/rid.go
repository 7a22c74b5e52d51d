// this code is adapted from https://github.com/brunocalza/go-bustub (see
// licenses/go-bustub), fixing the broken cross-module types import.

package page

import "github.com/ArdxWe/crabtree/types"

// RID is the record identifier for a given page identifier and slot number.
type RID struct {
	pageID  types.PageID
	slotNum uint32
}

// NewRID constructs an RID.
func NewRID(pageID types.PageID, slot uint32) RID {
	return RID{pageID: pageID, slotNum: slot}
}

// Set sets the record identifier.
func (r *RID) Set(pageID types.PageID, slot uint32) {
	r.pageID = pageID
	r.slotNum = slot
}

// GetPageId gets the page id.
func (r *RID) GetPageId() types.PageID {
	return r.pageID
}

// GetSlot gets the slot number.
func (r *RID) GetSlot() uint32 {
	return r.slotNum
}
