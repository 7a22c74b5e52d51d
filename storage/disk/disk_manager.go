// this code is adapted from https://github.com/brunocalza/go-bustub (see
// licenses/go-bustub), fixing the teacher's broken cross-module import and
// trimming the interface to the File Manager contract spec.md treats as an
// external collaborator: page-granular read/write plus id allocation.

package disk

import "github.com/ArdxWe/crabtree/types"

// DiskManager is responsible for interacting with disk
type DiskManager interface {
	ReadPage(types.PageID, []byte) error
	WritePage(types.PageID, []byte) error
	AllocatePage() types.PageID
	DeallocatePage(types.PageID)
	GetNumWrites() uint64
	ShutDown()
	Size() int64
}
