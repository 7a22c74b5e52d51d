// this code is adapted from https://github.com/brunocalza/go-bustub's
// DiskManagerTest (see licenses/go-bustub), generalized from a temp-file-
// backed wrapper to a plain in-memory page store so unit tests never touch
// the filesystem.

package disk

import (
	"github.com/ArdxWe/crabtree/common"
	"github.com/ArdxWe/crabtree/types"
	"github.com/sasha-s/go-deadlock"
)

// DiskManagerTest is an in-memory DiskManager for unit tests: every page
// image lives in a map keyed by page id, so tests run with no filesystem
// I/O and leave nothing behind to clean up.
type DiskManagerTest struct {
	mu         deadlock.Mutex
	pages      map[types.PageID][]byte
	nextPageID types.PageID
	numWrites  uint64
}

// NewDiskManagerTest returns a DiskManager instance for testing purposes
func NewDiskManagerTest() DiskManager {
	return &DiskManagerTest{
		pages: make(map[types.PageID][]byte),
	}
}

// ReadPage copies the stored page image into data, or zero-fills data if
// the page was never written (mirroring a sparse file's implicit zeroes).
func (d *DiskManagerTest) ReadPage(id types.PageID, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	stored, ok := d.pages[id]
	if !ok {
		for i := range data {
			data[i] = 0
		}
		return nil
	}
	copy(data, stored)
	return nil
}

// WritePage stores a copy of data under id.
func (d *DiskManagerTest) WritePage(id types.PageID, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	buf := make([]byte, common.PageSize)
	copy(buf, data)
	d.pages[id] = buf
	d.numWrites++
	return nil
}

// AllocatePage allocates a new page id.
func (d *DiskManagerTest) AllocatePage() types.PageID {
	d.mu.Lock()
	defer d.mu.Unlock()

	ret := d.nextPageID
	d.nextPageID++
	return ret
}

// DeallocatePage removes the page's stored image.
func (d *DiskManagerTest) DeallocatePage(id types.PageID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.pages, id)
}

// GetNumWrites returns the number of disk writes.
func (d *DiskManagerTest) GetNumWrites() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.numWrites
}

// ShutDown is a no-op: there is no backing file to close.
func (d *DiskManagerTest) ShutDown() {}

// Size returns the number of pages currently stored times the page size.
// A page removed by DeallocatePage no longer counts.
func (d *DiskManagerTest) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.pages)) * common.PageSize
}
