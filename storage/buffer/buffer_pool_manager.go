// this code is adapted from https://github.com/brunocalza/go-bustub's
// BufferPoolManager (see licenses/go-bustub) and from the BusTub C++
// reference buffer_pool_manager.cpp, which adds the write-elision
// optimization: a page is only flushed to disk if its content actually
// changed since it was last synced, tracked as a content hash per frame.
// The hash here uses xxhash instead of std::hash<string> — same idea,
// a much faster non-cryptographic digest well suited to a per-evict
// hot path.

package buffer

import (
	"sync"

	"github.com/ArdxWe/crabtree/common"
	"github.com/ArdxWe/crabtree/storage/disk"
	"github.com/ArdxWe/crabtree/storage/page"
	"github.com/ArdxWe/crabtree/storageerr"
	"github.com/ArdxWe/crabtree/types"
	"github.com/cespare/xxhash/v2"
)

// BufferPoolManager is the engine's cache of page frames backed by a
// DiskManager. It pins pages while callers hold them, evicts unpinned
// frames through an LRU Replacer, and elides a disk write on eviction or
// flush when a frame's content hash has not changed since it was last
// synced.
type BufferPoolManager struct {
	mu          sync.Mutex
	diskManager disk.DiskManager
	pages       []*page.Page
	replacer    *LRUReplacer
	freeList    []FrameID
	pageTable   map[types.PageID]FrameID
	hash        []uint64
}

// NewBufferPoolManager returns an empty buffer pool manager with poolSize
// frames, all initially on the free list.
func NewBufferPoolManager(poolSize uint32, diskManager disk.DiskManager) *BufferPoolManager {
	freeList := make([]FrameID, poolSize)
	pages := make([]*page.Page, poolSize)
	hash := make([]uint64, poolSize)
	for i := uint32(0); i < poolSize; i++ {
		freeList[i] = FrameID(i)
		pages[i] = nil
		hash[i] = 0
	}

	return &BufferPoolManager{
		diskManager: diskManager,
		pages:       pages,
		replacer:    NewLRUReplacer(poolSize),
		freeList:    freeList,
		pageTable:   make(map[types.PageID]FrameID),
		hash:        hash,
	}
}

// FetchPage fetches the requested page from the buffer pool, pinning it.
// It returns storageerr.ErrOutOfMemory if every frame is pinned.
func (b *BufferPoolManager) FetchPage(pageID types.PageID) (*page.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if frameID, ok := b.pageTable[pageID]; ok {
		pg := b.pages[frameID]
		pg.IncPinCount()
		b.replacer.Pin(frameID)
		return pg, nil
	}

	frameID, fromFreeList, ok := b.getFrameID()
	if !ok {
		return nil, storageerr.ErrOutOfMemory
	}

	if !fromFreeList {
		b.evict(frameID)
	}

	data := make([]byte, common.PageSize)
	if err := b.diskManager.ReadPage(pageID, data); err != nil {
		b.freeList = append(b.freeList, frameID)
		return nil, err
	}
	var pageData [common.PageSize]byte
	copy(pageData[:], data)
	pg := page.New(pageID, false, &pageData)

	b.pageTable[pageID] = frameID
	b.pages[frameID] = pg
	b.hash[frameID] = xxhash.Sum64(data)
	b.replacer.Pin(frameID)

	common.Log().Debugw("fetched page", "pageID", pageID, "frameID", frameID)
	return pg, nil
}

// UnpinPage unpins the target page, making it eligible for eviction once
// its pin count reaches zero. isDirty is OR'd into the page's existing
// dirty flag: a page already marked dirty by an earlier unpinner stays
// dirty even if a later unpinner passes false.
func (b *BufferPoolManager) UnpinPage(pageID types.PageID, isDirty bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameID, ok := b.pageTable[pageID]
	if !ok {
		return storageerr.ErrPageNotFound
	}

	pg := b.pages[frameID]
	pg.SetIsDirty(pg.IsDirty() || isDirty)

	if pg.PinCount() > 0 {
		pg.DecPinCount()
		if pg.PinCount() == 0 {
			if pg.IsDirty() {
				b.writeThrough(frameID, pg)
			}
			b.replacer.Unpin(frameID)
		}
	}

	return nil
}

// FlushPage flushes the target page to disk regardless of its dirty flag
// or pin count, then clears the dirty flag.
func (b *BufferPoolManager) FlushPage(pageID types.PageID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameID, ok := b.pageTable[pageID]
	if !ok {
		return false
	}

	pg := b.pages[frameID]
	b.writeThrough(frameID, pg)
	pg.SetIsDirty(false)
	common.Log().Debugw("flushed page", "pageID", pageID, "frameID", frameID)
	return true
}

// NewPage allocates a new page, pins it, and returns it. It returns
// storageerr.ErrOutOfMemory if every frame is pinned.
func (b *BufferPoolManager) NewPage() (*page.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameID, fromFreeList, ok := b.getFrameID()
	if !ok {
		return nil, storageerr.ErrOutOfMemory
	}

	if !fromFreeList {
		b.evict(frameID)
	}

	pageID := b.diskManager.AllocatePage()
	pg := page.NewEmpty(pageID)

	b.pageTable[pageID] = frameID
	b.pages[frameID] = pg
	b.hash[frameID] = xxhash.Sum64(pg.Data()[:])
	b.replacer.Pin(frameID)

	common.Log().Debugw("allocated page", "pageID", pageID, "frameID", frameID)
	return pg, nil
}

// DeletePage deletes a page from the buffer pool and tells the disk
// manager to free its id. It returns storageerr.ErrPagePinned if the page
// is still pinned by some other caller.
func (b *BufferPoolManager) DeletePage(pageID types.PageID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameID, ok := b.pageTable[pageID]
	if !ok {
		b.diskManager.DeallocatePage(pageID)
		return nil
	}

	pg := b.pages[frameID]
	if pg.PinCount() > 0 {
		return storageerr.ErrPagePinned
	}

	delete(b.pageTable, pageID)
	b.replacer.Pin(frameID)
	b.diskManager.DeallocatePage(pageID)
	b.pages[frameID] = nil
	b.freeList = append(b.freeList, frameID)

	return nil
}

// FlushAllPages flushes every resident page to disk.
func (b *BufferPoolManager) FlushAllPages() {
	b.mu.Lock()
	pageIDs := make([]types.PageID, 0, len(b.pageTable))
	for pageID := range b.pageTable {
		pageIDs = append(pageIDs, pageID)
	}
	b.mu.Unlock()

	for _, pageID := range pageIDs {
		b.FlushPage(pageID)
	}
}

// evict removes the frame's current resident from the page table,
// flushing it first if dirty. Caller must hold b.mu.
func (b *BufferPoolManager) evict(frameID FrameID) {
	currentPage := b.pages[frameID]
	if currentPage == nil {
		return
	}
	if currentPage.IsDirty() {
		b.writeThrough(frameID, currentPage)
	}
	delete(b.pageTable, currentPage.ID())
	common.Log().Debugw("evicted page", "pageID", currentPage.ID(), "frameID", frameID)
}

// writeThrough writes a frame's page to disk unless its content hash has
// not changed since the last write, eliding redundant I/O exactly as the
// BusTub reference buffer pool manager's write_disk helper does.
func (b *BufferPoolManager) writeThrough(frameID FrameID, pg *page.Page) {
	data := pg.Data()
	newHash := xxhash.Sum64(data[:])
	if newHash == b.hash[frameID] {
		return
	}
	if err := b.diskManager.WritePage(pg.ID(), data[:]); err != nil {
		common.Log().Errorw("failed to write page", "pageID", pg.ID(), "error", err)
		return
	}
	b.hash[frameID] = newHash
}

// getFrameID returns a frame to use, preferring the free list, and
// reports whether it came from the free list (true) or the replacer
// (false). Caller must hold b.mu.
func (b *BufferPoolManager) getFrameID() (FrameID, bool, bool) {
	if len(b.freeList) > 0 {
		frameID := b.freeList[0]
		b.freeList = b.freeList[1:]
		return frameID, true, true
	}

	frameID, ok := b.replacer.Victim()
	return frameID, false, ok
}
