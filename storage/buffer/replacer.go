// this code is adapted from the BusTub lru_replacer.cpp reference
// implementation, using container/list in place of a hand-rolled
// doubly-linked list plus iterator map, and a deadlock-detecting mutex in
// place of std::mutex.

package buffer

import (
	"container/list"

	"github.com/sasha-s/go-deadlock"
)

// FrameID is the type for frame id
type FrameID uint32

// Replacer selects a frame to evict among frames currently unpinned.
type Replacer interface {
	// Victim removes and returns the frame the replacement policy would
	// evict next, or ok=false if no frame is eligible.
	Victim() (frameID FrameID, ok bool)
	// Pin removes a frame from victim consideration because some caller
	// now holds it.
	Pin(id FrameID)
	// Unpin makes a frame eligible for victim consideration again.
	Unpin(id FrameID)
	// Size returns the number of frames currently eligible for eviction.
	Size() uint32
}

// LRUReplacer tracks unpinned frames in least-recently-unpinned order: the
// front of the list is the most recently unpinned frame, the back is the
// victim. Unpin on a frame already tracked is a no-op — it does not move
// the frame to the front — matching the reference implementation exactly.
type LRUReplacer struct {
	mutex deadlock.Mutex
	list  *list.List
	index map[FrameID]*list.Element
}

// NewLRUReplacer instantiates a new LRU replacer. poolSize is accepted for
// symmetry with the buffer pool's size but unused: the backing list grows
// and shrinks with Unpin/Victim calls.
func NewLRUReplacer(poolSize uint32) *LRUReplacer {
	return &LRUReplacer{
		list:  list.New(),
		index: make(map[FrameID]*list.Element),
	}
}

// Victim removes the victim frame as defined by the replacement policy.
func (r *LRUReplacer) Victim() (FrameID, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	back := r.list.Back()
	if back == nil {
		return 0, false
	}
	frameID := back.Value.(FrameID)
	r.list.Remove(back)
	delete(r.index, frameID)
	return frameID, true
}

// Pin pins a frame, indicating that it should not be victimized until it
// is unpinned.
func (r *LRUReplacer) Pin(id FrameID) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	elem, ok := r.index[id]
	if !ok {
		return
	}
	r.list.Remove(elem)
	delete(r.index, id)
}

// Unpin unpins a frame, indicating that it can now be victimized. Unpinning
// a frame that is already tracked is a no-op.
func (r *LRUReplacer) Unpin(id FrameID) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.index[id]; ok {
		return
	}
	r.index[id] = r.list.PushFront(id)
}

// Size returns the number of frames currently eligible for eviction.
func (r *LRUReplacer) Size() uint32 {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return uint32(r.list.Len())
}
