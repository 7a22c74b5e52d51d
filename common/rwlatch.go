// this code is adapted from https://github.com/pzhzqt/goostub (see
// licenses/goostub), generalized from sync.RWMutex to a deadlock-detecting
// RWMutex so a crabbing bug that acquires latches out of order surfaces as
// a runtime error instead of a silent deadlock.

package common

import (
	"github.com/sasha-s/go-deadlock"
)

// ReaderWriterLatch is the short-duration, non-durable lock protecting a
// single page's in-memory content. It is distinct from a transactional
// lock: it is held while a tree operation or an index iterator works on
// the page, and a descent may still hold it while the buffer pool fetches
// the next page from disk.
type ReaderWriterLatch interface {
	WLock()
	WUnlock()
	RLock()
	RUnlock()
}

type readerWriterLatch struct {
	mutex deadlock.RWMutex
}

// NewRWLatch returns a fresh, unlocked page latch.
func NewRWLatch() ReaderWriterLatch {
	return &readerWriterLatch{}
}

func (l *readerWriterLatch) WLock()   { l.mutex.Lock() }
func (l *readerWriterLatch) WUnlock() { l.mutex.Unlock() }
func (l *readerWriterLatch) RLock()   { l.mutex.RLock() }
func (l *readerWriterLatch) RUnlock() { l.mutex.RUnlock() }
