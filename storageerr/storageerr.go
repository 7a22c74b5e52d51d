// Package storageerr defines the sentinel errors the storage engine's
// public API can return, checked with errors.Is. This mirrors the idiom
// the retrieved corpus already uses for this exact class of error
// (ryogrid-SamehadaDB/types.DeallocatedPageErr is a comparable sentinel
// error) rather than introducing a wrapping library: the taxonomy here is
// small, flat, and known ahead of time (spec §7), which is exactly the
// case stdlib sentinel errors fit.
package storageerr

import "errors"

var (
	// ErrOutOfMemory is returned when a structural B+ tree operation
	// (StartNewTree, Split, InsertIntoParent) cannot obtain a page from the
	// buffer pool manager because every frame is pinned and the free list
	// and replacer are both empty.
	ErrOutOfMemory = errors.New("crabtree: buffer pool exhausted, all frames pinned")

	// ErrPageNotFound is returned by operations that require a page to
	// already be resident in the buffer pool.
	ErrPageNotFound = errors.New("crabtree: page not resident in buffer pool")

	// ErrPagePinned is returned by DeletePage when the target page is
	// still pinned by some other caller.
	ErrPagePinned = errors.New("crabtree: page still pinned")
)
