// this code models the opaque *operation context* spec.md's out-of-scope
// transaction manager is described as handing the B+ tree: an ordered
// page set plus a deleted-page set. It is grounded in the BusTub
// Transaction class's GetPageSet/GetDeletedPageSet, generalized per
// §9's DESIGN NOTES into an explicit struct field rather than
// thread-local state so nested descents stay testable and reentrant.

package index

import (
	"github.com/ArdxWe/crabtree/storage/page"
	"github.com/ArdxWe/crabtree/types"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
)

// OpType is the kind of traversal a crabbing descent is performed for,
// which determines both the latch mode used on each page and the
// "safe" test that decides when ancestor latches can be released.
type OpType int

const (
	OpRead OpType = iota
	OpInsert
	OpDelete
)

// IsWrite reports whether op requires an exclusive latch.
func (op OpType) IsWrite() bool {
	return op == OpInsert || op == OpDelete
}

// OperationContext threads the state a single B+ tree operation
// (GetValue/Insert/Remove/Begin) accumulates while descending: the
// ordered set of pages it currently holds latched and pinned, the set of
// page ids it has decided to delete once it unwinds, and a count of how
// many times it holds the tree's root latch (so nested structural
// recursion, e.g. InsertIntoParent splitting its own parent, never
// double-releases it).
type OperationContext struct {
	id            uuid.UUID
	pageSet       []*page.Page
	deletedPages  mapset.Set[types.PageID]
	rootLockedCnt int
}

// NewOperationContext returns a fresh, empty operation context.
func NewOperationContext() *OperationContext {
	return &OperationContext{
		id:           uuid.New(),
		deletedPages: mapset.NewThreadUnsafeSet[types.PageID](),
	}
}

// ID returns the operation's correlation id, used only to tie together a
// structural change's log lines.
func (ctx *OperationContext) ID() uuid.UUID {
	return ctx.id
}

// AddToPageSet appends pg to the ordered set of currently-latched pages.
func (ctx *OperationContext) AddToPageSet(pg *page.Page) {
	ctx.pageSet = append(ctx.pageSet, pg)
}

// FindInPageSet returns the page already held for id, or nil if this
// operation has not (or no longer) latched it.
func (ctx *OperationContext) FindInPageSet(id types.PageID) *page.Page {
	for _, pg := range ctx.pageSet {
		if pg.ID() == id {
			return pg
		}
	}
	return nil
}

// RemoveFromPageSet drops id from the page set without unlocking or
// unpinning it; callers use this once they have released it themselves.
func (ctx *OperationContext) RemoveFromPageSet(id types.PageID) {
	for i, pg := range ctx.pageSet {
		if pg.ID() == id {
			ctx.pageSet = append(ctx.pageSet[:i], ctx.pageSet[i+1:]...)
			return
		}
	}
}

// MarkPageDeleted records that pageID should be handed to
// BufferPoolManager.DeletePage once this operation's pages are freed.
func (ctx *OperationContext) MarkPageDeleted(pageID types.PageID) {
	ctx.deletedPages.Add(pageID)
}

// IsPageDeleted reports whether pageID was marked for deletion.
func (ctx *OperationContext) IsPageDeleted(pageID types.PageID) bool {
	return ctx.deletedPages.Contains(pageID)
}
