// Package alloc provides a best-fit block allocator over a fixed-size space of
// abstract units.
//
// # Overview
//
// The Engine keeps four structures consistent with each other:
//
//   - an occupancy bitmap with one bit per unit
//   - the allocated-block list, in allocation order
//   - the free-run list, in ascending address order, with adjacent runs merged
//   - a name index from variable name to the block it denotes
//
// Nothing is read from or written to the units themselves; the engine only
// does the bookkeeping.
//
// # Operations
//
//   - Allocate(size, name): best-fit placement of a new block owned by name
//   - Free(name): drop one owner; release the block when no owners remain
//   - Reference(name1, name2): make name1 a second owner of name2's block
//   - Compact(): slide every block toward address 0, in allocation order
//   - Report(): read-only Snapshot of blocks, free runs and totals
//
// # Usage Example
//
//	e, err := alloc.New(100)
//	if err != nil {
//	    return err
//	}
//
//	start, err := e.Allocate(16, "buf")
//	switch {
//	case errors.Is(err, alloc.ErrOutOfMemory):
//	    e.Compact()
//	    start, err = e.Allocate(16, "buf")
//	case err != nil:
//	    return err
//	}
//
//	_, _ = e.Reference("alias", "buf") // block now has two owners
//
//	outcome, _ := e.Free("buf") // OutcomeRefDecremented
//	outcome, _ = e.Free("alias") // OutcomeFreed, range returns to the free list
//
// # Best Fit
//
// Among free runs at least as large as the request, Allocate picks the one with
// the smallest leftover. Ties go to the first run in address order, so a given
// sequence of operations always produces the same layout.
//
// # Compaction
//
// Compact walks blocks in allocation order, not address order. A block that
// was allocated early but sits at a high address therefore moves to the front.
// The result is a single trailing free run, or none when memory is full.
//
// # Thread Safety
//
// Engine instances are not thread-safe. Callers must issue operations one at
// a time; the session package does exactly that.
//
// # Related Packages
//
//   - github.com/joshuapare/blockalloc/heap/verify: invariant checks over an Engine
//   - github.com/joshuapare/blockalloc/heap/printer: Snapshot rendering
//   - github.com/joshuapare/blockalloc/heap/session: transaction-log interpreter
package alloc
