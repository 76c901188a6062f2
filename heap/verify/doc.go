// Package verify provides invariant checks for allocator state.
//
// # Overview
//
// The checks are used by tests after every mutation and by the session's
// strict mode. Most of them work on a plain alloc.Snapshot, so a hand-built
// snapshot can be checked without an engine:
//
//   - Conservation: allocated + free units == total
//   - FreeRuns: in bounds, ascending, non-overlapping, never adjacent
//   - Blocks: in bounds, refCount == len(owners), no overlaps, no shared owners
//
// Checks that need the live engine take a State:
//
//   - NameIndex: every owner resolves to its block's start, and no other names exist
//   - Occupancy: the per-unit bitmap agrees with the block list
//
// # Quick Start
//
//	if err := verify.AllInvariants(engine); err != nil {
//	    var verr *verify.ValidationError
//	    if errors.As(err, &verr) {
//	        fmt.Printf("%s: %s\n", verr.Type, verr.Message)
//	    }
//	}
//
// # ValidationError
//
// Every failure is a *ValidationError. Offset is the unit address the problem
// was found at, or -1 when no single address applies. Details carries the
// numbers behind the message.
package verify
