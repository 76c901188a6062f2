package alloc

// Outcome describes what a successful Free did.
type Outcome uint8

const (
	// OutcomeFreed means the last owner was dropped and the block's range
	// returned to the free list.
	OutcomeFreed Outcome = iota + 1

	// OutcomeRefDecremented means other owners remain; no memory was released.
	OutcomeRefDecremented
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFreed:
		return "Freed"
	case OutcomeRefDecremented:
		return "RefDecremented"
	default:
		return "Unknown"
	}
}

// Block is an allocated range of units, shared by one or more owners.
// The name index points at the Block itself, so owners follow it when
// compaction moves it.
type Block struct {
	start    int
	size     int
	refCount int
	owners   []string // insertion order
}

// Start returns the first unit of the block.
func (b *Block) Start() int { return b.start }

// Size returns the number of units in the block.
func (b *Block) Size() int { return b.size }

// RefCount returns the number of owners.
func (b *Block) RefCount() int { return b.refCount }

// end returns the first unit after the block.
func (b *Block) end() int { return b.start + b.size }

func (b *Block) removeOwner(name string) {
	for i, n := range b.owners {
		if n == name {
			b.owners = append(b.owners[:i], b.owners[i+1:]...)
			return
		}
	}
}

// FreeRun is a contiguous range of unallocated units.
type FreeRun struct {
	Start int `json:"start"`
	Size  int `json:"size"`
}

// End returns the first unit after the run.
func (r FreeRun) End() int { return r.Start + r.Size }

// BlockInfo is the Snapshot view of an allocated block.
type BlockInfo struct {
	Start    int      `json:"start"`
	Size     int      `json:"size"`
	RefCount int      `json:"refCount"`
	Owners   []string `json:"owners"`
}

// End returns the first unit after the block.
func (b BlockInfo) End() int { return b.Start + b.Size }

// Snapshot is a point-in-time copy of the engine state. Blocks are in
// allocation order, Free in address order.
type Snapshot struct {
	Total     int         `json:"total"`
	Blocks    []BlockInfo `json:"blocks"`
	Free      []FreeRun   `json:"free"`
	Allocated int         `json:"allocated"`
	FreeUnits int         `json:"freeUnits"`
}

// Stats holds operation counters for instrumentation and tests.
type Stats struct {
	AllocCalls       int // Total Allocate() calls
	AllocFailures    int // Allocate() calls rejected for any reason
	OutOfMemory      int // Allocate() calls that found no fitting run
	FreeCalls        int // Total Free() calls
	BlocksReleased   int // Free() calls that released a block
	ReferenceCalls   int // Total Reference() calls
	Compactions      int // Compact() calls
	BlocksMoved      int // Blocks relocated across all compactions
	SplitCount       int // Allocations that left a remainder in the chosen run
	CoalesceForward  int // Released blocks merged with the following run
	CoalesceBackward int // Released blocks merged with the preceding run
}
