package alloc

// Engine is a best-fit allocator over total units.
//
// - blocks keeps allocation order, which Compact preserves
// - free stays sorted by start with no two runs adjacent
// - names maps each owner to its Block, so lookups are O(1) and survive relocation.
type Engine struct {
	total  int
	occ    occupancy
	blocks []*Block
	free   []FreeRun
	names  map[string]*Block

	stats Stats
}

// New creates an engine managing total units, all initially free.
func New(total int) (*Engine, error) {
	if total <= 0 {
		return nil, ErrBadTotal
	}
	return &Engine{
		total: total,
		occ:   newOccupancy(total),
		free:  []FreeRun{{Start: 0, Size: total}},
		names: make(map[string]*Block),
	}, nil
}

// Total returns the size of the managed space in units.
func (e *Engine) Total() int { return e.total }

// Lookup returns the start address of the block name denotes.
func (e *Engine) Lookup(name string) (int, bool) {
	b, ok := e.names[name]
	if !ok {
		return 0, false
	}
	return b.start, true
}

// Occupied reports whether unit lies inside an allocated block according to
// the occupancy bitmap. Out-of-range units are never occupied.
func (e *Engine) Occupied(unit int) bool {
	if unit < 0 || unit >= e.total {
		return false
	}
	return e.occ.test(unit)
}

// Names returns the number of live variable names.
func (e *Engine) Names() int { return len(e.names) }

// Stats returns the operation counters.
func (e *Engine) Stats() Stats { return e.stats }

// Allocate places a new block of size units owned by name and returns its
// start address.
//
// Errors (no state change in every case):
//   - ErrInvalidName: size <= 0, name empty, or name starts with a digit
//   - ErrDuplicateVariable: name already denotes a block
//   - ErrOutOfMemory: no free run holds size units
func (e *Engine) Allocate(size int, name string) (int, error) {
	e.stats.AllocCalls++

	if err := validateAllocation(size, name); err != nil {
		e.stats.AllocFailures++
		return 0, err
	}
	if _, exists := e.names[name]; exists {
		e.stats.AllocFailures++
		return 0, errorf(KindDuplicateVariable, name, "variable already exists")
	}

	i := e.bestFit(size)
	if i < 0 {
		e.stats.AllocFailures++
		e.stats.OutOfMemory++
		return 0, errorf(KindOutOfMemory, name, "no free run holds %d units", size)
	}

	start := e.carve(i, size)
	b := &Block{start: start, size: size, refCount: 1, owners: []string{name}}
	e.blocks = append(e.blocks, b)
	e.occ.markRange(start, size)
	e.names[name] = b

	return start, nil
}

// Free drops name as an owner of its block. When it was the last owner the
// block's range goes back to the free list, merged with adjacent runs.
func (e *Engine) Free(name string) (Outcome, error) {
	e.stats.FreeCalls++

	b, ok := e.names[name]
	if !ok {
		return 0, errorf(KindUnknownVariable, name, "variable not allocated")
	}

	delete(e.names, name)
	b.removeOwner(name)
	b.refCount--
	if b.refCount > 0 {
		return OutcomeRefDecremented, nil
	}

	e.occ.clearRange(b.start, b.size)
	e.removeBlock(b)
	e.insertFreeRun(FreeRun{Start: b.start, Size: b.size})
	e.stats.BlocksReleased++

	return OutcomeFreed, nil
}

// Reference makes name1 an additional owner of the block name2 denotes and
// returns that block's start. Nothing moves.
//
// Errors (no state change):
//   - ErrDuplicateVariable: name1 already denotes a block
//   - ErrUnknownVariable: name2 does not denote a block
func (e *Engine) Reference(name1, name2 string) (int, error) {
	e.stats.ReferenceCalls++

	if _, exists := e.names[name1]; exists {
		return 0, errorf(KindDuplicateVariable, name1, "variable already exists")
	}
	b, ok := e.names[name2]
	if !ok {
		return 0, errorf(KindUnknownVariable, name2, "variable not allocated")
	}

	b.owners = append(b.owners, name1)
	b.refCount++
	e.names[name1] = b

	return b.start, nil
}

// removeBlock drops b from the allocation-ordered list, keeping the order of
// the rest.
func (e *Engine) removeBlock(b *Block) {
	for i, cur := range e.blocks {
		if cur == b {
			copy(e.blocks[i:], e.blocks[i+1:])
			e.blocks[len(e.blocks)-1] = nil
			e.blocks = e.blocks[:len(e.blocks)-1]
			return
		}
	}
}

func validateAllocation(size int, name string) error {
	switch {
	case size <= 0:
		return errorf(KindInvalidName, name, "size must be positive, got %d", size)
	case name == "":
		return errorf(KindInvalidName, name, "variable name cannot be empty")
	case name[0] >= '0' && name[0] <= '9':
		return errorf(KindInvalidName, name, "variable name cannot start with a digit")
	}
	return nil
}
