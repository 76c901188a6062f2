package alloc

// Compact slides every block toward address 0 in allocation order and leaves
// at most one free run, at the end of the space. Owners, reference counts and
// the allocation order are unchanged. It returns the number of blocks whose
// start address changed.
func (e *Engine) Compact() int {
	e.stats.Compactions++

	moved := 0
	offset := 0
	for _, b := range e.blocks {
		if b.start != offset {
			b.start = offset
			moved++
		}
		offset += b.size
	}

	e.free = e.free[:0]
	if offset < e.total {
		e.free = append(e.free, FreeRun{Start: offset, Size: e.total - offset})
	}

	e.occ.reset(offset)
	e.stats.BlocksMoved += moved

	return moved
}
